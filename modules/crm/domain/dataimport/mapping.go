package dataimport

import "strings"

// ContactField identifies the target field a source column feeds. Ignore is
// an explicit member rather than an absent entry, so a Mapping is total over
// the headers it was built from.
type ContactField int

const (
	FieldIgnore ContactField = iota
	FieldName
	FieldEmail
	FieldHandle
	FieldFollowers
	FieldTags
	FieldBio
	FieldNotes
)

var fieldNames = map[ContactField]string{
	FieldIgnore:    "ignore",
	FieldName:      "name",
	FieldEmail:     "email",
	FieldHandle:    "instagram",
	FieldFollowers: "followers",
	FieldTags:      "tags",
	FieldBio:       "bio",
	FieldNotes:     "notes",
}

func (f ContactField) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "ignore"
}

// ParseField maps a field name back to its enum member; unknown names map
// to FieldIgnore.
func ParseField(name string) ContactField {
	for field, n := range fieldNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return field
		}
	}
	return FieldIgnore
}

// Mapping associates each source header with a target field.
type Mapping map[string]ContactField

// guessRules is an ordered list: the first rule whose substring occurs in
// the normalized header wins. Order is load-bearing — "following" matches
// the "follow" rule before "ig" can claim it, and "username" hits the handle
// rules before "name". Operators can override the result, so the heuristic
// stays a plain cascade rather than a scoring model.
var guessRules = []struct {
	substr string
	field  ContactField
}{
	{"email", FieldEmail},
	{"instagram", FieldHandle},
	{"follow", FieldFollowers},
	{"ig", FieldHandle},
	{"handle", FieldHandle},
	{"username", FieldHandle},
	{"tag", FieldTags},
	{"label", FieldTags},
	{"bio", FieldBio},
	{"about", FieldBio},
	{"description", FieldBio},
	{"note", FieldNotes},
	{"comment", FieldNotes},
	{"name", FieldName},
}

// GuessMapping seeds a Mapping from header names. Unmatched headers map to
// FieldIgnore. No validation happens here; duplicate targets are legal and
// resolved deterministically (last column wins) by the normalizer.
func GuessMapping(headers []string) Mapping {
	m := make(Mapping, len(headers))
	for _, h := range headers {
		m[h] = guessField(h)
	}
	return m
}

func guessField(header string) ContactField {
	normalized := normalizeHeader(header)
	for _, rule := range guessRules {
		if strings.Contains(normalized, rule.substr) {
			return rule.field
		}
	}
	return FieldIgnore
}

func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
