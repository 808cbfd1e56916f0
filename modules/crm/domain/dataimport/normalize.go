package dataimport

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FieldError associates a source header (or a synthesized key when no column
// maps to the field) with a human-readable violation.
type FieldError struct {
	Header  string `json:"header"`
	Message string `json:"message"`
}

// Candidate is a row that passed validation, carrying its source row index
// as provenance. It is immutable once handed to the duplicate matcher.
type Candidate struct {
	RowIndex  int
	Name      string
	Email     string
	Handle    string
	Followers *int64
	Tags      []string
	Bio       string
	Notes     string
}

var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// emailNotFoundSentinels are cell values that explicitly mark a missing
// address in the wild exports this pipeline ingests. A sentinel clears the
// field instead of erroring, and waives the required-email rule for the row.
var emailNotFoundSentinels = map[string]bool{
	"not found": true,
	"notfound":  true,
	"n/a":       true,
	"na":        true,
	"none":      true,
	"no email":  true,
	"-":         true,
}

// Normalize converts one raw row into a Candidate or a list of field
// errors. Coercion runs per column in order; when several columns map to the
// same single-valued field the last column wins, while free-text targets
// (bio, notes) concatenate. Validation rules run after coercion and
// independently of each other, so every applicable error surfaces at once.
func Normalize(headers []string, row []string, rowIndex int, m Mapping) (*Candidate, []FieldError) {
	c := &Candidate{RowIndex: rowIndex}

	emailHeader := ""
	nameHeader := ""
	emailSentinel := false

	for i, header := range headers {
		if i >= len(row) {
			break
		}
		cell := row[i]
		switch m[header] {
		case FieldName:
			nameHeader = header
			c.Name = strings.TrimSpace(cell)
		case FieldEmail:
			emailHeader = header
			email, overflow, sentinel := coerceEmail(cell)
			c.Email = email
			emailSentinel = sentinel
			if overflow != "" {
				c.Notes = appendLine(c.Notes, overflow)
			}
		case FieldHandle:
			c.Handle = coerceHandle(cell)
		case FieldFollowers:
			c.Followers = coerceCount(cell)
		case FieldTags:
			c.Tags = coerceTags(cell)
		case FieldBio:
			c.Bio = appendLine(c.Bio, strings.TrimSpace(cell))
		case FieldNotes:
			c.Notes = appendLine(c.Notes, strings.TrimSpace(cell))
		case FieldIgnore:
		}
	}

	if emailHeader == "" {
		emailHeader = "email"
	}
	if nameHeader == "" {
		nameHeader = "name"
	}

	var errs []FieldError
	if c.Name == "" {
		errs = append(errs, FieldError{Header: nameHeader, Message: "Name is required."})
	}
	if c.Email == "" && !emailSentinel {
		errs = append(errs, FieldError{Header: emailHeader, Message: "Email is required for this row."})
	}
	if c.Email != "" && !emailShape.MatchString(c.Email) {
		errs = append(errs, FieldError{Header: emailHeader, Message: "Invalid email format."})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return c, nil
}

// coerceEmail returns the primary address, any overflow provenance text for
// the notes field, and whether the cell matched the not-found sentinel.
// When a cell carries several address-like tokens the first is the primary
// value and the rest are preserved as free text, never silently dropped.
func coerceEmail(cell string) (email, overflow string, sentinel bool) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return "", "", false
	}
	if emailNotFoundSentinels[strings.ToLower(trimmed)] {
		return "", "", true
	}

	tokens := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '\t' || r == '\n'
	})
	var addresses []string
	for _, tok := range tokens {
		if emailShape.MatchString(tok) {
			addresses = append(addresses, tok)
		}
	}
	if len(addresses) == 0 {
		// Not email-shaped at all: keep the raw text so validation reports
		// the format violation instead of hiding it.
		return trimmed, "", false
	}
	if len(addresses) > 1 {
		overflow = "Other emails: " + strings.Join(addresses[1:], ", ")
	}
	return strings.ToLower(addresses[0]), overflow, false
}

// coerceHandle extracts the profile handle from an Instagram URL and
// re-prefixes it with @; anything else passes through unchanged.
func coerceHandle(cell string) string {
	trimmed := strings.TrimSpace(cell)
	idx := strings.Index(trimmed, "instagram.com/")
	if idx < 0 {
		return trimmed
	}
	handle := trimmed[idx+len("instagram.com/"):]
	if cut := strings.IndexAny(handle, "/?#"); cut >= 0 {
		handle = handle[:cut]
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return trimmed
	}
	return "@" + handle
}

// coerceCount parses follower-count text: thousands separators are
// stripped, a trailing k/m multiplies by 1e3/1e6, and the result is floored.
// Unparseable values yield nil, not an error.
func coerceCount(cell string) *int64 {
	s := strings.ToLower(strings.TrimSpace(cell))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		multiplier = 1_000
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	case strings.HasSuffix(s, "m"):
		multiplier = 1_000_000
		s = strings.TrimSpace(strings.TrimSuffix(s, "m"))
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int64(math.Floor(f * multiplier))
	return &n
}

// coerceTags splits on comma, trims, drops empties and de-duplicates by
// exact match while preserving first-seen order.
func coerceTags(cell string) []string {
	var tags []string
	seen := map[string]bool{}
	for _, part := range strings.Split(cell, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func appendLine(existing, addition string) string {
	if addition == "" {
		return existing
	}
	if existing == "" {
		return addition
	}
	return existing + "\n" + addition
}
