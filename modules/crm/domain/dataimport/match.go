package dataimport

import (
	"strings"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/aggregates/contact"
)

// ExistingIndex maps normalized identity keys (lower-cased email, lower-cased
// handle) to existing contacts. Built once per import session from the
// repository snapshot; read-only during matching.
type ExistingIndex struct {
	byEmail  map[string]contact.Contact
	byHandle map[string]contact.Contact
}

// BuildIndex inserts each existing contact under up to two keys. When both
// keys of a candidate collide with different contacts, the email-keyed match
// wins because it is resolved first.
func BuildIndex(existing []contact.Contact) ExistingIndex {
	ix := ExistingIndex{
		byEmail:  make(map[string]contact.Contact, len(existing)),
		byHandle: make(map[string]contact.Contact, len(existing)),
	}
	for _, c := range existing {
		if email := strings.ToLower(strings.TrimSpace(c.Email())); email != "" {
			ix.byEmail[email] = c
		}
		if handle := strings.ToLower(strings.TrimSpace(c.Instagram())); handle != "" {
			ix.byHandle[handle] = c
		}
	}
	return ix
}

// Match looks a candidate up by email, then by handle. Matching is exact,
// case-insensitive and single-pass; fuzzy matching is deliberately out of
// scope.
func (ix ExistingIndex) Match(c *Candidate) (contact.Contact, bool) {
	if email := strings.ToLower(strings.TrimSpace(c.Email)); email != "" {
		if existing, ok := ix.byEmail[email]; ok {
			return existing, true
		}
	}
	if handle := strings.ToLower(strings.TrimSpace(c.Handle)); handle != "" {
		if existing, ok := ix.byHandle[handle]; ok {
			return existing, true
		}
	}
	return contact.Contact{}, false
}

// Duplicate pairs a candidate with the existing contact it matched, plus the
// operator-chosen resolution.
type Duplicate struct {
	Candidate  *Candidate
	Existing   contact.Contact
	Resolution Resolution
}
