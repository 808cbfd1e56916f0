package dataimport

import (
	"github.com/google/uuid"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/aggregates/contact"
)

// Resolution is the per-duplicate policy. The zero value is Update, which is
// the default for every detected duplicate.
type Resolution int

const (
	ResolutionUpdate Resolution = iota
	ResolutionSkip
	ResolutionInsertAsNew
)

func (r Resolution) String() string {
	switch r {
	case ResolutionSkip:
		return "skip"
	case ResolutionInsertAsNew:
		return "insert_as_new"
	default:
		return "update"
	}
}

// ParseResolution maps a policy name to its enum member.
func ParseResolution(name string) (Resolution, bool) {
	switch name {
	case "update":
		return ResolutionUpdate, true
	case "skip":
		return ResolutionSkip, true
	case "insert_as_new":
		return ResolutionInsertAsNew, true
	}
	return ResolutionUpdate, false
}

// Insert is a brand-new contact to commit, with its source row as provenance.
type Insert struct {
	RowIndex int
	Contact  contact.Contact
}

// Update is a merged replacement for an existing contact. RowIndex is the
// last source row that contributed to the merge.
type Update struct {
	RowIndex int
	ID       uuid.UUID
	Contact  contact.Contact
}

// Resolve applies each duplicate's resolution and partitions the accepted
// set into inserts and updates. Candidates with no match always insert.
// When several duplicates resolve to update against the same existing
// contact, they merge sequentially in source-row order, each onto the
// result of the previous merge.
func Resolve(fresh []*Candidate, duplicates []*Duplicate) ([]Insert, []Update) {
	inserts := make([]Insert, 0, len(fresh))
	for _, c := range fresh {
		inserts = append(inserts, Insert{RowIndex: c.RowIndex, Contact: c.ToContact()})
	}

	merged := map[uuid.UUID]contact.Contact{}
	order := make([]uuid.UUID, 0, len(duplicates))
	rowFor := map[uuid.UUID]int{}

	for _, d := range duplicates {
		switch d.Resolution {
		case ResolutionSkip:
			continue
		case ResolutionInsertAsNew:
			inserts = append(inserts, Insert{RowIndex: d.Candidate.RowIndex, Contact: d.Candidate.ToContact()})
		case ResolutionUpdate:
			base, ok := merged[d.Existing.ID()]
			if !ok {
				base = d.Existing
				order = append(order, d.Existing.ID())
			}
			merged[d.Existing.ID()] = mergeContact(base, d.Candidate)
			rowFor[d.Existing.ID()] = d.Candidate.RowIndex
		}
	}

	updates := make([]Update, 0, len(order))
	for _, id := range order {
		updates = append(updates, Update{RowIndex: rowFor[id], ID: id, Contact: merged[id]})
	}
	return inserts, updates
}

// ToContact converts a candidate into a fresh contact with no identity; the
// repository assigns one at insert time.
func (c *Candidate) ToContact() contact.Contact {
	return contact.New(c.Name, c.Email, c.Handle, c.Followers, c.Tags, c.Bio, c.Notes)
}

// mergeContact applies the field-level merge rule: a non-empty incoming
// value always overwrites, while an empty incoming value only overwrites an
// already-empty existing one. This keeps a sparse re-import from blanking
// out previously enriched data. The existing contact's identity and
// creation time are retained.
func mergeContact(existing contact.Contact, c *Candidate) contact.Contact {
	name := mergeString(existing.Name(), c.Name)
	email := mergeString(existing.Email(), c.Email)
	handle := mergeString(existing.Instagram(), c.Handle)
	bio := mergeString(existing.Bio(), c.Bio)
	notes := mergeString(existing.Notes(), c.Notes)

	followers := existing.Followers()
	if c.Followers != nil {
		followers = c.Followers
	}
	tags := existing.Tags()
	if len(c.Tags) > 0 {
		tags = c.Tags
	}

	return contact.Hydrate(
		existing.ID(),
		name,
		email,
		handle,
		followers,
		tags,
		bio,
		notes,
		existing.CreatedAt(),
		existing.UpdatedAt(),
	)
}

func mergeString(existing, incoming string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}
