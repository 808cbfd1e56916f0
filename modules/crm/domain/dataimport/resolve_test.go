package dataimport_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/aggregates/contact"
	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/dataimport"
)

func existingContact() contact.Contact {
	followers := int64(5000)
	created := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return contact.Hydrate(
		uuid.New(),
		"Alice Original",
		"alice@example.com",
		"@alice",
		&followers,
		[]string{"vip"},
		"original bio",
		"original notes",
		created,
		created,
	)
}

func TestResolve_FreshCandidatesAlwaysInsert(t *testing.T) {
	fresh := []*dataimport.Candidate{
		{RowIndex: 0, Name: "Bob", Email: "bob@example.com"},
		{RowIndex: 2, Name: "Carol", Email: "carol@example.com"},
	}
	inserts, updates := dataimport.Resolve(fresh, nil)
	require.Len(t, inserts, 2)
	require.Empty(t, updates)
	require.Equal(t, 0, inserts[0].RowIndex)
	require.Equal(t, "bob@example.com", inserts[0].Contact.Email())
}

func TestResolve_SkipDropsCandidate(t *testing.T) {
	d := &dataimport.Duplicate{
		Candidate:  &dataimport.Candidate{RowIndex: 1, Name: "Alice", Email: "alice@example.com"},
		Existing:   existingContact(),
		Resolution: dataimport.ResolutionSkip,
	}
	inserts, updates := dataimport.Resolve(nil, []*dataimport.Duplicate{d})
	require.Empty(t, inserts)
	require.Empty(t, updates)
}

func TestResolve_InsertAsNewKeepsBothRecords(t *testing.T) {
	d := &dataimport.Duplicate{
		Candidate:  &dataimport.Candidate{RowIndex: 1, Name: "Alice Jr", Email: "alice@example.com"},
		Existing:   existingContact(),
		Resolution: dataimport.ResolutionInsertAsNew,
	}
	inserts, updates := dataimport.Resolve(nil, []*dataimport.Duplicate{d})
	require.Len(t, inserts, 1)
	require.Empty(t, updates)
	require.Equal(t, "Alice Jr", inserts[0].Contact.Name())
	require.Equal(t, uuid.Nil, inserts[0].Contact.ID())
}

func TestResolve_UpdateMergeAsymmetry(t *testing.T) {
	existing := existingContact()
	// Incoming row carries a new bio but no notes and no followers.
	d := &dataimport.Duplicate{
		Candidate: &dataimport.Candidate{
			RowIndex: 4,
			Name:     "Alice Updated",
			Email:    "alice@example.com",
			Bio:      "new bio",
		},
		Existing: existing,
	}
	inserts, updates := dataimport.Resolve(nil, []*dataimport.Duplicate{d})
	require.Empty(t, inserts)
	require.Len(t, updates, 1)

	merged := updates[0].Contact
	require.Equal(t, existing.ID(), updates[0].ID)
	require.Equal(t, 4, updates[0].RowIndex)
	// Non-empty incoming wins.
	require.Equal(t, "Alice Updated", merged.Name())
	require.Equal(t, "new bio", merged.Bio())
	// Empty incoming leaves enriched data alone.
	require.Equal(t, "original notes", merged.Notes())
	require.Equal(t, "@alice", merged.Instagram())
	require.NotNil(t, merged.Followers())
	require.Equal(t, int64(5000), *merged.Followers())
	require.Equal(t, []string{"vip"}, merged.Tags())
	require.Equal(t, existing.CreatedAt(), merged.CreatedAt())
}

func TestResolve_EmptyIncomingOverwritesOnlyEmptyExisting(t *testing.T) {
	created := time.Now()
	existing := contact.Hydrate(uuid.New(), "Alice", "alice@example.com", "", nil, nil, "", "", created, created)
	d := &dataimport.Duplicate{
		Candidate: &dataimport.Candidate{RowIndex: 0, Name: "Alice", Email: "alice@example.com"},
		Existing:  existing,
	}
	_, updates := dataimport.Resolve(nil, []*dataimport.Duplicate{d})
	require.Len(t, updates, 1)
	require.Empty(t, updates[0].Contact.Instagram())
	require.Nil(t, updates[0].Contact.Followers())
}

func TestResolve_SequentialMergeForRepeatedTarget(t *testing.T) {
	existing := existingContact()
	first := &dataimport.Duplicate{
		Candidate: &dataimport.Candidate{RowIndex: 2, Name: "Alice One", Email: "alice@example.com", Bio: "bio from row 2"},
		Existing:  existing,
	}
	second := &dataimport.Duplicate{
		Candidate: &dataimport.Candidate{RowIndex: 7, Name: "Alice Two", Email: "alice@example.com", Notes: "notes from row 7"},
		Existing:  existing,
	}

	_, updates := dataimport.Resolve(nil, []*dataimport.Duplicate{first, second})
	require.Len(t, updates, 1)

	merged := updates[0].Contact
	// Row 7 merged onto the result of row 2: row 2's bio survives because
	// row 7 left it empty, while row 7's non-empty fields win.
	require.Equal(t, "Alice Two", merged.Name())
	require.Equal(t, "bio from row 2", merged.Bio())
	require.Equal(t, "notes from row 7", merged.Notes())
	require.Equal(t, 7, updates[0].RowIndex)
}

func TestParseResolution(t *testing.T) {
	r, ok := dataimport.ParseResolution("insert_as_new")
	require.True(t, ok)
	require.Equal(t, dataimport.ResolutionInsertAsNew, r)

	_, ok = dataimport.ParseResolution("merge")
	require.False(t, ok)
}
