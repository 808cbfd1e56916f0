package dataimport_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/aggregates/contact"
	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/dataimport"
)

const sampleCSV = "Name,Email,Followers\n" +
	"Alice,alice@example.com,1.2k\n" +
	"Bob,not-an-email,300\n" +
	"Carol,carol@example.com,5k\n"

func newTestSession(t *testing.T) *dataimport.Session {
	t.Helper()
	s, err := dataimport.NewSession(sampleCSV, ',')
	require.NoError(t, err)
	return s
}

func emptyIndex() dataimport.ExistingIndex {
	return dataimport.BuildIndex(nil)
}

func indexWith(contacts ...contact.Contact) dataimport.ExistingIndex {
	return dataimport.BuildIndex(contacts)
}

func TestApplyMapping_MixedValidityUpload(t *testing.T) {
	s, err := dataimport.NewSession("name,email\nAlice,alice@x.com\nBob,not an email\n,carol@x.com\n", ',')
	require.NoError(t, err)
	require.NoError(t, s.ApplyMapping(nil))

	require.Len(t, s.Candidates(), 1)
	require.Equal(t, "alice@x.com", s.Candidates()[0].Email)

	require.Len(t, s.FailedRows(), 2)
	require.Equal(t, []dataimport.FieldError{{Header: "email", Message: "Invalid email format."}}, s.FailedRows()[0].Errors)
	require.Equal(t, []dataimport.FieldError{{Header: "name", Message: "Name is required."}}, s.FailedRows()[1].Errors)
}

func TestNewSession_GuessesMappingFromHeaders(t *testing.T) {
	s := newTestSession(t)
	require.Equal(t, dataimport.StageUploaded, s.Stage())
	require.Equal(t, dataimport.FieldName, s.Mapping()["Name"])
	require.Equal(t, dataimport.FieldEmail, s.Mapping()["Email"])
	require.Equal(t, dataimport.FieldFollowers, s.Mapping()["Followers"])
}

func TestNewSession_MalformedInput(t *testing.T) {
	_, err := dataimport.NewSession("just a header\n", ',')
	require.ErrorIs(t, err, dataimport.ErrMalformedInput)
}

func TestApplyMapping_PartitionsRows(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))

	require.Equal(t, dataimport.StageMapped, s.Stage())
	require.Len(t, s.Candidates(), 2)
	require.Len(t, s.FailedRows(), 1)
	require.Equal(t, 1, s.FailedRows()[0].RowIndex)
	require.Equal(t, []dataimport.FieldError{{Header: "Email", Message: "Invalid email format."}}, s.FailedRows()[0].Errors)
}

func TestApplyMapping_Remap(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))

	m := s.Mapping()
	m["Followers"] = dataimport.FieldIgnore
	require.NoError(t, s.ApplyMapping(m))
	require.Nil(t, s.Candidates()[0].Followers)
}

func TestApplyMapping_RejectedAfterReview(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.Review(emptyIndex()))

	err := s.ApplyMapping(nil)
	var stageErr *dataimport.InvalidStageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, dataimport.StageReviewed, stageErr.Stage)
}

func TestReview_ClassifiesCandidates(t *testing.T) {
	now := time.Now()
	existing := contact.Hydrate(uuid.New(), "Carol Old", "carol@example.com", "", nil, nil, "", "", now, now)

	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.Review(indexWith(existing)))

	require.Equal(t, dataimport.StageReviewed, s.Stage())
	require.Len(t, s.NewRecords(), 1)
	require.Len(t, s.Duplicates(), 1)
	require.Equal(t, "carol@example.com", s.Duplicates()[0].Candidate.Email)
	// Every duplicate defaults to update.
	require.Equal(t, dataimport.ResolutionUpdate, s.Duplicates()[0].Resolution)
}

func TestReview_CaseVariantRowsEachMatchSameExisting(t *testing.T) {
	now := time.Now()
	existing := contact.Hydrate(uuid.New(), "Alice Old", "alice@example.com", "", nil, nil, "", "", now, now)

	s, err := dataimport.NewSession(
		"Name,Email\nAlice,alice@example.com\nAlicia,ALICE@Example.COM\n", ',')
	require.NoError(t, err)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.Review(indexWith(existing)))

	// Both rows match the stored record, never each other.
	require.Empty(t, s.NewRecords())
	require.Len(t, s.Duplicates(), 2)
	require.Equal(t, existing.ID(), s.Duplicates()[0].Existing.ID())
	require.Equal(t, existing.ID(), s.Duplicates()[1].Existing.ID())
}

func TestSetResolution_OutOfRange(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.Review(emptyIndex()))
	require.Error(t, s.SetResolution(0, dataimport.ResolutionSkip))
}

func TestReviseRow_PromotesCleanRow(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.Review(emptyIndex()))

	fr, err := s.ReviseRow(1, 1, "bob@example.com")
	require.NoError(t, err)
	require.Nil(t, fr)
	require.Equal(t, dataimport.StageCorrecting, s.Stage())
	require.Empty(t, s.FailedRows())
	require.Len(t, s.Candidates(), 3)
	require.Len(t, s.NewRecords(), 3)
}

func TestReviseRow_ReturnsRefreshedErrors(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.Review(emptyIndex()))

	fr, err := s.ReviseRow(1, 1, "still wrong")
	require.NoError(t, err)
	require.NotNil(t, fr)
	require.Equal(t, "still wrong", fr.Cells[1])
	require.Equal(t, []dataimport.FieldError{{Header: "Email", Message: "Invalid email format."}}, fr.Errors)

	// The loop is re-entrant: a second revision of the same row works.
	fr, err = s.ReviseRow(1, 1, "bob@example.com")
	require.NoError(t, err)
	require.Nil(t, fr)
}

func TestReviseRow_PromotedRowMatchesReviewSnapshot(t *testing.T) {
	now := time.Now()
	existing := contact.Hydrate(uuid.New(), "Bob Old", "bob@example.com", "", nil, nil, "", "", now, now)

	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.Review(indexWith(existing)))

	fr, err := s.ReviseRow(1, 1, "bob@example.com")
	require.NoError(t, err)
	require.Nil(t, fr)
	require.Len(t, s.Duplicates(), 1)
	require.Equal(t, existing.ID(), s.Duplicates()[0].Existing.ID())
}

func TestReviseRow_UnknownRow(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.Review(emptyIndex()))

	_, err := s.ReviseRow(99, 0, "x")
	require.ErrorIs(t, err, dataimport.ErrRowNotFound)
}

func TestSkipRow(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.Review(emptyIndex()))

	require.NoError(t, s.SkipRow(1))
	require.Empty(t, s.FailedRows())
	require.ErrorIs(t, s.SkipRow(1), dataimport.ErrRowNotFound)
}

func TestBeginCommit_BlockedByFailedRows(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.Review(emptyIndex()))

	require.ErrorIs(t, s.BeginCommit(false), dataimport.ErrUnresolvedRows)

	// Force drops the remaining failures.
	require.NoError(t, s.BeginCommit(true))
	require.Equal(t, dataimport.StageCommitting, s.Stage())
	require.Empty(t, s.FailedRows())
}

func TestBeginCommit_FromMappedWithoutReview(t *testing.T) {
	s, err := dataimport.NewSession("Name,Email\nAlice,alice@example.com\n", ',')
	require.NoError(t, err)
	require.NoError(t, s.ApplyMapping(nil))

	// No review pass happened, so every candidate counts as new.
	require.NoError(t, s.BeginCommit(false))
	inserts, updates, err := s.Partition()
	require.NoError(t, err)
	require.Len(t, inserts, 1)
	require.Empty(t, updates)
}

func TestBeginCommit_FromMappedRequiresZeroFailures(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	require.Len(t, s.FailedRows(), 1)

	// Forcing does not widen the bypass: failed rows go through review.
	var stageErr *dataimport.InvalidStageError
	require.ErrorAs(t, s.BeginCommit(true), &stageErr)
	require.Equal(t, dataimport.StageMapped, stageErr.Stage)

	require.NoError(t, s.Review(emptyIndex()))
	require.NoError(t, s.BeginCommit(true))
	require.Equal(t, dataimport.StageCommitting, s.Stage())
}

func TestBeginCommit_RetryableWhileCommitting(t *testing.T) {
	s, err := dataimport.NewSession("Name,Email\nAlice,alice@example.com\n", ',')
	require.NoError(t, err)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.BeginCommit(false))
	require.NoError(t, s.BeginCommit(false))
}

func TestPartition_OnlyWhileCommitting(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	_, _, err := s.Partition()
	var stageErr *dataimport.InvalidStageError
	require.ErrorAs(t, err, &stageErr)
}

func TestFinish(t *testing.T) {
	s, err := dataimport.NewSession("Name,Email\nAlice,alice@example.com\n", ',')
	require.NoError(t, err)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.BeginCommit(false))
	s.Finish()
	require.Equal(t, dataimport.StageDone, s.Stage())
	require.Error(t, s.BeginCommit(false))
}

func TestBackToMapping_ResetsDerivedState(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyMapping(nil))
	require.NoError(t, s.Review(emptyIndex()))

	s.BackToMapping()
	require.Equal(t, dataimport.StageUploaded, s.Stage())
	require.Empty(t, s.Candidates())
	require.Empty(t, s.FailedRows())
	require.Empty(t, s.NewRecords())
	require.Empty(t, s.Duplicates())
	require.NotNil(t, s.Table())

	// The table survives, so the run can start over with a new mapping.
	require.NoError(t, s.ApplyMapping(nil))
	require.Len(t, s.Candidates(), 2)
}
