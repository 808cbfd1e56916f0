package dataimport

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage is the session's position in the pipeline. Transitions only move
// forward, except for the explicit BackToMapping operator action.
type Stage string

const (
	StageUploaded   Stage = "uploaded"
	StageMapped     Stage = "mapped"
	StageReviewed   Stage = "reviewed"
	StageCorrecting Stage = "correcting"
	StageCommitting Stage = "committing"
	StageDone       Stage = "done"
)

var (
	ErrRowNotFound    = errors.New("row not found in failed set")
	ErrUnresolvedRows = errors.New("failed rows remain; correct, skip, or force commit")
)

// InvalidStageError reports an operation attempted at the wrong stage.
type InvalidStageError struct {
	Op    string
	Stage Stage
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("cannot %s at stage %q", e.Op, e.Stage)
}

// FailedRow retains the original raw cells of a row that failed validation,
// so the operator edits source-shaped text, plus its current field errors.
type FailedRow struct {
	RowIndex int
	Cells    []string
	Errors   []FieldError
}

// Session is the aggregate root of one import run. It exclusively owns the
// parsed table, the mapping, the candidate/failed partition and the
// duplicate list until commit; it is transient and never persisted.
type Session struct {
	id        uuid.UUID
	table     *RawTable
	mapping   Mapping
	stage     Stage
	createdAt time.Time

	candidates []*Candidate
	failed     []*FailedRow

	index      ExistingIndex
	reviewed   bool
	fresh      []*Candidate
	duplicates []*Duplicate
}

// NewSession parses the raw text and seeds the mapping with the header
// guesser. Fails with ErrMalformedInput when no usable header and data rows
// remain.
func NewSession(text string, delim rune) (*Session, error) {
	table, err := ParseTable(text, delim)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:        uuid.New(),
		table:     table,
		mapping:   GuessMapping(table.Headers),
		stage:     StageUploaded,
		createdAt: time.Now(),
	}, nil
}

func (s *Session) ID() uuid.UUID          { return s.id }
func (s *Session) Stage() Stage           { return s.stage }
func (s *Session) CreatedAt() time.Time   { return s.createdAt }
func (s *Session) Table() *RawTable       { return s.table }
func (s *Session) Mapping() Mapping       { return s.mapping }
func (s *Session) Candidates() []*Candidate { return s.candidates }
func (s *Session) FailedRows() []*FailedRow { return s.failed }
func (s *Session) Duplicates() []*Duplicate { return s.duplicates }
func (s *Session) NewRecords() []*Candidate { return s.fresh }

// ApplyMapping validates every row under the given mapping (nil keeps the
// current one) and partitions the table into candidates and failed rows.
// All rows are validated in one pass so corrections can be batched.
func (s *Session) ApplyMapping(m Mapping) error {
	if s.stage != StageUploaded && s.stage != StageMapped {
		return &InvalidStageError{Op: "apply mapping", Stage: s.stage}
	}
	if m != nil {
		s.mapping = m
	}

	s.candidates = nil
	s.failed = nil
	for i, row := range s.table.Rows {
		c, errs := Normalize(s.table.Headers, row, i, s.mapping)
		if len(errs) > 0 {
			cells := make([]string, len(row))
			copy(cells, row)
			s.failed = append(s.failed, &FailedRow{RowIndex: i, Cells: cells, Errors: errs})
			continue
		}
		s.candidates = append(s.candidates, c)
	}
	s.stage = StageMapped
	return nil
}

// Review matches every candidate against the existing-contact index and
// classifies it as new or duplicate. The index is kept so rows promoted by
// the correction loop are matched under the same snapshot.
func (s *Session) Review(index ExistingIndex) error {
	if s.stage != StageMapped {
		return &InvalidStageError{Op: "review", Stage: s.stage}
	}
	s.index = index
	s.reviewed = true
	s.fresh = nil
	s.duplicates = nil
	for _, c := range s.candidates {
		s.classify(c)
	}
	s.stage = StageReviewed
	return nil
}

func (s *Session) classify(c *Candidate) {
	if existing, ok := s.index.Match(c); ok {
		s.duplicates = append(s.duplicates, &Duplicate{Candidate: c, Existing: existing})
		return
	}
	s.fresh = append(s.fresh, c)
}

// SetResolution records the operator's choice for one duplicate.
func (s *Session) SetResolution(index int, r Resolution) error {
	if s.stage != StageReviewed && s.stage != StageCorrecting {
		return &InvalidStageError{Op: "set resolution", Stage: s.stage}
	}
	if index < 0 || index >= len(s.duplicates) {
		return fmt.Errorf("duplicate %d out of range", index)
	}
	s.duplicates[index].Resolution = r
	return nil
}

// ReviseRow replaces one cell of a failed row and re-validates just that
// row. A row that comes back clean is promoted to a candidate (and matched,
// if the session has been reviewed); otherwise the refreshed errors are
// returned for another pass. The original table is never mutated.
func (s *Session) ReviseRow(rowIndex, column int, value string) (*FailedRow, error) {
	if s.stage != StageReviewed && s.stage != StageCorrecting {
		return nil, &InvalidStageError{Op: "revise row", Stage: s.stage}
	}
	fr := s.failedRow(rowIndex)
	if fr == nil {
		return nil, ErrRowNotFound
	}
	if column < 0 || column >= len(fr.Cells) {
		return nil, fmt.Errorf("column %d out of range", column)
	}
	s.stage = StageCorrecting

	fr.Cells[column] = value
	c, errs := Normalize(s.table.Headers, fr.Cells, fr.RowIndex, s.mapping)
	if len(errs) > 0 {
		fr.Errors = errs
		return fr, nil
	}

	s.removeFailed(rowIndex)
	s.candidates = append(s.candidates, c)
	if s.reviewed {
		s.classify(c)
	}
	return nil, nil
}

// SkipRow discards a failed row for good.
func (s *Session) SkipRow(rowIndex int) error {
	if s.stage != StageReviewed && s.stage != StageCorrecting {
		return &InvalidStageError{Op: "skip row", Stage: s.stage}
	}
	if s.failedRow(rowIndex) == nil {
		return ErrRowNotFound
	}
	s.stage = StageCorrecting
	s.removeFailed(rowIndex)
	return nil
}

// BeginCommit moves the session into Committing. Valid from Mapped when
// there is nothing to review or correct, from Reviewed when there are no
// failures, and from Correcting once every failed row was corrected or
// skipped — or force, which treats the remainder as skipped.
func (s *Session) BeginCommit(force bool) error {
	switch s.stage {
	case StageMapped:
		// The direct bypass is only valid when there is nothing to review
		// or correct; failed rows must go through the review stage first,
		// even when forcing.
		if len(s.duplicates) > 0 || len(s.failed) > 0 {
			return &InvalidStageError{Op: "commit", Stage: s.stage}
		}
		// Without a review pass every candidate is new.
		if !s.reviewed {
			s.fresh = s.candidates
		}
	case StageReviewed, StageCorrecting:
	case StageCommitting:
		// Retry after a repository outage.
	default:
		return &InvalidStageError{Op: "commit", Stage: s.stage}
	}

	if len(s.failed) > 0 {
		if !force {
			return ErrUnresolvedRows
		}
		s.failed = nil
	}
	s.stage = StageCommitting
	return nil
}

// Partition resolves the duplicate list and returns the final insert and
// update sets. Only valid while committing.
func (s *Session) Partition() ([]Insert, []Update, error) {
	if s.stage != StageCommitting {
		return nil, nil, &InvalidStageError{Op: "partition", Stage: s.stage}
	}
	inserts, updates := Resolve(s.fresh, s.duplicates)
	return inserts, updates, nil
}

// Finish marks the session Done.
func (s *Session) Finish() {
	s.stage = StageDone
}

// BackToMapping is the explicit backward transition: all derived state
// (candidates, failures, duplicates) is reset, the raw table survives.
func (s *Session) BackToMapping() {
	s.candidates = nil
	s.failed = nil
	s.fresh = nil
	s.duplicates = nil
	s.reviewed = false
	s.index = ExistingIndex{}
	s.stage = StageUploaded
}

func (s *Session) failedRow(rowIndex int) *FailedRow {
	for _, fr := range s.failed {
		if fr.RowIndex == rowIndex {
			return fr
		}
	}
	return nil
}

func (s *Session) removeFailed(rowIndex int) {
	for i, fr := range s.failed {
		if fr.RowIndex == rowIndex {
			s.failed = append(s.failed[:i], s.failed[i+1:]...)
			return
		}
	}
}
