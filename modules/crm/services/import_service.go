package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/aggregates/contact"
	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/dataimport"
	"github.com/dazedniteman/pathpal-crm/pkg/eventbus"
	"github.com/dazedniteman/pathpal-crm/pkg/metrics"
)

var ErrSessionNotFound = errors.New("import session not found")

// CommitFailure identifies one record that could not be committed, with
// enough detail (source row, contact name) to locate it.
type CommitFailure struct {
	RowIndex int    `json:"row_index"`
	Name     string `json:"name"`
	Reason   string `json:"reason"`
}

// ImportReport is the operator-facing outcome of a committed session.
type ImportReport struct {
	Parsed     int             `json:"parsed"`
	Clean      int             `json:"clean"`
	Failed     int             `json:"failed"`
	Duplicates int             `json:"duplicates"`
	Inserted   int             `json:"inserted"`
	Updated    int             `json:"updated"`
	Skipped    int             `json:"skipped"`
	Failures   []CommitFailure `json:"failures"`
}

// ImportCompletedEvent is published on the event bus after a session commits.
type ImportCompletedEvent struct {
	SessionID uuid.UUID
	Report    ImportReport
}

// ImportService owns the in-flight import sessions and drives each stage
// transition. Sessions are transient: they live in memory until committed,
// abandoned, or expired.
type ImportService struct {
	repo      contact.Repository
	publisher eventbus.EventBus
	logger    *logrus.Logger
	ttl       time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*dataimport.Session
}

func NewImportService(repo contact.Repository, publisher eventbus.EventBus, logger *logrus.Logger, ttl time.Duration) *ImportService {
	return &ImportService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		ttl:       ttl,
		sessions:  map[uuid.UUID]*dataimport.Session{},
	}
}

// Start parses the upload, seeds the mapping with the header guesser and
// runs the first validation pass under it.
func (s *ImportService) Start(raw string, delim rune) (*dataimport.Session, error) {
	session, err := dataimport.NewSession(raw, delim)
	if err != nil {
		return nil, err
	}
	if err := session.ApplyMapping(nil); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.evictExpiredLocked()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"session": session.ID(),
		"rows":    len(session.Table().Rows),
		"failed":  len(session.FailedRows()),
	}).Info("import session started")
	metrics.RecordImportValidation(len(session.Table().Rows), len(session.FailedRows()))

	return session, nil
}

func (s *ImportService) Get(id uuid.UUID) (*dataimport.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// SetMapping applies an operator-overridden mapping, re-deriving the
// candidate/failed partition. Sessions already past mapping go through
// BackToMapping first.
func (s *ImportService) SetMapping(id uuid.UUID, m dataimport.Mapping) (*dataimport.Session, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if session.Stage() != dataimport.StageUploaded && session.Stage() != dataimport.StageMapped {
		session.BackToMapping()
	}
	if err := session.ApplyMapping(m); err != nil {
		return nil, err
	}
	return session, nil
}

// Review snapshots the contact store, builds the identity index and
// classifies every candidate as new or duplicate.
func (s *ImportService) Review(ctx context.Context, id uuid.UUID) (*dataimport.Session, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list existing contacts: %w", err)
	}
	if err := session.Review(dataimport.BuildIndex(existing)); err != nil {
		return nil, err
	}
	metrics.RecordImportDuplicates(len(session.Duplicates()))
	return session, nil
}

func (s *ImportService) SetResolution(id uuid.UUID, index int, r dataimport.Resolution) error {
	session, err := s.Get(id)
	if err != nil {
		return err
	}
	return session.SetResolution(index, r)
}

func (s *ImportService) ReviseRow(id uuid.UUID, rowIndex, column int, value string) (*dataimport.FailedRow, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return session.ReviseRow(rowIndex, column, value)
}

func (s *ImportService) SkipRow(id uuid.UUID, rowIndex int) error {
	session, err := s.Get(id)
	if err != nil {
		return err
	}
	return session.SkipRow(rowIndex)
}

// Abandon discards an in-flight session.
func (s *ImportService) Abandon(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Commit partitions the accepted set and hands it to the repository. A
// failure on one record never blocks its siblings; per-record failures are
// collected into the report. A repository-level error aborts the commit and
// leaves the session committable again.
func (s *ImportService) Commit(ctx context.Context, id uuid.UUID, force bool) (ImportReport, error) {
	session, err := s.Get(id)
	if err != nil {
		return ImportReport{}, err
	}

	report := ImportReport{
		Parsed:     len(session.Table().Rows),
		Failed:     len(session.FailedRows()),
		Duplicates: len(session.Duplicates()),
	}
	report.Clean = len(session.Candidates())

	if err := session.BeginCommit(force); err != nil {
		return ImportReport{}, err
	}
	report.Skipped = report.Failed

	inserts, updates, err := session.Partition()
	if err != nil {
		return ImportReport{}, err
	}
	for _, d := range session.Duplicates() {
		if d.Resolution == dataimport.ResolutionSkip {
			report.Skipped++
		}
	}

	toInsert := make([]contact.Contact, len(inserts))
	for i, ins := range inserts {
		toInsert[i] = ins.Contact
	}
	created, insertErrs, err := s.repo.BulkCreate(ctx, toInsert)
	if err != nil {
		return ImportReport{}, fmt.Errorf("bulk insert: %w", err)
	}
	report.Inserted = len(created)
	for _, be := range insertErrs {
		report.Failures = append(report.Failures, CommitFailure{
			RowIndex: inserts[be.Index].RowIndex,
			Name:     inserts[be.Index].Contact.Name(),
			Reason:   be.Err.Error(),
		})
	}

	toUpdate := make([]contact.Update, len(updates))
	for i, up := range updates {
		toUpdate[i] = contact.Update{ID: up.ID, Contact: up.Contact}
	}
	updated, updateErrs, err := s.repo.BulkUpdate(ctx, toUpdate)
	if err != nil {
		return ImportReport{}, fmt.Errorf("bulk update: %w", err)
	}
	report.Updated = len(updated)
	for _, be := range updateErrs {
		report.Failures = append(report.Failures, CommitFailure{
			RowIndex: updates[be.Index].RowIndex,
			Name:     updates[be.Index].Contact.Name(),
			Reason:   be.Err.Error(),
		})
	}

	session.Finish()
	s.Abandon(id)
	metrics.RecordImportCommit(report.Inserted, report.Updated, len(report.Failures))
	s.logger.WithFields(logrus.Fields{
		"session":  id,
		"inserted": report.Inserted,
		"updated":  report.Updated,
		"failed":   len(report.Failures),
	}).Info("import session committed")
	s.publisher.Publish(&ImportCompletedEvent{SessionID: id, Report: report})

	return report, nil
}

// evictExpiredLocked drops sessions older than the TTL. Callers hold s.mu.
func (s *ImportService) evictExpiredLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.ttl)
	for id, session := range s.sessions {
		if session.CreatedAt().Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
