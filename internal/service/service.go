// Package service exposes the five Service API operations (spec §4.6)
// as a transport-neutral surface: start_session, get_due,
// submit_attempt, progress, ingest_run. Every call runs under a hard
// per-call deadline; every call except ingest_run validates its inputs
// into errs.InvalidInput.
package service

import (
	"context"
	"time"

	"github.com/example/bilingualtutor/internal/assessment"
	"github.com/example/bilingualtutor/internal/errs"
	"github.com/example/bilingualtutor/internal/ingest"
	"github.com/example/bilingualtutor/internal/logger"
	"github.com/example/bilingualtutor/internal/models"
	"github.com/example/bilingualtutor/internal/scheduler"
	"github.com/example/bilingualtutor/internal/session"
	"github.com/example/bilingualtutor/internal/store"
)

// Store is the full persistence surface the Service needs.
type Store interface {
	session.Store
	GetLearningRecord(ctx context.Context, userID string, itemID int64, kind models.Kind) (*models.LearningRecord, error)
	UpsertLearningRecord(ctx context.Context, rec models.LearningRecord) error
	DueRecords(ctx context.Context, userID string, asOf time.Time, limit int) ([]models.LearningRecord, error)
	Progress(ctx context.Context, userID string, now time.Time) (store.ProgressStats, error)
	BatchInsertItems(ctx context.Context, items []models.Item) (inserted int, skipped int, err error)
}

// Service wires together the Session Engine, Assessment Surface, and
// Ingest Pipeline over a shared Store.
type Service struct {
	store         Store
	planner       *session.Planner
	assessor      *assessment.Assessor
	log           *logger.Logger
	deadline      time.Duration
	ingestDeadline time.Duration
}

// New builds a Service. ingestDeadline bounds IngestRun separately from
// deadline, since a crawl run legitimately takes far longer than a
// single interactive call but spec §5 still requires it be bounded.
func New(st Store, log *logger.Logger, reviewShare, languageBalance float64, deadline, ingestDeadline time.Duration) *Service {
	if deadline <= 0 {
		deadline = 5 * time.Second
	}
	if ingestDeadline <= 0 {
		ingestDeadline = 5 * time.Minute
	}
	return &Service{
		store:          st,
		planner:        session.NewPlanner(st, log, reviewShare, languageBalance),
		assessor:       assessment.New(st),
		log:            log,
		deadline:       deadline,
		ingestDeadline: ingestDeadline,
	}
}

func (s *Service) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.deadline)
}

// StartSession implements start_session. A failed start returns an
// empty plan rather than propagating (spec §7's user-visible behavior):
// the caller may retry.
func (s *Service) StartSession(ctx context.Context, userID string, overrides session.Overrides) (*models.Session, error) {
	if userID == "" {
		return nil, errs.InvalidInputf("user_id is required")
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	sess, err := s.planner.Plan(ctx, userID, overrides, time.Now())
	if err != nil {
		if s.log != nil {
			s.log.WithContext(ctx).Warnf("start_session failed for %s: %v", userID, err)
		}
		return &models.Session{UserID: userID, StartedAt: time.Now()}, nil
	}
	return sess, nil
}

// GetDue implements get_due.
func (s *Service) GetDue(ctx context.Context, userID string, kind models.Kind, limit int) ([]models.LearningRecord, error) {
	if userID == "" {
		return nil, errs.InvalidInputf("user_id is required")
	}
	if limit < 0 {
		return nil, errs.InvalidInputf("limit must be >= 0")
	}
	if kind != "" && !kind.Valid() {
		return nil, errs.InvalidInputf("invalid kind %q", kind)
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	records, err := s.store.DueRecords(ctx, userID, time.Now(), 0)
	if err != nil {
		return nil, err
	}
	scheduler.SortDue(records)

	if kind != "" {
		filtered := make([]models.LearningRecord, 0, len(records))
		for _, r := range records {
			if r.Kind == kind {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// SubmitAttempt implements submit_attempt.
func (s *Service) SubmitAttempt(ctx context.Context, userID string, itemID int64, kind models.Kind, correct bool) (assessment.AttemptResult, error) {
	if userID == "" {
		return assessment.AttemptResult{}, errs.InvalidInputf("user_id is required")
	}
	if !kind.Valid() {
		return assessment.AttemptResult{}, errs.InvalidInputf("invalid kind %q", kind)
	}
	if itemID <= 0 {
		return assessment.AttemptResult{}, errs.InvalidInputf("item_id must be positive")
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	return s.assessor.RecordAttempt(ctx, userID, itemID, kind, correct, time.Now())
}

// Progress implements progress.
func (s *Service) Progress(ctx context.Context, userID string) (store.ProgressStats, error) {
	if userID == "" {
		return store.ProgressStats{}, errs.InvalidInputf("user_id is required")
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	return s.store.Progress(ctx, userID, time.Now())
}

// IngestRun implements ingest_run.
func (s *Service) IngestRun(ctx context.Context, sources []ingest.Source, incremental bool, batchSize int) ingest.Stats {
	ctx, cancel := context.WithTimeout(ctx, s.ingestDeadline)
	defer cancel()

	pipeline := ingest.NewPipeline(s.store, s.log, ingest.Config{BatchSize: batchSize, Incremental: incremental})
	return pipeline.Run(ctx, sources)
}
