// Package assessment wraps the Scheduler (C2) for callers: records one
// attempt outcome and returns the updated state plus a feedback shape,
// and derives a session-level roll-up with no extra persistence.
package assessment

import (
	"context"
	"time"

	"github.com/example/bilingualtutor/internal/errs"
	"github.com/example/bilingualtutor/internal/models"
	"github.com/example/bilingualtutor/internal/scheduler"
)

// Store is the subset of internal/store.Pool assessment needs.
type Store interface {
	GetLearningRecord(ctx context.Context, userID string, itemID int64, kind models.Kind) (*models.LearningRecord, error)
	UpsertLearningRecord(ctx context.Context, rec models.LearningRecord) error
}

// Severity grades how well an attempt went, for the front end to
// render (spec §4.5); computed purely from correct and memory_strength.
type Severity string

const (
	SeverityExcellent Severity = "excellent"
	SeverityGood      Severity = "good"
	SeverityFair      Severity = "fair"
	SeverityPoor      Severity = "poor"
)

// FeedbackShape is the small descriptor the front end renders.
type FeedbackShape struct {
	Severity     Severity `json:"severity"`
	MessageID    string   `json:"message_id"`
	MessageIDJP  string   `json:"message_id_ja"`
	Recorded     bool     `json:"recorded"`
}

// AttemptResult is what record_attempt returns (spec §4.5).
type AttemptResult struct {
	Record       models.LearningRecord `json:"new_record"`
	NextReviewAt time.Time             `json:"next_review_at"`
	Feedback     FeedbackShape         `json:"feedback_shape"`
}

// Assessor implements the record_attempt and evaluate_session_outcome
// operations.
type Assessor struct {
	store Store
}

// New builds an Assessor over store.
func New(store Store) *Assessor {
	return &Assessor{store: store}
}

// RecordAttempt reads the current record (or null), asks the Scheduler
// for the next state, and writes it back in a single upsert (spec
// §4.5). When the write fails it returns the prior record unchanged
// (a record carrying only the user, item and kind when there was none)
// with Feedback.Recorded = false, per spec §7's user-visible behavior.
// A failure reading the current record is returned as an error.
func (a *Assessor) RecordAttempt(ctx context.Context, userID string, itemID int64, kind models.Kind, correct bool, now time.Time) (AttemptResult, error) {
	if userID == "" {
		return AttemptResult{}, errs.InvalidInputf("user_id is required")
	}
	if !kind.Valid() {
		return AttemptResult{}, errs.InvalidInputf("invalid kind %q", kind)
	}

	current, err := a.store.GetLearningRecord(ctx, userID, itemID, kind)
	if err != nil && !errs.Is(err, errs.NotFound) {
		return AttemptResult{}, err
	}

	next := scheduler.Update(current, userID, itemID, kind, correct, now)

	if writeErr := a.store.UpsertLearningRecord(ctx, next); writeErr != nil {
		unchanged := models.LearningRecord{UserID: userID, ItemID: itemID, Kind: kind}
		if current != nil {
			unchanged = *current
		}
		return AttemptResult{
			Record:       unchanged,
			NextReviewAt: unchanged.NextReviewAt,
			Feedback:     feedbackFor(correct, unchanged.MemoryStrength, false),
		}, nil
	}

	return AttemptResult{
		Record:       next,
		NextReviewAt: next.NextReviewAt,
		Feedback:     feedbackFor(correct, next.MemoryStrength, true),
	}, nil
}

func feedbackFor(correct bool, memoryStrength float64, recorded bool) FeedbackShape {
	var severity Severity
	var id, idJP string

	switch {
	case !correct:
		severity, id, idJP = SeverityPoor, "feedback.poor", "feedback.poor.ja"
	case memoryStrength >= 0.9:
		severity, id, idJP = SeverityExcellent, "feedback.excellent", "feedback.excellent.ja"
	case memoryStrength >= 0.7:
		severity, id, idJP = SeverityGood, "feedback.good", "feedback.good.ja"
	default:
		severity, id, idJP = SeverityFair, "feedback.fair", "feedback.fair.ja"
	}

	return FeedbackShape{Severity: severity, MessageID: id, MessageIDJP: idJP, Recorded: recorded}
}

// SessionOutcome mirrors session.Outcome so assessment does not need to
// import internal/session; evaluate_session_outcome computes it
// directly from LearningRecords touched inside the session window.
type SessionOutcome struct {
	ItemsAttempted int     `json:"items_attempted"`
	ItemsCorrect   int     `json:"items_correct"`
	HitRate        float64 `json:"hit_rate"`
}

// RecordsByLastReview is implemented by the store to list records whose
// last_review_at falls within a window, for evaluate_session_outcome.
type RecordsByLastReview interface {
	RecordsReviewedBetween(ctx context.Context, userID string, from, to time.Time) ([]models.LearningRecord, error)
}

// EvaluateSessionOutcome derives counts and rates from LearningRecords
// whose last_review_at falls inside [from, to]. No persistence (spec
// §4.5).
func EvaluateSessionOutcome(ctx context.Context, store RecordsByLastReview, userID string, from, to time.Time) (SessionOutcome, error) {
	if userID == "" {
		return SessionOutcome{}, errs.InvalidInputf("user_id is required")
	}

	records, err := store.RecordsReviewedBetween(ctx, userID, from, to)
	if err != nil {
		return SessionOutcome{}, err
	}

	out := SessionOutcome{ItemsAttempted: len(records)}
	for _, r := range records {
		if r.ConsecutiveCorrect > 0 {
			out.ItemsCorrect++
		}
	}
	if out.ItemsAttempted > 0 {
		out.HitRate = float64(out.ItemsCorrect) / float64(out.ItemsAttempted)
	}
	return out, nil
}
