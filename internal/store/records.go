package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/bilingualtutor/internal/errs"
	"github.com/example/bilingualtutor/internal/models"
)

// GetLearningRecord returns the (user, item, kind) record, or
// errs.NotFound if the triple has never been reviewed. kind is part of
// the lookup because item_id is only unique within its own kind's
// table (spec §3): vocabulary item 1 and grammar item 1 are different
// items that happen to share an id.
func (p *Pool) GetLearningRecord(ctx context.Context, userID string, itemID int64, kind models.Kind) (*models.LearningRecord, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var rec models.LearningRecord
	err = p.withTimed("get_learning_record", func() error {
		return p.db.Get(&rec, p.db.Rebind(`
			SELECT user_id, item_id, kind, learn_count, correct_count, consecutive_correct,
			       easiness_factor, memory_strength, mastery_level, last_review_at, next_review_at
			FROM learning_records WHERE user_id = ? AND item_id = ? AND kind = ?`), userID, itemID, kind)
	})
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("no learning record for user %s item %d kind %s", userID, itemID, kind)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Transient, err, "get learning record")
	}
	return &rec, nil
}

// UpsertLearningRecord writes rec, idempotent on identical repeated
// inputs (spec invariant: replaying the same attempt outcome twice does
// not double-count it beyond what Update already computed).
func (p *Pool) UpsertLearningRecord(ctx context.Context, rec models.LearningRecord) error {
	release, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return p.withTimed("upsert_learning_record", func() error {
		return p.upsertRecordTx(p.db, rec)
	})
}

func (p *Pool) upsertRecordTx(db rebindExecer, rec models.LearningRecord) error {
	var query string
	switch p.driver {
	case "postgres":
		query = `
			INSERT INTO learning_records
				(user_id, item_id, kind, learn_count, correct_count, consecutive_correct,
				 easiness_factor, memory_strength, mastery_level, last_review_at, next_review_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, item_id, kind) DO UPDATE SET
				learn_count = EXCLUDED.learn_count,
				correct_count = EXCLUDED.correct_count,
				consecutive_correct = EXCLUDED.consecutive_correct,
				easiness_factor = EXCLUDED.easiness_factor,
				memory_strength = EXCLUDED.memory_strength,
				mastery_level = EXCLUDED.mastery_level,
				last_review_at = EXCLUDED.last_review_at,
				next_review_at = EXCLUDED.next_review_at`
	default:
		query = `
			INSERT INTO learning_records
				(user_id, item_id, kind, learn_count, correct_count, consecutive_correct,
				 easiness_factor, memory_strength, mastery_level, last_review_at, next_review_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, item_id, kind) DO UPDATE SET
				learn_count = excluded.learn_count,
				correct_count = excluded.correct_count,
				consecutive_correct = excluded.consecutive_correct,
				easiness_factor = excluded.easiness_factor,
				memory_strength = excluded.memory_strength,
				mastery_level = excluded.mastery_level,
				last_review_at = excluded.last_review_at,
				next_review_at = excluded.next_review_at`
	}

	_, err := db.Exec(db.Rebind(query),
		rec.UserID, rec.ItemID, rec.Kind, rec.LearnCount, rec.CorrectCount, rec.ConsecutiveCorrect,
		rec.EasinessFactor, rec.MemoryStrength, rec.MasteryLevel, rec.LastReviewAt, rec.NextReviewAt)
	if err != nil {
		return errs.Wrap(errs.Transient, err, "upsert learning record")
	}
	return nil
}

// BatchUpsertLearningRecords writes every record inside one transaction;
// any row-level failure rolls back the whole batch (spec invariant:
// batch atomicity).
func (p *Pool) BatchUpsertLearningRecords(ctx context.Context, recs []models.LearningRecord) error {
	if len(recs) == 0 {
		return nil
	}

	release, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return p.withTimed("batch_upsert_learning_records", func() error {
		tx, txErr := p.db.Beginx()
		if txErr != nil {
			return errs.Wrap(errs.Transient, txErr, "begin batch upsert")
		}
		defer tx.Rollback()

		for _, rec := range recs {
			if upErr := p.upsertRecordTx(tx, rec); upErr != nil {
				return upErr
			}
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return errs.Wrap(errs.Transient, commitErr, "commit batch upsert")
		}
		return nil
	})
}

// dueRecordRow is the due-list projection: a LearningRecord joined
// against its item's headword/meaning/reading, so a review can render
// without a second query.
type dueRecordRow struct {
	models.LearningRecord
}

// DueRecords returns every record for userID whose next_review_at is at
// or before asOf, ordered per spec §4.1/§5: (next_review_at asc,
// memory_strength asc, item_id asc). limit <= 0 means unbounded.
func (p *Pool) DueRecords(ctx context.Context, userID string, asOf time.Time, limit int) ([]models.LearningRecord, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var rows []dueRecordRow
	err = p.withTimed("due_records", func() error {
		// Only items_vocabulary is joined for the headword/meaning/reading
		// projection; grammar and reading due rows carry that projection
		// empty (spec's projection is vocabulary-shaped - a reviewer
		// renders grammar/reading rows from their own item lookup).
		query := `
			SELECT r.user_id, r.item_id, r.kind, r.learn_count, r.correct_count, r.consecutive_correct,
			       r.easiness_factor, r.memory_strength, r.mastery_level, r.last_review_at, r.next_review_at,
			       COALESCE(v.headword, '') as headword, COALESCE(v.meaning, '') as meaning, COALESCE(v.reading, '') as reading
			FROM learning_records r
			LEFT JOIN items_vocabulary v ON r.kind = 'vocabulary' AND r.item_id = v.item_id
			WHERE r.user_id = ? AND r.next_review_at <= ?
			ORDER BY r.next_review_at ASC, r.memory_strength ASC, r.item_id ASC`
		args := []any{userID, asOf}
		if limit > 0 {
			query += " LIMIT ?"
			args = append(args, limit)
		}
		return p.db.Select(&rows, p.db.Rebind(query), args...)
	})
	if err != nil {
		return nil, errs.Wrap(errs.Transient, err, "select due records")
	}

	out := make([]models.LearningRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.LearningRecord)
	}
	return out, nil
}

// masteredThreshold is the mastery_level spec §4.2 calls "mastered":
// items at or above it are excluded from new-item ("learn") selection.
const masteredThreshold = 3

// MasteredItemIDs returns the item_ids of kind already at or above
// masteredThreshold for userID, so the planner can exclude them from
// new-item picks (spec §4.2's "exclude mastered" requirement).
func (p *Pool) MasteredItemIDs(ctx context.Context, userID string, kind models.Kind) ([]int64, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var ids []int64
	err = p.withTimed("mastered_item_ids", func() error {
		return p.db.Select(&ids, p.db.Rebind(
			`SELECT item_id FROM learning_records WHERE user_id = ? AND kind = ? AND mastery_level >= ?`),
			userID, kind, masteredThreshold)
	})
	if err != nil {
		return nil, errs.Wrap(errs.Transient, err, "select mastered item ids")
	}
	return ids, nil
}

// RecordsReviewedBetween returns records whose last_review_at falls in
// [from, to], for assessment.EvaluateSessionOutcome.
func (p *Pool) RecordsReviewedBetween(ctx context.Context, userID string, from, to time.Time) ([]models.LearningRecord, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var recs []models.LearningRecord
	err = p.withTimed("records_reviewed_between", func() error {
		return p.db.Select(&recs, p.db.Rebind(`
			SELECT user_id, item_id, kind, learn_count, correct_count, consecutive_correct,
			       easiness_factor, memory_strength, mastery_level, last_review_at, next_review_at
			FROM learning_records
			WHERE user_id = ? AND last_review_at >= ? AND last_review_at <= ?`), userID, from, to)
	})
	if err != nil {
		return nil, errs.Wrap(errs.Transient, err, "select records reviewed between")
	}
	return recs, nil
}

// ProgressStats is the rollup spec §4.1's Progress operation returns.
type ProgressStats struct {
	TotalItemsLearned int            `json:"total_items_learned"`
	MasteryCounts     map[int]int    `json:"mastery_counts"`
	DueCount          int            `json:"due_count"`
	ReviewsLast7Days  int            `json:"reviews_last_7_days"`
	AverageEasiness   float64        `json:"average_easiness"`
}

// Progress computes ProgressStats for userID as of now.
func (p *Pool) Progress(ctx context.Context, userID string, now time.Time) (ProgressStats, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return ProgressStats{}, err
	}
	defer release()

	stats := ProgressStats{MasteryCounts: map[int]int{}}
	err = p.withTimed("progress_stats", func() error {
		if err := p.db.Get(&stats.TotalItemsLearned, p.db.Rebind(
			`SELECT COUNT(*) FROM learning_records WHERE user_id = ?`), userID); err != nil {
			return err
		}

		var avg sql.NullFloat64
		if err := p.db.Get(&avg, p.db.Rebind(
			`SELECT AVG(easiness_factor) FROM learning_records WHERE user_id = ?`), userID); err != nil {
			return err
		}
		stats.AverageEasiness = avg.Float64

		if err := p.db.Get(&stats.DueCount, p.db.Rebind(
			`SELECT COUNT(*) FROM learning_records WHERE user_id = ? AND next_review_at <= ?`), userID, now); err != nil {
			return err
		}

		if err := p.db.Get(&stats.ReviewsLast7Days, p.db.Rebind(
			`SELECT COUNT(*) FROM learning_records WHERE user_id = ? AND last_review_at >= ?`),
			userID, now.AddDate(0, 0, -7)); err != nil {
			return err
		}

		var rows []struct {
			MasteryLevel int `db:"mastery_level"`
			N            int `db:"n"`
		}
		if err := p.db.Select(&rows, p.db.Rebind(
			`SELECT mastery_level, COUNT(*) as n FROM learning_records WHERE user_id = ? GROUP BY mastery_level`), userID); err != nil {
			return err
		}
		for _, r := range rows {
			stats.MasteryCounts[r.MasteryLevel] = r.N
		}
		return nil
	})
	if err != nil {
		return ProgressStats{}, errs.Wrap(errs.Transient, err, "compute progress")
	}
	return stats, nil
}
