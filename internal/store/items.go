package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/example/bilingualtutor/internal/errs"
	"github.com/example/bilingualtutor/internal/models"
)

// rebindExecer is the subset of *sqlx.DB / *sqlx.Tx that insertItemTx
// needs, so it can run unmodified inside BatchInsertItems' transaction.
type rebindExecer interface {
	Rebind(query string) string
	Exec(query string, args ...any) (sql.Result, error)
}

// tableFor returns the logical table backing kind.
func tableFor(kind models.Kind) string {
	switch kind {
	case models.KindVocabulary:
		return "items_vocabulary"
	case models.KindGrammar:
		return "items_grammar"
	case models.KindReading:
		return "items_reading"
	}
	return ""
}

// InsertItem inserts a single item, returning errs.Conflict if it
// collides with the (language, level, headword|pattern) uniqueness
// constraint (spec §3).
func (p *Pool) InsertItem(ctx context.Context, item *models.Item) error {
	release, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return p.withTimed("insert_item", func() error {
		return p.insertItemTx(p.db, item)
	})
}

func (p *Pool) insertItemTx(db rebindExecer, item *models.Item) error {
	if !item.Kind.Valid() {
		return errs.InvalidInputf("invalid item kind %q", item.Kind)
	}
	if !item.Language.Valid() {
		return errs.InvalidInputf("invalid language %q", item.Language)
	}

	var query string
	var args []any

	switch item.Kind {
	case models.KindVocabulary:
		query = db.Rebind(`INSERT INTO items_vocabulary (language, level, headword, reading, meaning, example, audio_ref)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		args = []any{item.Language, item.Level, item.Headword, item.Reading, item.Meaning, item.Example, item.AudioRef}
	case models.KindGrammar:
		examplesJSON, err := json.Marshal(item.ExampleList)
		if err != nil {
			return errs.Wrap(errs.InvalidInput, err, "encode example list")
		}
		query = db.Rebind(`INSERT INTO items_grammar (language, level, pattern, explanation, examples_json, audio_ref)
			VALUES (?, ?, ?, ?, ?, ?)`)
		args = []any{item.Language, item.Level, item.Pattern, item.Explanation, string(examplesJSON), item.AudioRef}
	case models.KindReading:
		query = db.Rebind(`INSERT INTO items_reading (language, level, title, body, audio_ref)
			VALUES (?, ?, ?, ?, ?)`)
		args = []any{item.Language, item.Level, item.Title, item.Body, item.AudioRef}
	default:
		return errs.InvalidInputf("unsupported item kind %q", item.Kind)
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.Wrap(errs.Conflict, err, "item already exists")
		}
		return errs.Wrap(errs.Transient, err, "insert item")
	}
	if id, err := result.LastInsertId(); err == nil {
		item.ItemID = id
	}
	return nil
}

// BatchInsertItems inserts items inside one transaction: any row-level
// failure rolls back the whole batch (spec invariant: batch atomicity).
// Items that collide with an existing unique key are skipped rather than
// aborting the batch, since ingest runs expect to re-see known items.
func (p *Pool) BatchInsertItems(ctx context.Context, items []models.Item) (inserted int, skipped int, err error) {
	if len(items) == 0 {
		return 0, 0, nil
	}

	release, err := p.acquire(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer release()

	err = p.withTimed("batch_insert_items", func() error {
		tx, txErr := p.db.Beginx()
		if txErr != nil {
			return errs.Wrap(errs.Transient, txErr, "begin batch insert")
		}
		defer tx.Rollback()

		for i := range items {
			if insErr := p.insertItemTx(tx, &items[i]); insErr != nil {
				if errs.Is(insErr, errs.Conflict) {
					skipped++
					continue
				}
				return insErr
			}
			inserted++
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return errs.Wrap(errs.Transient, commitErr, "commit batch insert")
		}
		return nil
	})

	if err != nil {
		return 0, 0, err
	}
	return inserted, skipped, nil
}

// SelectVocabulary returns up to limit vocabulary items for a
// language/level not already present in excludeItemIDs, ordered
// randomly (the teacher's ORDER BY RANDOM() selection idiom).
func (p *Pool) SelectVocabulary(ctx context.Context, language models.Language, level models.Level, excludeItemIDs []int64, limit int) ([]models.Item, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var items []models.Item
	err = p.withTimed("select_vocabulary", func() error {
		query, args := buildExcludeQuery(
			`SELECT item_id, 'vocabulary' as kind, language, level, headword, reading, meaning, example, audio_ref, created_at
			 FROM items_vocabulary WHERE language = ? AND level = ?`,
			language, level, excludeItemIDs, limit,
		)
		return p.db.Select(&items, p.db.Rebind(query), args...)
	})
	if err != nil {
		return nil, errs.Wrap(errs.Transient, err, "select vocabulary")
	}
	return items, nil
}

// SelectGrammar mirrors SelectVocabulary for grammar items.
func (p *Pool) SelectGrammar(ctx context.Context, language models.Language, level models.Level, excludeItemIDs []int64, limit int) ([]models.Item, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var rows []struct {
		models.Item
	}
	err = p.withTimed("select_grammar", func() error {
		query, args := buildExcludeQuery(
			`SELECT item_id, 'grammar' as kind, language, level, pattern, explanation, examples_json, audio_ref, created_at
			 FROM items_grammar WHERE language = ? AND level = ?`,
			language, level, excludeItemIDs, limit,
		)
		return p.db.Select(&rows, p.db.Rebind(query), args...)
	})
	if err != nil {
		return nil, errs.Wrap(errs.Transient, err, "select grammar")
	}

	items := make([]models.Item, 0, len(rows))
	for _, r := range rows {
		item := r.Item
		_ = json.Unmarshal([]byte(item.ExamplesJSON), &item.ExampleList)
		items = append(items, item)
	}
	return items, nil
}

// SelectReading returns reading items for a language/level.
func (p *Pool) SelectReading(ctx context.Context, language models.Language, level models.Level, excludeItemIDs []int64, limit int) ([]models.Item, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var items []models.Item
	err = p.withTimed("select_reading", func() error {
		query, args := buildExcludeQuery(
			`SELECT item_id, 'reading' as kind, language, level, title, body, audio_ref, created_at
			 FROM items_reading WHERE language = ? AND level = ?`,
			language, level, excludeItemIDs, limit,
		)
		return p.db.Select(&items, p.db.Rebind(query), args...)
	})
	if err != nil {
		return nil, errs.Wrap(errs.Transient, err, "select reading")
	}
	return items, nil
}

func buildExcludeQuery(base string, language models.Language, level models.Level, excludeItemIDs []int64, limit int) (string, []any) {
	query := base
	args := []any{language, level}

	for _, id := range excludeItemIDs {
		query += " AND item_id != ?"
		args = append(args, id)
	}

	query += " ORDER BY RANDOM() LIMIT ?"
	args = append(args, limit)
	return query, args
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
