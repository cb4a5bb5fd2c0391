package store

import (
	"fmt"
	"strings"

	"github.com/example/bilingualtutor/internal/errs"
)

// migrate applies every schema step in order. Each step is additive and
// idempotent: CREATE TABLE IF NOT EXISTS, CREATE INDEX IF NOT EXISTS, and
// column backfills that check for the column's existence first, so
// running migrate against an already-migrated store is a no-op (spec §6).
func (p *Pool) migrate() error {
	for _, step := range schemaSteps {
		if err := step(p); err != nil {
			return errs.Wrap(errs.Corrupt, err, "apply schema")
		}
	}
	return nil
}

type schemaStep func(p *Pool) error

var schemaSteps = []schemaStep{
	createUsers,
	createItemsVocabulary,
	createItemsGrammar,
	createItemsReading,
	createLearningRecords,
	addConsecutiveCorrectColumn,
}

func createUsers(p *Pool) error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			credential_hash TEXT NOT NULL,
			english_level TEXT NOT NULL DEFAULT '',
			japanese_level TEXT NOT NULL DEFAULT '',
			daily_study_minutes INTEGER NOT NULL DEFAULT 30,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func createItemsVocabulary(p *Pool) error {
	if _, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS items_vocabulary (
			item_id ` + autoIncrementPK(p.driver) + `,
			language TEXT NOT NULL,
			level TEXT NOT NULL,
			headword TEXT NOT NULL,
			reading TEXT NOT NULL DEFAULT '',
			meaning TEXT NOT NULL DEFAULT '',
			example TEXT NOT NULL DEFAULT '',
			audio_ref TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(language, level, headword)
		)
	`); err != nil {
		return err
	}
	_, err := p.db.Exec(`CREATE INDEX IF NOT EXISTS idx_vocab_lang_level ON items_vocabulary(language, level)`)
	return err
}

func createItemsGrammar(p *Pool) error {
	if _, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS items_grammar (
			item_id ` + autoIncrementPK(p.driver) + `,
			language TEXT NOT NULL,
			level TEXT NOT NULL,
			pattern TEXT NOT NULL,
			explanation TEXT NOT NULL DEFAULT '',
			examples_json TEXT NOT NULL DEFAULT '[]',
			audio_ref TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(language, level, pattern)
		)
	`); err != nil {
		return err
	}
	_, err := p.db.Exec(`CREATE INDEX IF NOT EXISTS idx_grammar_lang_level ON items_grammar(language, level)`)
	return err
}

func createItemsReading(p *Pool) error {
	if _, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS items_reading (
			item_id ` + autoIncrementPK(p.driver) + `,
			language TEXT NOT NULL,
			level TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL,
			audio_ref TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}
	_, err := p.db.Exec(`CREATE INDEX IF NOT EXISTS idx_reading_lang_level ON items_reading(language, level)`)
	return err
}

func createLearningRecords(p *Pool) error {
	if _, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS learning_records (
			user_id TEXT NOT NULL,
			item_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			learn_count INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			easiness_factor REAL NOT NULL DEFAULT 2.5,
			memory_strength REAL NOT NULL DEFAULT 0,
			mastery_level INTEGER NOT NULL DEFAULT 0,
			last_review_at TIMESTAMP,
			next_review_at TIMESTAMP,
			PRIMARY KEY (user_id, item_id, kind)
		)
	`); err != nil {
		return err
	}
	// due-list lookups always filter by user_id and order by
	// next_review_at; this composite index covers both.
	if _, err := p.db.Exec(`CREATE INDEX IF NOT EXISTS idx_records_due ON learning_records(user_id, next_review_at)`); err != nil {
		return err
	}
	_, err := p.db.Exec(`CREATE INDEX IF NOT EXISTS idx_records_item ON learning_records(item_id)`)
	return err
}

// addConsecutiveCorrectColumn backfills consecutive_correct (spec §6):
// the column did not exist in the original schema, so stores created
// before this migration need it added. A record answered correctly on
// every attempt (correct_count == learn_count) has consecutive_correct
// == correct_count, so those rows are seeded from correct_count; every
// other row keeps 0.
func addConsecutiveCorrectColumn(p *Pool) error {
	has, err := p.hasColumn("learning_records", "consecutive_correct")
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	if _, err := p.db.Exec(`ALTER TABLE learning_records ADD COLUMN consecutive_correct INTEGER NOT NULL DEFAULT 0`); err != nil {
		return err
	}
	_, err = p.db.Exec(`UPDATE learning_records SET consecutive_correct = correct_count WHERE consecutive_correct = 0 AND correct_count = learn_count`)
	return err
}

func (p *Pool) hasColumn(table, column string) (bool, error) {
	if p.driver == "postgres" {
		var n int
		err := p.db.Get(&n, `SELECT count(*) FROM information_schema.columns WHERE table_name = $1 AND column_name = $2`, table, column)
		return n > 0, err
	}

	rows, err := p.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return false, err
	}
	nameIdx := -1
	for i, c := range cols {
		if strings.EqualFold(c, "name") {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return false, nil
	}

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return false, err
		}
		if name, ok := vals[nameIdx].(string); ok && strings.EqualFold(name, column) {
			return true, nil
		}
		if b, ok := vals[nameIdx].([]byte); ok && strings.EqualFold(string(b), column) {
			return true, nil
		}
	}
	return false, rows.Err()
}

func autoIncrementPK(driver string) string {
	if driver == "postgres" {
		return "SERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}
