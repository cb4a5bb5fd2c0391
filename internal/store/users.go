package store

import (
	"context"
	"database/sql"

	"github.com/example/bilingualtutor/internal/errs"
	"github.com/example/bilingualtutor/internal/models"
)

// GetUser returns errs.NotFound when userID is unknown.
func (p *Pool) GetUser(ctx context.Context, userID string) (*models.User, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var u models.User
	err = p.withTimed("get_user", func() error {
		return p.db.Get(&u, p.db.Rebind(`SELECT * FROM users WHERE user_id = ?`), userID)
	})
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("no user %s", userID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Transient, err, "get user")
	}
	return &u, nil
}

// UpsertUser creates or updates a user's profile.
func (p *Pool) UpsertUser(ctx context.Context, u models.User) error {
	release, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return p.withTimed("upsert_user", func() error {
		var query string
		switch p.driver {
		case "postgres":
			query = `
				INSERT INTO users (user_id, credential_hash, english_level, japanese_level, daily_study_minutes)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (user_id) DO UPDATE SET
					english_level = EXCLUDED.english_level,
					japanese_level = EXCLUDED.japanese_level,
					daily_study_minutes = EXCLUDED.daily_study_minutes`
		default:
			query = `
				INSERT INTO users (user_id, credential_hash, english_level, japanese_level, daily_study_minutes)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (user_id) DO UPDATE SET
					english_level = excluded.english_level,
					japanese_level = excluded.japanese_level,
					daily_study_minutes = excluded.daily_study_minutes`
		}
		_, err := p.db.Exec(p.db.Rebind(query), u.UserID, u.CredentialHash, u.EnglishLevel, u.JapaneseLevel, u.DailyStudyMinutes)
		if err != nil {
			return errs.Wrap(errs.Transient, err, "upsert user")
		}
		return nil
	})
}
