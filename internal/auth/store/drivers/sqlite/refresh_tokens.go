package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type refreshTokensRepo struct {
	db *sql.DB
}

// Put is an atomic upsert-by-email: logout-then-login and repeated logins
// must never accumulate rows, and concurrent logins race harmlessly to
// last-writer-wins.
func (r *refreshTokensRepo) Put(ctx context.Context, email, token string) error {
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (account_email, token, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(account_email) DO UPDATE SET
		 	token = excluded.token,
		 	updated_at = excluded.updated_at`,
		email, token, now, now,
	)
	return err
}

func (r *refreshTokensRepo) Matches(ctx context.Context, email, token string) (bool, error) {
	var stored string
	err := r.db.QueryRowContext(ctx,
		`SELECT token FROM refresh_tokens WHERE account_email = ?`, email,
	).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == token, nil
}

func (r *refreshTokensRepo) Clear(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE account_email = ?`, email)
	return err
}
