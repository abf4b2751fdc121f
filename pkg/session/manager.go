package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scanteate/pkg/user"
)

type MySQLRepo struct {
	DB *sql.DB
}

func NewMySQLRepo(db *sql.DB) *MySQLRepo {
	return &MySQLRepo{DB: db}
}

// DATETIME has second precision; truncating keeps what is stored equal to
// what was written instead of letting the server round up.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func (r *MySQLRepo) Create(ctx context.Context, s *Session) error {
	s.ExpiresAt = dbTime(s.ExpiresAt)
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES (?, ?, ?)
	`, s.ID, s.UserID, s.ExpiresAt)
	return err
}

func (r *MySQLRepo) Lookup(ctx context.Context, id string, mode Mode) (*Record, error) {
	var (
		rec Record
		err error
	)

	switch mode {
	case Full:
		var u user.User
		err = user.ScanUser(r.DB.QueryRowContext(ctx, `
			SELECT `+user.Columns+`, sessions.id, sessions.user_id, sessions.expires_at
			FROM sessions INNER JOIN users ON users.id = sessions.user_id
			WHERE sessions.id = ?
		`, id), &u, &rec.Session.ID, &rec.Session.UserID, &rec.Session.ExpiresAt)
		if err == nil {
			rec.User = &u
			rec.Principal = Principal{ID: u.ID, Role: u.Role}
		}
	default:
		err = r.DB.QueryRowContext(ctx, `
			SELECT sessions.id, sessions.user_id, sessions.expires_at, users.id, users.type
			FROM sessions INNER JOIN users ON users.id = sessions.user_id
			WHERE sessions.id = ?
		`, id).Scan(&rec.Session.ID, &rec.Session.UserID, &rec.Session.ExpiresAt, &rec.Principal.ID, &rec.Principal.Role)
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &rec, nil
}

func (r *MySQLRepo) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE sessions SET expires_at = ? WHERE id = ?
	`, dbTime(expiresAt), id)
	return err
}

func (r *MySQLRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM sessions WHERE id = ?
	`, id)
	return err
}

func (r *MySQLRepo) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM sessions WHERE user_id = ?
	`, userID)
	return err
}

func (r *MySQLRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at <= ?
	`, dbTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
