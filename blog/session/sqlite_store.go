package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/shared/db"
)

// SQLiteStore keeps remembered sessions in the sessions table so they survive
// a restart.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(sqlDB *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: sqlDB}
}

const upsertSessionQuery = `
	INSERT INTO sessions (id, token, created_at, expires_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		token = excluded.token,
		expires_at = excluded.expires_at
`

func (s *SQLiteStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}

	executor := db.GetExecutor(ctx, s.db)
	_, err := executor.ExecContext(ctx, upsertSessionQuery, sess.ID, sess.Token, sess.CreatedAt.UTC(), sess.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

const getSessionQuery = `
	SELECT id, token, created_at, expires_at
	FROM sessions
	WHERE id = ?
`

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	var row sessionRow
	executor := db.GetExecutor(ctx, s.db)
	err := executor.QueryRowContext(ctx, getSessionQuery, id).Scan(&row.ID, &row.Token, &row.CreatedAt, &row.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return row.toDomain(), nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	executor := db.GetExecutor(ctx, s.db)
	if _, err := executor.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session that has lapsed at now.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	executor := db.GetExecutor(ctx, s.db)
	res, err := executor.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

type sessionRow struct {
	ID        string    `db:"id"`
	Token     string    `db:"token"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (r *sessionRow) toDomain() *Session {
	return &Session{
		ID:        r.ID,
		Token:     r.Token,
		Persist:   true,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}
