package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoply/storefront/internal/domain/auth"
)

const getSessionByHashSQL = `SELECT id, user_id, token_hash, expires_at
	FROM sessions WHERE token_hash = $1`

var _ auth.Repository = (*SessionRepository)(nil)

// SessionRepository implements auth.Repository backed by PostgreSQL.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a SessionRepository that uses the given pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// FindSessionByTokenHash looks up a session by its HMAC-SHA256 token hash.
// Returns auth.ErrSessionNotFound when no matching session exists.
func (r *SessionRepository) FindSessionByTokenHash(ctx context.Context, hash string) (*auth.Session, error) {
	rows, err := r.pool.Query(ctx, getSessionByHashSQL, hash)
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (auth.Session, error) {
		var s auth.Session
		err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt)
		return s, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("finding session: %w", err)
	}
	return &s, nil
}
