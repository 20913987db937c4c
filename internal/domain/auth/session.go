package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrSessionNotFound is returned when no session matches a token hash.
var ErrSessionNotFound = errors.New("session not found")

// User identifies an authenticated shopper.
type User struct {
	ID       string
	Username string
}

// Session is a server-side login session. Only the HMAC-SHA256 hash of the
// session token is stored; the raw token lives in the client's cookie.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
}

// Repository provides session lookup by hashed token.
type Repository interface {
	FindSessionByTokenHash(ctx context.Context, hash string) (*Session, error)
}
