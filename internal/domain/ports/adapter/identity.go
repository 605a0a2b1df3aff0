package adapter

import (
	"context"
	"time"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}

// Claims is what an authenticated request carries about its caller.
type Claims struct {
	UserID  string
	IsAdmin bool
}

type TokenManager interface {
	Issue(c Claims) (token string, expiresAt time.Time, err error)
	Parse(token string) (*Claims, error)
}

// RateLimiter is a fixed-window counter; Allow returns false once limit is exceeded.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
