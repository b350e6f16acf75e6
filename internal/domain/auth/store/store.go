package store

import (
	"context"
	"errors"
	"time"

	"github.com/CompilationErrror/library-auth/internal/domain/auth/model"
)

// ErrTokenNotFound is returned by Get and Claim when no usable record
// exists for the presented token, including tokens already claimed by a
// concurrent rotation.
var ErrTokenNotFound = errors.New("refresh token not found")

// Store defines the behaviour required of a refresh token backend.
type Store interface {
	// Store persists the record. Backends with native expiry must evict the
	// entry no later than record.ExpiresAt.
	Store(ctx context.Context, record model.TokenRecord) error

	// Get returns the record for the token, revoked records included where
	// the backend keeps them.
	Get(ctx context.Context, token string) (model.TokenRecord, error)

	// Claim atomically retrieves and revokes the record. Of N concurrent
	// claims for the same token exactly one succeeds; the rest observe
	// ErrTokenNotFound. This is the rotation primitive.
	Claim(ctx context.Context, token string) (model.TokenRecord, error)

	// Revoke makes the token permanently unusable. Revoking an unknown or
	// already revoked token is not an error.
	Revoke(ctx context.Context, token string) error

	// CleanupExpired removes revoked and expired records from persistent
	// storage and reports how many were deleted.
	CleanupExpired(ctx context.Context) (int64, error)

	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	TTL    time.Duration
	Redis  *RedisConfig
	SQLite *SQLiteConfig
	Memory *MemoryConfig
}

// MemoryConfig holds in-memory tuning knobs.
type MemoryConfig struct {
	GCInterval time.Duration
}

// SQLiteConfig provides the database dependency parameters.
type SQLiteConfig struct {
	DSN string
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
