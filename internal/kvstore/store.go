// Package kvstore defines the backing key-value store for the tiered cache.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minato/kizami/internal/config"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("key not found")

// Store is a keyed byte store with per-key expiry. Set and Get must be atomic
// per key; the cache relies on that instead of its own locking.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// SetWithTTL writes value under key, replacing any previous value and
	// restarting the expiry clock. ttl <= 0 means no expiry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Keys lists live keys with the given prefix. The memory implementation
	// returns them in insertion order; Redis order is unspecified.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// New creates the store selected by cfg.Kind ("memory" or "redis").
func New(cfg *config.StoreConfig) (Store, error) {
	switch cfg.Kind {
	case "memory", "":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unknown store kind: %s (supported: memory, redis)", cfg.Kind)
	}
}
