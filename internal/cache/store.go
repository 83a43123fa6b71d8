// Package cache provides TTL caching of provider responses over a pluggable
// byte-level Store. Backends: in-process memory, Pebble, Badger and Postgres.
package cache

import (
	"context"
	"time"
)

// Store persists opaque values by key with a time-to-live. Implementations
// must be safe for concurrent use. Writes overwrite unconditionally.
type Store interface {
	// Get returns the value for key and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl. A non-positive ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
