package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Entry is a cached value with its provenance.
type Entry[T any] struct {
	Value     T         `json:"value"`
	Provider  string    `json:"provider"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TTLCache stores values of type T as JSON in a Store under a name prefix.
// Expiry is checked lazily on read: an entry older than the TTL is evicted
// and reported as a miss. Store failures degrade to misses so a broken
// cache never fails a lookup.
type TTLCache[T any] struct {
	name    string
	store   Store
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewTTLCache creates a typed cache. metrics may be nil.
func NewTTLCache[T any](name string, store Store, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *TTLCache[T] {
	return &TTLCache[T]{
		name:    name,
		store:   store,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// TTL returns the cache's time-to-live.
func (c *TTLCache[T]) TTL() time.Duration { return c.ttl }

// Get returns the live entry for key.
func (c *TTLCache[T]) Get(ctx context.Context, key string) (Entry[T], bool) {
	var entry Entry[T]
	k := c.key(key)

	raw, ok, err := c.store.Get(ctx, k)
	if err != nil {
		c.logger.Warn("cache read failed", "cache", c.name, "key", key, "error", err)
		c.observe("miss")
		return entry, false
	}
	if !ok {
		c.observe("miss")
		return entry, false
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("cache entry undecodable, evicting", "cache", c.name, "key", key, "error", err)
		_ = c.store.Delete(ctx, k)
		c.observe("miss")
		return Entry[T]{}, false
	}
	if c.clock.Now().Sub(entry.CachedAt) > c.ttl {
		if err := c.store.Delete(ctx, k); err != nil {
			c.logger.Warn("cache eviction failed", "cache", c.name, "key", key, "error", err)
		}
		c.observe("expired")
		return Entry[T]{}, false
	}

	c.observe("hit")
	return entry, true
}

// Set writes value under key, overwriting any existing entry.
func (c *TTLCache[T]) Set(ctx context.Context, key string, value T, provider string) {
	now := c.clock.Now()
	entry := Entry[T]{
		Value:     value,
		Provider:  provider,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("cache entry unencodable", "cache", c.name, "key", key, "error", err)
		return
	}
	// The store keeps entries a little past the TTL so expiry is observed
	// (and counted) here rather than silently in the backend.
	if err := c.store.Set(ctx, c.key(key), raw, 2*c.ttl); err != nil {
		c.logger.Warn("cache write failed", "cache", c.name, "key", key, "error", err)
	}
}

// Delete removes key.
func (c *TTLCache[T]) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, c.key(key))
}

func (c *TTLCache[T]) key(key string) string {
	return c.name + ":" + key
}

func (c *TTLCache[T]) observe(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(c.name, result).Inc()
	}
}
