package cache

import (
	"context"
	"fmt"

	"github.com/couchcryptid/flight-disruption-verifier/internal/config"
	"github.com/jonboulle/clockwork"
)

// Open builds the Store selected by CACHE_BACKEND.
func Open(ctx context.Context, cfg *config.Config, clock clockwork.Clock) (Store, error) {
	switch cfg.CacheBackend {
	case config.CacheMemory, "":
		return NewMemoryStore(clock, cfg.CacheMaxEntries), nil
	case config.CachePebble:
		return NewPebbleStore(cfg.CacheDir, clock)
	case config.CacheBadger:
		return NewBadgerStore(cfg.CacheDir)
	case config.CachePostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL, clock)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
