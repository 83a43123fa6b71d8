package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/jonboulle/clockwork"
)

// PebbleStore is a Store on a local Pebble database. Pebble has no native
// TTL, so each value is prefixed with its expiry as big-endian Unix nanoseconds
// (zero for never).
type PebbleStore struct {
	db    *pebble.DB
	clock clockwork.Clock
}

// NewPebbleStore opens (or creates) a Pebble database in dir.
func NewPebbleStore(dir string, clock clockwork.Clock) (*PebbleStore, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: db, clock: clock}, nil
}

func (p *PebbleStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebble get %s: %w", key, err)
	}
	// v is only valid until closer is closed.
	buf := append([]byte(nil), v...)
	_ = closer.Close()

	if len(buf) < 8 {
		return nil, false, fmt.Errorf("pebble get %s: corrupt value", key)
	}
	if exp := int64(binary.BigEndian.Uint64(buf[:8])); exp != 0 && p.clock.Now().UnixNano() >= exp {
		_ = p.db.Delete([]byte(key), pebble.NoSync)
		return nil, false, nil
	}
	return buf[8:], true, nil
}

func (p *PebbleStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = p.clock.Now().Add(ttl).UnixNano()
	}
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(exp))
	copy(buf[8:], value)
	if err := p.db.Set([]byte(key), buf, pebble.NoSync); err != nil {
		return fmt.Errorf("pebble set %s: %w", key, err)
	}
	return nil
}

func (p *PebbleStore) Delete(_ context.Context, key string) error {
	if err := p.db.Delete([]byte(key), pebble.NoSync); err != nil {
		return fmt.Errorf("pebble delete %s: %w", key, err)
	}
	return nil
}

func (p *PebbleStore) Close() error { return p.db.Close() }
