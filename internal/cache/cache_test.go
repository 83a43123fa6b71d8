package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// storeContract exercises the behavior every backend shares.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), time.Hour))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, s.Set(ctx, "k", []byte("v2"), time.Hour))
	v, _, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v, "last write wins")

	require.NoError(t, s.Delete(ctx, "k"))
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(clockwork.NewFakeClockAt(epoch), 0))
}

func TestMemoryStore_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	s := NewMemoryStore(clock, 0)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, s.Set(ctx, "forever", []byte("v"), 0))

	clock.Advance(time.Minute)
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len(), "expired item evicted on read")

	_, ok, _ = s.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestPebbleStore(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	s, err := NewPebbleStore(t.TempDir(), clock)
	require.NoError(t, err)
	defer s.Close()

	storeContract(t, s)

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "ttl", []byte("v"), time.Minute))
	clock.Advance(2 * time.Minute)
	_, ok, err := s.Get(ctx, "ttl")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	storeContract(t, s)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Now())
	s, err := NewPostgresStore(ctx, url, clock)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	storeContract(t, s)

	require.NoError(t, s.Set(ctx, "ttl", []byte("v"), time.Minute))
	clock.Advance(2 * time.Minute)
	_, ok, err := s.Get(ctx, "ttl")
	require.NoError(t, err)
	assert.False(t, ok)
}

type sample struct {
	Code  string    `json:"code"`
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
}

func TestTTLCache_RoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	c := NewTTLCache[sample]("weather", NewMemoryStore(clock, 0), 10*time.Minute, clock, observability.NewMetricsForTesting(), discardLogger())
	ctx := context.Background()

	_, ok := c.Get(ctx, "LHR")
	assert.False(t, ok)

	want := sample{Code: "LHR", Value: 0.3, At: epoch}
	c.Set(ctx, "LHR", want, "openweather")

	clock.Advance(10 * time.Minute)
	got, ok := c.Get(ctx, "LHR")
	require.True(t, ok, "an entry exactly at its TTL is still live")
	assert.Equal(t, want, got.Value)
	assert.Equal(t, "openweather", got.Provider)
	assert.Equal(t, epoch, got.CachedAt)
	assert.Equal(t, epoch.Add(10*time.Minute), got.ExpiresAt)
}

func TestTTLCache_LazyExpiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := NewMemoryStore(clock, 0)
	c := NewTTLCache[sample]("airport", store, 5*time.Minute, clock, nil, discardLogger())
	ctx := context.Background()

	c.Set(ctx, "JFK", sample{Code: "JFK"}, "faa")
	clock.Advance(5*time.Minute + time.Second)

	_, ok := c.Get(ctx, "JFK")
	assert.False(t, ok)
	assert.Zero(t, store.Len(), "expired entry evicted")
}

func TestTTLCache_KeysAreNamespaced(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := NewMemoryStore(clock, 0)
	weather := NewTTLCache[sample]("weather", store, time.Hour, clock, nil, discardLogger())
	airport := NewTTLCache[sample]("airport", store, time.Hour, clock, nil, discardLogger())
	ctx := context.Background()

	weather.Set(ctx, "LHR", sample{Value: 1}, "a")
	airport.Set(ctx, "LHR", sample{Value: 2}, "b")

	w, _ := weather.Get(ctx, "LHR")
	a, _ := airport.Get(ctx, "LHR")
	assert.InDelta(t, 1, w.Value.Value, 1e-9)
	assert.InDelta(t, 2, a.Value.Value, 1e-9)
}

type failingStore struct{ MemoryStore }

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func TestTTLCache_StoreErrorIsMiss(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	c := NewTTLCache[sample]("flight", &failingStore{}, time.Hour, clock, nil, discardLogger())

	_, ok := c.Get(context.Background(), "BA117_2024-03-15")
	assert.False(t, ok)
}

func TestTTLCache_CorruptEntryIsEvicted(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := NewMemoryStore(clock, 0)
	c := NewTTLCache[sample]("flight", store, time.Hour, clock, nil, discardLogger())
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "flight:X", []byte("{not json"), 0))
	_, ok := c.Get(ctx, "X")
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewMemoryStore(clockwork.NewFakeClockAt(epoch), 2)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))
	_, ok, _ := s.Get(ctx, "a") // a becomes most recent
	require.True(t, ok)
	require.NoError(t, s.Set(ctx, "c", []byte("3"), 0))

	assert.Equal(t, 2, s.Len())
	_, ok, _ = s.Get(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	_, ok, _ = s.Get(ctx, "a")
	assert.True(t, ok)
	_, ok, _ = s.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryStore_OverwriteDoesNotGrow(t *testing.T) {
	s := NewMemoryStore(clockwork.NewFakeClockAt(epoch), 1)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "a", []byte("2"), 0))

	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("2"), v)
	assert.Equal(t, 1, s.Len())
}
