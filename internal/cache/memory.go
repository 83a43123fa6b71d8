package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemoryStore is a process-local Store with least-recently-used eviction
// once maxEntries is reached. Expired items are dropped on read.
type MemoryStore struct {
	clock      clockwork.Clock
	maxEntries int // zero means unbounded

	mu      sync.Mutex
	entries map[string]*lruEntry
	head    *lruEntry // most recently used
	tail    *lruEntry // least recently used
}

type lruEntry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero means never
	prev      *lruEntry
	next      *lruEntry
}

// NewMemoryStore creates an empty in-memory store holding at most
// maxEntries items.
func NewMemoryStore(clock clockwork.Clock, maxEntries int) *MemoryStore {
	return &MemoryStore{
		clock:      clock,
		maxEntries: maxEntries,
		entries:    make(map[string]*lruEntry),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt) {
		s.drop(e)
		return nil, false, nil
	}
	s.moveToFront(e)
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.clock.Now().Add(ttl)
	}
	value = append([]byte(nil), value...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		s.moveToFront(e)
		return nil
	}

	e := &lruEntry{key: key, value: value, expiresAt: expiresAt}
	s.entries[key] = e
	s.addToFront(e)

	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		s.drop(s.tail)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		s.drop(e)
	}
	return nil
}

// Len returns the number of stored items, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) moveToFront(e *lruEntry) {
	if e == s.head {
		return
	}
	s.unlink(e)
	s.addToFront(e)
}

func (s *MemoryStore) addToFront(e *lruEntry) {
	e.next = s.head
	e.prev = nil
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *MemoryStore) unlink(e *lruEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
}

func (s *MemoryStore) drop(e *lruEntry) {
	if e == nil {
		return
	}
	delete(s.entries, e.key)
	s.unlink(e)
}
