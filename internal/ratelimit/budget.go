package ratelimit

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

const monthKey = "2006-01"

// Budget caps the number of requests each provider may make per calendar
// month (UTC). Paid APIs bill per call, so this is the cost ceiling.
type Budget struct {
	clock clockwork.Clock
	limit int

	mu    sync.Mutex
	month string
	used  map[string]int
}

// NewBudget creates a budget allowing limit requests per provider per month
// unless a provider declares its own ceiling. A non-positive limit means unlimited.
func NewBudget(clock clockwork.Clock, limit int) *Budget {
	return &Budget{clock: clock, limit: limit, used: make(map[string]int)}
}

// Available reports whether name has budget left this month. perProvider
// overrides the default ceiling when positive.
func (b *Budget) Available(name string, perProvider int) bool {
	limit := b.ceiling(perProvider)
	if limit <= 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.used[name] < limit
}

// TryConsume records one request against name if it has budget left, checking
// and counting under one lock so concurrent callers cannot overshoot.
func (b *Budget) TryConsume(name string, perProvider int) bool {
	limit := b.ceiling(perProvider)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	if limit > 0 && b.used[name] >= limit {
		return false
	}
	b.used[name]++
	return true
}

// Release returns a request reserved by TryConsume that was never made.
func (b *Budget) Release(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used[name] > 0 {
		b.used[name]--
	}
}

func (b *Budget) ceiling(perProvider int) int {
	if perProvider > 0 {
		return perProvider
	}
	return b.limit
}

// Used returns the requests name has made this month.
func (b *Budget) Used(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.used[name]
}

// rollover resets usage when the month changes. Callers hold mu.
func (b *Budget) rollover() {
	month := b.clock.Now().UTC().Format(monthKey)
	if month != b.month {
		b.month = month
		clear(b.used)
	}
}
