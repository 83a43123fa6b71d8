// Package ratelimit implements per-provider admission control: a fixed
// one-minute request window and a calendar-month request budget.
package ratelimit

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Window is the length of a rate-limit window.
const Window = time.Minute

type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window limiter keyed by provider name. It is safe for
// concurrent use.
type Limiter struct {
	clock clockwork.Clock

	mu      sync.Mutex
	windows map[string]*window
}

// NewLimiter creates a limiter reading time from clock.
func NewLimiter(clock clockwork.Clock) *Limiter {
	return &Limiter{clock: clock, windows: make(map[string]*window)}
}

// Allow reports whether one more request to name fits in the current window,
// counting it if so. A non-positive rpm disables limiting.
func (l *Limiter) Allow(name string, rpm int) bool {
	if rpm <= 0 {
		return true
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[name]
	if !ok || !now.Before(w.resetAt) {
		l.windows[name] = &window{count: 1, resetAt: now.Add(Window)}
		return true
	}
	if w.count < rpm {
		w.count++
		return true
	}
	return false
}

// Remaining returns how many requests name may still make in its current window.
func (l *Limiter) Remaining(name string, rpm int) int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[name]
	if !ok || !now.Before(w.resetAt) {
		return rpm
	}
	return max(rpm-w.count, 0)
}
