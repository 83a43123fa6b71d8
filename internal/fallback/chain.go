// Package fallback runs a call against a priority-ordered list of
// interchangeable providers, stopping at the first success.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"github.com/couchcryptid/flight-disruption-verifier/internal/observability"
	"github.com/couchcryptid/flight-disruption-verifier/internal/ratelimit"
)

// Chain is an ordered provider list sharing one admission gate.
type Chain[P domain.Provider] struct {
	providers []P
	gate      *ratelimit.Gate
	timeout   time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewChain sorts providers by ascending priority (ties keep their given order).
// timeout bounds each provider call; zero means no per-call bound.
func NewChain[P domain.Provider](providers []P, gate *ratelimit.Gate, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Chain[P] {
	sorted := append([]P(nil), providers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Chain[P]{
		providers: sorted,
		gate:      gate,
		timeout:   timeout,
		metrics:   metrics,
		logger:    logger,
	}
}

// Providers returns the chain in call order.
func (c *Chain[P]) Providers() []P {
	return append([]P(nil), c.providers...)
}

// Len returns the number of providers.
func (c *Chain[P]) Len() int { return len(c.providers) }

// Do calls fn on each provider in order until one succeeds, returning its
// value and name. Providers denied by the gate are skipped without a call.
// Providers are tried strictly one at a time. When every provider fails the
// error wraps domain.ErrAllProvidersFailed and each provider's error.
func Do[P domain.Provider, T any](ctx context.Context, c *Chain[P], op string, fn func(context.Context, P) (T, error)) (T, string, error) {
	var zero T
	if len(c.providers) == 0 {
		return zero, "", fmt.Errorf("%s: %w: %w", op, domain.ErrAllProvidersFailed, domain.ErrNoProviders)
	}

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		name := p.Name()
		if c.gate != nil {
			if err := c.gate.Admit(name, p.RateLimit()); err != nil {
				c.logger.Warn("provider skipped", "provider", name, "operation", op, "error", err)
				errs = append(errs, &domain.ProviderError{Provider: name, Op: op, Err: err})
				continue
			}
		}

		v, err := call(ctx, c, p, op, fn)
		if err == nil {
			return v, name, nil
		}
		c.logger.Warn("provider failed", "provider", name, "operation", op, "error", err)
		errs = append(errs, &domain.ProviderError{Provider: name, Op: op, Err: err})
	}

	return zero, "", fmt.Errorf("%s: %w: %w", op, domain.ErrAllProvidersFailed, errors.Join(errs...))
}

func call[P domain.Provider, T any](ctx context.Context, c *Chain[P], p P, op string, fn func(context.Context, P) (T, error)) (T, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	v, err := fn(ctx, p)
	if c.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.ProviderRequests.WithLabelValues(p.Name(), op, outcome).Inc()
		c.metrics.ProviderDuration.WithLabelValues(p.Name(), op).Observe(time.Since(start).Seconds())
	}
	return v, err
}
