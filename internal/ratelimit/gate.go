package ratelimit

import (
	"fmt"

	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"github.com/couchcryptid/flight-disruption-verifier/internal/observability"
)

// Gate combines the per-minute limiter and the monthly budget into the single
// admission check made before every billable provider call.
type Gate struct {
	limiter *Limiter
	budget  *Budget
	metrics *observability.Metrics
}

// NewGate creates a gate. metrics may be nil.
func NewGate(limiter *Limiter, budget *Budget, metrics *observability.Metrics) *Gate {
	return &Gate{limiter: limiter, budget: budget, metrics: metrics}
}

// Admit reserves one request for the named provider. It returns an error
// wrapping domain.ErrBudgetExhausted or domain.ErrRateLimited when denied;
// a denied request consumes neither the window nor the budget.
func (g *Gate) Admit(name string, limit domain.RateLimit) error {
	if g.budget != nil && !g.budget.TryConsume(name, limit.RequestsPerMonth) {
		if g.metrics != nil {
			g.metrics.BudgetExhausted.WithLabelValues(name).Inc()
		}
		return fmt.Errorf("%s: %w", name, domain.ErrBudgetExhausted)
	}
	if !g.limiter.Allow(name, limit.RequestsPerMinute) {
		if g.budget != nil {
			g.budget.Release(name)
		}
		if g.metrics != nil {
			g.metrics.RateLimited.WithLabelValues(name).Inc()
		}
		return fmt.Errorf("%s: %w", name, domain.ErrRateLimited)
	}
	return nil
}
