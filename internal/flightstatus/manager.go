// Package flightstatus looks up flight records through a cache and a
// priority-ordered chain of flight-status providers, and verifies travelers'
// reports against them.
package flightstatus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/cache"
	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"github.com/couchcryptid/flight-disruption-verifier/internal/fallback"
)

const opFlightStatus = "flight_status"

// Manager resolves flight status cache-first, then provider by provider.
type Manager struct {
	chain  *fallback.Chain[domain.FlightStatusProvider]
	cache  *cache.TTLCache[domain.FlightStatusResult]
	logger *slog.Logger
}

// NewManager creates a Manager. cache may be nil to disable caching.
func NewManager(chain *fallback.Chain[domain.FlightStatusProvider], cache *cache.TTLCache[domain.FlightStatusResult], logger *slog.Logger) *Manager {
	return &Manager{chain: chain, cache: cache, logger: logger}
}

// Providers returns the chain's providers in call order.
func (m *Manager) Providers() []domain.FlightStatusProvider {
	return m.chain.Providers()
}

// GetFlightStatus returns the flight's record. A cached record comes back
// with Source "cache"; a fresh one with Source "api" and the answering
// provider's name. The error wraps domain.ErrAllProvidersFailed when no
// provider could answer.
func (m *Manager) GetFlightStatus(ctx context.Context, flightNumber string, date time.Time) (domain.FlightStatusResult, error) {
	fn := domain.NormalizeFlightNumber(flightNumber)
	key := domain.FlightKey(fn, date)

	if m.cache != nil {
		if entry, ok := m.cache.Get(ctx, key); ok {
			m.logger.Debug("flight status cache hit", "flight_number", fn, "date", date.Format(time.DateOnly), "provider", entry.Provider)
			r := entry.Value
			r.Source = domain.SourceCache
			return r, nil
		}
	}

	r, provider, err := fallback.Do(ctx, m.chain, opFlightStatus,
		func(ctx context.Context, p domain.FlightStatusProvider) (domain.FlightStatusResult, error) {
			return p.GetFlightStatus(ctx, fn, date)
		})
	if err != nil {
		m.logger.Error("flight status unavailable", "flight_number", fn, "date", date.Format(time.DateOnly), "error", err)
		return domain.FlightStatusResult{}, err
	}

	r = r.Normalize()
	r.Source = domain.SourceAPI
	r.Provider = provider
	r.LastUpdated = domain.Now()

	if m.cache != nil {
		m.cache.Set(ctx, key, r, provider)
	}
	return r, nil
}

// ValidateFlightExists reports whether any provider knows the flight.
func (m *Manager) ValidateFlightExists(ctx context.Context, flightNumber string, date time.Time) bool {
	_, err := m.GetFlightStatus(ctx, flightNumber, date)
	return err == nil
}

// CompareWithUserData scores the traveler's report against a provider record.
func (m *Manager) CompareWithUserData(report domain.ParsedFlightData, actual domain.FlightStatusResult) domain.VerificationResult {
	return domain.CompareWithUserData(report, actual)
}

// VerifyClaim looks the reported flight up and compares it with the report.
func (m *Manager) VerifyClaim(ctx context.Context, report domain.ParsedFlightData) (domain.VerificationResult, error) {
	actual, err := m.GetFlightStatus(ctx, report.FlightNumber, report.FlightDate)
	if err != nil {
		return domain.VerificationResult{}, err
	}
	v := m.CompareWithUserData(report, actual)

	attrs := []any{"flight_number", actual.FlightNumber, "confidence", v.Confidence, "verified", v.Verified}
	if v.Discrepancy != nil {
		attrs = append(attrs, "discrepancy", v.Discrepancy.Field)
	}
	m.logger.Info("claim verified", attrs...)
	return v, nil
}

// IsNotFound reports whether err means no provider had the flight, as
// opposed to every provider being unreachable.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrFlightNotFound)
}
