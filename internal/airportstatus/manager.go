// Package airportstatus builds the composite weather and operations view of
// an airport from weather and operational provider chains.
package airportstatus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/cache"
	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"github.com/couchcryptid/flight-disruption-verifier/internal/fallback"
	"golang.org/x/sync/errgroup"
)

const (
	opCurrentWeather    = "current_weather"
	opForecast          = "forecast"
	opHistoricalWeather = "historical_weather"
	opOperationalStatus = "operational_status"
	opRunwayStatus      = "runway_status"
	opAirTrafficDelays  = "air_traffic_delays"
)

// Manager resolves AirportStatus composites.
type Manager struct {
	weather      *fallback.Chain[domain.WeatherProvider]
	operational  *fallback.Chain[domain.OperationalProvider]
	weatherCache *cache.TTLCache[domain.WeatherConditions]
	statusCache  *cache.TTLCache[domain.AirportStatus]
	rules        domain.ClassificationRules
	logger       *slog.Logger
}

// NewManager creates a Manager classifying weather with the default rules.
// Either cache may be nil.
func NewManager(
	weather *fallback.Chain[domain.WeatherProvider],
	operational *fallback.Chain[domain.OperationalProvider],
	weatherCache *cache.TTLCache[domain.WeatherConditions],
	statusCache *cache.TTLCache[domain.AirportStatus],
	logger *slog.Logger,
) *Manager {
	return &Manager{
		weather:      weather,
		operational:  operational,
		weatherCache: weatherCache,
		statusCache:  statusCache,
		rules:        domain.DefaultClassificationRules(),
		logger:       logger,
	}
}

// WeatherProviders returns the weather chain in call order.
func (m *Manager) WeatherProviders() []domain.WeatherProvider { return m.weather.Providers() }

// OperationalProviders returns the operational chain in call order.
func (m *Manager) OperationalProviders() []domain.OperationalProvider {
	return m.operational.Providers()
}

// GetAirportStatus returns the airport's weather, operations and derived
// delay estimate. Weather and operations are fetched concurrently. When no
// weather provider answers the call fails; when no operational provider
// answers, normal operations are assumed.
func (m *Manager) GetAirportStatus(ctx context.Context, airportCode string) (domain.AirportStatus, error) {
	code := domain.AirportKey(airportCode)
	if code == "" {
		return domain.AirportStatus{}, fmt.Errorf("airport status: %w: empty code", domain.ErrUnknownAirport)
	}

	if m.statusCache != nil {
		if entry, ok := m.statusCache.Get(ctx, code); ok {
			m.logger.Debug("airport status cache hit", "airport", code)
			return entry.Value, nil
		}
	}

	var (
		weather  domain.WeatherConditions
		provider string
		ops      domain.OperationalStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		weather, provider, err = m.currentWeather(gctx, code)
		return err
	})
	g.Go(func() error {
		ops = m.operationalStatus(gctx, code)
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.AirportStatus{}, fmt.Errorf("airport status %s: %w", code, err)
	}

	now := domain.Now()
	impact := m.rules.Classify(weather)
	status := domain.AirportStatus{
		AirportCode: code,
		Timestamp:   now,
		Weather:     weather,
		Operational: ops,
		Delays:      domain.DeriveDelayInformation(now, impact, ops),
	}

	if m.statusCache != nil {
		m.statusCache.Set(ctx, code, status, provider)
	}
	return status, nil
}

// GetCurrentWeather returns the airport's current conditions.
func (m *Manager) GetCurrentWeather(ctx context.Context, airportCode string) (domain.WeatherConditions, error) {
	w, _, err := m.currentWeather(ctx, domain.AirportKey(airportCode))
	return w, err
}

// GetForecast returns forecast periods covering the next hours.
func (m *Manager) GetForecast(ctx context.Context, airportCode string, hours int) ([]domain.WeatherForecast, error) {
	code := domain.AirportKey(airportCode)
	fc, _, err := fallback.Do(ctx, m.weather, opForecast,
		func(ctx context.Context, p domain.WeatherProvider) ([]domain.WeatherForecast, error) {
			return p.GetForecast(ctx, code, hours)
		})
	return fc, err
}

// GetHistoricalWeather returns the conditions observed at the airport at date.
func (m *Manager) GetHistoricalWeather(ctx context.Context, airportCode string, date time.Time) (domain.WeatherConditions, error) {
	code := domain.AirportKey(airportCode)
	w, _, err := fallback.Do(ctx, m.weather, opHistoricalWeather,
		func(ctx context.Context, p domain.WeatherProvider) (domain.WeatherConditions, error) {
			return p.GetHistoricalWeather(ctx, code, date)
		})
	return w, err
}

// GetRunwayStatus returns the runway list, or nil when no provider answers.
func (m *Manager) GetRunwayStatus(ctx context.Context, airportCode string) []domain.RunwayStatus {
	code := domain.AirportKey(airportCode)
	runways, _, err := fallback.Do(ctx, m.operational, opRunwayStatus,
		func(ctx context.Context, p domain.OperationalProvider) ([]domain.RunwayStatus, error) {
			return p.GetRunwayStatus(ctx, code)
		})
	if err != nil {
		m.logger.Warn("runway status unavailable", "airport", code, "error", err)
		return nil
	}
	return runways
}

// GetAirTrafficDelays reports active traffic-management delays, false when
// no provider answers.
func (m *Manager) GetAirTrafficDelays(ctx context.Context, airportCode string) bool {
	code := domain.AirportKey(airportCode)
	delayed, _, err := fallback.Do(ctx, m.operational, opAirTrafficDelays,
		func(ctx context.Context, p domain.OperationalProvider) (bool, error) {
			return p.GetAirTrafficDelays(ctx, code)
		})
	if err != nil {
		m.logger.Warn("air traffic delays unavailable", "airport", code, "error", err)
		return false
	}
	return delayed
}

func (m *Manager) currentWeather(ctx context.Context, code string) (domain.WeatherConditions, string, error) {
	if m.weatherCache != nil {
		if entry, ok := m.weatherCache.Get(ctx, code); ok {
			m.logger.Debug("weather cache hit", "airport", code, "provider", entry.Provider)
			return entry.Value, entry.Provider, nil
		}
	}

	w, provider, err := fallback.Do(ctx, m.weather, opCurrentWeather,
		func(ctx context.Context, p domain.WeatherProvider) (domain.WeatherConditions, error) {
			return p.GetCurrentWeather(ctx, code)
		})
	if err != nil {
		m.logger.Error("weather unavailable", "airport", code, "error", err)
		return domain.WeatherConditions{}, "", err
	}

	if m.weatherCache != nil {
		m.weatherCache.Set(ctx, code, w, provider)
	}
	return w, provider, nil
}

func (m *Manager) operationalStatus(ctx context.Context, code string) domain.OperationalStatus {
	ops, _, err := fallback.Do(ctx, m.operational, opOperationalStatus,
		func(ctx context.Context, p domain.OperationalProvider) (domain.OperationalStatus, error) {
			return p.GetOperationalStatus(ctx, code)
		})
	if err != nil {
		m.logger.Warn("operational status unavailable, assuming normal operations", "airport", code, "error", err)
		return domain.NormalOperations()
	}
	return ops
}
