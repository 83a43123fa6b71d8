// Package aggregator assembles providers, caches, rate limiting and the
// managers built on them from configuration. Wiring is static: the set of
// providers is decided once at startup.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/aerodatabox"
	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/aviationstack"
	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/aviationweather"
	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/faa"
	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/openweather"
	"github.com/couchcryptid/flight-disruption-verifier/internal/airportstatus"
	"github.com/couchcryptid/flight-disruption-verifier/internal/cache"
	"github.com/couchcryptid/flight-disruption-verifier/internal/claims"
	"github.com/couchcryptid/flight-disruption-verifier/internal/config"
	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"github.com/couchcryptid/flight-disruption-verifier/internal/eligibility"
	"github.com/couchcryptid/flight-disruption-verifier/internal/fallback"
	"github.com/couchcryptid/flight-disruption-verifier/internal/flightstatus"
	"github.com/couchcryptid/flight-disruption-verifier/internal/observability"
	"github.com/couchcryptid/flight-disruption-verifier/internal/ratelimit"
	"github.com/jonboulle/clockwork"
)

// Options overrides pieces Build would otherwise create. The zero value
// builds everything from configuration.
type Options struct {
	// Clock drives cache expiry and rate-limit windows. Defaults to the real clock.
	Clock clockwork.Clock
	// Store backs every cache. Defaults to the CACHE_BACKEND store, which
	// Close then owns.
	Store cache.Store

	// Provider overrides replace the configured providers of one kind.
	FlightProviders      []domain.FlightStatusProvider
	WeatherProviders     []domain.WeatherProvider
	OperationalProviders []domain.OperationalProvider
}

// Aggregator holds the assembled service graph.
type Aggregator struct {
	Flights    *flightstatus.Manager
	Airports   *airportstatus.Manager
	Calculator *eligibility.Calculator
	Processor  *claims.Processor

	store     cache.Store
	ownsStore bool
	logger    *slog.Logger
}

// Build creates every provider enabled in cfg and wires them into managers.
// metrics may be nil.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, opts Options) (*Aggregator, error) {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	store, owns := opts.Store, false
	if store == nil {
		s, err := cache.Open(ctx, cfg, clock)
		if err != nil {
			return nil, fmt.Errorf("open %s cache: %w", cfg.CacheBackend, err)
		}
		store, owns = s, true
	}

	flights, weather, ops := providersFromConfig(cfg, logger)
	if opts.FlightProviders != nil {
		flights = opts.FlightProviders
	}
	if opts.WeatherProviders != nil {
		weather = opts.WeatherProviders
	}
	if opts.OperationalProviders != nil {
		ops = opts.OperationalProviders
	}

	var budget *ratelimit.Budget
	if cfg.MonthlyRequestBudget > 0 {
		budget = ratelimit.NewBudget(clock, cfg.MonthlyRequestBudget)
	}
	gate := ratelimit.NewGate(ratelimit.NewLimiter(clock), budget, metrics)

	flightMgr := flightstatus.NewManager(
		fallback.NewChain(flights, gate, cfg.ProviderTimeout, metrics, logger),
		cache.NewTTLCache[domain.FlightStatusResult]("flight", store, cfg.FlightCacheTTL, clock, metrics, logger),
		logger,
	)
	airportMgr := airportstatus.NewManager(
		fallback.NewChain(weather, gate, cfg.ProviderTimeout, metrics, logger),
		fallback.NewChain(ops, gate, cfg.ProviderTimeout, metrics, logger),
		cache.NewTTLCache[domain.WeatherConditions]("weather", store, cfg.WeatherCacheTTL, clock, metrics, logger),
		cache.NewTTLCache[domain.AirportStatus]("airport", store, cfg.AirportCacheTTL, clock, metrics, logger),
		logger,
	)

	eligibilityCfg := eligibility.DefaultConfig()
	if cfg.TierAAmount > 0 {
		eligibilityCfg.TierAAmount = cfg.TierAAmount
	}
	if cfg.TierBAmount > 0 {
		eligibilityCfg.TierBAmount = cfg.TierBAmount
	}
	calc := eligibility.NewCalculator(eligibilityCfg, airportMgr, logger)

	if metrics != nil {
		metrics.ProvidersEnabled.WithLabelValues("flight").Set(float64(len(flights)))
		metrics.ProvidersEnabled.WithLabelValues("weather").Set(float64(len(weather)))
		metrics.ProvidersEnabled.WithLabelValues("operational").Set(float64(len(ops)))
	}
	if len(flights) == 0 {
		logger.Warn("no flight status providers configured, claims cannot be verified")
	}
	logger.Info("providers configured",
		"flight", providerNames(flights),
		"weather", providerNames(weather),
		"operational", providerNames(ops),
		"cache_backend", cfg.CacheBackend,
	)

	return &Aggregator{
		Flights:    flightMgr,
		Airports:   airportMgr,
		Calculator: calc,
		Processor:  claims.NewProcessor(flightMgr, calc, metrics, logger),
		store:      store,
		ownsStore:  owns,
		logger:     logger,
	}, nil
}

func providersFromConfig(cfg *config.Config, logger *slog.Logger) ([]domain.FlightStatusProvider, []domain.WeatherProvider, []domain.OperationalProvider) {
	var (
		flights []domain.FlightStatusProvider
		weather []domain.WeatherProvider
		ops     []domain.OperationalProvider
	)
	for _, pc := range cfg.Providers() {
		if !pc.Enabled {
			continue
		}
		switch pc.Name {
		case config.ProviderAviationStack:
			flights = append(flights, aviationstack.NewClient(pc, cfg.ProviderTimeout, logger))
		case config.ProviderAeroDataBox:
			flights = append(flights, aerodatabox.NewClient(pc, cfg.ProviderTimeout, logger))
		case config.ProviderOpenWeather:
			weather = append(weather, openweather.NewClient(pc, cfg.ProviderTimeout, logger))
		case config.ProviderAviationWeather:
			weather = append(weather, aviationweather.NewClient(pc, cfg.ProviderTimeout, logger))
		case config.ProviderFAA:
			ops = append(ops, faa.NewClient(pc, cfg.ProviderTimeout, logger))
		}
	}
	return flights, weather, ops
}

// ProviderHealth reports each configured provider's health by name.
func (a *Aggregator) ProviderHealth(ctx context.Context) map[string]bool {
	health := make(map[string]bool)
	for _, p := range a.Flights.Providers() {
		health[p.Name()] = p.IsHealthy(ctx)
	}
	for _, p := range a.Airports.WeatherProviders() {
		health[p.Name()] = p.IsHealthy(ctx)
	}
	for _, p := range a.Airports.OperationalProviders() {
		health[p.Name()] = p.IsHealthy(ctx)
	}
	return health
}

// CheckReadiness returns nil when at least one flight status provider is
// configured and healthy.
func (a *Aggregator) CheckReadiness(ctx context.Context) error {
	providers := a.Flights.Providers()
	if len(providers) == 0 {
		return fmt.Errorf("flight status: %w", domain.ErrNoProviders)
	}
	for _, p := range providers {
		if p.IsHealthy(ctx) {
			return nil
		}
	}
	return errors.New("no healthy flight status provider")
}

// Close releases the cache store when Build opened it.
func (a *Aggregator) Close() error {
	if !a.ownsStore {
		return nil
	}
	return a.store.Close()
}

func providerNames[P domain.Provider](providers []P) []string {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	return names
}
