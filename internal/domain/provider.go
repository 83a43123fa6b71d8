package domain

import (
	"context"
	"time"
)

// RateLimit describes a provider's request quota. Zero means unlimited.
type RateLimit struct {
	RequestsPerMinute int
	RequestsPerMonth  int
}

// Provider is the metadata every upstream data source exposes.
type Provider interface {
	// Name identifies the provider in logs, metrics and rate-limit state.
	Name() string
	// Priority orders providers within a chain; lower is tried first.
	Priority() int
	// RateLimit returns the provider's quota.
	RateLimit() RateLimit
	// IsHealthy reports whether the provider's most recent call succeeded.
	IsHealthy(ctx context.Context) bool
}

// FlightStatusProvider looks up the operational record of a flight.
type FlightStatusProvider interface {
	Provider
	GetFlightStatus(ctx context.Context, flightNumber string, date time.Time) (FlightStatusResult, error)
	ValidateFlightExists(ctx context.Context, flightNumber string, date time.Time) bool
}

// WeatherProvider reports observed and forecast weather at an airport.
type WeatherProvider interface {
	Provider
	GetCurrentWeather(ctx context.Context, airportCode string) (WeatherConditions, error)
	GetForecast(ctx context.Context, airportCode string, hours int) ([]WeatherForecast, error)
	GetHistoricalWeather(ctx context.Context, airportCode string, date time.Time) (WeatherConditions, error)
}

// OperationalProvider reports the operating status of an airport.
type OperationalProvider interface {
	Provider
	GetOperationalStatus(ctx context.Context, airportCode string) (OperationalStatus, error)
	GetRunwayStatus(ctx context.Context, airportCode string) ([]RunwayStatus, error)
	GetAirTrafficDelays(ctx context.Context, airportCode string) (bool, error)
}
