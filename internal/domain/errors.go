package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAllProvidersFailed is returned when every provider in a fallback chain failed.
	ErrAllProvidersFailed = errors.New("all providers failed")
	// ErrNoProviders is returned when a chain has no configured providers.
	ErrNoProviders = errors.New("no providers configured")
	// ErrRateLimited is returned when the local rate limiter denies a provider call.
	ErrRateLimited = errors.New("rate limited")
	// ErrBudgetExhausted is returned when a provider's monthly request budget is spent.
	ErrBudgetExhausted = errors.New("monthly request budget exhausted")
	// ErrFlightNotFound is returned when a provider has no record of the flight.
	ErrFlightNotFound = errors.New("flight not found")
	// ErrUnknownAirport is returned for airport codes missing from the reference table.
	ErrUnknownAirport = errors.New("unknown airport")
	// ErrNotSupported is returned by providers for operations their upstream lacks.
	ErrNotSupported = errors.New("operation not supported by provider")
	// ErrInvalidClaim is returned when a parsed claim lacks the facts needed to verify it.
	ErrInvalidClaim = errors.New("invalid claim")
)

// ProviderError records a failure of a single provider call.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
