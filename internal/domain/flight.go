package domain

import (
	"strings"
	"time"
)

// FlightStatus is the normalized operational state of a flight.
type FlightStatus string

const (
	StatusOnTime    FlightStatus = "on-time"
	StatusDelayed   FlightStatus = "delayed"
	StatusCancelled FlightStatus = "cancelled"
	StatusDiverted  FlightStatus = "diverted"
	StatusBoarding  FlightStatus = "boarding"
	StatusDeparted  FlightStatus = "departed"
	StatusArrived   FlightStatus = "arrived"
)

// DataSource records where a FlightStatusResult came from.
type DataSource string

const (
	SourceAPI    DataSource = "api"
	SourceCache  DataSource = "cache"
	SourceManual DataSource = "manual"
)

// DelayedThresholdMinutes is the delay at which a flight is reported as delayed
// rather than by its phase of flight.
const DelayedThresholdMinutes = 15

// FlightStatusResult is the canonical flight record every flight-status
// provider normalizes into.
type FlightStatusResult struct {
	FlightNumber       string       `json:"flight_number"`
	AirlineCode        string       `json:"airline_code,omitempty"`
	DepartureAirport   string       `json:"departure_airport"`
	ArrivalAirport     string       `json:"arrival_airport"`
	ScheduledDeparture time.Time    `json:"scheduled_departure"`
	ActualDeparture    *time.Time   `json:"actual_departure,omitempty"`
	ScheduledArrival   time.Time    `json:"scheduled_arrival"`
	ActualArrival      *time.Time   `json:"actual_arrival,omitempty"`
	DelayMinutes       int          `json:"delay_minutes"`
	Status             FlightStatus `json:"status"`
	DelayReason        string       `json:"delay_reason,omitempty"`
	DelayCategory      string       `json:"delay_category,omitempty"`
	Confidence         int          `json:"confidence"` // 0–100
	Source             DataSource   `json:"source"`
	Provider           string       `json:"provider"`
	LastUpdated        time.Time    `json:"last_updated"`
}

// Normalize enforces the record invariants: uppercase identifiers,
// non-negative delay and a confidence within 0–100.
func (r FlightStatusResult) Normalize() FlightStatusResult {
	r.FlightNumber = NormalizeFlightNumber(r.FlightNumber)
	r.AirlineCode = strings.ToUpper(strings.TrimSpace(r.AirlineCode))
	r.DepartureAirport = NormalizeAirportCode(r.DepartureAirport)
	r.ArrivalAirport = NormalizeAirportCode(r.ArrivalAirport)
	if r.DelayMinutes < 0 {
		r.DelayMinutes = 0
	}
	r.Confidence = clampInt(r.Confidence, 0, 100)
	return r
}

// DelayAuthoritative reports whether DelayMinutes can be trusted. Cancelled
// flights carry whatever the provider last computed, which means nothing.
func (r FlightStatusResult) DelayAuthoritative() bool {
	return r.Status != StatusCancelled
}

// StatusFromDelay picks a status for a flight that is neither cancelled nor
// diverted: delayed once the delay crosses the threshold, otherwise phase.
func StatusFromDelay(phase FlightStatus, delayMinutes int) FlightStatus {
	switch phase {
	case StatusCancelled, StatusDiverted:
		return phase
	}
	if delayMinutes >= DelayedThresholdMinutes {
		return StatusDelayed
	}
	return phase
}

// MinutesBetween returns the whole minutes from scheduled to actual, never negative.
func MinutesBetween(scheduled time.Time, actual *time.Time) int {
	if actual == nil || scheduled.IsZero() || actual.IsZero() {
		return 0
	}
	d := int(actual.Sub(scheduled).Minutes())
	if d < 0 {
		return 0
	}
	return d
}

// NormalizeFlightNumber uppercases and strips whitespace, e.g. "ba 117" -> "BA117".
func NormalizeFlightNumber(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// AirlineFromFlightNumber returns the leading airline designator of a flight number.
func AirlineFromFlightNumber(flightNumber string) string {
	fn := NormalizeFlightNumber(flightNumber)
	if len(fn) < 3 {
		return ""
	}
	return fn[:2]
}

// FlightKey builds the flight-status cache key: <FLIGHTNUMBER>_<YYYY-MM-DD>.
func FlightKey(flightNumber string, date time.Time) string {
	return NormalizeFlightNumber(flightNumber) + "_" + date.Format(time.DateOnly)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
