package domain

import (
	"strings"
	"time"
)

// OperationalState is the overall operating mode of an airport.
type OperationalState string

const (
	OpsNormal     OperationalState = "normal"
	OpsDelayed    OperationalState = "delayed"
	OpsGroundStop OperationalState = "ground_stop"
	OpsClosed     OperationalState = "closed"
)

// RunwayState is the availability of a single runway.
type RunwayState string

const (
	RunwayOpen    RunwayState = "open"
	RunwayClosed  RunwayState = "closed"
	RunwayLimited RunwayState = "limited"
)

// RunwayStatus describes one runway.
type RunwayStatus struct {
	RunwayID         string      `json:"runway_id"`
	Status           RunwayState `json:"status"`
	VisibilityMeters int         `json:"visibility_meters,omitempty"`
	SurfaceCondition string      `json:"surface_condition,omitempty"`
	WindRestricted   bool        `json:"wind_restricted"`
}

// OperationalStatus is the operational picture of an airport.
type OperationalStatus struct {
	Status          OperationalState `json:"status"`
	Runways         []RunwayStatus   `json:"runways,omitempty"`
	AirTrafficDelay bool             `json:"air_traffic_delay"`
	GroundStop      bool             `json:"ground_stop"`
	ClosureReason   string           `json:"closure_reason,omitempty"`
	ClosureETA      *time.Time       `json:"closure_eta,omitempty"`
	DelayReason     string           `json:"delay_reason,omitempty"`
}

// NormalOperations is the placeholder used when no operational provider answers.
func NormalOperations() OperationalStatus {
	return OperationalStatus{Status: OpsNormal}
}

// DelayInformation summarizes expected delays at an airport.
type DelayInformation struct {
	AverageDelayMinutes int        `json:"average_delay_minutes"`
	Reason              string     `json:"reason"`
	AffectedFlights     int        `json:"affected_flights"`
	ExpectedResolution  *time.Time `json:"expected_resolution,omitempty"`
}

// AirportStatus is the composite weather and operations view of an airport.
type AirportStatus struct {
	AirportCode string            `json:"airport_code"`
	Timestamp   time.Time         `json:"timestamp"`
	Weather     WeatherConditions `json:"weather"`
	Operational OperationalStatus `json:"operational"`
	Delays      DelayInformation  `json:"delays"`
}

// delayEstimate is a canned estimate for one precedence tier.
type delayEstimate struct {
	avg      int
	affected int
	resolve  time.Duration
}

var (
	closedEstimate     = delayEstimate{avg: 240, affected: 100, resolve: 4 * time.Hour}
	groundStopEstimate = delayEstimate{avg: 120, affected: 50, resolve: 2 * time.Hour}
	atcEstimate        = delayEstimate{avg: 45, affected: 20, resolve: time.Hour}

	weatherEstimates = map[Severity]delayEstimate{
		SeveritySevere:   {avg: 90, affected: 40, resolve: 3 * time.Hour},
		SeverityModerate: {avg: 45, affected: 20, resolve: 2 * time.Hour},
		SeverityLight:    {avg: 15, affected: 5, resolve: time.Hour},
	}
)

// DeriveDelayInformation synthesizes DelayInformation with the precedence
// closed > ground stop > air-traffic delay > weather impact > normal.
func DeriveDelayInformation(now time.Time, impact WeatherImpact, ops OperationalStatus) DelayInformation {
	resolveAt := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}

	switch {
	case ops.Status == OpsClosed:
		info := DelayInformation{
			AverageDelayMinutes: closedEstimate.avg,
			AffectedFlights:     closedEstimate.affected,
			Reason:              "Airport closed",
			ExpectedResolution:  resolveAt(closedEstimate.resolve),
		}
		if ops.ClosureReason != "" {
			info.Reason += ": " + ops.ClosureReason
		}
		if ops.ClosureETA != nil {
			eta := *ops.ClosureETA
			info.ExpectedResolution = &eta
		}
		return info
	case ops.Status == OpsGroundStop || ops.GroundStop:
		return DelayInformation{
			AverageDelayMinutes: groundStopEstimate.avg,
			AffectedFlights:     groundStopEstimate.affected,
			Reason:              withDetail("Ground stop in effect", ops.DelayReason),
			ExpectedResolution:  resolveAt(groundStopEstimate.resolve),
		}
	case ops.AirTrafficDelay:
		return DelayInformation{
			AverageDelayMinutes: atcEstimate.avg,
			AffectedFlights:     atcEstimate.affected,
			Reason:              withDetail("Air traffic control delays", ops.DelayReason),
			ExpectedResolution:  resolveAt(atcEstimate.resolve),
		}
	case impact.AffectsAviation:
		est := weatherEstimates[impact.Severity]
		return DelayInformation{
			AverageDelayMinutes: est.avg,
			AffectedFlights:     est.affected,
			Reason:              string(impact.Severity) + " weather impact",
			ExpectedResolution:  resolveAt(est.resolve),
		}
	default:
		return DelayInformation{Reason: "Normal operations"}
	}
}

func withDetail(base, detail string) string {
	if detail == "" {
		return base
	}
	return base + ": " + detail
}

// NormalizeAirportCode uppercases and trims an airport code.
func NormalizeAirportCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AirportKey builds the weather and airport-status cache key.
func AirportKey(code string) string {
	return NormalizeAirportCode(code)
}
