package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DisruptionType is the kind of disruption a traveler reports.
type DisruptionType string

const (
	DisruptionDelay        DisruptionType = "delay"
	DisruptionCancellation DisruptionType = "cancellation"
)

// ParsedFlightData is a claim as extracted upstream from the traveler's
// submission. The verification fields are filled in exactly once by the
// claim processor.
type ParsedFlightData struct {
	ClaimID            string         `json:"claim_id,omitempty"`
	FlightNumber       string         `json:"flight_number"`
	FlightDate         time.Time      `json:"flight_date"`
	AirlineCode        string         `json:"airline_code,omitempty"`
	DepartureAirport   string         `json:"departure_airport,omitempty"`
	ArrivalAirport     string         `json:"arrival_airport,omitempty"`
	DisruptionType     DisruptionType `json:"disruption_type,omitempty"`
	DelayMinutes       int            `json:"delay_minutes"`
	ScheduledDeparture *time.Time     `json:"scheduled_departure,omitempty"`
	PassengerCount     int            `json:"passenger_count,omitempty"`

	VerifiedDelay         *int                `json:"verified_delay,omitempty"`
	VerifiedStatus        FlightStatus        `json:"verified_status,omitempty"`
	IsVerified            bool                `json:"is_verified"`
	VerificationTimestamp *time.Time          `json:"verification_timestamp,omitempty"`
	Verification          *VerificationResult `json:"verification,omitempty"`
	WeatherContext        *WeatherContext     `json:"weather_context,omitempty"`
}

// UnmarshalJSON accepts flight_date either as YYYY-MM-DD or as RFC 3339.
func (p *ParsedFlightData) UnmarshalJSON(b []byte) error {
	type alias ParsedFlightData
	aux := struct {
		*alias
		FlightDate string `json:"flight_date"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.FlightDate == "" {
		p.FlightDate = time.Time{}
		return nil
	}
	date, err := ParseFlightDate(aux.FlightDate)
	if err != nil {
		return err
	}
	p.FlightDate = date
	return nil
}

// ParseFlightDate parses YYYY-MM-DD or RFC 3339 into a UTC date.
func ParseFlightDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid flight date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Validate checks the facts verification cannot proceed without.
func (p ParsedFlightData) Validate() error {
	if strings.TrimSpace(p.FlightNumber) == "" {
		return fmt.Errorf("%w: flight_number is required", ErrInvalidClaim)
	}
	if p.FlightDate.IsZero() {
		return fmt.Errorf("%w: flight_date is required", ErrInvalidClaim)
	}
	if p.DelayMinutes < 0 {
		return fmt.Errorf("%w: delay_minutes must not be negative", ErrInvalidClaim)
	}
	return nil
}

// Normalize uppercases identifiers and infers the airline and disruption type.
func (p ParsedFlightData) Normalize() ParsedFlightData {
	p.FlightNumber = NormalizeFlightNumber(p.FlightNumber)
	p.AirlineCode = strings.ToUpper(strings.TrimSpace(p.AirlineCode))
	if p.AirlineCode == "" {
		p.AirlineCode = AirlineFromFlightNumber(p.FlightNumber)
	}
	p.DepartureAirport = NormalizeAirportCode(p.DepartureAirport)
	p.ArrivalAirport = NormalizeAirportCode(p.ArrivalAirport)
	if p.DisruptionType == "" {
		p.DisruptionType = DisruptionDelay
	}
	return p
}

// IsCancellation reports whether the reported or verified disruption is a cancellation.
func (p ParsedFlightData) IsCancellation() bool {
	if p.VerifiedStatus != "" && p.IsVerified {
		return p.VerifiedStatus == StatusCancelled
	}
	return p.DisruptionType == DisruptionCancellation
}

// EffectiveDelayMinutes prefers the verified delay over the reported one. A
// provider delay that failed verification is kept for discrepancy reporting
// but does not replace the traveler's figure.
func (p ParsedFlightData) EffectiveDelayMinutes() int {
	if p.VerifiedDelay != nil && p.IsVerified {
		return *p.VerifiedDelay
	}
	return p.DelayMinutes
}

// WeatherContext summarizes the attribution attached to a claim.
type WeatherContext struct {
	IsWeatherRelated bool                `json:"is_weather_related"`
	IsExtraordinary  bool                `json:"is_extraordinary"`
	Severity         Severity            `json:"severity"`
	Attribution      AttributionCategory `json:"attribution"`
	Confidence       float64             `json:"confidence"` // 0–1
	DelayProbability float64             `json:"delay_probability"`
	AirportCode      string              `json:"airport_code,omitempty"`
	DataAvailable    bool                `json:"data_available"`
}

// NewWeatherContext builds a context from an attribution.
func NewWeatherContext(a DelayAttribution) *WeatherContext {
	return &WeatherContext{
		IsWeatherRelated: a.IsWeatherRelated,
		IsExtraordinary:  a.IsExtraordinary,
		Severity:         a.WeatherSeverity,
		Attribution:      a.Attribution,
		Confidence:       a.Confidence,
		DelayProbability: a.DelayProbability,
		AirportCode:      a.AirportCode,
		DataAvailable:    true,
	}
}

// UnavailableWeatherContext is attached when no airport status could be fetched.
// The airline carries the burden of proof, so the delay stays attributed to it.
func UnavailableWeatherContext() *WeatherContext {
	return &WeatherContext{
		Severity:    SeverityNone,
		Attribution: AttributionAirline,
		Confidence:  0.5,
	}
}

// VerificationStatus records how the delay used for eligibility was established.
type VerificationStatus struct {
	Verified         bool       `json:"verified"`
	Timestamp        *time.Time `json:"timestamp,omitempty"`
	DelayDiscrepancy *int       `json:"delay_discrepancy,omitempty"`
	Confidence       int        `json:"confidence"` // 0–100
}

// EligibilityResult is the compensation decision for one claim.
type EligibilityResult struct {
	IsEligible         bool                `json:"is_eligible"`
	Reason             string              `json:"reason"`
	CompensationAmount int                 `json:"compensation_amount"`
	Currency           string              `json:"currency"`
	DelayMinutes       int                 `json:"delay_minutes"`
	Regulation         string              `json:"regulation"`
	AdjustmentFactor   float64             `json:"adjustment_factor"`
	WeatherContext     *WeatherContext     `json:"weather_context,omitempty"`
	VerificationStatus *VerificationStatus `json:"verification_status,omitempty"`
}

// ClaimAssessment is the orchestrator's output for one claim.
type ClaimAssessment struct {
	ClaimID         string            `json:"claim_id"`
	ParsedData      ParsedFlightData  `json:"parsed_data"`
	Eligibility     EligibilityResult `json:"eligibility"`
	Recommendations []string          `json:"recommendations"`
	AssessedAt      time.Time         `json:"assessed_at"`
}

// RawMessage is an unprocessed claim message from the source topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
