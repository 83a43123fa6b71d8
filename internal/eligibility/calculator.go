// Package eligibility decides compensation for a claim from its delay and
// adjusts the decision for weather and extraordinary circumstances.
package eligibility

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ReasonExtraordinary prefixes the reason of claims denied for
// extraordinary circumstances.
const ReasonExtraordinary = "extraordinary circumstances"

// Config holds the regulation tiers and adjustment thresholds.
type Config struct {
	Regulation string
	Currency   string

	TierAAmount           int
	TierBAmount           int
	MinDelayMinutes       int
	TierBThresholdMinutes int

	// Attribution confidence above which an extraordinary cause voids the claim.
	ExtraordinaryConfidence float64
	// Attribution confidence above which weather reduces the amount.
	WeatherConfidence float64
	// Amount multiplier per weather severity.
	Reductions map[domain.Severity]float64
}

// DefaultConfig returns EU261 long-haul tiers with the standard reductions.
func DefaultConfig() Config {
	return Config{
		Regulation:              "EU261",
		Currency:                "EUR",
		TierAAmount:             400,
		TierBAmount:             600,
		MinDelayMinutes:         180,
		TierBThresholdMinutes:   240,
		ExtraordinaryConfidence: 0.7,
		WeatherConfidence:       0.5,
		Reductions: map[domain.Severity]float64{
			domain.SeveritySevere:   0,
			domain.SeverityModerate: 0.5,
			domain.SeverityLight:    0.8,
			domain.SeverityNone:     1,
		},
	}
}

// AirportStatusSource returns the composite status of an airport.
type AirportStatusSource interface {
	GetAirportStatus(ctx context.Context, airportCode string) (domain.AirportStatus, error)
}

// Calculator is the weather-aware eligibility calculator.
type Calculator struct {
	cfg      Config
	airports AirportStatusSource
	engine   domain.AttributionEngine
	logger   *slog.Logger
}

// NewCalculator creates a Calculator attributing delays with the default engine.
func NewCalculator(cfg Config, airports AirportStatusSource, logger *slog.Logger) *Calculator {
	return &Calculator{
		cfg:      cfg,
		airports: airports,
		engine:   domain.NewAttributionEngine(),
		logger:   logger,
	}
}

// Config returns the calculator's configuration.
func (c *Calculator) Config() Config { return c.cfg }

// CheckEligibility attributes the claim's delay and assesses it.
func (c *Calculator) CheckEligibility(ctx context.Context, data domain.ParsedFlightData) domain.EligibilityResult {
	attr, _ := c.Attribute(ctx, data)
	return c.Assess(data, attr)
}

// Attribute fetches both endpoints' status concurrently and returns the
// attribution that most constrains compensation along with the statuses it
// was derived from. The attribution is nil when neither airport could be
// fetched.
func (c *Calculator) Attribute(ctx context.Context, data domain.ParsedFlightData) (*domain.DelayAttribution, []domain.AirportStatus) {
	codes := make([]string, 0, 2)
	for _, code := range []string{data.DepartureAirport, data.ArrivalAirport} {
		if code = domain.AirportKey(code); code != "" {
			codes = append(codes, code)
		}
	}

	// Results are stored by position so ties resolve to the departure airport.
	results := make([]*domain.AirportStatus, len(codes))
	var g errgroup.Group
	for i, code := range codes {
		g.Go(func() error {
			status, err := c.airports.GetAirportStatus(ctx, code)
			if err != nil {
				c.logger.Warn("airport status unavailable for attribution",
					"claim_id", data.ClaimID, "airport", code, "error", err)
				return nil
			}
			results[i] = &status
			return nil
		})
	}
	_ = g.Wait()

	statuses := make([]domain.AirportStatus, 0, len(results))
	for _, s := range results {
		if s != nil {
			statuses = append(statuses, *s)
		}
	}

	attrs := make([]domain.DelayAttribution, 0, len(statuses))
	for _, s := range statuses {
		attrs = append(attrs, c.engine.AttributeDelay(data, s))
	}
	best, ok := domain.StrongestAttribution(attrs...)
	if !ok {
		return nil, nil
	}
	return &best, statuses
}

// Assess applies the base tiers to the claim, then adjusts them for attr.
// A nil attr leaves the base decision unchanged and records that weather
// data was unavailable.
func (c *Calculator) Assess(data domain.ParsedFlightData, attr *domain.DelayAttribution) domain.EligibilityResult {
	res := c.base(data)

	if attr == nil {
		res.WeatherContext = domain.UnavailableWeatherContext()
	} else {
		res.WeatherContext = domain.NewWeatherContext(*attr)
		switch {
		case attr.IsExtraordinary && attr.Confidence > c.cfg.ExtraordinaryConfidence:
			res.IsEligible = false
			res.CompensationAmount = 0
			res.AdjustmentFactor = 0
			res.Reason = fmt.Sprintf("%s: %s weather at %s", ReasonExtraordinary, attr.WeatherSeverity, attr.AirportCode)
		case attr.IsWeatherRelated && attr.Confidence > c.cfg.WeatherConfidence && res.IsEligible:
			factor, ok := c.cfg.Reductions[attr.WeatherSeverity]
			if !ok {
				factor = 1
			}
			res.AdjustmentFactor = factor
			res.CompensationAmount = int(math.Floor(float64(res.CompensationAmount) * factor))
			res.Reason += fmt.Sprintf("; reduced for %s weather at %s", attr.WeatherSeverity, attr.AirportCode)
		}
	}

	res.VerificationStatus = verificationStatus(data)
	return res
}

func (c *Calculator) base(data domain.ParsedFlightData) domain.EligibilityResult {
	delay := data.EffectiveDelayMinutes()
	res := domain.EligibilityResult{
		Currency:         c.cfg.Currency,
		Regulation:       c.cfg.Regulation,
		DelayMinutes:     delay,
		AdjustmentFactor: 1,
	}

	switch {
	case data.IsCancellation():
		res.DelayMinutes = 0
		res.IsEligible = true
		res.CompensationAmount = c.cfg.TierBAmount
		res.Reason = "flight cancelled"
	case delay < c.cfg.MinDelayMinutes:
		res.Reason = fmt.Sprintf("delay of %d minutes is below the %d minute threshold", delay, c.cfg.MinDelayMinutes)
	case delay < c.cfg.TierBThresholdMinutes:
		res.IsEligible = true
		res.CompensationAmount = c.cfg.TierAAmount
		res.Reason = fmt.Sprintf("delay of %d minutes qualifies for compensation", delay)
	default:
		res.IsEligible = true
		res.CompensationAmount = c.cfg.TierBAmount
		res.Reason = fmt.Sprintf("delay of %d minutes qualifies for full compensation", delay)
	}
	return res
}

func verificationStatus(data domain.ParsedFlightData) *domain.VerificationStatus {
	vs := &domain.VerificationStatus{
		Verified:  data.IsVerified,
		Timestamp: data.VerificationTimestamp,
	}
	if data.Verification != nil {
		vs.Confidence = data.Verification.Confidence
	}
	if data.VerifiedDelay != nil {
		d := data.DelayMinutes - *data.VerifiedDelay
		if d < 0 {
			d = -d
		}
		vs.DelayDiscrepancy = &d
	}
	return vs
}
