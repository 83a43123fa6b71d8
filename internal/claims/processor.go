// Package claims runs a parsed claim through verification, attribution and
// eligibility, producing the assessment returned to the claims pipeline.
package claims

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"github.com/couchcryptid/flight-disruption-verifier/internal/eligibility"
	"github.com/couchcryptid/flight-disruption-verifier/internal/observability"
	"github.com/google/uuid"
)

// Recommendations attached to assessments.
const (
	RecUnverified      = "Flight details could not be verified with external data sources - assessment uses the reported delay"
	RecLowConfidence   = "Verification confidence is low - manual review recommended before submission"
	RecDiscrepancy     = "Significant discrepancy between claimed and verified delay"
	RecWeather         = "Weather-related delays detected - compensation may be reduced"
	RecExtraordinary   = "Extraordinary circumstances likely apply - the airline may lawfully refuse compensation"
	RecWeatherUnknown  = "Weather data unavailable - delay attributed to the airline"
	RecBelowThreshold  = "Delay is below the compensation threshold - consider claiming expenses instead"
	RecSubmitCancelled = "Cancelled flights qualify for compensation unless rebooked with minimal delay"
)

// discrepancyThreshold is the claimed-versus-verified delay difference, in
// minutes, worth flagging.
const discrepancyThreshold = 30

// FlightVerifier checks a claim against flight-status providers.
type FlightVerifier interface {
	VerifyClaim(ctx context.Context, report domain.ParsedFlightData) (domain.VerificationResult, error)
}

// Processor is the claim-processing orchestrator.
type Processor struct {
	verifier   FlightVerifier
	calculator *eligibility.Calculator
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewProcessor creates a Processor. metrics may be nil.
func NewProcessor(verifier FlightVerifier, calculator *eligibility.Calculator, metrics *observability.Metrics, logger *slog.Logger) *Processor {
	return &Processor{
		verifier:   verifier,
		calculator: calculator,
		metrics:    metrics,
		logger:     logger,
	}
}

// Process assesses one claim. It never fails: when the flight cannot be
// verified the assessment proceeds on the reported facts and says so.
// Callers should reject claims failing data.Validate before calling Process.
func (p *Processor) Process(ctx context.Context, data domain.ParsedFlightData) domain.ClaimAssessment {
	data = data.Normalize()
	if data.ClaimID == "" {
		data.ClaimID = uuid.NewString()
	}
	logger := p.logger.With("claim_id", data.ClaimID, "flight_number", data.FlightNumber)

	var recs []string
	data, recs = p.verify(ctx, logger, data, recs)

	attr, _ := p.calculator.Attribute(ctx, data)
	result := p.calculator.Assess(data, attr)
	data.WeatherContext = result.WeatherContext

	recs = append(recs, recommend(data, result)...)
	p.observe(result)

	logger.Info("claim assessed",
		"eligible", result.IsEligible,
		"amount", result.CompensationAmount,
		"verified", data.IsVerified,
		"attribution", result.WeatherContext.Attribution,
	)
	return domain.ClaimAssessment{
		ClaimID:         data.ClaimID,
		ParsedData:      data,
		Eligibility:     result,
		Recommendations: recs,
		AssessedAt:      domain.Now(),
	}
}

// verify fills in the verification fields exactly once.
func (p *Processor) verify(ctx context.Context, logger *slog.Logger, data domain.ParsedFlightData, recs []string) (domain.ParsedFlightData, []string) {
	v, err := p.verifier.VerifyClaim(ctx, data)
	if err != nil {
		logger.Warn("claim verification failed, using reported data", "error", err)
		data.IsVerified = false
		return data, append(recs, RecUnverified)
	}

	now := domain.Now()
	data.Verification = &v
	data.IsVerified = v.Verified
	data.VerificationTimestamp = &now
	if p.metrics != nil {
		p.metrics.VerificationConfidence.Observe(float64(v.Confidence))
	}

	if actual := v.ActualData; actual != nil {
		data.VerifiedStatus = actual.Status
		if actual.DelayAuthoritative() {
			d := actual.DelayMinutes
			data.VerifiedDelay = &d
		}
		// Fill endpoints the traveler left out so attribution has airports to check.
		if data.DepartureAirport == "" {
			data.DepartureAirport = actual.DepartureAirport
		}
		if data.ArrivalAirport == "" {
			data.ArrivalAirport = actual.ArrivalAirport
		}
	}

	if !v.Verified {
		recs = append(recs, RecLowConfidence)
	}
	return data, recs
}

func recommend(data domain.ParsedFlightData, result domain.EligibilityResult) []string {
	var recs []string

	if vs := result.VerificationStatus; vs != nil && vs.DelayDiscrepancy != nil && *vs.DelayDiscrepancy > discrepancyThreshold {
		recs = append(recs, fmt.Sprintf("%s (claimed %d, verified %d minutes)",
			RecDiscrepancy, data.DelayMinutes, *data.VerifiedDelay))
	}

	wc := result.WeatherContext
	switch {
	case wc == nil || !wc.DataAvailable:
		recs = append(recs, RecWeatherUnknown)
	case wc.IsExtraordinary && !result.IsEligible:
		recs = append(recs, RecExtraordinary)
	case wc.IsWeatherRelated:
		recs = append(recs, RecWeather)
	}

	switch {
	case data.IsCancellation():
		recs = append(recs, RecSubmitCancelled)
	case result.IsEligible:
		recs = append(recs, fmt.Sprintf("Submit the claim to the airline under %s for %d %s",
			result.Regulation, result.CompensationAmount, result.Currency))
	case !(wc != nil && wc.IsExtraordinary):
		recs = append(recs, RecBelowThreshold)
	}
	return recs
}

func (p *Processor) observe(result domain.EligibilityResult) {
	if p.metrics == nil {
		return
	}
	outcome := "ineligible"
	if result.IsEligible {
		outcome = "eligible"
	}
	p.metrics.ClaimsProcessed.WithLabelValues(outcome).Inc()
	if wc := result.WeatherContext; wc != nil {
		p.metrics.Attributions.WithLabelValues(string(wc.Attribution)).Inc()
	}
}
