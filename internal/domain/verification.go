package domain

import (
	"strconv"
)

const (
	// VerifiedThreshold is the minimum confidence for a claim to count as verified.
	VerifiedThreshold = 60
	// MatchThreshold is the minimum confidence for the user's report to count as matching.
	MatchThreshold = 80
)

// Discrepancy names the field where the user's report and provider data disagree most.
type Discrepancy struct {
	Field       string `json:"field"`
	UserValue   string `json:"user_value"`
	ActualValue string `json:"actual_value"`
}

// VerificationResult compares a user's report against provider data.
// Confidence is on a 0–100 scale.
type VerificationResult struct {
	Verified          bool                `json:"verified"`
	Confidence        int                 `json:"confidence"`
	ActualData        *FlightStatusResult `json:"actual_data,omitempty"`
	UserReportedMatch bool                `json:"user_reported_match"`
	Discrepancy       *Discrepancy        `json:"discrepancy,omitempty"`
}

// Normalized converts Confidence to the 0–1 scale used by attribution.
func (v VerificationResult) Normalized() float64 {
	return float64(v.Confidence) / 100
}

// CompareWithUserData scores how well the reported disruption matches the
// provider's record. Each disagreement costs a fixed penalty; the largest
// single penalty names the discrepancy.
func CompareWithUserData(report ParsedFlightData, actual FlightStatusResult) VerificationResult {
	confidence := 100
	var worst int
	var discrepancy *Discrepancy

	penalize := func(penalty int, d Discrepancy) {
		confidence -= penalty
		if penalty > worst {
			worst = penalty
			dd := d
			discrepancy = &dd
		}
	}

	reportedCancelled := report.DisruptionType == DisruptionCancellation
	actualCancelled := actual.Status == StatusCancelled
	if reportedCancelled != actualCancelled {
		penalize(50, Discrepancy{
			Field:       "status",
			UserValue:   string(report.DisruptionType),
			ActualValue: string(actual.Status),
		})
	}

	if !reportedCancelled && actual.DelayAuthoritative() {
		diff := report.DelayMinutes - actual.DelayMinutes
		if diff < 0 {
			diff = -diff
		}
		var penalty int
		switch {
		case diff <= 15:
		case diff <= 30:
			penalty = 10
		case diff <= 60:
			penalty = 25
		default:
			penalty = 45
		}
		if penalty > 0 {
			penalize(penalty, Discrepancy{
				Field:       "delay_minutes",
				UserValue:   strconv.Itoa(report.DelayMinutes),
				ActualValue: strconv.Itoa(actual.DelayMinutes),
			})
		}
	}

	compareAirport := func(field, reported, actualCode string) {
		reported = NormalizeAirportCode(reported)
		actualCode = NormalizeAirportCode(actualCode)
		if reported != "" && actualCode != "" && reported != actualCode {
			penalize(20, Discrepancy{Field: field, UserValue: reported, ActualValue: actualCode})
		}
	}
	compareAirport("departure_airport", report.DepartureAirport, actual.DepartureAirport)
	compareAirport("arrival_airport", report.ArrivalAirport, actual.ArrivalAirport)

	confidence = clampInt(confidence, 0, 100)
	data := actual
	return VerificationResult{
		Verified:          confidence >= VerifiedThreshold,
		Confidence:        confidence,
		ActualData:        &data,
		UserReportedMatch: confidence >= MatchThreshold,
		Discrepancy:       discrepancy,
	}
}
