package domain

import "fmt"

// ClassificationRules holds the thresholds that map observations to a
// severity. Every field is overridable; DefaultClassificationRules returns
// the values used in production.
type ClassificationRules struct {
	SevereVisibilityKm   float64
	ModerateVisibilityKm float64
	SevereWindKmh        float64
	ModerateWindKmh      float64

	SevereVisibilityProbability   float64
	ModerateVisibilityProbability float64
	SevereWindProbability         float64
	ModerateWindProbability       float64
	HeavyPrecipProbability        float64
	PrecipProbability             float64
	FlaggedSevereProbability      float64
	ObscurationProbability        float64
}

// DefaultClassificationRules returns the standard aviation thresholds.
func DefaultClassificationRules() ClassificationRules {
	return ClassificationRules{
		SevereVisibilityKm:   0.5,
		ModerateVisibilityKm: 1.0,
		SevereWindKmh:        50,
		ModerateWindKmh:      30,

		SevereVisibilityProbability:   0.9,
		ModerateVisibilityProbability: 0.7,
		SevereWindProbability:         0.8,
		ModerateWindProbability:       0.5,
		HeavyPrecipProbability:        0.8,
		PrecipProbability:             0.4,
		FlaggedSevereProbability:      0.95,
		ObscurationProbability:        0.2,
	}
}

// ClassifyWeatherImpact classifies conditions with the default rules.
func ClassifyWeatherImpact(c WeatherConditions) WeatherImpact {
	return DefaultClassificationRules().Classify(c)
}

// Classify maps conditions to a WeatherImpact. Rules only escalate: the
// result carries the highest severity, the highest delay probability and
// the union of extraordinary flags across all matched rules.
func (r ClassificationRules) Classify(c WeatherConditions) WeatherImpact {
	impact := WeatherImpact{Severity: SeverityNone}

	match := func(sev Severity, extraordinary bool, probability float64, recommendation string) {
		impact.AffectsAviation = true
		impact.Severity = MaxSeverity(impact.Severity, sev)
		impact.IsExtraordinary = impact.IsExtraordinary || extraordinary
		if probability > impact.DelayProbability {
			impact.DelayProbability = probability
		}
		impact.Recommendations = append(impact.Recommendations, recommendation)
	}

	if !c.VisibilityUnreported {
		switch {
		case c.Visibility < r.SevereVisibilityKm:
			match(SeveritySevere, true, r.SevereVisibilityProbability,
				fmt.Sprintf("Visibility %.1f km is below low-visibility minimums", c.Visibility))
		case c.Visibility < r.ModerateVisibilityKm:
			match(SeverityModerate, false, r.ModerateVisibilityProbability,
				fmt.Sprintf("Reduced visibility of %.1f km slows arrival rates", c.Visibility))
		}
	}

	switch {
	case c.WindSpeed > r.SevereWindKmh:
		match(SeveritySevere, true, r.SevereWindProbability,
			fmt.Sprintf("Wind of %.0f km/h exceeds crosswind limits", c.WindSpeed))
	case c.WindSpeed > r.ModerateWindKmh:
		match(SeverityModerate, false, r.ModerateWindProbability,
			fmt.Sprintf("Strong wind of %.0f km/h may restrict runway use", c.WindSpeed))
	}

	var heavy, precip, obscured bool
	for _, cond := range c.Conditions {
		switch {
		case cond.IsPrecipitation() && cond.IsHeavy():
			heavy = true
		case cond.IsPrecipitation():
			precip = true
		case cond.AffectsRunway || cond.AffectsVisibility:
			obscured = true
		}
	}
	if heavy {
		match(SeveritySevere, true, r.HeavyPrecipProbability, "Heavy precipitation reported; expect de-icing and runway treatment delays")
	}
	if precip {
		match(SeverityModerate, false, r.PrecipProbability, "Precipitation reported; minor ground delays likely")
	}
	if obscured {
		match(SeverityLight, false, r.ObscurationProbability, "Obscuring phenomena reported near the airport")
	}

	if c.IsSevere {
		match(SeveritySevere, true, r.FlaggedSevereProbability, "Provider flagged severe weather conditions")
	}

	return impact
}
