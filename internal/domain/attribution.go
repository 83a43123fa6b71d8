package domain

// AttributionCategory is the inferred primary cause of a delay.
type AttributionCategory string

const (
	AttributionWeather     AttributionCategory = "weather"
	AttributionOperational AttributionCategory = "operational"
	AttributionAirline     AttributionCategory = "airline"
	AttributionUnknown     AttributionCategory = "unknown"
)

// DelayAttribution is the cause judgment for one airport. Confidence is on
// a 0–1 scale, unlike VerificationResult.
type DelayAttribution struct {
	AirportCode      string              `json:"airport_code,omitempty"`
	IsWeatherRelated bool                `json:"is_weather_related"`
	IsExtraordinary  bool                `json:"is_extraordinary"`
	WeatherSeverity  Severity            `json:"weather_severity"`
	DelayProbability float64             `json:"delay_probability"`
	Attribution      AttributionCategory `json:"attribution"`
	Confidence       float64             `json:"confidence"`
}

// AttributionConfidence holds the confidence assigned to each outcome.
type AttributionConfidence struct {
	SevereWeather   float64
	ModerateWeather float64
	LightWeather    float64
	Operational     float64
	Default         float64
}

// DefaultAttributionConfidence returns the standard confidence table.
func DefaultAttributionConfidence() AttributionConfidence {
	return AttributionConfidence{
		SevereWeather:   0.9,
		ModerateWeather: 0.7,
		LightWeather:    0.4,
		Operational:     0.8,
		Default:         0.5,
	}
}

// AttributionEngine attributes delays from an airport's status.
type AttributionEngine struct {
	Rules      ClassificationRules
	Confidence AttributionConfidence
}

// NewAttributionEngine returns an engine with the default rules and confidences.
func NewAttributionEngine() AttributionEngine {
	return AttributionEngine{
		Rules:      DefaultClassificationRules(),
		Confidence: DefaultAttributionConfidence(),
	}
}

// AttributeDelay classifies the airport's weather and decides the most
// likely cause of the flight's disruption at that airport.
func (e AttributionEngine) AttributeDelay(flight ParsedFlightData, status AirportStatus) DelayAttribution {
	impact := e.Rules.Classify(status.Weather)

	attr := DelayAttribution{
		AirportCode:      status.AirportCode,
		IsExtraordinary:  impact.IsExtraordinary,
		WeatherSeverity:  impact.Severity,
		DelayProbability: impact.DelayProbability,
		Attribution:      AttributionUnknown,
		Confidence:       e.Confidence.Default,
	}

	switch impact.Severity {
	case SeveritySevere:
		attr.IsWeatherRelated = true
		attr.Attribution = AttributionWeather
		attr.Confidence = e.Confidence.SevereWeather
	case SeverityModerate:
		attr.IsWeatherRelated = true
		attr.Attribution = AttributionWeather
		attr.Confidence = e.Confidence.ModerateWeather
	case SeverityLight:
		attr.IsWeatherRelated = true
		attr.Attribution = AttributionWeather
		attr.Confidence = e.Confidence.LightWeather
	default:
		if status.Operational.Status != "" && status.Operational.Status != OpsNormal {
			attr.Attribution = AttributionOperational
			attr.Confidence = e.Confidence.Operational
		}
	}

	// A flight that left on time was not held by whatever is happening here.
	if flight.EffectiveDelayMinutes() == 0 && !flight.IsCancellation() {
		attr.DelayProbability = 0
	}

	attr.Confidence = clampFloat(attr.Confidence, 0, 1)
	return attr
}

// StrongestAttribution picks the attribution that most constrains
// compensation: extraordinary first, then weather severity, then confidence.
func StrongestAttribution(attrs ...DelayAttribution) (DelayAttribution, bool) {
	if len(attrs) == 0 {
		return DelayAttribution{}, false
	}
	best := attrs[0]
	for _, a := range attrs[1:] {
		if stronger(a, best) {
			best = a
		}
	}
	return best, true
}

func stronger(a, b DelayAttribution) bool {
	if a.IsExtraordinary != b.IsExtraordinary {
		return a.IsExtraordinary
	}
	if a.WeatherSeverity.Rank() != b.WeatherSeverity.Rank() {
		return a.WeatherSeverity.Rank() > b.WeatherSeverity.Rank()
	}
	if a.IsWeatherRelated != b.IsWeatherRelated {
		return a.IsWeatherRelated
	}
	return a.Confidence > b.Confidence
}
