package domain

import "time"

// ConditionType names a present-weather phenomenon.
type ConditionType string

const (
	ConditionRain         ConditionType = "rain"
	ConditionDrizzle      ConditionType = "drizzle"
	ConditionSnow         ConditionType = "snow"
	ConditionHail         ConditionType = "hail"
	ConditionFreezingRain ConditionType = "freezing_rain"
	ConditionSleet        ConditionType = "sleet"
	ConditionThunderstorm ConditionType = "thunderstorm"
	ConditionFog          ConditionType = "fog"
	ConditionMist         ConditionType = "mist"
	ConditionHaze         ConditionType = "haze"
	ConditionDust         ConditionType = "dust"
	ConditionSquall       ConditionType = "squall"
	ConditionTornado      ConditionType = "tornado"
)

// Intensity is the reported strength of a weather phenomenon.
type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityHeavy    Intensity = "heavy"
	IntensitySevere   Intensity = "severe"
)

// WeatherCondition is a single present-weather observation.
type WeatherCondition struct {
	Type              ConditionType `json:"type"`
	Intensity         Intensity     `json:"intensity"`
	Description       string        `json:"description,omitempty"`
	AffectsRunway     bool          `json:"affects_runway"`
	AffectsVisibility bool          `json:"affects_visibility"`
}

// IsPrecipitation reports whether the condition is falling precipitation.
func (c WeatherCondition) IsPrecipitation() bool {
	switch c.Type {
	case ConditionRain, ConditionDrizzle, ConditionSnow, ConditionHail, ConditionFreezingRain, ConditionSleet:
		return true
	}
	return false
}

// IsHeavy reports whether the condition was reported at heavy or severe intensity.
func (c WeatherCondition) IsHeavy() bool {
	return c.Intensity == IntensityHeavy || c.Intensity == IntensitySevere
}

// WeatherConditions is a normalized surface observation at an airport.
type WeatherConditions struct {
	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // %
	Visibility  float64 `json:"visibility"`  // km
	// VisibilityUnreported marks an observation without a visibility group.
	// A reported visibility of 0 km is dense fog.
	VisibilityUnreported bool               `json:"visibility_unreported,omitempty"`
	WindSpeed            float64            `json:"wind_speed"`     // km/h
	WindDirection        float64            `json:"wind_direction"` // degrees
	WindGust             float64            `json:"wind_gust"`      // km/h, 0 when calm or unreported
	Pressure             float64            `json:"pressure"`       // hPa
	Conditions           []WeatherCondition `json:"conditions"`
	IsSevere             bool               `json:"is_severe"`
	AffectsAviation      bool               `json:"affects_aviation"`
	ObservedAt           time.Time          `json:"observed_at"`
	Raw                  string             `json:"raw,omitempty"` // e.g. the METAR text
}

// WeatherForecast is one forecast period for an airport.
type WeatherForecast struct {
	ValidFrom                time.Time         `json:"valid_from"`
	ValidTo                  time.Time         `json:"valid_to"`
	Conditions               WeatherConditions `json:"conditions"`
	PrecipitationProbability float64           `json:"precipitation_probability"` // 0–1
}

// Severity ranks how strongly weather affects aviation.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLight    Severity = "light"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Rank orders severities so rules can only escalate.
func (s Severity) Rank() int {
	switch s {
	case SeverityLight:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	default:
		return 0
	}
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	if a == "" {
		return SeverityNone
	}
	return a
}

// WeatherImpact is the aviation judgment derived from WeatherConditions.
type WeatherImpact struct {
	Severity         Severity `json:"severity"`
	AffectsAviation  bool     `json:"affects_aviation"`
	IsExtraordinary  bool     `json:"is_extraordinary"`
	DelayProbability float64  `json:"delay_probability"` // 0–1
	Recommendations  []string `json:"recommendations,omitempty"`
}
