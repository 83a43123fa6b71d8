package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	knotsToKmh   = 1.852
	statuteMiKm  = 1.609344
	inHgToHPa    = 33.8639
	clearSkiesKm = 10.0
)

var (
	// windRe matches "27015G25KT", "VRB03KT" and "00000KT".
	windRe = regexp.MustCompile(`^(\d{3}|VRB)(\d{2,3})(?:G(\d{2,3}))?(KT|MPS)$`)

	// visSMRe matches statute-mile visibility: "10SM", "1/2SM", "M1/4SM", and
	// the second half of "1 1/2SM" (the whole-mile part is a separate token).
	visSMRe = regexp.MustCompile(`^(M|P)?(\d+)(?:/(\d+))?SM$`)

	// visMetersRe matches 4-digit metric visibility, "9999" meaning 10 km or more.
	visMetersRe = regexp.MustCompile(`^(\d{4})(?:NDV)?$`)

	// tempRe matches temperature/dewpoint, "M" marking negative values: "12/M03".
	tempRe = regexp.MustCompile(`^(M?\d{2})/(M?\d{2})?$`)

	// pressureRe matches "Q1013" (hPa) and "A2992" (hundredths of inHg).
	pressureRe = regexp.MustCompile(`^([QA])(\d{4})$`)

	// wxRe matches present-weather groups: intensity, descriptor, phenomena.
	wxRe = regexp.MustCompile(`^([-+]|VC)?(MI|PR|BC|DR|BL|SH|TS|FZ)?((?:DZ|RA|SN|SG|IC|PL|GR|GS|UP|BR|FG|FU|VA|DU|SA|HZ|PY|PO|SQ|FC|SS|DS)*)$`)
)

// ParseMETAR parses a raw METAR report into WeatherConditions. Groups it does
// not recognize are skipped; an empty report is an error.
func ParseMETAR(raw string) (WeatherConditions, error) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return WeatherConditions{}, fmt.Errorf("parse metar: empty report")
	}

	wc := WeatherConditions{Raw: raw, Visibility: -1}
	var wholeMiles float64
	var dewpoint *float64

	for i, tok := range fields {
		if tok == "RMK" {
			break
		}
		// Skip the report type and station identifier.
		if i < 2 && (tok == "METAR" || tok == "SPECI" || (len(tok) == 4 && isUpperAlpha(tok))) {
			continue
		}

		switch {
		case tok == "CAVOK":
			wc.Visibility = clearSkiesKm
		case windRe.MatchString(tok):
			m := windRe.FindStringSubmatch(tok)
			factor := knotsToKmh
			if m[4] == "MPS" {
				factor = 3.6
			}
			if m[1] != "VRB" {
				wc.WindDirection, _ = strconv.ParseFloat(m[1], 64)
			}
			speed, _ := strconv.ParseFloat(m[2], 64)
			wc.WindSpeed = round1(speed * factor)
			if m[3] != "" {
				gust, _ := strconv.ParseFloat(m[3], 64)
				wc.WindGust = round1(gust * factor)
			}
		case isDigits(tok) && len(tok) == 1 && i+1 < len(fields) && strings.HasSuffix(fields[i+1], "SM"):
			wholeMiles, _ = strconv.ParseFloat(tok, 64)
		case visSMRe.MatchString(tok):
			m := visSMRe.FindStringSubmatch(tok)
			miles, _ := strconv.ParseFloat(m[2], 64)
			if m[3] != "" {
				den, _ := strconv.ParseFloat(m[3], 64)
				if den > 0 {
					miles /= den
				}
			}
			wc.Visibility = round1((wholeMiles + miles) * statuteMiKm)
		case visMetersRe.MatchString(tok) && wc.Visibility < 0:
			m := visMetersRe.FindStringSubmatch(tok)
			meters, _ := strconv.ParseFloat(m[1], 64)
			switch {
			case meters >= 9999:
				wc.Visibility = clearSkiesKm
			default:
				wc.Visibility = meters / 1000
			}
		case tempRe.MatchString(tok):
			m := tempRe.FindStringSubmatch(tok)
			wc.Temperature = parseMetarTemp(m[1])
			if m[2] != "" {
				d := parseMetarTemp(m[2])
				dewpoint = &d
			}
		case pressureRe.MatchString(tok):
			m := pressureRe.FindStringSubmatch(tok)
			v, _ := strconv.ParseFloat(m[2], 64)
			if m[1] == "Q" {
				wc.Pressure = v
			} else {
				wc.Pressure = round1(v / 100 * inHgToHPa)
			}
		default:
			if cond, ok := parseWeatherGroup(tok); ok {
				wc.Conditions = append(wc.Conditions, cond...)
			}
		}
	}

	if wc.Visibility < 0 {
		wc.Visibility = 0
		wc.VisibilityUnreported = true
	}
	if dewpoint != nil {
		wc.Humidity = relativeHumidity(wc.Temperature, *dewpoint)
	}
	for _, c := range wc.Conditions {
		if c.Type == ConditionTornado || (c.Type == ConditionThunderstorm && c.IsHeavy()) {
			wc.IsSevere = true
		}
	}
	wc.AffectsAviation = ClassifyWeatherImpact(wc).AffectsAviation
	return wc, nil
}

var phenomena = map[string]ConditionType{
	"DZ": ConditionDrizzle,
	"RA": ConditionRain,
	"SN": ConditionSnow,
	"SG": ConditionSnow,
	"GR": ConditionHail,
	"GS": ConditionHail,
	"PL": ConditionSleet,
	"IC": ConditionSleet,
	"BR": ConditionMist,
	"FG": ConditionFog,
	"HZ": ConditionHaze,
	"FU": ConditionHaze,
	"DU": ConditionDust,
	"SA": ConditionDust,
	"SS": ConditionDust,
	"DS": ConditionDust,
	"SQ": ConditionSquall,
	"FC": ConditionTornado,
}

func parseWeatherGroup(tok string) ([]WeatherCondition, bool) {
	m := wxRe.FindStringSubmatch(tok)
	if m == nil || (m[2] == "" && m[3] == "") {
		return nil, false
	}
	if m[1] == "VC" {
		// In the vicinity, not at the field.
		return nil, false
	}

	intensity := IntensityModerate
	switch m[1] {
	case "-":
		intensity = IntensityLight
	case "+":
		intensity = IntensityHeavy
	}

	var out []WeatherCondition
	if m[2] == "TS" {
		out = append(out, WeatherCondition{
			Type: ConditionThunderstorm, Intensity: intensity, Description: tok,
			AffectsRunway: true, AffectsVisibility: true,
		})
	}
	for j := 0; j+2 <= len(m[3]); j += 2 {
		code := m[3][j : j+2]
		typ, ok := phenomena[code]
		if !ok {
			continue
		}
		if m[2] == "FZ" && (typ == ConditionRain || typ == ConditionDrizzle) {
			typ = ConditionFreezingRain
		}
		c := WeatherCondition{Type: typ, Intensity: intensity, Description: tok}
		switch typ {
		case ConditionFog, ConditionMist, ConditionHaze, ConditionDust:
			c.AffectsVisibility = true
		case ConditionSnow, ConditionFreezingRain, ConditionSleet, ConditionHail:
			c.AffectsRunway = true
			c.AffectsVisibility = true
		case ConditionTornado, ConditionSquall:
			c.Intensity = IntensitySevere
			c.AffectsRunway = true
		default:
			c.AffectsVisibility = intensity == IntensityHeavy
		}
		out = append(out, c)
	}
	return out, len(out) > 0
}

func parseMetarTemp(s string) float64 {
	neg := strings.HasPrefix(s, "M")
	v, _ := strconv.ParseFloat(strings.TrimPrefix(s, "M"), 64)
	if neg {
		return -v
	}
	return v
}

// relativeHumidity uses the Magnus approximation.
func relativeHumidity(temp, dew float64) float64 {
	const a, b = 17.625, 243.04
	rh := 100 * math.Exp(a*dew/(b+dew)) / math.Exp(a*temp/(b+temp))
	return round1(clampFloat(rh, 0, 100))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isUpperAlpha(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
