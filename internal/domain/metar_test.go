package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMETAR_Heathrow(t *testing.T) {
	wc, err := ParseMETAR("METAR EGLL 151250Z 27015G25KT 9999 -RA BKN020 12/08 Q1013")
	require.NoError(t, err)

	assert.InDelta(t, 270, wc.WindDirection, 0.01)
	assert.InDelta(t, 27.8, wc.WindSpeed, 0.01)
	assert.InDelta(t, 46.3, wc.WindGust, 0.01)
	assert.InDelta(t, 10, wc.Visibility, 0.01)
	assert.InDelta(t, 12, wc.Temperature, 0.01)
	assert.InDelta(t, 76.5, wc.Humidity, 1.5)
	assert.InDelta(t, 1013, wc.Pressure, 0.01)
	require.Len(t, wc.Conditions, 1)
	assert.Equal(t, ConditionRain, wc.Conditions[0].Type)
	assert.Equal(t, IntensityLight, wc.Conditions[0].Intensity)
	assert.False(t, wc.IsSevere)
	assert.True(t, wc.AffectsAviation, "light rain is precipitation")
}

func TestParseMETAR_FogInStatuteMiles(t *testing.T) {
	wc, err := ParseMETAR("KJFK 151251Z 31008KT 1/4SM FG VV002 M02/M03 A2992")
	require.NoError(t, err)

	assert.InDelta(t, 0.4, wc.Visibility, 0.01)
	assert.InDelta(t, -2, wc.Temperature, 0.01)
	assert.InDelta(t, 1013.2, wc.Pressure, 0.1)
	require.Len(t, wc.Conditions, 1)
	assert.Equal(t, ConditionFog, wc.Conditions[0].Type)
	assert.True(t, wc.AffectsAviation)
	assert.Equal(t, SeveritySevere, ClassifyWeatherImpact(wc).Severity)
}

func TestParseMETAR_Visibility(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
		// unreported is true only when the report has no visibility group
		unreported bool
	}{
		{"mixed fraction", "KBOS 151254Z 04012KT 1 1/2SM -SN BR 00/M01 A2980", 2.4, false},
		{"ten miles", "KDEN 151253Z 18006KT 10SM CLR 20/M05 A3012", 16.1, false},
		{"less than a quarter", "KORD 151251Z 00000KT M1/4SM FG 01/01 A2990", 0.4, false},
		{"metres", "EDDF 151250Z 25010KT 3500 BR 08/07 Q1009", 3.5, false},
		{"zero metres", "LFPG 151250Z 00000KT 0000 FG 02/02 Q1020", 0, false},
		{"cavok", "LEMD 151300Z 36005KT CAVOK 24/03 Q1022", 10, false},
		{"unreported", "EHAM 151255Z 22012KT 14/10 Q1004", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wc, err := ParseMETAR(tt.raw)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, wc.Visibility, 0.01)
			assert.Equal(t, tt.unreported, wc.VisibilityUnreported)
		})
	}
}

func TestParseMETAR_WindInMetresPerSecond(t *testing.T) {
	wc, err := ParseMETAR("UUEE 151300Z 18010MPS 9999 SCT030 05/01 Q1001")
	require.NoError(t, err)

	assert.InDelta(t, 36, wc.WindSpeed, 0.01)
}

func TestParseMETAR_WeatherGroups(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      []ConditionType
		intensity Intensity
		severe    bool
	}{
		{"heavy thunderstorm with rain", "KATL 151252Z 24025G40KT 2SM +TSRA BKN010CB 22/20 A2975", []ConditionType{ConditionThunderstorm, ConditionRain}, IntensityHeavy, true},
		{"freezing drizzle", "KSEA 151253Z 01005KT 3SM FZDZ OVC005 M01/M02 A3001", []ConditionType{ConditionFreezingRain}, IntensityModerate, false},
		{"vicinity showers ignored", "EGKK 151250Z 20010KT 9999 VCSH SCT025 11/06 Q1011", nil, "", false},
		{"funnel cloud", "KDFW 151253Z 20030KT 1SM FC +TSRA 25/22 A2960", []ConditionType{ConditionTornado, ConditionThunderstorm, ConditionRain}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wc, err := ParseMETAR(tt.raw)
			require.NoError(t, err)

			var got []ConditionType
			for _, c := range wc.Conditions {
				got = append(got, c.Type)
				if tt.intensity != "" {
					assert.Equal(t, tt.intensity, c.Intensity)
				}
			}
			assert.ElementsMatch(t, tt.want, got)
			assert.Equal(t, tt.severe, wc.IsSevere)
		})
	}
}

func TestParseMETAR_IgnoresRemarks(t *testing.T) {
	wc, err := ParseMETAR("KSFO 151256Z 29012KT 10SM FEW008 16/11 A3002 RMK AO2 SLP165 +SN")
	require.NoError(t, err)

	assert.Empty(t, wc.Conditions)
	assert.False(t, wc.AffectsAviation)
}

func TestParseMETAR_Empty(t *testing.T) {
	_, err := ParseMETAR("   ")
	require.Error(t, err)
}
