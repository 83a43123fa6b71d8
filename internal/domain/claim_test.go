package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsedFlightData_UnmarshalFlightDate(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		`{"flight_number":"BA117","flight_date":"2024-03-15","delay_minutes":200}`,
		`{"flight_number":"BA117","flight_date":"2024-03-15T00:00:00Z","delay_minutes":200}`,
	} {
		var p ParsedFlightData
		require.NoError(t, json.Unmarshal([]byte(raw), &p))
		assert.True(t, want.Equal(p.FlightDate), "got %s", p.FlightDate)
		assert.Equal(t, "BA117", p.FlightNumber)
		assert.Equal(t, 200, p.DelayMinutes)
	}

	var p ParsedFlightData
	require.Error(t, json.Unmarshal([]byte(`{"flight_number":"BA117","flight_date":"15/03/2024"}`), &p))
}

func TestParsedFlightData_Validate(t *testing.T) {
	valid := delayedFlight(200)
	require.NoError(t, valid.Validate())

	noNumber := valid
	noNumber.FlightNumber = " "
	assert.ErrorIs(t, noNumber.Validate(), ErrInvalidClaim)

	noDate := valid
	noDate.FlightDate = time.Time{}
	assert.ErrorIs(t, noDate.Validate(), ErrInvalidClaim)

	negative := valid
	negative.DelayMinutes = -5
	assert.ErrorIs(t, negative.Validate(), ErrInvalidClaim)
}

func TestParsedFlightData_Normalize(t *testing.T) {
	p := ParsedFlightData{FlightNumber: "ba 117", DepartureAirport: "lhr", ArrivalAirport: " jfk"}.Normalize()

	assert.Equal(t, "BA117", p.FlightNumber)
	assert.Equal(t, "BA", p.AirlineCode)
	assert.Equal(t, "LHR", p.DepartureAirport)
	assert.Equal(t, "JFK", p.ArrivalAirport)
	assert.Equal(t, DisruptionDelay, p.DisruptionType)
}

func TestParsedFlightData_EffectiveDelay(t *testing.T) {
	p := delayedFlight(200)
	assert.Equal(t, 200, p.EffectiveDelayMinutes())

	verified := 185
	p.VerifiedDelay = &verified
	assert.Equal(t, 200, p.EffectiveDelayMinutes(), "low-confidence provider delay is ignored")

	p.IsVerified = true
	assert.Equal(t, 185, p.EffectiveDelayMinutes())
}

func TestParsedFlightData_IsCancellation(t *testing.T) {
	p := delayedFlight(0)
	p.DisruptionType = DisruptionCancellation
	assert.True(t, p.IsCancellation())

	// An unverified provider status does not override the report.
	p.VerifiedStatus = StatusDelayed
	assert.True(t, p.IsCancellation())

	// Verified status wins over what the traveler reported.
	p.IsVerified = true
	p.VerifiedStatus = StatusDelayed
	assert.False(t, p.IsCancellation())
}

func TestUnavailableWeatherContext(t *testing.T) {
	wc := UnavailableWeatherContext()

	assert.Equal(t, AttributionAirline, wc.Attribution)
	assert.InDelta(t, 0.5, wc.Confidence, 1e-9)
	assert.False(t, wc.DataAvailable)
	assert.False(t, wc.IsExtraordinary)
}
