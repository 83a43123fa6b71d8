package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromDelay(t *testing.T) {
	assert.Equal(t, StatusDelayed, StatusFromDelay(StatusDeparted, 15))
	assert.Equal(t, StatusDeparted, StatusFromDelay(StatusDeparted, 14))
	assert.Equal(t, StatusOnTime, StatusFromDelay(StatusOnTime, 0))
	assert.Equal(t, StatusCancelled, StatusFromDelay(StatusCancelled, 300))
	assert.Equal(t, StatusDiverted, StatusFromDelay(StatusDiverted, 90))
}

func TestMinutesBetween(t *testing.T) {
	sched := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	late := sched.Add(4*time.Hour + 30*time.Minute)
	early := sched.Add(-10 * time.Minute)

	assert.Equal(t, 270, MinutesBetween(sched, &late))
	assert.Equal(t, 0, MinutesBetween(sched, &early))
	assert.Equal(t, 0, MinutesBetween(sched, nil))
}

func TestFlightStatusResult_Normalize(t *testing.T) {
	r := FlightStatusResult{
		FlightNumber:     "ba117",
		DepartureAirport: "lhr",
		DelayMinutes:     -3,
		Confidence:       140,
	}.Normalize()

	assert.Equal(t, "BA117", r.FlightNumber)
	assert.Equal(t, "LHR", r.DepartureAirport)
	assert.Zero(t, r.DelayMinutes)
	assert.Equal(t, 100, r.Confidence)
}

func TestFlightKey(t *testing.T) {
	date := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "BA117_2024-03-15", FlightKey("ba 117", date))
	assert.Equal(t, "", AirlineFromFlightNumber("B1"))
}
