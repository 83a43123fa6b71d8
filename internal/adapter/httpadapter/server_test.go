package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/httpadapter"
	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockService struct {
	processed  []domain.ParsedFlightData
	flightErr  error
	airportErr error
	lastDate   time.Time
}

func (m *mockService) Process(_ context.Context, data domain.ParsedFlightData) domain.ClaimAssessment {
	m.processed = append(m.processed, data)
	return domain.ClaimAssessment{
		ClaimID:    "claim-1",
		ParsedData: data,
		Eligibility: domain.EligibilityResult{
			IsEligible:         true,
			CompensationAmount: 600,
			Currency:           "EUR",
			Regulation:         "EU261",
		},
		Recommendations: []string{"Submit the claim"},
	}
}

func (m *mockService) GetFlightStatus(_ context.Context, flightNumber string, date time.Time) (domain.FlightStatusResult, error) {
	m.lastDate = date
	if m.flightErr != nil {
		return domain.FlightStatusResult{}, m.flightErr
	}
	return domain.FlightStatusResult{FlightNumber: flightNumber, Status: domain.StatusDelayed, DelayMinutes: 190}, nil
}

func (m *mockService) GetAirportStatus(_ context.Context, code string) (domain.AirportStatus, error) {
	if m.airportErr != nil {
		return domain.AirportStatus{}, m.airportErr
	}
	return domain.AirportStatus{AirportCode: code, Operational: domain.NormalOperations()}, nil
}

func (m *mockService) ProviderHealth(context.Context) map[string]bool {
	return map[string]bool{"aviationstack": true, "faa": false}
}

type noRecsService struct{ mockService }

func (n *noRecsService) Process(_ context.Context, data domain.ParsedFlightData) domain.ClaimAssessment {
	return domain.ClaimAssessment{ClaimID: "claim-2", ParsedData: data}
}

// --- helpers ---

func newTestServer(svc *mockService, readyErr error) *httpadapter.Server {
	api := httpadapter.API{Claims: svc, Flights: svc, Airports: svc, Health: svc}
	return httpadapter.NewServer(":0", api, &mockReadiness{err: readyErr}, slog.Default())
}

func do(t *testing.T, srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(&mockService{}, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	rec := do(t, newTestServer(&mockService{}, nil), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, newTestServer(&mockService{}, fmt.Errorf("no healthy flight status provider")), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(&mockService{}, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- claims ---

func TestAssessClaim(t *testing.T) {
	svc := &mockService{}
	rec := do(t, newTestServer(svc, nil), http.MethodPost, "/v1/claims/assess",
		`{"flight_number":"BA117","flight_date":"2024-03-15","delay_minutes":270}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "claim-1", body["claim_id"])
	assert.Contains(t, body, "assessed_at")
	assert.Contains(t, body, "recommendations")
	parsed, ok := body["parsed_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "BA117", parsed["flight_number"])
	eligibility, ok := body["eligibility"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, eligibility["is_eligible"])

	require.Len(t, svc.processed, 1)
	assert.Equal(t, 270, svc.processed[0].DelayMinutes)
}

func TestAssessClaim_EmptyRecommendationsAreAnArray(t *testing.T) {
	svc := &noRecsService{}
	api := httpadapter.API{Claims: svc, Flights: svc, Airports: svc, Health: svc}
	srv := httpadapter.NewServer(":0", api, &mockReadiness{}, slog.Default())
	rec := do(t, srv, http.MethodPost, "/v1/claims/assess",
		`{"flight_number":"BA117","flight_date":"2024-03-15","delay_minutes":90}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recommendations":[]`)
}

func TestAssessClaim_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"flight_number":`},
		{"missing flight number", `{"flight_date":"2024-03-15"}`},
		{"missing date", `{"flight_number":"BA117"}`},
		{"bad date", `{"flight_number":"BA117","flight_date":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			rec := do(t, newTestServer(svc, nil), http.MethodPost, "/v1/claims/assess", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
			assert.Empty(t, svc.processed)
		})
	}
}

func TestAssessClaim_WrongMethod(t *testing.T) {
	rec := do(t, newTestServer(&mockService{}, nil), http.MethodGet, "/v1/claims/assess", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// --- flights ---

func TestFlightStatus(t *testing.T) {
	svc := &mockService{}
	rec := do(t, newTestServer(svc, nil), http.MethodGet, "/v1/flights/BA117/status?date=2024-03-15", "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.FlightStatusResult](t, rec)
	assert.Equal(t, "BA117", got.FlightNumber)
	assert.Equal(t, 190, got.DelayMinutes)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), svc.lastDate)
}

func TestFlightStatus_Errors(t *testing.T) {
	srv := newTestServer(&mockService{}, nil)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/v1/flights/BA117/status", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/v1/flights/BA117/status?date=15-03-2024", "").Code)

	notFound := newTestServer(&mockService{flightErr: fmt.Errorf("flight_status: %w: %w",
		domain.ErrAllProvidersFailed, domain.ErrFlightNotFound)}, nil)
	rec := do(t, notFound, http.MethodGet, "/v1/flights/BA117/status?date=2024-03-15", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "flight not found")

	unreachable := newTestServer(&mockService{flightErr: fmt.Errorf("flight_status: %w: %w",
		domain.ErrAllProvidersFailed, domain.ErrRateLimited)}, nil)
	rec = do(t, unreachable, http.MethodGet, "/v1/flights/BA117/status?date=2024-03-15", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "all providers failed")
}

// --- airports ---

func TestAirportStatus(t *testing.T) {
	rec := do(t, newTestServer(&mockService{}, nil), http.MethodGet, "/v1/airports/JFK/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.AirportStatus](t, rec)
	assert.Equal(t, "JFK", got.AirportCode)
}

func TestAirportStatus_Errors(t *testing.T) {
	unknown := &mockService{airportErr: fmt.Errorf("airport status ZZZ: %w", domain.ErrUnknownAirport)}
	assert.Equal(t, http.StatusNotFound, do(t, newTestServer(unknown, nil), http.MethodGet, "/v1/airports/ZZZ/status", "").Code)

	down := &mockService{airportErr: errors.New("all providers failed")}
	assert.Equal(t, http.StatusBadGateway, do(t, newTestServer(down, nil), http.MethodGet, "/v1/airports/JFK/status", "").Code)
}

// --- providers ---

func TestProviderHealth(t *testing.T) {
	rec := do(t, newTestServer(&mockService{}, nil), http.MethodGet, "/v1/providers/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"aviationstack": true, "faa": false}, decode[map[string]bool](t, rec))
}
