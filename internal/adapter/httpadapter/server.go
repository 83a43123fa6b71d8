// Package httpadapter serves the verifier's HTTP API alongside health,
// readiness and metrics endpoints.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"github.com/couchcryptid/flight-disruption-verifier/internal/flightstatus"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// ClaimAssessor assesses a parsed claim.
type ClaimAssessor interface {
	Process(ctx context.Context, data domain.ParsedFlightData) domain.ClaimAssessment
}

// FlightStatusSource looks up a flight.
type FlightStatusSource interface {
	GetFlightStatus(ctx context.Context, flightNumber string, date time.Time) (domain.FlightStatusResult, error)
}

// AirportStatusSource returns an airport's composite status.
type AirportStatusSource interface {
	GetAirportStatus(ctx context.Context, airportCode string) (domain.AirportStatus, error)
}

// HealthReporter reports provider health by name.
type HealthReporter interface {
	ProviderHealth(ctx context.Context) map[string]bool
}

// API groups the services behind the /v1 routes.
type API struct {
	Claims   ClaimAssessor
	Flights  FlightStatusSource
	Airports AirportStatusSource
	Health   HealthReporter
}

// Server exposes the claim API plus /healthz, /readyz and /metrics.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
}

// NewServer creates the HTTP server. Claim assessment may call several
// upstream providers in turn, so the write timeout is generous.
func NewServer(addr string, api API, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/claims/assess", s.handleAssess)
	mux.HandleFunc("GET /v1/flights/{flightNumber}/status", s.handleFlightStatus)
	mux.HandleFunc("GET /v1/airports/{code}/status", s.handleAirportStatus)
	mux.HandleFunc("GET /v1/providers/health", s.handleProviderHealth)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var data domain.ParsedFlightData
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("malformed claim: %w", err))
		return
	}
	if err := data.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Same snake_case document the pipeline publishes to the sink topic.
	a := s.api.Claims.Process(r.Context(), data)
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleFlightStatus(w http.ResponseWriter, r *http.Request) {
	flightNumber := r.PathValue("flightNumber")
	rawDate := r.URL.Query().Get("date")
	if rawDate == "" {
		writeError(w, http.StatusBadRequest, errors.New("date query parameter is required"))
		return
	}
	date, err := time.Parse(time.DateOnly, rawDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid date %q, want YYYY-MM-DD", rawDate))
		return
	}

	status, err := s.api.Flights.GetFlightStatus(r.Context(), flightNumber, date)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, status)
	case flightstatus.IsNotFound(err):
		writeError(w, http.StatusNotFound, err)
	default:
		s.logger.Warn("flight status lookup failed", "flight_number", flightNumber, "error", err)
		writeError(w, http.StatusBadGateway, err)
	}
}

func (s *Server) handleAirportStatus(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	status, err := s.api.Airports.GetAirportStatus(r.Context(), code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, status)
	case errors.Is(err, domain.ErrUnknownAirport):
		writeError(w, http.StatusNotFound, err)
	default:
		s.logger.Warn("airport status lookup failed", "airport", code, "error", err)
		writeError(w, http.StatusBadGateway, err)
	}
}

func (s *Server) handleProviderHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.api.Health.ProviderHealth(r.Context()))
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
