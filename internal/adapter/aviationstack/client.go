// Package aviationstack implements domain.FlightStatusProvider on the
// aviationstack.com real-time flights API.
package aviationstack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/httpclient"
	"github.com/couchcryptid/flight-disruption-verifier/internal/config"
	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
)

const defaultBaseURL = "https://api.aviationstack.com/v1"

// Client implements domain.FlightStatusProvider.
type Client struct {
	cfg     config.ProviderConfig
	http    *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

var _ domain.FlightStatusProvider = (*Client)(nil)

// NewClient creates an aviationstack client.
func NewClient(cfg config.ProviderConfig, timeout time.Duration, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		cfg:     cfg,
		http:    httpclient.New(cfg.Name, timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (c *Client) Name() string  { return c.cfg.Name }
func (c *Client) Priority() int { return c.cfg.Priority }

func (c *Client) RateLimit() domain.RateLimit {
	return domain.RateLimit{RequestsPerMinute: c.cfg.RequestsPerMinute}
}

func (c *Client) IsHealthy(context.Context) bool { return c.http.Healthy() }

// GetFlightStatus looks up one flight on one date.
func (c *Client) GetFlightStatus(ctx context.Context, flightNumber string, date time.Time) (domain.FlightStatusResult, error) {
	fn := domain.NormalizeFlightNumber(flightNumber)
	day := date.Format(time.DateOnly)
	params := url.Values{
		"access_key":  {c.cfg.APIKey},
		"flight_iata": {fn},
		"flight_date": {day},
	}

	var resp response
	if err := c.http.GetJSON(ctx, c.baseURL+"/flights?"+params.Encode(), nil, &resp); err != nil {
		return domain.FlightStatusResult{}, err
	}
	if resp.Error != nil {
		return domain.FlightStatusResult{}, fmt.Errorf("aviationstack API error: %s: %s", resp.Error.Code, resp.Error.Message)
	}

	if len(resp.Data) == 0 {
		return domain.FlightStatusResult{}, fmt.Errorf("%s on %s: %w", fn, day, domain.ErrFlightNotFound)
	}
	match := &resp.Data[0]
	for i := range resp.Data {
		if resp.Data[i].FlightDate == day {
			match = &resp.Data[i]
			break
		}
	}

	c.logger.Debug("flight status fetched", "provider", c.Name(), "flight_number", fn, "status", match.FlightStatus)
	return match.toResult(fn), nil
}

// ValidateFlightExists reports whether the flight is known for the date.
func (c *Client) ValidateFlightExists(ctx context.Context, flightNumber string, date time.Time) bool {
	_, err := c.GetFlightStatus(ctx, flightNumber, date)
	if err != nil && !errors.Is(err, domain.ErrFlightNotFound) {
		c.logger.Warn("flight existence check failed", "provider", c.Name(), "flight_number", flightNumber, "error", err)
	}
	return err == nil
}

// aviationstack API response types.

type response struct {
	Data  []flight  `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type flight struct {
	FlightDate   string   `json:"flight_date"`
	FlightStatus string   `json:"flight_status"`
	Departure    endpoint `json:"departure"`
	Arrival      endpoint `json:"arrival"`
	Airline      struct {
		Name string `json:"name"`
		IATA string `json:"iata"`
	} `json:"airline"`
	Flight struct {
		Number string `json:"number"`
		IATA   string `json:"iata"`
	} `json:"flight"`
}

type endpoint struct {
	IATA      string     `json:"iata"`
	Delay     *int       `json:"delay"`
	Scheduled *time.Time `json:"scheduled"`
	Estimated *time.Time `json:"estimated"`
	Actual    *time.Time `json:"actual"`
}

func (f flight) toResult(requested string) domain.FlightStatusResult {
	fn := f.Flight.IATA
	if fn == "" {
		fn = requested
	}

	r := domain.FlightStatusResult{
		FlightNumber:     fn,
		AirlineCode:      f.Airline.IATA,
		DepartureAirport: f.Departure.IATA,
		ArrivalAirport:   f.Arrival.IATA,
		ActualDeparture:  utcPtr(f.Departure.Actual),
		ActualArrival:    utcPtr(f.Arrival.Actual),
		Confidence:       75,
	}
	if f.Departure.Scheduled != nil {
		r.ScheduledDeparture = f.Departure.Scheduled.UTC()
	}
	if f.Arrival.Scheduled != nil {
		r.ScheduledArrival = f.Arrival.Scheduled.UTC()
	}
	if r.ActualDeparture != nil || r.ActualArrival != nil {
		r.Confidence = 95
	}

	switch {
	case f.Arrival.Delay != nil:
		r.DelayMinutes = *f.Arrival.Delay
	case f.Departure.Delay != nil:
		r.DelayMinutes = *f.Departure.Delay
	case r.ActualArrival != nil:
		r.DelayMinutes = domain.MinutesBetween(r.ScheduledArrival, r.ActualArrival)
	default:
		r.DelayMinutes = domain.MinutesBetween(r.ScheduledDeparture, r.ActualDeparture)
	}

	r.Status = domain.StatusFromDelay(mapStatus(f.FlightStatus), r.DelayMinutes)
	if r.Status == domain.StatusCancelled {
		r.DelayMinutes = 0
	}
	return r.Normalize()
}

func mapStatus(s string) domain.FlightStatus {
	switch strings.ToLower(s) {
	case "active":
		return domain.StatusDeparted
	case "landed":
		return domain.StatusArrived
	case "cancelled":
		return domain.StatusCancelled
	case "diverted", "incident":
		return domain.StatusDiverted
	default:
		return domain.StatusOnTime
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
