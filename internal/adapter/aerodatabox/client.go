// Package aerodatabox implements domain.FlightStatusProvider on the
// AeroDataBox flight API served through RapidAPI.
package aerodatabox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/httpclient"
	"github.com/couchcryptid/flight-disruption-verifier/internal/config"
	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
)

const (
	defaultBaseURL = "https://aerodatabox.p.rapidapi.com"
	rapidAPIHost   = "aerodatabox.p.rapidapi.com"

	// AeroDataBox reports UTC times as "2006-01-02 15:04Z".
	timeLayout = "2006-01-02 15:04Z07:00"
)

// Client implements domain.FlightStatusProvider.
type Client struct {
	cfg     config.ProviderConfig
	http    *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

var _ domain.FlightStatusProvider = (*Client)(nil)

// NewClient creates an AeroDataBox client.
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
	u := fmt.Sprintf("%s/flights/number/%s/%s?withAircraftImage=false&withLocation=false",
		c.baseURL, url.PathEscape(fn), date.Format(time.DateOnly))
	header := http.Header{
		"X-RapidAPI-Key":  {c.cfg.APIKey},
		"X-RapidAPI-Host": {rapidAPIHost},
	}

	var flights []flight
	err := c.http.GetJSON(ctx, u, header, &flights)
	if errors.Is(err, httpclient.ErrNoContent) || httpclient.IsNotFound(err) || (err == nil && len(flights) == 0) {
		return domain.FlightStatusResult{}, fmt.Errorf("%s on %s: %w", fn, date.Format(time.DateOnly), domain.ErrFlightNotFound)
	}
	if err != nil {
		return domain.FlightStatusResult{}, err
	}

	// Codeshares and multi-leg flights return several entries; the first leg
	// is the one a delay claim is about.
	r, err := flights[0].toResult(fn)
	if err != nil {
		return domain.FlightStatusResult{}, err
	}
	c.logger.Debug("flight status fetched", "provider", c.Name(), "flight_number", fn, "status", flights[0].Status)
	return r, nil
}

// ValidateFlightExists reports whether the flight is known for the date.
func (c *Client) ValidateFlightExists(ctx context.Context, flightNumber string, date time.Time) bool {
	_, err := c.GetFlightStatus(ctx, flightNumber, date)
	return err == nil
}

// AeroDataBox API response types.

type flight struct {
	Number    string    `json:"number"`
	Status    string    `json:"status"`
	Departure movement  `json:"departure"`
	Arrival   movement  `json:"arrival"`
	Airline   airlineID `json:"airline"`
}

type airlineID struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
}

type movement struct {
	Airport struct {
		IATA string `json:"iata"`
		ICAO string `json:"icao"`
	} `json:"airport"`
	ScheduledTime *timePair `json:"scheduledTime"`
	RevisedTime   *timePair `json:"revisedTime"`
	RunwayTime    *timePair `json:"runwayTime"`
}

type timePair struct {
	UTC   string `json:"utc"`
	Local string `json:"local"`
}

func (m movement) scheduled() (time.Time, error) {
	if m.ScheduledTime == nil || m.ScheduledTime.UTC == "" {
		return time.Time{}, nil
	}
	return parseTime(m.ScheduledTime.UTC)
}

// actual prefers the runway time over the revised (gate) time.
func (m movement) actual() (*time.Time, error) {
	for _, tp := range []*timePair{m.RunwayTime, m.RevisedTime} {
		if tp == nil || tp.UTC == "" {
			continue
		}
		t, err := parseTime(tp.UTC)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	return nil, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse aerodatabox time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func (f flight) toResult(requested string) (domain.FlightStatusResult, error) {
	r := domain.FlightStatusResult{
		FlightNumber:     requested,
		AirlineCode:      f.Airline.IATA,
		DepartureAirport: f.Departure.Airport.IATA,
		ArrivalAirport:   f.Arrival.Airport.IATA,
		Confidence:       70,
	}

	var err error
	if r.ScheduledDeparture, err = f.Departure.scheduled(); err != nil {
		return r, err
	}
	if r.ScheduledArrival, err = f.Arrival.scheduled(); err != nil {
		return r, err
	}
	if r.ActualDeparture, err = f.Departure.actual(); err != nil {
		return r, err
	}
	if r.ActualArrival, err = f.Arrival.actual(); err != nil {
		return r, err
	}

	if r.ActualArrival != nil {
		r.DelayMinutes = domain.MinutesBetween(r.ScheduledArrival, r.ActualArrival)
		r.Confidence = 85
	} else if r.ActualDeparture != nil {
		r.DelayMinutes = domain.MinutesBetween(r.ScheduledDeparture, r.ActualDeparture)
		r.Confidence = 85
	}

	r.Status = domain.StatusFromDelay(mapStatus(f.Status), r.DelayMinutes)
	if r.Status == domain.StatusCancelled {
		r.DelayMinutes = 0
	}
	return r.Normalize(), nil
}

func mapStatus(s string) domain.FlightStatus {
	switch s {
	case "Boarding", "GateClosed":
		return domain.StatusBoarding
	case "Departed", "EnRoute", "Approaching":
		return domain.StatusDeparted
	case "Arrived":
		return domain.StatusArrived
	case "Canceled", "CanceledUncertain":
		return domain.StatusCancelled
	case "Diverted":
		return domain.StatusDiverted
	case "Delayed":
		return domain.StatusDelayed
	default:
		return domain.StatusOnTime
	}
}
