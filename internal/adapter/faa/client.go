// Package faa implements domain.OperationalProvider on the FAA Airport
// Status Web Service. Coverage is limited to US airports.
package faa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/httpclient"
	"github.com/couchcryptid/flight-disruption-verifier/internal/config"
	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
)

const defaultBaseURL = "https://soa.smext.faa.gov/asws"

// runwayClosedRe finds closed runways in free-text reasons such as
// "RWY 13L/31R CLSD" or "RWYS 4R AND 22L CLOSED".
var runwayClosedRe = regexp.MustCompile(`RWYS?\s+([0-9]{1,2}[LRC]?(?:/[0-9]{1,2}[LRC]?)?)(?:\s+AND\s+([0-9]{1,2}[LRC]?(?:/[0-9]{1,2}[LRC]?)?))?\s+(?:CLSD|CLOSED)`)

// Client implements domain.OperationalProvider.
type Client struct {
	cfg     config.ProviderConfig
	http    *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

var _ domain.OperationalProvider = (*Client)(nil)

// NewClient creates an FAA airport status client.
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

// GetOperationalStatus returns the airport's current operating mode.
func (c *Client) GetOperationalStatus(ctx context.Context, airportCode string) (domain.OperationalStatus, error) {
	resp, err := c.status(ctx, airportCode)
	if err != nil {
		return domain.OperationalStatus{}, err
	}
	ops := resp.toOperational()
	c.logger.Debug("airport status fetched", "provider", c.Name(), "airport", airportCode, "status", ops.Status)
	return ops, nil
}

// GetRunwayStatus returns the runways reported closed. An airport with no
// closures yields an empty slice.
func (c *Client) GetRunwayStatus(ctx context.Context, airportCode string) ([]domain.RunwayStatus, error) {
	resp, err := c.status(ctx, airportCode)
	if err != nil {
		return nil, err
	}
	return resp.closedRunways(), nil
}

// GetAirTrafficDelays reports whether any traffic-management delay is active.
func (c *Client) GetAirTrafficDelays(ctx context.Context, airportCode string) (bool, error) {
	resp, err := c.status(ctx, airportCode)
	if err != nil {
		return false, err
	}
	return resp.toOperational().AirTrafficDelay, nil
}

func (c *Client) status(ctx context.Context, airportCode string) (statusResponse, error) {
	code := domain.NormalizeAirportCode(airportCode)
	if a, err := domain.LookupAirport(code); err == nil {
		if !strings.HasPrefix(a.ICAO, "K") && !strings.HasPrefix(a.ICAO, "P") {
			return statusResponse{}, fmt.Errorf("%s: %s is outside FAA coverage: %w", c.Name(), code, domain.ErrNotSupported)
		}
		code = a.IATA
	}

	var resp statusResponse
	err := c.http.GetJSON(ctx, c.baseURL+"/api/airport/status/"+url.PathEscape(code), nil, &resp)
	if httpclient.IsNotFound(err) || errors.Is(err, httpclient.ErrNoContent) {
		return statusResponse{}, fmt.Errorf("%s: %w: %q", c.Name(), domain.ErrUnknownAirport, code)
	}
	return resp, err
}

// FAA ASWS response types.

type statusResponse struct {
	IATA   string        `json:"IATA"`
	ICAO   string        `json:"ICAO"`
	Delay  bool          `json:"Delay"`
	Status []delayStatus `json:"Status"`
}

type delayStatus struct {
	Type         string `json:"Type"`
	Reason       string `json:"Reason"`
	AvgDelay     string `json:"AvgDelay"`
	ClosureBegin string `json:"ClosureBegin"`
	ClosureEnd   string `json:"ClosureEnd"`
}

func (r statusResponse) toOperational() domain.OperationalStatus {
	ops := domain.NormalOperations()
	ops.Runways = r.closedRunways()

	for _, s := range r.Status {
		switch {
		case s.Type == "":
			continue
		case strings.EqualFold(s.Type, "Closure") || strings.EqualFold(s.Type, "Airport Closure"):
			ops.Status = domain.OpsClosed
			ops.ClosureReason = s.Reason
			if eta, err := time.Parse(time.RFC3339, s.ClosureEnd); err == nil {
				eta = eta.UTC()
				ops.ClosureETA = &eta
			}
		case strings.EqualFold(s.Type, "Ground Stop"):
			ops.GroundStop = true
			if ops.Status != domain.OpsClosed {
				ops.Status = domain.OpsGroundStop
			}
			ops.DelayReason = s.Reason
		default:
			// Ground delay programs and arrival/departure delays.
			ops.AirTrafficDelay = true
			if ops.Status == domain.OpsNormal {
				ops.Status = domain.OpsDelayed
			}
			if ops.DelayReason == "" {
				ops.DelayReason = s.Reason
			}
		}
	}

	if r.Delay && ops.Status == domain.OpsNormal {
		ops.Status = domain.OpsDelayed
		ops.AirTrafficDelay = true
	}
	return ops
}

func (r statusResponse) closedRunways() []domain.RunwayStatus {
	runways := []domain.RunwayStatus{}
	seen := make(map[string]bool)
	for _, s := range r.Status {
		for _, m := range runwayClosedRe.FindAllStringSubmatch(strings.ToUpper(s.Reason), -1) {
			for _, id := range m[1:] {
				if id == "" || seen[id] {
					continue
				}
				seen[id] = true
				runways = append(runways, domain.RunwayStatus{RunwayID: id, Status: domain.RunwayClosed})
			}
		}
	}
	return runways
}
