// Package aviationweather implements domain.WeatherProvider on the
// aviationweather.gov METAR data API. It needs no API key.
package aviationweather

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/httpclient"
	"github.com/couchcryptid/flight-disruption-verifier/internal/config"
	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
)

const defaultBaseURL = "https://aviationweather.gov"

// Client implements domain.WeatherProvider from METAR observations.
type Client struct {
	cfg     config.ProviderConfig
	http    *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

var _ domain.WeatherProvider = (*Client)(nil)

// NewClient creates an aviationweather.gov client.
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

// GetCurrentWeather returns the most recent METAR for the airport.
func (c *Client) GetCurrentWeather(ctx context.Context, airportCode string) (domain.WeatherConditions, error) {
	return c.fetch(ctx, airportCode, nil)
}

// GetHistoricalWeather returns the METAR issued closest before date.
func (c *Client) GetHistoricalWeather(ctx context.Context, airportCode string, date time.Time) (domain.WeatherConditions, error) {
	return c.fetch(ctx, airportCode, url.Values{"date": {date.UTC().Format(time.RFC3339)}})
}

// GetForecast is not offered; TAF decoding is left to providers with a
// structured forecast API.
func (c *Client) GetForecast(context.Context, string, int) ([]domain.WeatherForecast, error) {
	return nil, fmt.Errorf("%s forecast: %w", c.Name(), domain.ErrNotSupported)
}

func (c *Client) fetch(ctx context.Context, airportCode string, extra url.Values) (domain.WeatherConditions, error) {
	a, err := domain.LookupAirport(airportCode)
	if err != nil {
		return domain.WeatherConditions{}, err
	}
	params := url.Values{"ids": {a.ICAO}, "format": {"json"}}
	for k, v := range extra {
		params[k] = v
	}

	var reports []metarReport
	if err := c.http.GetJSON(ctx, c.baseURL+"/api/data/metar?"+params.Encode(), nil, &reports); err != nil {
		return domain.WeatherConditions{}, err
	}
	if len(reports) == 0 {
		return domain.WeatherConditions{}, fmt.Errorf("aviationweather: no METAR for %s", a.ICAO)
	}

	wc, err := domain.ParseMETAR(reports[0].RawOb)
	if err != nil {
		return domain.WeatherConditions{}, fmt.Errorf("aviationweather %s: %w", a.ICAO, err)
	}
	if reports[0].ObsTime > 0 {
		wc.ObservedAt = time.Unix(reports[0].ObsTime, 0).UTC()
	}
	c.logger.Debug("metar fetched", "provider", c.Name(), "station", a.ICAO, "raw", reports[0].RawOb)
	return wc, nil
}

type metarReport struct {
	IcaoID  string `json:"icaoId"`
	RawOb   string `json:"rawOb"`
	ObsTime int64  `json:"obsTime"`
}
