// Package openweather implements domain.WeatherProvider on the OpenWeatherMap
// current, forecast and One Call timemachine APIs.
package openweather

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/httpclient"
	"github.com/couchcryptid/flight-disruption-verifier/internal/config"
	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
)

const (
	defaultBaseURL = "https://api.openweathermap.org"

	// Forecast periods are three hours wide.
	forecastStep = 3 * time.Hour
	maxForecast  = 40
)

// Client implements domain.WeatherProvider.
type Client struct {
	cfg     config.ProviderConfig
	http    *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

var _ domain.WeatherProvider = (*Client)(nil)

// NewClient creates an OpenWeatherMap client.
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

// GetCurrentWeather returns the latest observation at the airport.
func (c *Client) GetCurrentWeather(ctx context.Context, airportCode string) (domain.WeatherConditions, error) {
	params, err := c.coordinates(airportCode)
	if err != nil {
		return domain.WeatherConditions{}, err
	}

	var resp currentResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/data/2.5/weather?"+params.Encode(), nil, &resp); err != nil {
		return domain.WeatherConditions{}, err
	}
	wc := resp.toConditions()
	c.logger.Debug("current weather fetched", "provider", c.Name(), "airport", airportCode,
		"visibility_km", wc.Visibility, "wind_kmh", wc.WindSpeed)
	return wc, nil
}

// GetForecast returns the 3-hour forecast periods covering the next hours.
func (c *Client) GetForecast(ctx context.Context, airportCode string, hours int) ([]domain.WeatherForecast, error) {
	params, err := c.coordinates(airportCode)
	if err != nil {
		return nil, err
	}
	periods := int(math.Ceil(float64(hours) / forecastStep.Hours()))
	params.Set("cnt", strconv.Itoa(max(1, min(periods, maxForecast))))

	var resp forecastResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/data/2.5/forecast?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.WeatherForecast, 0, len(resp.List))
	for _, p := range resp.List {
		from := time.Unix(p.Dt, 0).UTC()
		out = append(out, domain.WeatherForecast{
			ValidFrom:                from,
			ValidTo:                  from.Add(forecastStep),
			Conditions:               p.toConditions(),
			PrecipitationProbability: p.Pop,
		})
	}
	return out, nil
}

// GetHistoricalWeather returns the observation closest to date.
func (c *Client) GetHistoricalWeather(ctx context.Context, airportCode string, date time.Time) (domain.WeatherConditions, error) {
	params, err := c.coordinates(airportCode)
	if err != nil {
		return domain.WeatherConditions{}, err
	}
	params.Set("dt", strconv.FormatInt(date.Unix(), 10))

	var resp timemachineResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/data/3.0/onecall/timemachine?"+params.Encode(), nil, &resp); err != nil {
		return domain.WeatherConditions{}, err
	}
	if len(resp.Data) == 0 {
		return domain.WeatherConditions{}, fmt.Errorf("openweather: no observation for %s at %s", airportCode, date.Format(time.RFC3339))
	}
	return resp.Data[0].toConditions(), nil
}

func (c *Client) coordinates(airportCode string) (url.Values, error) {
	a, err := domain.LookupAirport(airportCode)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"lat":   {strconv.FormatFloat(a.Lat, 'f', 4, 64)},
		"lon":   {strconv.FormatFloat(a.Lon, 'f', 4, 64)},
		"appid": {c.cfg.APIKey},
		"units": {"metric"},
	}, nil
}

// OpenWeatherMap API response types.

type weatherEntry struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

type mainBlock struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
	Pressure float64 `json:"pressure"`
}

type windBlock struct {
	Speed float64 `json:"speed"` // m/s
	Deg   float64 `json:"deg"`
	Gust  float64 `json:"gust"`
}

type currentResponse struct {
	Dt         int64          `json:"dt"`
	Main       mainBlock      `json:"main"`
	Wind       windBlock      `json:"wind"`
	Visibility *float64       `json:"visibility"` // meters
	Weather    []weatherEntry `json:"weather"`
}

type forecastResponse struct {
	List []struct {
		currentResponse
		Pop float64 `json:"pop"`
	} `json:"list"`
}

// The One Call API flattens main and wind into the observation.
type timemachineResponse struct {
	Data []observation `json:"data"`
}

type observation struct {
	Dt         int64          `json:"dt"`
	Temp       float64        `json:"temp"`
	Humidity   float64        `json:"humidity"`
	Pressure   float64        `json:"pressure"`
	Visibility *float64       `json:"visibility"`
	WindSpeed  float64        `json:"wind_speed"`
	WindDeg    float64        `json:"wind_deg"`
	WindGust   float64        `json:"wind_gust"`
	Weather    []weatherEntry `json:"weather"`
}

func (o observation) toConditions() domain.WeatherConditions {
	return currentResponse{
		Dt:         o.Dt,
		Main:       mainBlock{Temp: o.Temp, Humidity: o.Humidity, Pressure: o.Pressure},
		Wind:       windBlock{Speed: o.WindSpeed, Deg: o.WindDeg, Gust: o.WindGust},
		Visibility: o.Visibility,
		Weather:    o.Weather,
	}.toConditions()
}

func (r currentResponse) toConditions() domain.WeatherConditions {
	wc := domain.WeatherConditions{
		Temperature:   r.Main.Temp,
		Humidity:      r.Main.Humidity,
		Pressure:      r.Main.Pressure,
		WindSpeed:     msToKmh(r.Wind.Speed),
		WindDirection: r.Wind.Deg,
		WindGust:      msToKmh(r.Wind.Gust),
		ObservedAt:    time.Unix(r.Dt, 0).UTC(),
	}
	if r.Visibility != nil {
		// metres to km, kept to 10 m so dense fog never rounds to a clear reading
		wc.Visibility = math.Round(*r.Visibility/10) / 100
	} else {
		wc.VisibilityUnreported = true
	}
	for _, w := range r.Weather {
		cond, ok := mapCondition(w)
		if !ok {
			continue
		}
		wc.Conditions = append(wc.Conditions, cond)
		if isSevereID(w.ID) {
			wc.IsSevere = true
		}
	}
	wc.AffectsAviation = domain.ClassifyWeatherImpact(wc).AffectsAviation
	return wc
}

func msToKmh(v float64) float64 {
	return math.Round(v*3.6*10) / 10
}

// isSevereID flags heavy thunderstorm, extreme rain and tornado.
func isSevereID(id int) bool {
	return id == 212 || id == 504 || id == 781
}

// mapCondition translates an OpenWeatherMap condition id. Group 8xx (clouds
// and clear sky) carries no present weather.
func mapCondition(w weatherEntry) (domain.WeatherCondition, bool) {
	cond := domain.WeatherCondition{Description: w.Description, Intensity: intensity(w.ID)}

	switch {
	case w.ID >= 200 && w.ID < 300:
		cond.Type = domain.ConditionThunderstorm
		cond.AffectsRunway = true
	case w.ID >= 300 && w.ID < 400:
		cond.Type = domain.ConditionDrizzle
	case w.ID == 511:
		cond.Type = domain.ConditionFreezingRain
		cond.AffectsRunway = true
	case w.ID >= 500 && w.ID < 600:
		cond.Type = domain.ConditionRain
		cond.AffectsRunway = cond.IsHeavy()
	case w.ID >= 611 && w.ID <= 616:
		cond.Type = domain.ConditionSleet
		cond.AffectsRunway = true
	case w.ID >= 600 && w.ID < 700:
		cond.Type = domain.ConditionSnow
		cond.AffectsRunway = true
		cond.AffectsVisibility = true
	case w.ID == 701:
		cond.Type = domain.ConditionMist
		cond.AffectsVisibility = true
	case w.ID == 711 || w.ID == 721:
		cond.Type = domain.ConditionHaze
		cond.AffectsVisibility = true
	case w.ID == 731 || w.ID == 751 || w.ID == 761 || w.ID == 762:
		cond.Type = domain.ConditionDust
		cond.AffectsVisibility = true
	case w.ID == 741:
		cond.Type = domain.ConditionFog
		cond.AffectsVisibility = true
	case w.ID == 771:
		cond.Type = domain.ConditionSquall
		cond.AffectsRunway = true
	case w.ID == 781:
		cond.Type = domain.ConditionTornado
		cond.AffectsRunway = true
		cond.AffectsVisibility = true
	default:
		return domain.WeatherCondition{}, false
	}
	return cond, true
}

func intensity(id int) domain.Intensity {
	switch id {
	case 212, 504, 781:
		return domain.IntensitySevere
	case 202, 211, 221, 232, 302, 312, 314, 502, 503, 522, 531, 602, 622:
		return domain.IntensityHeavy
	case 200, 210, 230, 300, 310, 500, 520, 600, 612, 615, 620:
		return domain.IntensityLight
	default:
		return domain.IntensityModerate
	}
}
