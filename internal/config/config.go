package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Provider names, also used as environment variable prefixes (upper-cased).
const (
	ProviderAviationStack   = "aviationstack"
	ProviderAeroDataBox     = "aerodatabox"
	ProviderOpenWeather     = "openweather"
	ProviderAviationWeather = "aviationweather"
	ProviderFAA             = "faa"
)

// Cache backends.
const (
	CacheMemory   = "memory"
	CacheBadger   = "badger"
	CachePebble   = "pebble"
	CachePostgres = "postgres"
)

// ProviderConfig configures one upstream data provider.
type ProviderConfig struct {
	Name              string
	APIKey            string
	Enabled           bool
	Priority          int
	RequestsPerMinute int
	// BaseURL overrides the provider's public endpoint; empty means default.
	BaseURL string
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	ProviderTimeout      time.Duration
	MonthlyRequestBudget int

	FlightCacheTTL  time.Duration
	WeatherCacheTTL time.Duration
	AirportCacheTTL time.Duration
	CacheBackend    string
	CacheDir        string
	CacheMaxEntries int
	DatabaseURL     string

	AviationStack   ProviderConfig
	AeroDataBox     ProviderConfig
	OpenWeather     ProviderConfig
	AviationWeather ProviderConfig
	FAA             ProviderConfig

	TierAAmount int
	TierBAmount int

	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Providers returns every provider configuration, enabled or not.
func (c *Config) Providers() []ProviderConfig {
	return []ProviderConfig{c.AviationStack, c.AeroDataBox, c.OpenWeather, c.AviationWeather, c.FAA}
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CacheBackend: strings.ToLower(sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory)),
		CacheDir:     sharedcfg.EnvOrDefault("CACHE_DIR", "./data/cache"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "parsed-claims"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "claim-assessments"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "flight-verifier"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"PROVIDER_TIMEOUT", "30s", &cfg.ProviderTimeout},
		{"FLIGHT_CACHE_TTL", "24h", &cfg.FlightCacheTTL},
		{"WEATHER_CACHE_TTL", "10m", &cfg.WeatherCacheTTL},
		{"AIRPORT_CACHE_TTL", "5m", &cfg.AirportCacheTTL},
	}
	for _, d := range durations {
		if *d.dst, err = parsePositiveDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.MonthlyRequestBudget, err = parseInt("MONTHLY_REQUEST_BUDGET", 0, 0); err != nil {
		return nil, err
	}
	if cfg.CacheMaxEntries, err = parseInt("CACHE_MAX_ENTRIES", 10000, 0); err != nil {
		return nil, err
	}
	if cfg.TierAAmount, err = parseInt("TIER_A_AMOUNT", 400, 0); err != nil {
		return nil, err
	}
	if cfg.TierBAmount, err = parseInt("TIER_B_AMOUNT", 600, 0); err != nil {
		return nil, err
	}
	if cfg.KafkaEnabled, err = parseBool("KAFKA_ENABLED", false); err != nil {
		return nil, err
	}

	providers := []struct {
		dst      *ProviderConfig
		name     string
		keyed    bool
		priority int
		rpm      int
	}{
		{&cfg.AviationStack, ProviderAviationStack, true, 1, 60},
		{&cfg.AeroDataBox, ProviderAeroDataBox, true, 2, 30},
		{&cfg.OpenWeather, ProviderOpenWeather, true, 1, 60},
		{&cfg.AviationWeather, ProviderAviationWeather, false, 2, 100},
		{&cfg.FAA, ProviderFAA, false, 1, 60},
	}
	for _, p := range providers {
		if *p.dst, err = loadProvider(p.name, p.keyed, p.priority, p.rpm); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CacheBackend {
	case CacheMemory, CacheBadger, CachePebble:
	case CachePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when CACHE_BACKEND is postgres")
		}
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.TierBAmount < c.TierAAmount {
		return errors.New("TIER_B_AMOUNT must not be less than TIER_A_AMOUNT")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required")
		}
		if c.KafkaSourceTopic == "" {
			return errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	return nil
}

// loadProvider reads <NAME>_KEY, <NAME>_ENABLED, <NAME>_PRIORITY, <NAME>_RPM
// and <NAME>_BASE_URL. A keyed provider is enabled by the presence of its key
// unless <NAME>_ENABLED says otherwise; keyless providers default to enabled.
func loadProvider(name string, keyed bool, priority, rpm int) (ProviderConfig, error) {
	prefix := strings.ToUpper(name)
	pc := ProviderConfig{
		Name:    name,
		BaseURL: os.Getenv(prefix + "_BASE_URL"),
	}

	if keyed {
		pc.APIKey = os.Getenv(prefix + "_KEY")
	}

	enabled, err := parseBool(prefix+"_ENABLED", !keyed || pc.APIKey != "")
	if err != nil {
		return pc, err
	}
	if enabled && keyed && pc.APIKey == "" {
		return pc, fmt.Errorf("%s_ENABLED is true but %s_KEY is not set", prefix, prefix)
	}
	pc.Enabled = enabled

	if pc.Priority, err = parseInt(prefix+"_PRIORITY", priority, 0); err != nil {
		return pc, err
	}
	if pc.RequestsPerMinute, err = parseInt(prefix+"_RPM", rpm, 0); err != nil {
		return pc, err
	}
	return pc, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, s)
	}
	return b, nil
}
