package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker = "localhost:9092"
	testAPIKey    = "test-key"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Zero(t, cfg.MonthlyRequestBudget)
	assert.Equal(t, 24*time.Hour, cfg.FlightCacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.AirportCacheTTL)
	assert.Equal(t, CacheMemory, cfg.CacheBackend)
	assert.Equal(t, "./data/cache", cfg.CacheDir)
	assert.Equal(t, 10000, cfg.CacheMaxEntries)

	assert.Equal(t, 400, cfg.TierAAmount)
	assert.Equal(t, 600, cfg.TierBAmount)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "parsed-claims", cfg.KafkaSourceTopic)
	assert.Equal(t, "claim-assessments", cfg.KafkaSinkTopic)
	assert.Equal(t, "flight-verifier", cfg.KafkaGroupID)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
}

func TestLoad_ProviderDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	tests := []struct {
		got      ProviderConfig
		name     string
		enabled  bool
		priority int
		rpm      int
	}{
		{cfg.AviationStack, ProviderAviationStack, false, 1, 60},
		{cfg.AeroDataBox, ProviderAeroDataBox, false, 2, 30},
		{cfg.OpenWeather, ProviderOpenWeather, false, 1, 60},
		{cfg.AviationWeather, ProviderAviationWeather, true, 2, 100},
		{cfg.FAA, ProviderFAA, true, 1, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.got.Name)
			assert.Equal(t, tt.enabled, tt.got.Enabled)
			assert.Equal(t, tt.priority, tt.got.Priority)
			assert.Equal(t, tt.rpm, tt.got.RequestsPerMinute)
			assert.Empty(t, tt.got.BaseURL)
		})
	}
	assert.Len(t, cfg.Providers(), 5)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("PROVIDER_TIMEOUT", "5s")
	t.Setenv("MONTHLY_REQUEST_BUDGET", "10000")
	t.Setenv("FLIGHT_CACHE_TTL", "12h")
	t.Setenv("WEATHER_CACHE_TTL", "5m")
	t.Setenv("AIRPORT_CACHE_TTL", "2m")
	t.Setenv("CACHE_BACKEND", "Badger")
	t.Setenv("CACHE_DIR", "/var/cache/verifier")
	t.Setenv("AVIATIONSTACK_KEY", testAPIKey)
	t.Setenv("AVIATIONSTACK_PRIORITY", "3")
	t.Setenv("AVIATIONSTACK_RPM", "10")
	t.Setenv("AVIATIONSTACK_BASE_URL", "http://localhost:1234")
	t.Setenv("TIER_A_AMOUNT", "250")
	t.Setenv("TIER_B_AMOUNT", "400")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 10000, cfg.MonthlyRequestBudget)
	assert.Equal(t, 12*time.Hour, cfg.FlightCacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, 2*time.Minute, cfg.AirportCacheTTL)
	assert.Equal(t, CacheBadger, cfg.CacheBackend)
	assert.Equal(t, "/var/cache/verifier", cfg.CacheDir)

	assert.Equal(t, ProviderConfig{
		Name:              ProviderAviationStack,
		APIKey:            testAPIKey,
		Enabled:           true,
		Priority:          3,
		RequestsPerMinute: 10,
		BaseURL:           "http://localhost:1234",
	}, cfg.AviationStack)

	assert.Equal(t, 250, cfg.TierAAmount)
	assert.Equal(t, 400, cfg.TierBAmount)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"BATCH_SIZE", "0"},
		{"BATCH_SIZE", "9999"},
		{"BATCH_FLUSH_INTERVAL", "not-a-duration"},
		{"PROVIDER_TIMEOUT", "0s"},
		{"FLIGHT_CACHE_TTL", "forever"},
		{"WEATHER_CACHE_TTL", "-5m"},
		{"MONTHLY_REQUEST_BUDGET", "-1"},
		{"CACHE_MAX_ENTRIES", "lots"},
		{"TIER_A_AMOUNT", "lots"},
		{"KAFKA_ENABLED", "maybe"},
		{"FAA_RPM", "fast"},
		{"AVIATIONWEATHER_ENABLED", "sometimes"},
		{"CACHE_BACKEND", "redis"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_EnabledWithoutKey(t *testing.T) {
	t.Setenv("OPENWEATHER_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENWEATHER_KEY")
}

func TestLoad_KeyImpliesEnabled(t *testing.T) {
	t.Setenv("AERODATABOX_KEY", testAPIKey)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AeroDataBox.Enabled)
}

func TestLoad_ExplicitlyDisabled(t *testing.T) {
	t.Setenv("AERODATABOX_KEY", testAPIKey)
	t.Setenv("AERODATABOX_ENABLED", "false")
	t.Setenv("FAA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.AeroDataBox.Enabled)
	assert.False(t, cfg.FAA.Enabled)
}

func TestLoad_PostgresNeedsDatabaseURL(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/verifier")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, CachePostgres, cfg.CacheBackend)
}

func TestLoad_TierOrdering(t *testing.T) {
	t.Setenv("TIER_A_AMOUNT", "700")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIER_B_AMOUNT")
}
