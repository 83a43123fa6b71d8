//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/adapter/kafka"
	"github.com/couchcryptid/flight-disruption-verifier/internal/aggregator"
	"github.com/couchcryptid/flight-disruption-verifier/internal/config"
	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"github.com/couchcryptid/flight-disruption-verifier/internal/observability"
	"github.com/couchcryptid/flight-disruption-verifier/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testSourceTopic = "test-parsed-claims"
	testSinkTopic   = "test-claim-assessments"
)

// --- provider stubs ---

type stubFlights struct{}

func (stubFlights) Name() string                   { return "stub-flights" }
func (stubFlights) Priority() int                  { return 1 }
func (stubFlights) RateLimit() domain.RateLimit    { return domain.RateLimit{} }
func (stubFlights) IsHealthy(context.Context) bool { return true }

func (stubFlights) GetFlightStatus(_ context.Context, flightNumber string, _ time.Time) (domain.FlightStatusResult, error) {
	if flightNumber == "XX999" {
		return domain.FlightStatusResult{}, domain.ErrFlightNotFound
	}
	return domain.FlightStatusResult{
		FlightNumber:     flightNumber,
		DepartureAirport: "LHR",
		ArrivalAirport:   "JFK",
		DelayMinutes:     270,
		Status:           domain.StatusDelayed,
		Confidence:       90,
	}, nil
}

func (stubFlights) ValidateFlightExists(context.Context, string, time.Time) bool { return true }

type stubWeather struct{}

func (stubWeather) Name() string                   { return "stub-weather" }
func (stubWeather) Priority() int                  { return 1 }
func (stubWeather) RateLimit() domain.RateLimit    { return domain.RateLimit{} }
func (stubWeather) IsHealthy(context.Context) bool { return true }

func (stubWeather) GetCurrentWeather(_ context.Context, code string) (domain.WeatherConditions, error) {
	if code == "JFK" {
		return domain.WeatherConditions{Visibility: 0.3, WindSpeed: 10}, nil
	}
	return domain.WeatherConditions{Visibility: 10, WindSpeed: 10}, nil
}

func (stubWeather) GetForecast(context.Context, string, int) ([]domain.WeatherForecast, error) {
	return nil, domain.ErrNotSupported
}

func (stubWeather) GetHistoricalWeather(context.Context, string, time.Time) (domain.WeatherConditions, error) {
	return domain.WeatherConditions{}, domain.ErrNotSupported
}

// --- helpers ---

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("flight-verifier-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		ProviderTimeout:    5 * time.Second,
		FlightCacheTTL:     time.Hour,
		WeatherCacheTTL:    10 * time.Minute,
		AirportCacheTTL:    5 * time.Minute,
		CacheBackend:       config.CacheMemory,
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       group,
		BatchSize:          10,
		BatchFlushInterval: 2 * time.Second,
	}
}

type sinkMessage struct {
	Assessment domain.ClaimAssessment
	Key        string
	Headers    map[string]string
}

func readAssessment(ctx context.Context, t *testing.T, consumer *kafkago.Reader) sinkMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var a domain.ClaimAssessment
	require.NoError(t, json.Unmarshal(msg.Value, &a), "unmarshal sink message")
	return sinkMessage{Assessment: a, Key: string(msg.Key), Headers: headers}
}

// TestClaimPipelineEndToEnd publishes claims, including a poison message, and
// checks the assessments that reach the sink topic.
func TestClaimPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()))

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("poison"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("claim-fog"), Value: []byte(`{"flight_number":"BA117","flight_date":"2024-03-15","delay_minutes":270}`)},
		kafkago.Message{Key: []byte("claim-unknown"), Value: []byte(`{"flight_number":"XX999","flight_date":"2024-03-15","departure_airport":"CDG","arrival_airport":"FRA","delay_minutes":200}`)},
	))

	metrics := observability.NewMetricsForTesting()
	agg, err := aggregator.Build(ctx, cfg, discardLogger(), metrics, aggregator.Options{
		FlightProviders:      []domain.FlightStatusProvider{stubFlights{}},
		WeatherProviders:     []domain.WeatherProvider{stubWeather{}},
		OperationalProviders: []domain.OperationalProvider{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = agg.Close() })

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, pipeline.NewTransformer(agg.Processor, discardLogger()), writer, discardLogger(), metrics, cfg.BatchSize)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := map[string]sinkMessage{}
	for len(received) < 2 {
		m := readAssessment(ctx, t, consumer)
		received[m.Key] = m
	}

	fog, ok := received["claim-fog"]
	require.True(t, ok)
	assert.Equal(t, "BA117", fog.Headers["flight_number"])
	assert.Equal(t, "false", fog.Headers["eligible"])
	_, err = time.Parse(time.RFC3339, fog.Headers["assessed_at"])
	assert.NoError(t, err, "assessed_at should be valid RFC3339")
	assert.True(t, fog.Assessment.ParsedData.IsVerified)
	assert.Contains(t, fog.Assessment.Eligibility.Reason, "extraordinary")
	assert.Equal(t, "JFK", fog.Assessment.Eligibility.WeatherContext.AirportCode)

	unknown, ok := received["claim-unknown"]
	require.True(t, ok)
	assert.False(t, unknown.Assessment.ParsedData.IsVerified)
	assert.Equal(t, "true", unknown.Headers["eligible"])
	assert.Equal(t, 400, unknown.Assessment.Eligibility.CompensationAmount)

	// The poison message was skipped, so nothing else arrives.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no third message on sink topic")

	require.NoError(t, p.CheckReadiness(ctx))
	pipelineCancel()
	require.NoError(t, <-errCh)
}
