package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/audiopen/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	if log == nil {
		log = logger.NewNop()
	}
	log.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Outcome labels recorded on the pipeline counters.
const (
	OutcomeSuccess     = "success"
	OutcomeOverloaded  = "overloaded"
	OutcomeRateLimited = "rate_limited"
	OutcomeURLExpired  = "url_expired"
	OutcomeFailed      = "failed"
)

// Metrics holds the instruments for the save and transcribe pipeline.
type Metrics struct {
	transcriptions       metric.Int64Counter
	transcriptionLatency metric.Float64Histogram
	uploads              metric.Int64Counter
	catalogRollbacks     metric.Int64Counter
	sweptRecordings      metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	transcriptions, err := meter.Int64Counter("audiopen.transcriptions",
		metric.WithDescription("Transcription requests by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating audiopen.transcriptions counter: %w", err)
	}

	latency, err := meter.Float64Histogram("audiopen.transcription.duration",
		metric.WithDescription("Duration of transcription requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating audiopen.transcription.duration histogram: %w", err)
	}

	uploads, err := meter.Int64Counter("audiopen.uploads",
		metric.WithDescription("Artifact uploads by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating audiopen.uploads counter: %w", err)
	}

	rollbacks, err := meter.Int64Counter("audiopen.catalog.rollbacks",
		metric.WithDescription("Catalog mutations rolled back after a failed remote call"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating audiopen.catalog.rollbacks counter: %w", err)
	}

	swept, err := meter.Int64Counter("audiopen.catalog.swept",
		metric.WithDescription("Recordings removed by the validity sweep"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating audiopen.catalog.swept counter: %w", err)
	}

	return &Metrics{
		transcriptions:       transcriptions,
		transcriptionLatency: latency,
		uploads:              uploads,
		catalogRollbacks:     rollbacks,
		sweptRecordings:      swept,
	}, nil
}

// NopMetrics returns Metrics backed by a no-op meter.
func NopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

// RecordTranscription records one transcription attempt and its latency.
func (m *Metrics) RecordTranscription(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrOutcome, outcome))
	m.transcriptions.Add(ctx, 1, attrs)
	m.transcriptionLatency.Record(ctx, duration.Seconds(), attrs)
}

// RecordUpload records one artifact upload.
func (m *Metrics) RecordUpload(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.uploads.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

// RecordRollback records a rolled-back catalog mutation.
func (m *Metrics) RecordRollback(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.catalogRollbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

// RecordSwept records recordings removed by the validity sweep.
func (m *Metrics) RecordSwept(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.sweptRecordings.Add(ctx, int64(n))
}
