package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfigDefaultsAndDerived(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected default endpoint, got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}

	mc := cfg.MeterConfig("audiopen", "1.2.3", "staging")
	if mc.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", mc.Interval)
	}
	tc := cfg.TracerConfig("audiopen", "1.2.3", "staging")
	if tc.ServiceVersion != "1.2.3" || tc.Environment != "staging" {
		t.Errorf("unexpected tracer config %+v", tc)
	}

	cfg.Enabled = true
	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample rate above 1")
	}
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	ctx := context.Background()
	m.RecordTranscription(ctx, OutcomeSuccess, 120*time.Millisecond)
	m.RecordTranscription(ctx, OutcomeOverloaded, 80*time.Millisecond)
	m.RecordUpload(ctx, OutcomeSuccess)
	m.RecordRollback(ctx, "rename")
	m.RecordSwept(ctx, 3)
	m.RecordSwept(ctx, 0)

	sums := collectSums(t, reader)
	want := map[string]int64{
		"audiopen.transcriptions":    2,
		"audiopen.uploads":           1,
		"audiopen.catalog.rollbacks": 1,
		"audiopen.catalog.swept":     3,
	}
	for name, v := range want {
		if sums[name] != v {
			t.Errorf("expected %s=%d, got %d", name, v, sums[name])
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordTranscription(ctx, OutcomeFailed, time.Second)
	m.RecordUpload(ctx, OutcomeFailed)
	m.RecordRollback(ctx, "delete")
	m.RecordSwept(ctx, 1)

	if NopMetrics() == nil {
		t.Fatal("expected non-nil nop metrics")
	}
}

func TestStartSpanAndEndSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanArtifactUpload)
	SetSpanAttribute(ctx, AttrStoragePath, "user-1/recording_20240101_120000.webm")
	SetSpanAttribute(ctx, AttrStatusCode, 201)
	EndSpan(span, errors.New("upload failed"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != SpanArtifactUpload {
		t.Errorf("expected span %q, got %q", SpanArtifactUpload, got.Name)
	}
	if got.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status.Code)
	}
	if len(got.Attributes) != 2 {
		t.Errorf("expected 2 attributes, got %d", len(got.Attributes))
	}
	if len(got.Events) != 1 {
		t.Errorf("expected recorded error event, got %d events", len(got.Events))
	}
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	SetSpanAttribute(context.Background(), "key", "value")
	if _, ok := toAttribute("key", struct{}{}); ok {
		t.Error("expected unsupported value to be skipped")
	}
	if kv, ok := toAttribute("d", time.Second); !ok || kv.Value.AsString() != "1s" {
		t.Errorf("expected stringer value, got %v", kv.Value.Emit())
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("audiopen", "1.0.0", "development")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == AttrServiceName && kv.Value.AsString() == "audiopen" {
			found = true
		}
	}
	if !found {
		t.Error("expected service.name attribute on resource")
	}
}
