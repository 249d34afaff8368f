// Package observability provides OpenTelemetry tracing and metrics for the
// save and transcribe pipeline.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, cfg.TracerConfig("audiopen", version.Short(), env), log)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanArtifactUpload)
//	defer func() { observability.EndSpan(span, err) }()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, cfg.MeterConfig("audiopen", version.Short(), env), log)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("audiopen"))
//	metrics.RecordTranscription(ctx, observability.OutcomeSuccess, elapsed)
//
// A nil *Metrics is valid and records nothing.
package observability
