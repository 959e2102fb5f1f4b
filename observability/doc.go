// Package observability wires OpenTelemetry tracing and metrics for the
// Bkper client.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("bkper"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanFetch)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("bkper"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("bkper"))
//	metrics.RecordRequest(ctx, "GET", "/books", "ok", duration)
//
// Without an initialized provider the global no-op implementations are
// used, so spans and instruments cost nothing.
package observability
