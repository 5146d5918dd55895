// Package tracing provides OpenTelemetry distributed tracing for the relay.
//
// # Overview
//
// Each routed operation produces one span (relay.complete, relay.stream or
// relay.embed) with a child span per provider attempt, so a trace shows the
// fallback chain as it was walked. Outgoing provider requests carry the W3C
// traceparent header.
//
// Spans are exported over OTLP gRPC. When tracing is disabled a noop tracer
// is used and spans cost almost nothing.
//
// # Sampling Strategies
//
//   - always: sample all traces (development)
//   - never: sample no traces
//   - ratio: sample a fraction of traces by trace ID (production)
//
// All samplers respect the caller's sampling decision when a parent span
// is present.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, tracing.SpanComplete)
//	defer span.End()
package tracing
