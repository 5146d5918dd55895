// Package telemetry groups the router's observability packages.
//
//   - logging: slog handler construction, request-scoped fields, redaction
//   - metrics: Prometheus collector for requests, tokens, cost and budget
//   - tracing: OpenTelemetry spans around routed requests
//   - health: concurrent component checks and probe endpoints
//
// Each subpackage is usable on its own; relay serve wires them together.
package telemetry
