// Package server provides the operations HTTP server run by "relay serve".
//
// The server does not proxy AI traffic. It exposes what an operator needs
// to watch a running router:
//
//   - /healthz and /readyz backed by a health.Checker (one check per provider)
//   - /version with build information
//   - the Prometheus metrics handler at the configured path
//   - /status with the router status as JSON
//
// Every route runs behind request id, access logging and panic recovery
// middleware, and inside an OpenTelemetry server span.
//
// # Basic Usage
//
//	srv := server.New(cfg.Server, server.Options{
//	    Checker:     registry.Checker(),
//	    Metrics:     collector.Handler(),
//	    MetricsPath: cfg.Telemetry.Metrics.Path,
//	    Status:      func() any { return router.Status() },
//	})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled and then shuts down gracefully within
// ServerConfig.ShutdownTimeout.
package server
