// Package health runs component checks for the router's readiness probe.
//
// A Checker holds named CheckFuncs and runs them concurrently, each under
// its own timeout, so one hung backend cannot stall the probe. The provider
// registry uses it to probe every constructed provider; relay serve mounts
// the HTTP handlers:
//
//   - /healthz: liveness, always 200 while the process runs
//   - /readyz: readiness, 503 when any check fails
//   - /version: build information
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//	checker.Register("azure", azure.HealthCheck)
//
//	mux := http.NewServeMux()
//	health.Mount(mux, checker, health.VersionInfo{Version: version})
package health
