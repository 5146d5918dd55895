// Package metrics provides Prometheus metrics collection for the relay.
//
// # Overview
//
// A Collector owns a registry and four metric groups:
//
//   - Request metrics: provider attempts, latency, fallbacks, rejections and tokens
//   - Cost metrics: USD spend by provider and tier
//   - Budget metrics: limit, spend, usage ratio and circuit breaker state
//   - Provider metrics: availability, probe health and error types
//
// Names are prefixed with the configured namespace and subsystem, by default
// "relay_router_".
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// The breaker publishes transitions and snapshots through the collector
//	breaker := budget.NewCircuitBreaker(budgetCfg, budget.WithObserver(collector))
//
//	// The router records attempts, tokens and cost
//	router := routing.New(routing.Deps{..., Metrics: collector}, routerCfg)
//
//	mux.Handle("/metrics", collector.Handler())
//
// # Cardinality
//
// Provider, operation and tier labels come from a closed set. Model ids can
// be supplied by callers, so the model label is capped; once the cap is
// reached further models are reported as "other".
//
// # Disabled Metrics
//
// When MetricsConfig.Enabled is false the collector still registers its
// metrics but every Record and Set method returns immediately.
package metrics
