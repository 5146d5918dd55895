package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/providers"
)

// ProviderMetrics tracks provider availability and failures.
//
// Metrics:
//   - relay_router_provider_available: configuration completeness (1=available)
//   - relay_router_provider_health: last live probe result (1=healthy)
//   - relay_router_provider_errors_total: provider failures by type
type ProviderMetrics struct {
	available *prometheus.GaugeVec
	health    *prometheus.GaugeVec
	errors    *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		available: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_available",
				Help:      "Provider availability (1=available, 0=unavailable)",
			},
			[]string{"provider"},
		),

		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health",
				Help:      "Provider health status from the last probe (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors by type",
			},
			[]string{"provider", "error_type"},
		),
	}

	registry.MustRegister(
		pm.available,
		pm.health,
		pm.errors,
	)

	return pm
}

// UpdateAvailability sets the availability gauge of a provider.
func (pm *ProviderMetrics) UpdateAvailability(provider string, available bool) {
	pm.available.WithLabelValues(provider).Set(boolToFloat(available))
}

// UpdateHealth sets the health gauge of a provider.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	pm.health.WithLabelValues(provider).Set(boolToFloat(healthy))
}

// RecordError records an error from a provider.
//
// Error types:
//   - "auth": authentication or authorization failure
//   - "rate_limit": provider rate limit exceeded
//   - "timeout": deadline or cancellation
//   - "parse": malformed provider response
//   - "stream": failure while reading a stream
//   - "server_error": 5xx response
//   - "client_error": other 4xx response
//   - "network": transport failure without a status
//   - "unavailable": provider not registered or not configured
//   - "other": anything else
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}

// ErrorType maps a provider error to the error_type label.
func ErrorType(err error) string {
	var (
		authErr    *providers.AuthError
		rateErr    *providers.RateLimitError
		timeoutErr *providers.TimeoutError
		parseErr   *providers.ParseError
		streamErr  *providers.StreamError
		provErr    *providers.ProviderError
	)

	switch {
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &rateErr):
		return "rate_limit"
	case errors.As(err, &timeoutErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return "timeout"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &streamErr):
		return "stream"
	case errors.Is(err, providers.ErrProviderUnavailable):
		return "unavailable"
	case errors.As(err, &provErr):
		switch {
		case provErr.StatusCode >= 500:
			return "server_error"
		case provErr.StatusCode >= 400:
			return "client_error"
		default:
			return "network"
		}
	default:
		return "other"
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
