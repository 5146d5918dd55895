package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/relay/pkg/config"
)

// RequestMetrics tracks routed operations.
//
// Metrics:
//   - relay_router_requests_total: provider attempts by operation, provider and outcome
//   - relay_router_request_duration_seconds: provider attempt latency
//   - relay_router_fallbacks_total: moves to the next provider in a chain
//   - relay_router_rejections_total: operations that returned no response
//   - relay_router_tokens_total: accounted tokens by provider, model and direction
//   - relay_router_embedding_tokens_total: tokens consumed by embeddings
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fallbacksTotal  *prometheus.CounterVec
	rejectionsTotal *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	embeddingTokens *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of provider attempts by operation and outcome",
			},
			[]string{"operation", "provider", "outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of provider attempts in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"operation", "provider"},
		),

		fallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fallbacks_total",
				Help:      "Total number of fallbacks to the next provider in the chain",
			},
			[]string{"operation"},
		),

		rejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rejections_total",
				Help:      "Total number of operations that returned an error to the caller",
			},
			[]string{"operation", "reason"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tokens_total",
				Help:      "Total number of accounted tokens",
			},
			[]string{"provider", "model", "direction"},
		),

		embeddingTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "embedding_tokens_total",
				Help:      "Total number of tokens consumed by embedding requests",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.fallbacksTotal,
		rm.rejectionsTotal,
		rm.tokensTotal,
		rm.embeddingTokens,
	)

	return rm
}

// RecordRequest records one provider attempt.
func (rm *RequestMetrics) RecordRequest(operation, provider, outcome string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(operation, provider, outcome).Inc()

	// Skipped providers were never called
	if outcome != OutcomeUnavailable {
		rm.requestDuration.WithLabelValues(operation, provider).Observe(duration.Seconds())
	}
}

// RecordFallback records a fallback within operation.
func (rm *RequestMetrics) RecordFallback(operation string) {
	rm.fallbacksTotal.WithLabelValues(operation).Inc()
}

// RecordRejection records an operation that failed as a whole.
func (rm *RequestMetrics) RecordRejection(operation, reason string) {
	rm.rejectionsTotal.WithLabelValues(operation, reason).Inc()
}

// RecordTokens records token counts separately for input and output.
func (rm *RequestMetrics) RecordTokens(provider, model string, inputTokens, outputTokens int) {
	if inputTokens > 0 {
		rm.tokensTotal.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		rm.tokensTotal.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// RecordEmbeddingTokens records embedding token usage.
func (rm *RequestMetrics) RecordEmbeddingTokens(provider string, tokens int) {
	if tokens > 0 {
		rm.embeddingTokens.WithLabelValues(provider).Add(float64(tokens))
	}
}
