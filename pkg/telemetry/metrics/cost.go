package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/relay/pkg/config"
)

// CostMetrics tracks the cost of accounted calls.
//
// Metrics:
//   - relay_router_cost_usd_total: total cost in USD by provider and tier
//   - relay_router_cost_per_request_usd: cost distribution per request
type CostMetrics struct {
	costTotal      *prometheus.CounterVec
	costPerRequest *prometheus.HistogramVec
}

// NewCostMetrics creates and registers cost metrics with the provided registry.
func NewCostMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CostMetrics {
	cm := &CostMetrics{
		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_usd_total",
				Help:      "Total cost in USD by provider and tier",
			},
			[]string{"provider", "tier"},
		),

		costPerRequest: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_per_request_usd",
				Help:      "Cost distribution per request in USD",
				// $0.0001 to $10, covering small local calls through long SOTA completions
				Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		cm.costTotal,
		cm.costPerRequest,
	)

	return cm
}

// RecordCost records the cost of a single call. Free calls (local
// providers) are counted in the histogram but do not touch the total.
func (cm *CostMetrics) RecordCost(provider, tier string, costUSD float64) {
	if costUSD < 0 {
		return
	}
	if costUSD > 0 {
		cm.costTotal.WithLabelValues(provider, tier).Add(costUSD)
	}
	cm.costPerRequest.WithLabelValues(provider).Observe(costUSD)
}
