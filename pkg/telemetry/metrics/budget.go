package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/relay/pkg/budget"
	"mercator-hq/relay/pkg/config"
)

// BudgetMetrics mirrors the budget circuit breaker.
//
// Metrics:
//   - relay_router_budget_limit_usd: configured monthly limit
//   - relay_router_budget_spend_usd: spend in the current period
//   - relay_router_budget_usage_ratio: spend divided by limit
//   - relay_router_budget_state: 0 closed, 1 half-open, 2 open
//   - relay_router_budget_requests: accounted requests in the current period
//   - relay_router_budget_transitions_total: state changes by source and target
type BudgetMetrics struct {
	limit       prometheus.Gauge
	spend       prometheus.Gauge
	ratio       prometheus.Gauge
	state       prometheus.Gauge
	requests    prometheus.Gauge
	transitions *prometheus.CounterVec
}

// NewBudgetMetrics creates and registers budget metrics with the provided registry.
func NewBudgetMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BudgetMetrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		})
	}

	bm := &BudgetMetrics{
		limit:    gauge("budget_limit_usd", "Monthly budget limit in USD"),
		spend:    gauge("budget_spend_usd", "Spend in the current budget period in USD"),
		ratio:    gauge("budget_usage_ratio", "Spend divided by the monthly limit"),
		state:    gauge("budget_state", "Budget circuit breaker state (0=closed, 1=half_open, 2=open)"),
		requests: gauge("budget_requests", "Accounted requests in the current budget period"),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_transitions_total",
				Help:      "Total number of budget circuit breaker state changes",
			},
			[]string{"from", "to"},
		),
	}

	registry.MustRegister(
		bm.limit,
		bm.spend,
		bm.ratio,
		bm.state,
		bm.requests,
		bm.transitions,
	)

	return bm
}

// Update publishes a status snapshot.
func (bm *BudgetMetrics) Update(s budget.Status) {
	bm.limit.Set(s.Limit)
	bm.spend.Set(s.Spend)
	bm.ratio.Set(s.Ratio)
	bm.state.Set(float64(s.State))
	bm.requests.Set(float64(s.RequestCount))
}

// RecordTransition counts a state change.
func (bm *BudgetMetrics) RecordTransition(from, to budget.CircuitState) {
	bm.transitions.WithLabelValues(from.String(), to.String()).Inc()
	bm.state.Set(float64(to))
}
