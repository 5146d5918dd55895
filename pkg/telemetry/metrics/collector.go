package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/relay/pkg/budget"
	"mercator-hq/relay/pkg/config"
)

// Request outcomes used as the "outcome" label.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

// Rejection reasons used as the "reason" label.
const (
	ReasonBudgetExceeded     = "budget_exceeded"
	ReasonAllProvidersFailed = "all_providers_failed"
	ReasonModelNotFound      = "model_not_found"
)

// otherModel replaces model labels once the cardinality limit is reached.
const otherModel = "other"

// maxModelLabels bounds the number of distinct model label values. Model ids
// may come from callers, so they are not a closed set.
const maxModelLabels = 500

// Collector owns every Prometheus metric exported by the relay.
//
// It manages registration on its own registry and gives the router, the
// budget breaker and the serve command one place to record into. When
// metrics are disabled every method is a no-op.
type Collector struct {
	config   config.MetricsConfig
	enabled  bool
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	costMetrics     *CostMetrics
	budgetMetrics   *BudgetMetrics
	providerMetrics *ProviderMetrics

	models *CardinalityLimiter
}

// NewCollector creates a collector registering on registry. If registry is
// nil a fresh registry is created. Missing namespace, subsystem and buckets
// fall back to the config package defaults.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	var c config.MetricsConfig
	if cfg != nil {
		c = *cfg
	}
	if c.Namespace == "" {
		c.Namespace = config.DefaultMetricsNamespace
	}
	if c.Subsystem == "" {
		c.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(c.RequestDurationBuckets) == 0 {
		c.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}

	collector := &Collector{
		config:   c,
		enabled:  c.IsEnabled(),
		registry: registry,
		models:   NewCardinalityLimiter(maxModelLabels),
	}

	collector.requestMetrics = NewRequestMetrics(&c, registry)
	collector.costMetrics = NewCostMetrics(&c, registry)
	collector.budgetMetrics = NewBudgetMetrics(&c, registry)
	collector.providerMetrics = NewProviderMetrics(&c, registry)

	return collector
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c.enabled
}

// RecordRequest records one provider attempt of a routed operation.
//
// Parameters:
//   - operation: "complete", "stream" or "embed"
//   - provider: provider name
//   - outcome: OutcomeSuccess, OutcomeError or OutcomeUnavailable
//   - duration: time spent in the provider call
func (c *Collector) RecordRequest(operation, provider, outcome string, duration time.Duration) {
	if !c.enabled {
		return
	}
	c.requestMetrics.RecordRequest(operation, provider, outcome, duration)
}

// RecordFallback records that an operation moved past a failed provider.
func (c *Collector) RecordFallback(operation string) {
	if !c.enabled {
		return
	}
	c.requestMetrics.RecordFallback(operation)
}

// RecordRejection records an operation that returned without a response.
// Reasons are ReasonBudgetExceeded, ReasonAllProvidersFailed and
// ReasonModelNotFound.
func (c *Collector) RecordRejection(operation, reason string) {
	if !c.enabled {
		return
	}
	c.requestMetrics.RecordRejection(operation, reason)
}

// RecordTokens records prompt and completion tokens of an accounted call.
func (c *Collector) RecordTokens(provider, model string, inputTokens, outputTokens int) {
	if !c.enabled {
		return
	}
	if !c.models.Allow(model) {
		model = otherModel
	}
	c.requestMetrics.RecordTokens(provider, model, inputTokens, outputTokens)
}

// RecordEmbeddingTokens records tokens consumed by an embedding call.
// Embeddings are not priced, so this is their only accounting.
func (c *Collector) RecordEmbeddingTokens(provider string, tokens int) {
	if !c.enabled {
		return
	}
	c.requestMetrics.RecordEmbeddingTokens(provider, tokens)
}

// RecordCost records the cost of an accounted call.
func (c *Collector) RecordCost(provider, tier string, costUSD float64) {
	if !c.enabled {
		return
	}
	c.costMetrics.RecordCost(provider, tier, costUSD)
}

// RecordProviderError classifies err and counts it against provider.
func (c *Collector) RecordProviderError(provider string, err error) {
	if !c.enabled || err == nil {
		return
	}
	c.providerMetrics.RecordError(provider, ErrorType(err))
}

// SetProviderAvailability publishes the configuration-level availability of
// each registered provider.
func (c *Collector) SetProviderAvailability(available map[string]bool) {
	if !c.enabled {
		return
	}
	for name, ok := range available {
		c.providerMetrics.UpdateAvailability(name, ok)
	}
}

// SetProviderHealth publishes the result of live health probes.
func (c *Collector) SetProviderHealth(results map[string]bool) {
	if !c.enabled {
		return
	}
	for name, healthy := range results {
		c.providerMetrics.UpdateHealth(name, healthy)
	}
}

// ObserveTransition implements budget.Observer.
func (c *Collector) ObserveTransition(from, to budget.CircuitState) {
	if !c.enabled {
		return
	}
	c.budgetMetrics.RecordTransition(from, to)
}

// ObserveStatus implements budget.Observer.
func (c *Collector) ObserveStatus(s budget.Status) {
	if !c.enabled {
		return
	}
	c.budgetMetrics.Update(s)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

var _ budget.Observer = (*Collector)(nil)

// CardinalityLimiter caps the number of distinct values a label may take.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already tracked or still fits under the limit.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of tracked values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
