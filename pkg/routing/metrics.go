package routing

import "time"

// Metrics receives routing measurements. *metrics.Collector implements it.
type Metrics interface {
	RecordRequest(operation, provider, outcome string, duration time.Duration)
	RecordFallback(operation string)
	RecordRejection(operation, reason string)
	RecordTokens(provider, model string, inputTokens, outputTokens int)
	RecordEmbeddingTokens(provider string, tokens int)
	RecordCost(provider, tier string, costUSD float64)
	RecordProviderError(provider string, err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordRequest(string, string, string, time.Duration) {}
func (noopMetrics) RecordFallback(string)                              {}
func (noopMetrics) RecordRejection(string, string)                     {}
func (noopMetrics) RecordTokens(string, string, int, int)              {}
func (noopMetrics) RecordEmbeddingTokens(string, int)                  {}
func (noopMetrics) RecordCost(string, string, float64)                 {}
func (noopMetrics) RecordProviderError(string, error)                  {}
