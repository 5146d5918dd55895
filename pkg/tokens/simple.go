package tokens

import (
	"strings"
	"sync"

	"mercator-hq/relay/pkg/providers"
)

const (
	// roleTokens approximates the role marker of each message.
	roleTokens = 1

	// messageOverhead approximates per-message formatting tokens.
	messageOverhead = 3

	// conversationOverhead approximates the reply priming tokens.
	conversationOverhead = 3
)

// SimpleEstimator implements character-based token estimation with
// model-specific characters-per-token ratios.
type SimpleEstimator struct {
	mu     sync.RWMutex
	ratios map[string]float64
}

// NewSimpleEstimator creates an estimator. ratios maps a model name or
// prefix to characters per token; the "default" key, when present, applies
// to unmatched models. A nil map uses DefaultCharsPerToken everywhere.
func NewSimpleEstimator(ratios map[string]float64) *SimpleEstimator {
	e := &SimpleEstimator{}
	e.SetRatios(ratios)
	return e
}

// SetRatios replaces the configured ratios. Non-positive ratios are ignored.
func (e *SimpleEstimator) SetRatios(ratios map[string]float64) {
	clean := make(map[string]float64, len(ratios))
	for model, ratio := range ratios {
		if ratio > 0 {
			clean[model] = ratio
		}
	}

	e.mu.Lock()
	e.ratios = clean
	e.mu.Unlock()
}

// EstimateText estimates tokens for a single text string.
func (e *SimpleEstimator) EstimateText(text, model string) int {
	if text == "" {
		return 0
	}

	tokens := float64(len(text)) / e.charsPerToken(model)
	if tokens < 1.0 {
		return 1
	}
	return int(tokens + 0.5)
}

// EstimateMessages estimates prompt tokens for messages.
func (e *SimpleEstimator) EstimateMessages(messages []providers.Message, model string) int {
	if len(messages) == 0 {
		return 0
	}

	total := conversationOverhead
	for _, msg := range messages {
		total += roleTokens + messageOverhead
		total += e.EstimateText(msg.Content, model)
		if msg.Name != "" {
			total += e.EstimateText(msg.Name, model)
		}
	}
	return total
}

// charsPerToken resolves the ratio for model: exact match, then longest
// prefix, then "default".
func (e *SimpleEstimator) charsPerToken(model string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if ratio, ok := e.ratios[model]; ok {
		return ratio
	}

	best, bestLen := 0.0, 0
	for prefix, ratio := range e.ratios {
		if prefix == "default" {
			continue
		}
		if len(prefix) > bestLen && strings.HasPrefix(model, prefix) {
			best, bestLen = ratio, len(prefix)
		}
	}
	if bestLen > 0 {
		return best
	}

	if ratio, ok := e.ratios["default"]; ok {
		return ratio
	}
	return DefaultCharsPerToken
}
