package models

import (
	"fmt"
	"strings"
)

// Tier is a capability/cost class of model offered by a provider.
type Tier string

const (
	// TierSOTA selects the provider's most capable model.
	TierSOTA Tier = "sota"

	// TierCostEffective selects the provider's cheapest adequate model.
	TierCostEffective Tier = "cost_effective"
)

// Tiers lists every known tier in display order.
var Tiers = []Tier{TierSOTA, TierCostEffective}

// String returns the tier name.
func (t Tier) String() string {
	return string(t)
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierSOTA || t == TierCostEffective
}

// ParseTier parses a tier name. Matching is case-insensitive and treats
// "-" and "_" as equivalent, so "COST-EFFECTIVE" parses to TierCostEffective.
func ParseTier(s string) (Tier, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	t := Tier(normalized)
	if !t.Valid() {
		return "", fmt.Errorf("unknown model tier %q (expected %q or %q)", s, TierSOTA, TierCostEffective)
	}
	return t, nil
}

// ModelConfig describes one model offering of one provider at one tier.
// Values are immutable once built; use WithModelID to derive an overridden copy.
type ModelConfig struct {
	// ModelID is the identifier sent to the provider (deployment name for Azure).
	ModelID string `json:"model_id"`

	// Tier is the tier this model serves.
	Tier Tier `json:"tier"`

	// Provider is the logical provider name ("azure", "aws", ...).
	Provider string `json:"provider"`

	// InputCostPer1K is the USD price per 1000 prompt tokens.
	InputCostPer1K float64 `json:"input_cost_per_1k"`

	// OutputCostPer1K is the USD price per 1000 completion tokens.
	OutputCostPer1K float64 `json:"output_cost_per_1k"`

	// MaxContext is the context window in tokens.
	MaxContext int `json:"max_context"`

	SupportsStreaming bool `json:"supports_streaming"`
	SupportsVision    bool `json:"supports_vision"`

	Description string `json:"description,omitempty"`
}

// WithModelID returns a copy of m with only the model identifier replaced.
func (m ModelConfig) WithModelID(id string) ModelConfig {
	m.ModelID = id
	return m
}

// Cost returns the linear USD cost of the given token counts at this model's prices.
func (m ModelConfig) Cost(inputTokens, outputTokens int) float64 {
	return tokenCost(inputTokens, m.InputCostPer1K) + tokenCost(outputTokens, m.OutputCostPer1K)
}

// tokenCost calculates the cost for a given number of tokens.
func tokenCost(tokens int, costPer1K float64) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) / 1000.0 * costPer1K
}

// Overrides maps provider name to tier to replacement model id.
type Overrides map[string]map[Tier]string
