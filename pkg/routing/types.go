package routing

import (
	"time"

	"mercator-hq/relay/pkg/budget"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/costs"
	"mercator-hq/relay/pkg/models"
	"mercator-hq/relay/pkg/providers"
)

// Operation names used in logs, metrics and spans.
const (
	OperationComplete = "complete"
	OperationStream   = "stream"
	OperationEmbed    = "embed"
)

// Config contains the routing settings. It can be replaced at runtime with
// Router.UpdateConfig.
type Config struct {
	// Mode is config.ModeCloud, config.ModeLocal or config.ModeHybrid.
	Mode string

	// DefaultProvider is used when no explicit provider, hybrid rule or
	// local mode applies.
	DefaultProvider string

	// LocalProvider is used in local mode.
	LocalProvider string

	// DefaultTier is used when a request names no tier.
	DefaultTier models.Tier

	// FallbackChain is the ordered list of providers tried after the
	// primary.
	FallbackChain []string

	// HybridRules route data classifications in hybrid mode. The first
	// match wins.
	HybridRules []HybridRule

	// StreamStallTimeout bounds how long a streamed chunk waits for the
	// consumer. After it expires the remaining chunks are drained without
	// delivery and the stream is accounted.
	StreamStallTimeout time.Duration
}

// HybridRule routes requests carrying a data classification to a provider.
type HybridRule struct {
	DataClassification string
	Provider           string
}

// ConfigFromRouter converts the file configuration to router settings.
func ConfigFromRouter(rc config.RouterConfig) (Config, error) {
	cfg := Config{
		Mode:            rc.Mode,
		DefaultProvider: rc.DefaultProvider,
		LocalProvider:   rc.LocalProvider,
		FallbackChain:   append([]string(nil), rc.FallbackChain...),

		StreamStallTimeout: rc.StreamStallTimeout,
	}
	if rc.DefaultTier != "" {
		tier, err := models.ParseTier(rc.DefaultTier)
		if err != nil {
			return Config{}, err
		}
		cfg.DefaultTier = tier
	}
	for _, rule := range rc.HybridRules {
		cfg.HybridRules = append(cfg.HybridRules, HybridRule{
			DataClassification: rule.DataClassification,
			Provider:           rule.Provider,
		})
	}
	return cfg, nil
}

// withDefaults fills unset fields and copies the slices so the router owns
// them.
func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = config.DefaultMode
	}
	if c.DefaultProvider == "" {
		c.DefaultProvider = config.DefaultProvider
	}
	if c.LocalProvider == "" {
		c.LocalProvider = config.DefaultLocalProvider
	}
	if c.DefaultTier == "" {
		c.DefaultTier = models.TierCostEffective
	}
	if c.StreamStallTimeout <= 0 {
		c.StreamStallTimeout = config.DefaultStreamStall
	}
	c.FallbackChain = append([]string(nil), c.FallbackChain...)
	c.HybridRules = append([]HybridRule(nil), c.HybridRules...)
	return c
}

// Request is a chat completion routed through the fallback chain.
type Request struct {
	// RequestID identifies the logical request. Generated when empty.
	RequestID string

	// Messages is the conversation.
	Messages []providers.Message

	// Provider forces the primary provider. The rest of the chain is still
	// tried after it.
	Provider string

	// DataClassification selects a hybrid rule in hybrid mode.
	DataClassification string

	// Tier selects the catalog model. Defaults to the configured tier.
	Tier models.Tier

	// Model overrides the catalog model id for every attempt.
	Model string

	Temperature float64
	MaxTokens   int
	TopP        float64
	Stop        []string
	User        string
	Metadata    map[string]string
}

// EmbedRequest is an embedding request routed through the fallback chain.
type EmbedRequest struct {
	// RequestID identifies the logical request. Generated when empty.
	RequestID string

	// Input is the list of texts to embed.
	Input []string

	// Provider forces the primary provider.
	Provider string

	// DataClassification selects a hybrid rule in hybrid mode.
	DataClassification string

	// Model overrides the embedding model id for every attempt.
	Model string

	User string
}

// Status is the aggregate router state for operational surfaces. Every
// field is JSON-serializable.
type Status struct {
	Mode            string                                        `json:"mode"`
	DefaultProvider string                                        `json:"default_provider"`
	LocalProvider   string                                        `json:"local_provider"`
	DefaultTier     models.Tier                                   `json:"default_tier"`
	FallbackChain   []string                                      `json:"fallback_chain"`
	Providers       map[string]bool                               `json:"providers"`
	Budget          budget.Status                                 `json:"budget"`
	Costs           costs.Summary                                 `json:"costs"`
	Models          map[string]map[models.Tier]models.ModelConfig `json:"models"`
}
