package models

import (
	"log/slog"
	"sort"
	"sync"
)

// Manager resolves (provider, tier) pairs to model configurations and prices
// token usage. The catalog is built once from the static presets; overrides
// replace model identifiers on copies and can be swapped at runtime.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu sync.RWMutex

	// catalog is the preset table with overrides applied.
	catalog map[string]map[Tier]ModelConfig

	// embeddings maps provider to embedding model id.
	embeddings map[string]string
}

// Option configures a Manager.
type Option func(*Manager)

// WithOverrides replaces preset model identifiers per provider and tier.
func WithOverrides(overrides Overrides) Option {
	return func(m *Manager) {
		m.catalog = buildCatalog(overrides)
	}
}

// WithEmbeddingOverrides replaces preset embedding model identifiers per provider.
func WithEmbeddingOverrides(overrides map[string]string) Option {
	return func(m *Manager) {
		m.embeddings = buildEmbeddings(overrides)
	}
}

// NewManager creates a model tier manager seeded from the built-in presets.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		catalog:    buildCatalog(nil),
		embeddings: buildEmbeddings(nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetModel returns the model configured for provider at tier.
// It returns a *ModelNotFoundError when the provider is unknown or has no
// entry for the tier.
func (m *Manager) GetModel(provider string, tier Tier) (ModelConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tiers, ok := m.catalog[provider]
	if !ok {
		return ModelConfig{}, &ModelNotFoundError{Provider: provider, Tier: tier}
	}
	cfg, ok := tiers[tier]
	if !ok {
		return ModelConfig{}, &ModelNotFoundError{Provider: provider, Tier: tier}
	}
	return cfg, nil
}

// EstimateCost returns the USD cost of the given token counts for the model
// at (provider, tier): in/1000*input_price + out/1000*output_price.
func (m *Manager) EstimateCost(provider string, tier Tier, inputTokens, outputTokens int) (float64, error) {
	cfg, err := m.GetModel(provider, tier)
	if err != nil {
		return 0, err
	}
	return cfg.Cost(inputTokens, outputTokens), nil
}

// EmbeddingModel returns the embedding model for provider. When no embedding
// model is configured it falls back to the provider's cost-effective model.
func (m *Manager) EmbeddingModel(provider string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id, ok := m.embeddings[provider]; ok {
		return id, true
	}
	if cfg, ok := m.catalog[provider][TierCostEffective]; ok {
		return cfg.ModelID, true
	}
	return "", false
}

// Catalog returns a snapshot of the full catalog with overrides applied.
func (m *Manager) Catalog() map[string]map[Tier]ModelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]map[Tier]ModelConfig, len(m.catalog))
	for provider, tiers := range m.catalog {
		copied := make(map[Tier]ModelConfig, len(tiers))
		for tier, cfg := range tiers {
			copied[tier] = cfg
		}
		out[provider] = copied
	}
	return out
}

// Providers returns the sorted names of all providers in the catalog.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.catalog))
	for name := range m.catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetOverrides rebuilds the catalog from the presets with new overrides.
// Used on configuration reload.
func (m *Manager) SetOverrides(overrides Overrides, embeddingOverrides map[string]string) {
	catalog := buildCatalog(overrides)
	embeddings := buildEmbeddings(embeddingOverrides)

	m.mu.Lock()
	m.catalog = catalog
	m.embeddings = embeddings
	m.mu.Unlock()
}

func buildCatalog(overrides Overrides) map[string]map[Tier]ModelConfig {
	catalog := make(map[string]map[Tier]ModelConfig, len(presets))
	for provider, tiers := range presets {
		entries := make(map[Tier]ModelConfig, len(tiers))
		for tier, cfg := range tiers {
			cfg.Provider = provider
			cfg.Tier = tier
			entries[tier] = cfg
		}
		catalog[provider] = entries
	}

	for provider, tiers := range overrides {
		for tier, id := range tiers {
			base, ok := catalog[provider][tier]
			if !ok {
				slog.Warn("ignoring model override without catalog entry",
					"provider", provider,
					"tier", tier,
					"model", id,
				)
				continue
			}
			if id == "" {
				continue
			}
			catalog[provider][tier] = base.WithModelID(id)
		}
	}
	return catalog
}

func buildEmbeddings(overrides map[string]string) map[string]string {
	out := make(map[string]string, len(embeddingPresets)+len(overrides))
	for provider, id := range embeddingPresets {
		out[provider] = id
	}
	for provider, id := range overrides {
		if id != "" {
			out[provider] = id
		}
	}
	return out
}
