package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GetModel(t *testing.T) {
	m := NewManager()

	tests := []struct {
		name     string
		provider string
		tier     Tier
		wantID   string
		wantErr  bool
	}{
		{name: "azure sota", provider: ProviderAzure, tier: TierSOTA, wantID: "gpt-4o"},
		{name: "azure cost effective", provider: ProviderAzure, tier: TierCostEffective, wantID: "gpt-4o-mini"},
		{name: "gcp sota", provider: ProviderGCP, tier: TierSOTA, wantID: "gemini-1.5-pro"},
		{name: "ollama cost effective", provider: ProviderOllama, tier: TierCostEffective, wantID: "llama3.1:8b"},
		{name: "vllm has no sota entry", provider: ProviderVLLM, tier: TierSOTA, wantErr: true},
		{name: "unknown provider", provider: "openrouter", tier: TierSOTA, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := m.GetModel(tt.provider, tt.tier)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrModelNotFound))

				var notFound *ModelNotFoundError
				require.True(t, errors.As(err, &notFound))
				assert.Equal(t, tt.provider, notFound.Provider)
				assert.Equal(t, tt.tier, notFound.Tier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, cfg.ModelID)
			assert.Equal(t, tt.provider, cfg.Provider)
			assert.Equal(t, tt.tier, cfg.Tier)
		})
	}
}

func TestManager_OverridesReplaceOnlyModelID(t *testing.T) {
	base := NewManager()
	m := NewManager(WithOverrides(Overrides{
		ProviderAzure: {TierSOTA: "my-gpt4o-deployment"},
	}))

	want, err := base.GetModel(ProviderAzure, TierSOTA)
	require.NoError(t, err)
	got, err := m.GetModel(ProviderAzure, TierSOTA)
	require.NoError(t, err)

	assert.Equal(t, "my-gpt4o-deployment", got.ModelID)
	assert.Equal(t, want.WithModelID("my-gpt4o-deployment"), got)

	// The preset table itself is untouched.
	again, err := NewManager().GetModel(ProviderAzure, TierSOTA)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", again.ModelID)
}

func TestManager_OverrideWithoutEntryIsIgnored(t *testing.T) {
	m := NewManager(WithOverrides(Overrides{
		ProviderVLLM: {TierSOTA: "big-model"},
	}))

	_, err := m.GetModel(ProviderVLLM, TierSOTA)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestManager_EstimateCostIsLinear(t *testing.T) {
	m := NewManager()

	tests := []struct {
		name     string
		provider string
		tier     Tier
		in, out  int
		want     float64
	}{
		{name: "azure sota 1k/1k", provider: ProviderAzure, tier: TierSOTA, in: 1000, out: 1000, want: 0.02},
		{name: "azure sota 2k/500", provider: ProviderAzure, tier: TierSOTA, in: 2000, out: 500, want: 0.0175},
		{name: "aws cost effective", provider: ProviderAWS, tier: TierCostEffective, in: 4000, out: 2000, want: 0.0035},
		{name: "zero tokens", provider: ProviderGCP, tier: TierSOTA, in: 0, out: 0, want: 0},
		{name: "local model is free", provider: ProviderOllama, tier: TierSOTA, in: 50000, out: 50000, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.EstimateCost(tt.provider, tt.tier, tt.in, tt.out)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	// Doubling the input doubles the cost.
	one, err := m.EstimateCost(ProviderGCP, TierSOTA, 1234, 567)
	require.NoError(t, err)
	two, err := m.EstimateCost(ProviderGCP, TierSOTA, 2468, 1134)
	require.NoError(t, err)
	assert.InDelta(t, 2*one, two, 1e-12)
}

func TestManager_EstimateCostUnknownPair(t *testing.T) {
	_, err := NewManager().EstimateCost(ProviderVLLM, TierSOTA, 10, 10)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestManager_EmbeddingModel(t *testing.T) {
	m := NewManager(WithEmbeddingOverrides(map[string]string{ProviderAzure: "text-embedding-3-large"}))

	id, ok := m.EmbeddingModel(ProviderAzure)
	require.True(t, ok)
	assert.Equal(t, "text-embedding-3-large", id)

	id, ok = m.EmbeddingModel(ProviderOllama)
	require.True(t, ok)
	assert.Equal(t, "nomic-embed-text", id)

	// vllm has no embedding preset and falls back to its cost-effective model.
	id, ok = m.EmbeddingModel(ProviderVLLM)
	require.True(t, ok)
	assert.Equal(t, "meta-llama/Meta-Llama-3.1-8B-Instruct", id)

	_, ok = m.EmbeddingModel("unknown")
	assert.False(t, ok)
}

func TestManager_SetOverrides(t *testing.T) {
	m := NewManager()
	m.SetOverrides(Overrides{ProviderGCP: {TierCostEffective: "gemini-2.0-flash"}}, nil)

	cfg, err := m.GetModel(ProviderGCP, TierCostEffective)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", cfg.ModelID)

	m.SetOverrides(nil, nil)
	cfg, err = m.GetModel(ProviderGCP, TierCostEffective)
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", cfg.ModelID)
}

func TestManager_CatalogIsACopy(t *testing.T) {
	m := NewManager()
	catalog := m.Catalog()
	catalog[ProviderAzure][TierSOTA] = ModelConfig{ModelID: "tampered"}

	cfg, err := m.GetModel(ProviderAzure, TierSOTA)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.ModelID)
	assert.Equal(t, []string{"aws", "azure", "gcp", "ollama", "vllm"}, m.Providers())
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{in: "sota", want: TierSOTA},
		{in: "SOTA", want: TierSOTA},
		{in: "cost_effective", want: TierCostEffective},
		{in: "Cost-Effective", want: TierCostEffective},
		{in: " cost_effective ", want: TierCostEffective},
		{in: "premium", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
