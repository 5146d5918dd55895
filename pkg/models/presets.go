package models

// Provider names with built-in catalog entries.
const (
	ProviderAzure  = "azure"
	ProviderAWS    = "aws"
	ProviderGCP    = "gcp"
	ProviderOllama = "ollama"
	ProviderVLLM   = "vllm"
)

// presets is the static model catalog. Prices are USD per 1000 tokens.
// vllm only serves a cost-effective model; partial tables are legal.
var presets = map[string]map[Tier]ModelConfig{
	ProviderAzure: {
		TierSOTA: {
			ModelID:           "gpt-4o",
			InputCostPer1K:    0.005,
			OutputCostPer1K:   0.015,
			MaxContext:        128000,
			SupportsStreaming: true,
			SupportsVision:    true,
			Description:       "Azure OpenAI GPT-4o",
		},
		TierCostEffective: {
			ModelID:           "gpt-4o-mini",
			InputCostPer1K:    0.00015,
			OutputCostPer1K:   0.0006,
			MaxContext:        128000,
			SupportsStreaming: true,
			SupportsVision:    true,
			Description:       "Azure OpenAI GPT-4o mini",
		},
	},
	ProviderAWS: {
		TierSOTA: {
			ModelID:           "anthropic.claude-3-5-sonnet-20240620-v1:0",
			InputCostPer1K:    0.003,
			OutputCostPer1K:   0.015,
			MaxContext:        200000,
			SupportsStreaming: true,
			SupportsVision:    true,
			Description:       "Bedrock Claude 3.5 Sonnet",
		},
		TierCostEffective: {
			ModelID:           "anthropic.claude-3-haiku-20240307-v1:0",
			InputCostPer1K:    0.00025,
			OutputCostPer1K:   0.00125,
			MaxContext:        200000,
			SupportsStreaming: true,
			SupportsVision:    true,
			Description:       "Bedrock Claude 3 Haiku",
		},
	},
	ProviderGCP: {
		TierSOTA: {
			ModelID:           "gemini-1.5-pro",
			InputCostPer1K:    0.00125,
			OutputCostPer1K:   0.005,
			MaxContext:        2000000,
			SupportsStreaming: true,
			SupportsVision:    true,
			Description:       "Vertex AI Gemini 1.5 Pro",
		},
		TierCostEffective: {
			ModelID:           "gemini-1.5-flash",
			InputCostPer1K:    0.000075,
			OutputCostPer1K:   0.0003,
			MaxContext:        1000000,
			SupportsStreaming: true,
			SupportsVision:    true,
			Description:       "Vertex AI Gemini 1.5 Flash",
		},
	},
	ProviderOllama: {
		TierSOTA: {
			ModelID:           "llama3.1:70b",
			MaxContext:        128000,
			SupportsStreaming: true,
			Description:       "Local Llama 3.1 70B",
		},
		TierCostEffective: {
			ModelID:           "llama3.1:8b",
			MaxContext:        128000,
			SupportsStreaming: true,
			Description:       "Local Llama 3.1 8B",
		},
	},
	ProviderVLLM: {
		TierCostEffective: {
			ModelID:           "meta-llama/Meta-Llama-3.1-8B-Instruct",
			MaxContext:        32768,
			SupportsStreaming: true,
			Description:       "Self-hosted vLLM Llama 3.1 8B",
		},
	},
}

// embeddingPresets maps provider to its embedding model. Providers without an
// entry embed with their cost-effective chat model.
var embeddingPresets = map[string]string{
	ProviderAzure:  "text-embedding-3-small",
	ProviderAWS:    "amazon.titan-embed-text-v2:0",
	ProviderGCP:    "text-embedding-004",
	ProviderOllama: "nomic-embed-text",
}
