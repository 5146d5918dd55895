package tokens

import "mercator-hq/relay/pkg/providers"

// DefaultCharsPerToken is used when no ratio matches a model.
const DefaultCharsPerToken = 4.0

// Estimator estimates token counts for text and messages.
type Estimator interface {
	// EstimateText estimates tokens for a single text string.
	EstimateText(text, model string) int

	// EstimateMessages estimates prompt tokens for a conversation,
	// including per-message formatting overhead.
	EstimateMessages(messages []providers.Message, model string) int
}

// Usage estimates the token usage of a completed exchange.
func Usage(e Estimator, messages []providers.Message, completion, model string) providers.TokenUsage {
	prompt := e.EstimateMessages(messages, model)
	out := e.EstimateText(completion, model)
	return providers.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: out,
		TotalTokens:      prompt + out,
	}
}
