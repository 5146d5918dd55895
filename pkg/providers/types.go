package providers

import "time"

// Message is a single chat message.
type Message struct {
	// Role identifies the sender (system, user, assistant).
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Name optionally identifies the sender in multi-party conversations.
	Name string `json:"name,omitempty"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens generated.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int `json:"total_tokens"`
}

// CompletionRequest is a provider-agnostic chat completion request.
type CompletionRequest struct {
	// Model is the provider model identifier (deployment name for Azure).
	Model string `json:"model"`

	// Messages is the conversation history.
	Messages []Message `json:"messages"`

	// Temperature controls randomness. Zero means provider default.
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens caps the number of generated tokens. Zero means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// TopP controls nucleus sampling.
	TopP float64 `json:"top_p,omitempty"`

	// Stop sequences that halt generation.
	Stop []string `json:"stop,omitempty"`

	// User is an optional end-user identifier forwarded for abuse monitoring.
	User string `json:"user,omitempty"`

	// Metadata carries request context that is not sent to the provider.
	Metadata map[string]string `json:"-"`
}

// CompletionResponse is a provider-agnostic chat completion response.
type CompletionResponse struct {
	// ID is the provider's response identifier.
	ID string `json:"id"`

	// Model is the model that produced the response.
	Model string `json:"model"`

	// Provider is the logical provider that served the request.
	Provider string `json:"provider"`

	// Content is the generated text.
	Content string `json:"content"`

	// FinishReason indicates why generation stopped.
	FinishReason string `json:"finish_reason"`

	// Usage is the token consumption reported by the provider.
	Usage TokenUsage `json:"usage"`

	// Created is the Unix timestamp of the response.
	Created int64 `json:"created"`
}

// StreamChunk is one increment of a streaming response.
type StreamChunk struct {
	// ID is the response identifier, shared by all chunks of a stream.
	ID string `json:"id"`

	// Model is the model generating the response.
	Model string `json:"model"`

	// Provider is the logical provider serving the stream.
	Provider string `json:"provider"`

	// Content is the incremental text of this chunk.
	Content string `json:"content"`

	// FinishReason is set on the final content chunk.
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage is set on the final chunk when the provider reports it.
	Usage *TokenUsage `json:"usage,omitempty"`

	// Err is set on a terminal chunk when the stream failed.
	Err error `json:"-"`

	// Created is the Unix timestamp of the chunk.
	Created int64 `json:"created"`
}

// EmbeddingRequest asks for one vector per input text.
type EmbeddingRequest struct {
	// Model is the embedding model identifier.
	Model string `json:"model"`

	// Input is the list of texts to embed.
	Input []string `json:"input"`

	// User is an optional end-user identifier.
	User string `json:"user,omitempty"`
}

// EmbeddingResponse holds vectors in input order.
type EmbeddingResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Model      string      `json:"model"`
	Provider   string      `json:"provider"`
	Usage      TokenUsage  `json:"usage"`
}

// ProviderHealth tracks the observed health of an HTTP backend.
type ProviderHealth struct {
	// IsHealthy is false after three consecutive failures.
	IsHealthy bool

	// LastCheck is the time of the last request or probe.
	LastCheck time.Time

	// LastError is the most recent failure (nil if healthy).
	LastError error

	// ConsecutiveFailures counts sequential failures.
	ConsecutiveFailures int

	// LastSuccessfulRequest is the time of the last success.
	LastSuccessfulRequest time.Time

	// TotalRequests is the number of HTTP attempts sent.
	TotalRequests int64

	// FailedRequests is the number of failed HTTP attempts.
	FailedRequests int64
}

// Dialect selects the URL layout and authentication header of an
// OpenAI-compatible backend.
type Dialect string

const (
	// DialectOpenAI uses /chat/completions with a Bearer token.
	DialectOpenAI Dialect = "openai"

	// DialectAzure uses /openai/deployments/{model}/... with an api-key header.
	DialectAzure Dialect = "azure"
)

// ProviderConfig is the adapter-level configuration of one backend.
type ProviderConfig struct {
	// Name is the logical provider name.
	Name string

	// Dialect selects URL layout and authentication.
	Dialect Dialect

	// BaseURL is the API root, e.g. "https://api.example.com/v1".
	BaseURL string

	// APIKey authenticates requests. Not required for local backends.
	APIKey string

	// APIVersion is sent as the api-version query parameter (Azure only).
	APIVersion string

	// Local marks a self-hosted backend that needs no API key.
	Local bool

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// RequestsPerSecond throttles outbound requests. Zero disables throttling.
	RequestsPerSecond float64

	// Burst is the throttle bucket size. Defaults to 1 when throttling is on.
	Burst int

	// HealthCheckInterval is the period of the background probe.
	HealthCheckInterval time.Duration

	// MaxIdleConns is the connection pool size.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the per-host pool size.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle pooled connection is kept.
	IdleConnTimeout time.Duration
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonContentFilter = "content_filter"
)
