package providers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// TestConfig returns an adapter configuration pointing at baseURL with
// retries disabled so failure tests stay fast.
func TestConfig(name, baseURL string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:                name,
		Dialect:             providers.DialectOpenAI,
		BaseURL:             baseURL,
		APIKey:              "test-key",
		Timeout:             5 * time.Second,
		MaxRetries:          0,
		HealthCheckInterval: time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// TestCompletionRequest creates a single-message completion request.
func TestCompletionRequest(model, prompt string) *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Model:    model,
		Messages: []providers.Message{{Role: providers.RoleUser, Content: prompt}},
	}
}

// MockChatResponse builds an OpenAI chat completion body.
func MockChatResponse(content, model string, promptTokens, completionTokens int) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	}
}

// MockStreamChunk builds one OpenAI stream chunk payload.
func MockStreamChunk(delta, finishReason string) string {
	choice := map[string]any{
		"index": 0,
		"delta": map[string]any{"content": delta},
	}
	if finishReason != "" {
		choice["finish_reason"] = finishReason
	}
	return mustJSON(map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   "gpt-4o",
		"choices": []map[string]any{choice},
	})
}

// MockUsageChunk builds the trailing usage-only stream chunk.
func MockUsageChunk(promptTokens, completionTokens int) string {
	return mustJSON(map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   "gpt-4o",
		"choices": []map[string]any{},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	})
}

// MockEmbeddingResponse builds an embeddings body. Vectors are returned in
// reverse index order to exercise reordering.
func MockEmbeddingResponse(model string, vectors ...[]float64) map[string]any {
	data := make([]map[string]any, 0, len(vectors))
	for i := len(vectors) - 1; i >= 0; i-- {
		data = append(data, map[string]any{
			"object":    "embedding",
			"index":     i,
			"embedding": vectors[i],
		})
	}
	return map[string]any{
		"object": "list",
		"data":   data,
		"model":  model,
		"usage": map[string]any{
			"prompt_tokens": 8,
			"total_tokens":  8,
		},
	}
}

// MockErrorResponse creates an OpenAI-style error response.
func MockErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]any{
			"error": map[string]any{
				"message": message,
				"type":    "invalid_request_error",
				"code":    statusCode,
			},
		},
	}
}

// MockAuthError creates a 401 response.
func MockAuthError() MockResponse {
	return MockErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// MockRateLimitError creates a 429 response with a Retry-After header.
func MockRateLimitError(retryAfter int) MockResponse {
	response := MockErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{"Retry-After": strconv.Itoa(retryAfter)}
	return response
}

// MockServerError creates a 500 response.
func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "Internal server error")
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
