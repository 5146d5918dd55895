package openai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	testhelpers "mercator-hq/relay/internal/providers"
	"mercator-hq/relay/pkg/providers"
)

func newTestClient(t *testing.T, config providers.ProviderConfig) *Client {
	t.Helper()
	client, err := New(config)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_Complete(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		Body: testhelpers.MockChatResponse("Hello, world!", "gpt-4o", 10, 20),
	})

	client := newTestClient(t, testhelpers.TestConfig("gcp", mock.URL()+"/v1"))

	resp, err := client.Complete(context.Background(), testhelpers.TestCompletionRequest("gpt-4o", "Hello"))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Content != "Hello, world!" {
		t.Errorf("expected content %q, got %q", "Hello, world!", resp.Content)
	}
	if resp.Provider != "gcp" {
		t.Errorf("expected provider gcp, got %s", resp.Provider)
	}
	if resp.Usage.PromptTokens != 10 || resp.Usage.CompletionTokens != 20 || resp.Usage.TotalTokens != 30 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
	if resp.FinishReason != providers.FinishReasonStop {
		t.Errorf("expected finish reason %q, got %q", providers.FinishReasonStop, resp.FinishReason)
	}

	req, ok := mock.LastRequest()
	if !ok {
		t.Fatal("expected a recorded request")
	}
	if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("expected bearer auth, got %q", got)
	}

	var body ChatRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if body.Model != "gpt-4o" {
		t.Errorf("expected model in body, got %q", body.Model)
	}
	if body.Stream {
		t.Error("expected non-streaming request")
	}
}

func TestClient_AzureDialect(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/openai/deployments/gpt-4o-mini/chat/completions", testhelpers.MockResponse{
		Body: testhelpers.MockChatResponse("hi", "gpt-4o-mini", 3, 4),
	})

	config := testhelpers.TestConfig("azure", mock.URL())
	config.Dialect = providers.DialectAzure
	client := newTestClient(t, config)

	if _, err := client.Complete(context.Background(), testhelpers.TestCompletionRequest("gpt-4o-mini", "hi")); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	req, _ := mock.LastRequest()
	if got := req.Header.Get("api-key"); got != "test-key" {
		t.Errorf("expected api-key header, got %q", got)
	}
	if got := req.Header.Get("Authorization"); got != "" {
		t.Errorf("expected no Authorization header, got %q", got)
	}
	if req.RawQuery != "api-version="+DefaultAzureAPIVersion {
		t.Errorf("expected default api version, got %q", req.RawQuery)
	}

	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if _, ok := body["model"]; ok {
		t.Error("expected azure body to omit model")
	}
}

func TestClient_Embed(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/embeddings", testhelpers.MockResponse{
		Body: testhelpers.MockEmbeddingResponse("nomic-embed-text", []float64{0.1, 0.2}, []float64{0.3, 0.4}),
	})

	config := testhelpers.TestConfig("ollama", mock.URL()+"/v1")
	config.APIKey = ""
	config.Local = true
	client := newTestClient(t, config)

	resp, err := client.Embed(context.Background(), &providers.EmbeddingRequest{
		Model: "nomic-embed-text",
		Input: []string{"first", "second"},
	})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(resp.Embeddings) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(resp.Embeddings))
	}
	if resp.Embeddings[0][0] != 0.1 || resp.Embeddings[1][0] != 0.3 {
		t.Errorf("expected vectors in input order, got %v", resp.Embeddings)
	}
	if resp.Usage.PromptTokens != 8 {
		t.Errorf("expected 8 prompt tokens, got %d", resp.Usage.PromptTokens)
	}

	req, _ := mock.LastRequest()
	if got := req.Header.Get("Authorization"); got != "" {
		t.Errorf("expected no auth for local backend without key, got %q", got)
	}
}

func TestClient_EmbedCountMismatch(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/embeddings", testhelpers.MockResponse{
		Body: testhelpers.MockEmbeddingResponse("m", []float64{1}),
	})
	client := newTestClient(t, testhelpers.TestConfig("gcp", mock.URL()+"/v1"))

	_, err := client.Embed(context.Background(), &providers.EmbeddingRequest{Model: "m", Input: []string{"a", "b"}})
	var pe *providers.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response testhelpers.MockResponse
		check    func(error) bool
	}{
		{
			name:     "auth",
			response: testhelpers.MockAuthError(),
			check: func(err error) bool {
				var ae *providers.AuthError
				return errors.As(err, &ae)
			},
		},
		{
			name:     "rate limit",
			response: testhelpers.MockRateLimitError(30),
			check: func(err error) bool {
				var re *providers.RateLimitError
				return errors.As(err, &re) && re.RetryAfter.Seconds() == 30
			},
		},
		{
			name:     "server error",
			response: testhelpers.MockServerError(),
			check: func(err error) bool {
				var pe *providers.ProviderError
				return errors.As(err, &pe) && pe.StatusCode == 500
			},
		},
		{
			name:     "malformed body",
			response: testhelpers.MockResponse{Body: "not json"},
			check: func(err error) bool {
				var pe *providers.ParseError
				return errors.As(err, &pe)
			},
		},
		{
			name:     "no choices",
			response: testhelpers.MockResponse{Body: map[string]any{"id": "x", "choices": []any{}}},
			check: func(err error) bool {
				var pe *providers.ParseError
				return errors.As(err, &pe)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testhelpers.NewMockServer()
			defer mock.Close()
			mock.SetResponse("/v1/chat/completions", tt.response)

			client := newTestClient(t, testhelpers.TestConfig("aws", mock.URL()+"/v1"))

			_, err := client.Complete(context.Background(), testhelpers.TestCompletionRequest("m", "hi"))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error %T: %v", err, err)
			}
		})
	}
}

func TestClient_Validation(t *testing.T) {
	client := newTestClient(t, testhelpers.TestConfig("gcp", "http://127.0.0.1:1"))

	tests := []struct {
		name string
		req  *providers.CompletionRequest
	}{
		{name: "nil request", req: nil},
		{name: "no messages", req: &providers.CompletionRequest{Model: "m"}},
		{name: "no model", req: testhelpers.TestCompletionRequest("", "hi")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.Complete(context.Background(), tt.req); err == nil {
				t.Error("expected Complete to reject request")
			}
			if _, err := client.Stream(context.Background(), tt.req); err == nil {
				t.Error("expected Stream to reject request")
			}
		})
	}

	if _, err := client.Embed(context.Background(), &providers.EmbeddingRequest{Model: "m"}); err == nil {
		t.Error("expected Embed to reject empty input")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		config        providers.ProviderConfig
		wantErr       bool
		wantAvailable bool
	}{
		{
			name:          "hosted with key",
			config:        providers.ProviderConfig{Name: "gcp", BaseURL: "https://example.com/v1", APIKey: "k"},
			wantAvailable: true,
		},
		{
			name:   "hosted without key",
			config: providers.ProviderConfig{Name: "aws", BaseURL: "https://example.com/v1"},
		},
		{
			name:          "local without key",
			config:        providers.ProviderConfig{Name: "ollama", BaseURL: "http://localhost:11434/v1", Local: true},
			wantAvailable: true,
		},
		{
			name:   "missing base url",
			config: providers.ProviderConfig{Name: "vllm", Local: true},
		},
		{
			name:    "missing name",
			config:  providers.ProviderConfig{BaseURL: "https://example.com"},
			wantErr: true,
		},
		{
			name:    "unknown dialect",
			config:  providers.ProviderConfig{Name: "x", Dialect: "soap", BaseURL: "https://example.com"},
			wantErr: true,
		},
		{
			name:    "malformed base url",
			config:  providers.ProviderConfig{Name: "x", BaseURL: "::not a url"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)
			if tt.wantErr {
				var ce *providers.ConfigError
				if !errors.As(err, &ce) {
					t.Fatalf("expected ConfigError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer client.Close()

			if got := client.IsAvailable(); got != tt.wantAvailable {
				t.Errorf("IsAvailable() = %v, want %v", got, tt.wantAvailable)
			}
		})
	}
}

func TestClient_HealthCheckProbesModels(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/models", testhelpers.MockResponse{Body: map[string]any{"data": []any{}}})

	client := newTestClient(t, testhelpers.TestConfig("vllm", mock.URL()+"/v1"))

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	req, _ := mock.LastRequest()
	if req.Method != "GET" || req.Path != "/v1/models" {
		t.Errorf("expected GET /v1/models, got %s %s", req.Method, req.Path)
	}
}
