package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"mercator-hq/relay/pkg/providers"
)

// DefaultAzureAPIVersion is used when an Azure provider sets no api version.
const DefaultAzureAPIVersion = "2024-06-01"

// Client is an adapter for OpenAI-compatible HTTP APIs. It serves hosted
// gateways (Azure OpenAI, Bedrock and Vertex OpenAI-compatible endpoints)
// as well as self-hosted servers such as Ollama and vLLM.
type Client struct {
	*providers.HTTPProvider
}

// New creates a client from config. Incomplete credentials are not an
// error: the client reports IsAvailable() == false instead.
func New(config providers.ProviderConfig) (*Client, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "openai",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	switch config.Dialect {
	case "":
		config.Dialect = providers.DialectOpenAI
	case providers.DialectOpenAI, providers.DialectAzure:
	default:
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "dialect",
			Message:  fmt.Sprintf("unsupported dialect %q", config.Dialect),
		}
	}

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.BaseURL != "" {
		if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
			return nil, &providers.ConfigError{
				Provider: config.Name,
				Field:    "base_url",
				Message:  err.Error(),
			}
		}
	}
	if config.Dialect == providers.DialectAzure && config.APIVersion == "" {
		config.APIVersion = DefaultAzureAPIVersion
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 10
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 5
	}

	c := &Client{HTTPProvider: providers.NewHTTPProvider(config)}
	c.SetProbe(c.probe)

	slog.Debug("OpenAI-compatible provider initialized",
		"provider", config.Name,
		"dialect", config.Dialect,
		"base_url", config.BaseURL,
		"local", config.Local,
	)

	return c, nil
}

// IsAvailable reports whether the configuration is complete: a base URL
// and, unless the backend is local, an API key.
func (c *Client) IsAvailable() bool {
	cfg := c.Config()
	if cfg.BaseURL == "" {
		return false
	}
	return cfg.Local || cfg.APIKey != ""
}

// Complete sends a chat completion request.
func (c *Client) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateCompletion(req); err != nil {
		return nil, err
	}

	var resp ChatResponse
	if err := c.DoJSONRequest(ctx, "POST", c.endpoint("chat/completions", req.Model), c.chatBody(req, false), &resp, c.AuthHeaders()); err != nil {
		return nil, err
	}

	out, err := transformResponse(&resp)
	if err != nil {
		return nil, &providers.ParseError{Provider: c.Name(), Cause: err}
	}
	out.Provider = c.Name()
	return out, nil
}

// Stream sends a streaming chat completion request. The returned channel is
// closed after the last chunk; a read failure is delivered as a final chunk
// with Err set.
func (c *Client) Stream(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	if err := validateCompletion(req); err != nil {
		return nil, err
	}

	reader, err := newStreamReader(ctx, c.HTTPProvider, c.endpoint("chat/completions", req.Model), c.chatBody(req, true), c.AuthHeaders())
	if err != nil {
		return nil, err
	}

	chunks := make(chan *providers.StreamChunk)
	go c.pump(ctx, reader, chunks)
	return chunks, nil
}

func (c *Client) pump(ctx context.Context, reader providers.StreamReader, out chan<- *providers.StreamChunk) {
	defer close(out)
	defer reader.Close()

	for {
		chunk, err := reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			chunk = &providers.StreamChunk{Err: err}
		}
		chunk.Provider = c.Name()

		select {
		case out <- chunk:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// Embed requests one embedding vector per input text.
func (c *Client) Embed(ctx context.Context, req *providers.EmbeddingRequest) (*providers.EmbeddingResponse, error) {
	if req == nil || len(req.Input) == 0 {
		return nil, &providers.ProviderError{Provider: c.Name(), Message: "embedding input is empty"}
	}

	body := &EmbeddingRequest{Input: req.Input, User: req.User}
	if c.Config().Dialect != providers.DialectAzure {
		body.Model = req.Model
	}

	var resp EmbeddingResponse
	if err := c.DoJSONRequest(ctx, "POST", c.endpoint("embeddings", req.Model), body, &resp, c.AuthHeaders()); err != nil {
		return nil, err
	}

	out, err := transformEmbeddingResponse(&resp, len(req.Input))
	if err != nil {
		return nil, &providers.ParseError{Provider: c.Name(), Cause: err}
	}
	if out.Model == "" {
		out.Model = req.Model
	}
	out.Provider = c.Name()
	return out, nil
}

// probe lists models, which every OpenAI-compatible server exposes.
func (c *Client) probe(ctx context.Context) error {
	resp, err := c.DoRequest(ctx, "GET", c.endpoint("models", ""), nil, c.AuthHeaders())
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) chatBody(req *providers.CompletionRequest, stream bool) *ChatRequest {
	body := transformRequest(req)
	if c.Config().Dialect == providers.DialectAzure {
		// Azure routes by deployment in the URL.
		body.Model = ""
	}
	if stream {
		body.Stream = true
		body.StreamOptions = &StreamOptions{IncludeUsage: true}
	}
	return body
}

// endpoint builds the URL for an operation. Azure addresses deployments by
// path and requires an api-version query parameter.
func (c *Client) endpoint(operation, model string) string {
	cfg := c.Config()
	if cfg.Dialect != providers.DialectAzure {
		return cfg.BaseURL + "/" + operation
	}

	query := "?api-version=" + url.QueryEscape(cfg.APIVersion)
	if model == "" {
		return cfg.BaseURL + "/openai/" + operation + query
	}
	return cfg.BaseURL + "/openai/deployments/" + url.PathEscape(model) + "/" + operation + query
}

func validateCompletion(req *providers.CompletionRequest) error {
	if req == nil {
		return &providers.ProviderError{Message: "request is nil"}
	}
	if len(req.Messages) == 0 {
		return &providers.ProviderError{Message: "at least one message is required"}
	}
	if req.Model == "" {
		return &providers.ProviderError{Message: "model is required"}
	}
	return nil
}
