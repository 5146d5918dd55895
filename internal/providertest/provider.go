// Package providertest provides a scripted provider for router and
// registry tests.
package providertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// Provider is a scripted implementation of providers.Provider. Behavior is
// configured with the Set and Fail methods; every call is counted.
type Provider struct {
	mu sync.Mutex

	name      string
	available bool

	content     string
	usage       providers.TokenUsage
	completeErr error

	chunks  []*providers.StreamChunk
	openErr error

	vectors    [][]float64
	embedUsage providers.TokenUsage
	embedErr   error

	healthErr error
	closed    bool

	completeCalls int
	streamCalls   int
	embedCalls    int
	lastRequest   *providers.CompletionRequest
	lastEmbed     *providers.EmbeddingRequest
}

// NewProvider returns an available provider that answers every completion
// with "mock response" and ten prompt plus five completion tokens.
func NewProvider(name string) *Provider {
	return &Provider{
		name:      name,
		available: true,
		content:   "mock response",
		usage:     providers.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// SetAvailable sets the IsAvailable result.
func (p *Provider) SetAvailable(available bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.available = available
}

// SetResponse sets the completion content and reported usage.
func (p *Provider) SetResponse(content string, promptTokens, completionTokens int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content = content
	p.usage = providers.TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// FailComplete makes Complete return err. A nil err restores success.
func (p *Provider) FailComplete(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completeErr = err
}

// SetStream sets the chunks delivered by Stream, in order.
func (p *Provider) SetStream(chunks ...*providers.StreamChunk) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunks = chunks
}

// FailStream makes Stream fail to open with err.
func (p *Provider) FailStream(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openErr = err
}

// SetEmbedding sets the vectors and usage returned by Embed.
func (p *Provider) SetEmbedding(promptTokens int, vectors ...[]float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vectors = vectors
	p.embedUsage = providers.TokenUsage{PromptTokens: promptTokens, TotalTokens: promptTokens}
}

// FailEmbed makes Embed return err.
func (p *Provider) FailEmbed(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embedErr = err
}

// SetHealthError sets the HealthCheck result.
func (p *Provider) SetHealthError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.healthErr = err
}

// Name implements providers.Provider.
func (p *Provider) Name() string {
	return p.name
}

// IsAvailable implements providers.Provider.
func (p *Provider) IsAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// Complete implements providers.Provider.
func (p *Provider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completeCalls++
	p.lastRequest = req
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.completeErr != nil {
		return nil, p.completeErr
	}
	return &providers.CompletionResponse{
		ID:           fmt.Sprintf("%s-%d", p.name, p.completeCalls),
		Model:        req.Model,
		Provider:     p.name,
		Content:      p.content,
		FinishReason: providers.FinishReasonStop,
		Usage:        p.usage,
		Created:      time.Now().Unix(),
	}, nil
}

// Stream implements providers.Provider. Scripted chunks are delivered on a
// buffered channel that is closed after the last one.
func (p *Provider) Stream(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.streamCalls++
	p.lastRequest = req
	if p.openErr != nil {
		return nil, p.openErr
	}

	out := make(chan *providers.StreamChunk, len(p.chunks))
	for _, chunk := range p.chunks {
		c := *chunk
		if c.Provider == "" {
			c.Provider = p.name
		}
		out <- &c
	}
	close(out)
	return out, nil
}

// Embed implements providers.Provider.
func (p *Provider) Embed(ctx context.Context, req *providers.EmbeddingRequest) (*providers.EmbeddingResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.embedCalls++
	p.lastEmbed = req
	if p.embedErr != nil {
		return nil, p.embedErr
	}
	return &providers.EmbeddingResponse{
		Embeddings: p.vectors,
		Model:      req.Model,
		Provider:   p.name,
		Usage:      p.embedUsage,
	}, nil
}

// HealthCheck implements providers.HealthChecker.
func (p *Provider) HealthCheck(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.healthErr
}

// Close records that the provider was closed.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *Provider) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Calls returns the number of Complete, Stream and Embed calls.
func (p *Provider) Calls() (complete, stream, embed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completeCalls, p.streamCalls, p.embedCalls
}

// LastRequest returns the most recent completion request.
func (p *Provider) LastRequest() *providers.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRequest
}

// LastEmbedRequest returns the most recent embedding request.
func (p *Provider) LastEmbedRequest() *providers.EmbeddingRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastEmbed
}

// Chunk builds a content chunk.
func Chunk(content string) *providers.StreamChunk {
	return &providers.StreamChunk{Content: content}
}

// FinalChunk builds a closing chunk carrying usage. Nil usage yields a
// final chunk without usage.
func FinalChunk(usage *providers.TokenUsage) *providers.StreamChunk {
	return &providers.StreamChunk{FinishReason: providers.FinishReasonStop, Usage: usage}
}

// ErrorChunk builds a chunk reporting a mid-stream failure.
func ErrorChunk(err error) *providers.StreamChunk {
	return &providers.StreamChunk{Err: err}
}

var (
	_ providers.Provider      = (*Provider)(nil)
	_ providers.HealthChecker = (*Provider)(nil)
)
