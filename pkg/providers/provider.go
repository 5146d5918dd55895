package providers

import "context"

// Provider is a handle to one AI backend. The router treats every
// implementation identically; provider-specific request formats stay behind
// this interface.
//
// All calls accept a context.Context. Timeouts and retries are the
// implementation's concern; the router passes the caller's context through.
type Provider interface {
	// Name returns the logical provider name ("azure", "ollama", ...).
	Name() string

	// IsAvailable is a cheap, non-network check that the handle is usable,
	// typically that its configuration is complete.
	IsAvailable() bool

	// Complete sends a chat completion and returns the full response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Stream sends a chat completion and returns a channel of incremental
	// chunks. The channel is closed when the stream ends. A failure after the
	// stream opened is delivered as a final chunk with Err set.
	//
	//  chunks, err := p.Stream(ctx, req)
	//  if err != nil {
	//      return err
	//  }
	//  for chunk := range chunks {
	//      if chunk.Err != nil {
	//          return chunk.Err
	//      }
	//      fmt.Print(chunk.Content)
	//  }
	Stream(ctx context.Context, req *CompletionRequest) (<-chan *StreamChunk, error)

	// Embed returns one embedding vector per input text.
	Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error)
}

// HealthChecker is implemented by providers that support a live probe.
type HealthChecker interface {
	// HealthCheck returns nil if the backend is reachable and responding.
	HealthCheck(ctx context.Context) error
}

// StreamReader abstracts the wire protocol of a streaming response.
type StreamReader interface {
	// Read returns the next chunk, or nil and io.EOF when the stream ends.
	Read(ctx context.Context) (*StreamChunk, error)

	// Close releases the underlying connection.
	Close() error
}
