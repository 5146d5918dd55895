package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mercator-hq/relay/pkg/providers"
)

// streamReader reads Server-Sent Events from an OpenAI-compatible stream.
type streamReader struct {
	provider string
	body     io.ReadCloser
	scanner  *bufio.Scanner
	closed   bool
}

// newStreamReader opens a streaming chat completion.
func newStreamReader(ctx context.Context, transport *providers.HTTPProvider, url string, req *ChatRequest, headers map[string]string) (*streamReader, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	streamHeaders := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		streamHeaders[k] = v
	}
	streamHeaders["Accept"] = "text/event-stream"

	resp, err := transport.DoRequest(ctx, "POST", url, bodyBytes, streamHeaders)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &streamReader{
		provider: transport.Name(),
		body:     resp.Body,
		scanner:  scanner,
	}, nil
}

// Read returns the next chunk, or nil and io.EOF when the stream ends.
func (s *streamReader) Read(ctx context.Context) (*providers.StreamChunk, error) {
	if s.closed {
		return nil, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, &providers.StreamError{
					Provider: s.provider,
					Message:  "failed to read stream",
					Cause:    err,
				}
			}
			return nil, io.EOF
		}

		line := s.scanner.Text()

		// Skip blank lines, comments and event-type lines
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil, io.EOF
		}

		var chunk StreamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, &providers.ParseError{
				Provider:    s.provider,
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream chunk: %w", err),
			}
		}

		return transformStreamChunk(&chunk), nil
	}
}

// Close releases the response body.
func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
