// Package openai implements a provider adapter for OpenAI-compatible APIs.
//
// A single Client serves every backend the router knows about. Hosted
// gateways speak one of two dialects:
//
//   - openai: Bearer authentication, {base}/chat/completions and
//     {base}/embeddings. Used for Bedrock and Vertex OpenAI-compatible
//     endpoints as well as self-hosted Ollama and vLLM servers.
//   - azure: api-key header authentication, deployment-addressed URLs of
//     the form {base}/openai/deployments/{model}/chat/completions with an
//     api-version query parameter.
//
// # Basic Usage
//
//	client, err := openai.New(providers.ProviderConfig{
//	    Name:    "azure",
//	    Dialect: providers.DialectAzure,
//	    BaseURL: "https://example.openai.azure.com",
//	    APIKey:  os.Getenv("AZURE_OPENAI_API_KEY"),
//	    Timeout: 60 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Complete(ctx, &providers.CompletionRequest{
//	    Model:    "gpt-4o-mini",
//	    Messages: []providers.Message{{Role: providers.RoleUser, Content: "Hello"}},
//	})
//
// # Streaming
//
// Stream returns a channel of chunks. The server is asked to append a final
// usage-only chunk (stream_options.include_usage) so callers can account for
// tokens without estimating. A read failure is delivered as a last chunk with
// Err set, after which the channel is closed.
//
// # Availability
//
// Construction only fails on a malformed configuration. A client without
// credentials is still returned; IsAvailable reports false until both a base
// URL and, for non-local backends, an API key are present.
package openai
