// Package providers defines the provider abstraction used by the router and
// the shared HTTP transport that adapters build on.
//
// # Overview
//
// A Provider is a handle to one AI backend: Azure OpenAI, AWS Bedrock, GCP
// Vertex AI, or a self-hosted Ollama or vLLM server. The router only sees
// the Provider interface; request and response formats specific to a
// backend stay inside its adapter (see the openai subpackage).
//
// # HTTP Transport
//
// HTTPProvider implements the behavior every adapter needs:
//
//   - Connection pooling through a tuned http.Transport
//   - Optional client-side throttling (RequestsPerSecond, Burst)
//   - Retries with exponential backoff (1s, 2s, 4s, ...) for network
//     errors and 5xx responses
//   - Immediate errors for 400, 401, 403, 404 and 429
//   - Health tracking: a provider is marked unhealthy after three
//     consecutive failures and healthy again on the next success
//   - An optional background health checker that probes the backend and
//     backs off while it stays unhealthy
//
// # Errors
//
// Failures are returned as typed errors so callers can branch with
// errors.As:
//
//	var rl *providers.RateLimitError
//	if errors.As(err, &rl) {
//	    time.Sleep(rl.RetryAfter)
//	}
//
// UnavailableError matches ErrProviderUnavailable via errors.Is and is
// returned by the registry for unknown or failed providers.
package providers
