// Relay routes chat completions and embeddings across Azure OpenAI, AWS
// Bedrock, GCP Vertex AI, Ollama and vLLM, with fallback, per-request cost
// accounting and a monthly budget circuit breaker.
//
// Usage:
//
//	# Run the operations server (metrics, health probes, status)
//	relay serve --config relay.yaml
//
//	# Route a single completion through the fallback chain
//	relay complete "Summarize the release notes" --tier sota
//
//	# Show the model catalog with prices
//	relay models --output csv
//
//	# Report journaled spend for the current month
//	relay costs
//
//	# Validate a configuration file
//	relay config validate --config relay.yaml
package main

func main() {
	Execute()
}
