package config

import "time"

// Config is the root configuration structure for the relay.
type Config struct {
	// Router contains routing mode, provider selection and fallback settings.
	Router RouterConfig `yaml:"router" toml:"router"`

	// Budget contains the monthly spend limit and circuit breaker thresholds.
	Budget BudgetConfig `yaml:"budget" toml:"budget"`

	// Models contains per-provider model id overrides.
	Models ModelsConfig `yaml:"models" toml:"models"`

	// Providers contains connection settings keyed by provider name
	// ("azure", "aws", "gcp", "ollama", "vllm").
	Providers map[string]ProviderConfig `yaml:"providers" toml:"providers"`

	// Tokens contains token estimation settings.
	Tokens TokensConfig `yaml:"tokens" toml:"tokens"`

	// Journal contains the optional SQLite cost journal settings.
	Journal JournalConfig `yaml:"journal" toml:"journal"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`

	// Server contains the HTTP listener used by "relay serve".
	Server ServerConfig `yaml:"server" toml:"server"`
}

// RouterConfig contains routing configuration.
type RouterConfig struct {
	// Mode selects the routing mode.
	// Options: "cloud", "local", "hybrid"
	// Default: "cloud"
	Mode string `yaml:"mode" toml:"mode" jsonschema:"enum=cloud,enum=local,enum=hybrid"`

	// DefaultProvider is used when no explicit provider, hybrid rule or
	// local mode applies.
	// Default: "azure"
	DefaultProvider string `yaml:"default_provider" toml:"default_provider"`

	// LocalProvider is used in local mode.
	// Default: "ollama"
	LocalProvider string `yaml:"local_provider" toml:"local_provider"`

	// DefaultTier is the model tier used when a request names none.
	// Options: "sota", "cost_effective"
	// Default: "cost_effective"
	DefaultTier string `yaml:"default_tier" toml:"default_tier"`

	// FallbackChain is the ordered list of providers tried after the
	// primary provider.
	// Default: ["azure", "aws", "gcp", "ollama"]
	FallbackChain []string `yaml:"fallback_chain" toml:"fallback_chain"`

	// HybridRules map data classifications to providers in hybrid mode.
	// The first matching rule wins.
	HybridRules []HybridRule `yaml:"hybrid_rules" toml:"hybrid_rules"`

	// StreamStallTimeout is how long a streamed chunk may wait for the
	// consumer before the stream is treated as abandoned. The rest of the
	// stream is then drained without delivery and accounted.
	// Default: 60s
	StreamStallTimeout time.Duration `yaml:"stream_stall_timeout" toml:"stream_stall_timeout"`
}

// HybridRule routes requests with a data classification to a provider.
type HybridRule struct {
	// DataClassification is matched case-insensitively.
	DataClassification string `yaml:"data_classification" toml:"data_classification"`

	// Provider is the provider name to route to.
	Provider string `yaml:"provider" toml:"provider"`
}

// BudgetConfig contains the monthly budget configuration.
type BudgetConfig struct {
	// MonthlyUSD is the monthly spend limit in USD. Zero disables the
	// circuit breaker.
	// Default: 0
	MonthlyUSD float64 `yaml:"monthly_usd" toml:"monthly_usd"`

	// AlertThreshold is the usage ratio that moves the breaker to half-open.
	// Default: 0.8
	AlertThreshold float64 `yaml:"alert_threshold" toml:"alert_threshold"`

	// BreakerThreshold is the usage ratio that opens the breaker.
	// Default: 0.95
	BreakerThreshold float64 `yaml:"breaker_threshold" toml:"breaker_threshold"`
}

// ModelsConfig contains model catalog overrides.
type ModelsConfig struct {
	// Overrides replace the model id for a provider and tier.
	// Example: {azure: {sota: my-gpt4o-deployment}}
	Overrides map[string]map[string]string `yaml:"overrides" toml:"overrides"`

	// EmbeddingOverrides replace the embedding model id for a provider.
	EmbeddingOverrides map[string]string `yaml:"embedding_overrides" toml:"embedding_overrides"`
}

// ProviderConfig contains connection settings for one provider.
type ProviderConfig struct {
	// Disabled removes the provider from the registry.
	Disabled bool `yaml:"disabled" toml:"disabled"`

	// Dialect selects the wire dialect.
	// Options: "openai", "azure"
	// Default: "azure" for the azure provider, "openai" otherwise
	Dialect string `yaml:"dialect" toml:"dialect" jsonschema:"enum=openai,enum=azure"`

	// BaseURL is the base URL of the OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url" toml:"base_url"`

	// APIKey is the authentication key. Usually injected through the
	// environment rather than stored in the file.
	APIKey string `yaml:"api_key" toml:"api_key"`

	// APIVersion is the Azure api-version query parameter.
	APIVersion string `yaml:"api_version" toml:"api_version"`

	// Local marks a self-hosted backend that needs no API key.
	// Always true for ollama and vllm.
	Local bool `yaml:"local" toml:"local"`

	// Timeout is the maximum duration for requests to this provider.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`

	// MaxRetries is the number of retries for transient failures.
	// Default: 2
	MaxRetries int `yaml:"max_retries" toml:"max_retries"`

	// RequestsPerSecond throttles outbound requests. Zero disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`

	// Burst is the throttle burst size.
	// Default: 1 when throttling is enabled
	Burst int `yaml:"burst" toml:"burst"`

	// HealthCheckInterval is the background probe interval used by
	// "relay serve".
	// Default: 30s
	HealthCheckInterval time.Duration `yaml:"health_check_interval" toml:"health_check_interval"`
}

// TokensConfig contains token estimation configuration.
type TokensConfig struct {
	// CharsPerToken maps model names or prefixes to characters per token.
	// The "default" key applies to unmatched models.
	CharsPerToken map[string]float64 `yaml:"chars_per_token" toml:"chars_per_token"`
}

// JournalConfig contains the SQLite cost journal configuration.
type JournalConfig struct {
	// Enabled turns on the cost journal.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Path is the SQLite database path.
	// Default: "data/relay-costs.db"
	Path string `yaml:"path" toml:"path"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing" toml:"tracing"`

	// StatusSchedule is the cron schedule of the budget status job run by
	// "relay serve". Accepts standard cron expressions and descriptors.
	// Default: "@every 1m"
	StatusSchedule string `yaml:"status_schedule" toml:"status_schedule"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" toml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format" toml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source" toml:"add_source"`

	// RedactSecrets masks API keys and bearer tokens in log output.
	// Default: true
	RedactSecrets *bool `yaml:"redact_secrets" toml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled *bool `yaml:"enabled" toml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path" toml:"path"`

	// Namespace is the metric name prefix.
	// Default: "relay"
	Namespace string `yaml:"namespace" toml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "router"
	Subsystem string `yaml:"subsystem" toml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets" toml:"request_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler" toml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint" toml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "relay"
	ServiceName string `yaml:"service_name" toml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	Insecure bool `yaml:"insecure" toml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// ServerConfig contains the operational HTTP listener configuration.
type ServerConfig struct {
	// ListenAddress is the address for metrics, health and status endpoints.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`

	// HealthCheckTimeout bounds each provider probe run by /readyz.
	// Default: 5s
	HealthCheckTimeout time.Duration `yaml:"health_check_timeout" toml:"health_check_timeout"`
}

// IsEnabled reports whether metrics collection is on.
func (c MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// RedactEnabled reports whether secret redaction is on.
func (c LoggingConfig) RedactEnabled() bool {
	return c.RedactSecrets == nil || *c.RedactSecrets
}
