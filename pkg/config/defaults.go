package config

import "time"

// Built-in provider names.
const (
	ProviderAzure  = "azure"
	ProviderAWS    = "aws"
	ProviderGCP    = "gcp"
	ProviderOllama = "ollama"
	ProviderVLLM   = "vllm"
)

// BuiltinProviders lists the providers the relay always registers.
var BuiltinProviders = []string{ProviderAzure, ProviderAWS, ProviderGCP, ProviderOllama, ProviderVLLM}

// Routing modes.
const (
	ModeCloud  = "cloud"
	ModeLocal  = "local"
	ModeHybrid = "hybrid"
)

// Default values for configuration fields.
const (
	// Router defaults
	DefaultMode             = ModeCloud
	DefaultProvider         = ProviderAzure
	DefaultLocalProvider    = ProviderOllama
	DefaultTier             = "cost_effective"
	DefaultAlertThreshold   = 0.8
	DefaultBreakerThreshold = 0.95
	DefaultStreamStall      = 60 * time.Second

	// Provider defaults
	DefaultProviderTimeout     = 60 * time.Second
	DefaultProviderMaxRetries  = 2
	DefaultHealthCheckInterval = 30 * time.Second
	DefaultOllamaBaseURL       = "http://localhost:11434/v1"
	DefaultVLLMBaseURL         = "http://localhost:8000/v1"

	// Journal defaults
	DefaultJournalPath = "data/relay-costs.db"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "relay"
	DefaultMetricsSubsystem   = "router"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingServiceName = "relay"
	DefaultTracingTimeout     = 10 * time.Second
	DefaultStatusSchedule     = "@every 1m"

	// Server defaults
	DefaultListenAddress      = "127.0.0.1:9090"
	DefaultReadTimeout        = 10 * time.Second
	DefaultWriteTimeout       = 30 * time.Second
	DefaultShutdownTimeout    = 15 * time.Second
	DefaultHealthCheckTimeout = 5 * time.Second
)

// DefaultFallbackChain is the fallback order used when none is configured.
var DefaultFallbackChain = []string{ProviderAzure, ProviderAWS, ProviderGCP, ProviderOllama}

// DefaultRequestDurationBuckets are histogram buckets tuned for model latencies.
var DefaultRequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Router defaults
	if cfg.Router.Mode == "" {
		cfg.Router.Mode = DefaultMode
	}
	if cfg.Router.DefaultProvider == "" {
		cfg.Router.DefaultProvider = DefaultProvider
	}
	if cfg.Router.LocalProvider == "" {
		cfg.Router.LocalProvider = DefaultLocalProvider
	}
	if cfg.Router.DefaultTier == "" {
		cfg.Router.DefaultTier = DefaultTier
	}
	if cfg.Router.FallbackChain == nil {
		cfg.Router.FallbackChain = append([]string(nil), DefaultFallbackChain...)
	}
	if cfg.Router.StreamStallTimeout == 0 {
		cfg.Router.StreamStallTimeout = DefaultStreamStall
	}

	// Budget defaults. A zero breaker threshold together with a zero alert
	// threshold means both were left unset.
	if cfg.Budget.AlertThreshold == 0 && cfg.Budget.BreakerThreshold == 0 {
		cfg.Budget.AlertThreshold = DefaultAlertThreshold
		cfg.Budget.BreakerThreshold = DefaultBreakerThreshold
	}

	// Provider defaults - every built-in provider gets an entry so the
	// registry can report it even when unconfigured.
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	for _, name := range BuiltinProviders {
		if _, ok := cfg.Providers[name]; !ok {
			cfg.Providers[name] = ProviderConfig{}
		}
	}
	for name, provider := range cfg.Providers {
		switch name {
		case ProviderAzure:
			if provider.Dialect == "" {
				provider.Dialect = "azure"
			}
		case ProviderOllama:
			provider.Local = true
			if provider.BaseURL == "" {
				provider.BaseURL = DefaultOllamaBaseURL
			}
		case ProviderVLLM:
			provider.Local = true
			if provider.BaseURL == "" {
				provider.BaseURL = DefaultVLLMBaseURL
			}
		}
		if provider.Dialect == "" {
			provider.Dialect = "openai"
		}
		if provider.Timeout == 0 {
			provider.Timeout = DefaultProviderTimeout
		}
		if provider.MaxRetries == 0 {
			provider.MaxRetries = DefaultProviderMaxRetries
		}
		if provider.RequestsPerSecond > 0 && provider.Burst == 0 {
			provider.Burst = 1
		}
		if provider.HealthCheckInterval == 0 {
			provider.HealthCheckInterval = DefaultHealthCheckInterval
		}
		cfg.Providers[name] = provider
	}

	// Journal defaults
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 && cfg.Telemetry.Tracing.Sampler == DefaultTracingSampler {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.StatusSchedule == "" {
		cfg.Telemetry.StatusSchedule = DefaultStatusSchedule
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.HealthCheckTimeout == 0 {
		cfg.Server.HealthCheckTimeout = DefaultHealthCheckTimeout
	}
}
