package config

import (
	"fmt"
	"maps"
	"net"
	"net/url"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/relay/pkg/models"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "budget.alert_threshold").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// HasField reports whether a field error was recorded for field.
func (e ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRouter(&cfg.Router)...)
	errs = append(errs, validateBudget(&cfg.Budget)...)
	errs = append(errs, validateModels(&cfg.Models)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateTokens(&cfg.Tokens)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateServer(&cfg.Server)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateRouter validates routing configuration.
func validateRouter(cfg *RouterConfig) []FieldError {
	var errs []FieldError

	validModes := map[string]bool{ModeCloud: true, ModeLocal: true, ModeHybrid: true}
	if !validModes[cfg.Mode] {
		errs = append(errs, FieldError{
			Field:   "router.mode",
			Message: fmt.Sprintf("invalid mode %q: must be 'cloud', 'local', or 'hybrid'", cfg.Mode),
		})
	}

	if cfg.DefaultProvider == "" {
		errs = append(errs, FieldError{
			Field:   "router.default_provider",
			Message: "default provider is required",
		})
	}

	if cfg.Mode == ModeLocal && cfg.LocalProvider == "" {
		errs = append(errs, FieldError{
			Field:   "router.local_provider",
			Message: "local provider is required in local mode",
		})
	}

	if _, err := models.ParseTier(cfg.DefaultTier); err != nil {
		errs = append(errs, FieldError{
			Field:   "router.default_tier",
			Message: err.Error(),
		})
	}

	if cfg.StreamStallTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "router.stream_stall_timeout",
			Message: "stream stall timeout cannot be negative",
		})
	}

	seen := make(map[string]bool, len(cfg.FallbackChain))
	for i, name := range cfg.FallbackChain {
		field := fmt.Sprintf("router.fallback_chain[%d]", i)
		if name == "" {
			errs = append(errs, FieldError{Field: field, Message: "provider name cannot be empty"})
			continue
		}
		if seen[name] {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("duplicate provider %q", name)})
		}
		seen[name] = true
	}

	for i, rule := range cfg.HybridRules {
		prefix := fmt.Sprintf("router.hybrid_rules[%d]", i)
		if strings.TrimSpace(rule.DataClassification) == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".data_classification",
				Message: "data classification is required",
			})
		}
		if rule.Provider == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".provider",
				Message: "provider is required",
			})
		}
	}

	return errs
}

// validateBudget validates the budget and breaker thresholds.
func validateBudget(cfg *BudgetConfig) []FieldError {
	var errs []FieldError

	if cfg.MonthlyUSD < 0 {
		errs = append(errs, FieldError{
			Field:   "budget.monthly_usd",
			Message: "monthly budget must be non-negative",
		})
	}

	if cfg.AlertThreshold < 0 || cfg.AlertThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   "budget.alert_threshold",
			Message: "alert threshold must be between 0.0 and 1.0",
		})
	}
	if cfg.BreakerThreshold < 0 || cfg.BreakerThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   "budget.breaker_threshold",
			Message: "breaker threshold must be between 0.0 and 1.0",
		})
	}
	if cfg.AlertThreshold > cfg.BreakerThreshold {
		errs = append(errs, FieldError{
			Field:   "budget.alert_threshold",
			Message: fmt.Sprintf("alert threshold (%.2f) cannot exceed breaker threshold (%.2f)", cfg.AlertThreshold, cfg.BreakerThreshold),
		})
	}

	return errs
}

// validateModels validates model overrides.
func validateModels(cfg *ModelsConfig) []FieldError {
	var errs []FieldError

	for _, provider := range slices.Sorted(maps.Keys(cfg.Overrides)) {
		tiers := cfg.Overrides[provider]
		for _, tier := range slices.Sorted(maps.Keys(tiers)) {
			field := fmt.Sprintf("models.overrides.%s.%s", provider, tier)
			if _, err := models.ParseTier(tier); err != nil {
				errs = append(errs, FieldError{Field: field, Message: err.Error()})
			}
			if strings.TrimSpace(tiers[tier]) == "" {
				errs = append(errs, FieldError{Field: field, Message: "model id cannot be empty"})
			}
		}
	}

	for _, provider := range slices.Sorted(maps.Keys(cfg.EmbeddingOverrides)) {
		if strings.TrimSpace(cfg.EmbeddingOverrides[provider]) == "" {
			errs = append(errs, FieldError{
				Field:   "models.embedding_overrides." + provider,
				Message: "model id cannot be empty",
			})
		}
	}

	return errs
}

// TierOverrides converts the configured overrides into the model catalog's
// form. Unknown providers are kept; the catalog ignores them.
func (c ModelsConfig) TierOverrides() (models.Overrides, error) {
	out := make(models.Overrides, len(c.Overrides))
	for provider, tiers := range c.Overrides {
		for name, id := range tiers {
			tier, err := models.ParseTier(name)
			if err != nil {
				return nil, fmt.Errorf("models.overrides.%s: %w", provider, err)
			}
			if out[provider] == nil {
				out[provider] = make(map[models.Tier]string, len(tiers))
			}
			out[provider][tier] = id
		}
	}
	return out, nil
}

// validateProviders validates provider configurations.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	validDialects := map[string]bool{"openai": true, "azure": true}

	for _, name := range slices.Sorted(maps.Keys(providers)) {
		provider := providers[name]
		prefix := "providers." + name

		if provider.BaseURL != "" {
			if u, err := url.Parse(provider.BaseURL); err != nil {
				errs = append(errs, FieldError{
					Field:   prefix + ".base_url",
					Message: fmt.Sprintf("invalid URL format: %v", err),
				})
			} else if u.Scheme != "http" && u.Scheme != "https" {
				errs = append(errs, FieldError{
					Field:   prefix + ".base_url",
					Message: fmt.Sprintf("unsupported URL scheme %q: must be http or https", u.Scheme),
				})
			}
		}

		if provider.Dialect != "" && !validDialects[provider.Dialect] {
			errs = append(errs, FieldError{
				Field:   prefix + ".dialect",
				Message: fmt.Sprintf("invalid dialect %q: must be 'openai' or 'azure'", provider.Dialect),
			})
		}

		if provider.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}

		if provider.MaxRetries < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_retries",
				Message: "max retries must be non-negative",
			})
		}
		if provider.MaxRetries > 10 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_retries",
				Message: "max retries exceeds reasonable limit (10)",
			})
		}

		if provider.RequestsPerSecond < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".requests_per_second",
				Message: "requests per second must be non-negative",
			})
		}
		if provider.Burst < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".burst",
				Message: "burst must be non-negative",
			})
		}

		if provider.HealthCheckInterval < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".health_check_interval",
				Message: "health check interval must be positive",
			})
		}
	}

	return errs
}

// validateTokens validates token estimation ratios.
func validateTokens(cfg *TokensConfig) []FieldError {
	var errs []FieldError

	for _, model := range slices.Sorted(maps.Keys(cfg.CharsPerToken)) {
		if cfg.CharsPerToken[model] <= 0 {
			errs = append(errs, FieldError{
				Field:   "tokens.chars_per_token." + model,
				Message: "characters per token must be positive",
			})
		}
	}

	return errs
}

// validateJournal validates the cost journal configuration.
func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "journal.path",
			Message: "journal path is required when the journal is enabled",
		})
	}

	return errs
}

// validateTelemetry validates logging, metrics, tracing and scheduling.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	// Validate metrics path
	if cfg.Metrics.IsEnabled() {
		if cfg.Metrics.Path == "" || cfg.Metrics.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if !slices.IsSorted(cfg.Metrics.RequestDurationBuckets) {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.request_duration_buckets",
				Message: "buckets must be in increasing order",
			})
		}
	}

	// Validate tracing configuration
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	// Validate status schedule
	if cfg.StatusSchedule != "" {
		if _, err := cron.ParseStandard(cfg.StatusSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.status_schedule",
				Message: fmt.Sprintf("invalid cron schedule: %v", err),
			})
		}
	}

	return errs
}

// validateServer validates the operational listener.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address: %v", err),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}
	if cfg.HealthCheckTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.health_check_timeout",
			Message: "health check timeout must be positive",
		})
	}

	return errs
}
