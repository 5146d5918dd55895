package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file format.
type Format string

const (
	// FormatYAML is selected for .yaml and .yml files.
	FormatYAML Format = "yaml"
	// FormatTOML is selected for .toml files.
	FormatTOML Format = "toml"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RELAY_"

// FormatForPath selects the format from the file extension. Unknown
// extensions are read as YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// LoadConfig loads configuration from a YAML or TOML file at the specified
// path. It applies default values, validates the configuration, and returns
// any errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes data without applying defaults or validation. Unknown keys
// are rejected so typos surface at load time.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config

	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown configuration key %q", undecoded[0].String())
		}
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return &cfg, nil
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a file and applies
// environment variable overrides. Environment variables follow the naming
// convention RELAY_SECTION_FIELD (e.g., RELAY_BUDGET_MONTHLY_USD) and always
// take precedence over the file.
//
// The loading sequence is:
// 1. Load from file (or start from defaults when path is empty)
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = Parse(data, FormatForPath(path))
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
		ApplyDefaults(cfg)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric values are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError

	setFloat := func(env, field string, dst *float64) {
		val := os.Getenv(env)
		if val == "" {
			return
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("invalid %s %q", env, val)})
			return
		}
		*dst = f
	}
	setString := func(env string, dst *string) {
		if val := os.Getenv(env); val != "" {
			*dst = val
		}
	}

	// Budget overrides
	setFloat(EnvPrefix+"BUDGET_MONTHLY_USD", "budget.monthly_usd", &cfg.Budget.MonthlyUSD)
	setFloat(EnvPrefix+"BUDGET_ALERT_THRESHOLD", "budget.alert_threshold", &cfg.Budget.AlertThreshold)
	setFloat(EnvPrefix+"BUDGET_BREAKER_THRESHOLD", "budget.breaker_threshold", &cfg.Budget.BreakerThreshold)

	// Router overrides
	setString(EnvPrefix+"ROUTER_MODE", &cfg.Router.Mode)
	setString(EnvPrefix+"ROUTER_DEFAULT_PROVIDER", &cfg.Router.DefaultProvider)
	setString(EnvPrefix+"ROUTER_LOCAL_PROVIDER", &cfg.Router.LocalProvider)
	setString(EnvPrefix+"ROUTER_DEFAULT_TIER", &cfg.Router.DefaultTier)
	if val := os.Getenv(EnvPrefix + "ROUTER_FALLBACK_CHAIN"); val != "" {
		cfg.Router.FallbackChain = splitList(val)
	}

	// Telemetry overrides
	setString(EnvPrefix+"LOG_LEVEL", &cfg.Telemetry.Logging.Level)
	setString(EnvPrefix+"LOG_FORMAT", &cfg.Telemetry.Logging.Format)
	setString(EnvPrefix+"STATUS_SCHEDULE", &cfg.Telemetry.StatusSchedule)
	setString(EnvPrefix+"TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)

	// Journal and server overrides
	if val := os.Getenv(EnvPrefix + "JOURNAL_PATH"); val != "" {
		cfg.Journal.Path = val
		cfg.Journal.Enabled = true
	}
	setString(EnvPrefix+"SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)

	// Provider overrides
	for name := range cfg.Providers {
		if err := applyProviderEnvOverrides(cfg, name); err != nil {
			errs = append(errs, *err)
		}
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// applyProviderEnvOverrides applies RELAY_<PROVIDER>_* overrides to one provider.
func applyProviderEnvOverrides(cfg *Config, providerName string) *FieldError {
	provider := cfg.Providers[providerName]
	prefix := EnvPrefix + strings.ToUpper(strings.ReplaceAll(providerName, "-", "_")) + "_"

	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		provider.BaseURL = val
	}
	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		provider.APIKey = val
	}
	if val := os.Getenv(prefix + "API_VERSION"); val != "" {
		provider.APIVersion = val
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return &FieldError{
				Field:   "providers." + providerName + ".timeout",
				Message: fmt.Sprintf("invalid %sTIMEOUT %q", prefix, val),
			}
		}
		provider.Timeout = d
	}

	cfg.Providers[providerName] = provider
	return nil
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
