// Package config loads, validates and watches the relay configuration.
//
// # Configuration Loading
//
// Configuration files are YAML or TOML; the format is chosen by extension
// (.toml is TOML, anything else is YAML). Unknown keys are rejected.
//
//  1. From a file only:
//     cfg, err := config.LoadConfig("relay.yaml")
//
//  2. From a file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("relay.yaml")
//
// Passing an empty path to LoadConfigWithEnvOverrides starts from Default().
//
// # Environment Variable Overrides
//
// Environment variables use the RELAY_ prefix:
//
//   - RELAY_BUDGET_MONTHLY_USD overrides budget.monthly_usd
//   - RELAY_ROUTER_MODE overrides router.mode
//   - RELAY_ROUTER_FALLBACK_CHAIN takes a comma-separated list
//   - RELAY_LOG_LEVEL overrides telemetry.logging.level
//   - RELAY_AZURE_API_KEY overrides providers.azure.api_key
//   - RELAY_OLLAMA_BASE_URL overrides providers.ollama.base_url
//
// Environment variables always take precedence over the file.
//
// # Configuration Precedence
//
//  1. Values from the file
//  2. Default values for anything left unset (see defaults.go)
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validate collects every problem into a ValidationError of FieldErrors
// instead of stopping at the first one:
//
//	if err := config.Validate(cfg); err != nil {
//	    var ve config.ValidationError
//	    if errors.As(err, &ve) {
//	        for _, fe := range ve.Errors {
//	            fmt.Println(fe.Field, fe.Message)
//	        }
//	    }
//	}
//
// # Hot Reload
//
// Watcher observes the configuration file and hands every valid reload to a
// callback. "relay serve" uses it to apply new budget limits, model
// overrides and routing settings without a restart. Provider connection
// settings are read once at startup.
//
// # Schema
//
// Schema returns a JSON Schema of the file format for editor integration.
package config
