package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/relay/pkg/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "unknown mode",
			mutate: func(c *Config) { c.Router.Mode = "edge" },
			field:  "router.mode",
		},
		{
			name:   "empty default provider",
			mutate: func(c *Config) { c.Router.DefaultProvider = "" },
			field:  "router.default_provider",
		},
		{
			name:   "invalid default tier",
			mutate: func(c *Config) { c.Router.DefaultTier = "premium" },
			field:  "router.default_tier",
		},
		{
			name:   "negative stream stall timeout",
			mutate: func(c *Config) { c.Router.StreamStallTimeout = -time.Second },
			field:  "router.stream_stall_timeout",
		},
		{
			name:   "duplicate chain entry",
			mutate: func(c *Config) { c.Router.FallbackChain = []string{"azure", "aws", "azure"} },
			field:  "router.fallback_chain[2]",
		},
		{
			name:   "empty chain entry",
			mutate: func(c *Config) { c.Router.FallbackChain = []string{"azure", ""} },
			field:  "router.fallback_chain[1]",
		},
		{
			name: "incomplete hybrid rule",
			mutate: func(c *Config) {
				c.Router.HybridRules = []HybridRule{{DataClassification: "pii"}}
			},
			field: "router.hybrid_rules[0].provider",
		},
		{
			name:   "negative budget",
			mutate: func(c *Config) { c.Budget.MonthlyUSD = -1 },
			field:  "budget.monthly_usd",
		},
		{
			name:   "threshold above one",
			mutate: func(c *Config) { c.Budget.BreakerThreshold = 1.5 },
			field:  "budget.breaker_threshold",
		},
		{
			name: "alert above breaker",
			mutate: func(c *Config) {
				c.Budget.AlertThreshold = 0.9
				c.Budget.BreakerThreshold = 0.8
			},
			field: "budget.alert_threshold",
		},
		{
			name: "override with unknown tier",
			mutate: func(c *Config) {
				c.Models.Overrides = map[string]map[string]string{"azure": {"premium": "x"}}
			},
			field: "models.overrides.azure.premium",
		},
		{
			name: "override with empty model",
			mutate: func(c *Config) {
				c.Models.Overrides = map[string]map[string]string{"azure": {"sota": " "}}
			},
			field: "models.overrides.azure.sota",
		},
		{
			name: "bad provider url scheme",
			mutate: func(c *Config) {
				p := c.Providers[ProviderGCP]
				p.BaseURL = "ftp://example.com"
				c.Providers[ProviderGCP] = p
			},
			field: "providers.gcp.base_url",
		},
		{
			name: "bad dialect",
			mutate: func(c *Config) {
				p := c.Providers[ProviderAWS]
				p.Dialect = "bedrock"
				c.Providers[ProviderAWS] = p
			},
			field: "providers.aws.dialect",
		},
		{
			name: "too many retries",
			mutate: func(c *Config) {
				p := c.Providers[ProviderAWS]
				p.MaxRetries = 11
				c.Providers[ProviderAWS] = p
			},
			field: "providers.aws.max_retries",
		},
		{
			name:   "non-positive token ratio",
			mutate: func(c *Config) { c.Tokens.CharsPerToken = map[string]float64{"gpt-4o": 0} },
			field:  "tokens.chars_per_token.gpt-4o",
		},
		{
			name: "journal without path",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Path = ""
			},
			field: "journal.path",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "bad cron schedule",
			mutate: func(c *Config) { c.Telemetry.StatusSchedule = "every minute" },
			field:  "telemetry.status_schedule",
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
			},
			field: "telemetry.tracing.endpoint",
		},
		{
			name:   "unsorted buckets",
			mutate: func(c *Config) { c.Telemetry.Metrics.RequestDurationBuckets = []float64{1, 0.5} },
			field:  "telemetry.metrics.request_duration_buckets",
		},
		{
			name:   "listen address without port",
			mutate: func(c *Config) { c.Server.ListenAddress = "localhost" },
			field:  "server.listen_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var ve ValidationError
			require.True(t, errors.As(err, &ve))
			assert.True(t, ve.HasField(tt.field), "expected error for %s, got %v", tt.field, ve.Errors)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Router.Mode = "edge"
	cfg.Budget.MonthlyUSD = -5
	cfg.Server.ListenAddress = ""

	err := Validate(cfg)
	require.Error(t, err)

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors, 3)
	assert.True(t, strings.HasPrefix(err.Error(), "configuration validation failed with 3 errors"))
}

func TestValidate_ThresholdEdges(t *testing.T) {
	cfg := Default()
	cfg.Budget.AlertThreshold = 0
	cfg.Budget.BreakerThreshold = 1
	assert.NoError(t, Validate(cfg))

	cfg.Budget.AlertThreshold = 0.5
	cfg.Budget.BreakerThreshold = 0.5
	assert.NoError(t, Validate(cfg))
}

func TestModelsConfig_TierOverrides(t *testing.T) {
	mc := ModelsConfig{Overrides: map[string]map[string]string{
		"azure": {"SOTA": "gpt4o-prod", "cost-effective": "mini-prod"},
	}}

	overrides, err := mc.TierOverrides()
	require.NoError(t, err)
	assert.Equal(t, "gpt4o-prod", overrides["azure"][models.TierSOTA])
	assert.Equal(t, "mini-prod", overrides["azure"][models.TierCostEffective])

	mc.Overrides["aws"] = map[string]string{"ultra": "x"}
	_, err = mc.TierOverrides()
	assert.Error(t, err)
}
