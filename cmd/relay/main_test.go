package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "mercator-hq/relay/internal/providers"
	"mercator-hq/relay/internal/providertest"
	"mercator-hq/relay/pkg/budget"
	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/providerfactory"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/routing"
)

// executeCommand runs the root command with args and returns stdout.
// Flag variables are reset first because cobra binds them globally.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, logLevel, outputFormat = "", "error", "text"
	completeFlags = struct {
		provider       string
		tier           string
		model          string
		classification string
		system         string
		maxTokens      int
		temperature    float64
		stream         bool
	}{}
	statusFlags.probe = false
	costsFlags.since = ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// gcpConfig routes everything to a single gcp provider at baseURL.
func gcpConfig(t *testing.T, baseURL, extra string) string {
	return writeConfig(t, `
router:
  default_provider: gcp
  fallback_chain: [gcp]
providers:
  gcp:
    base_url: `+baseURL+`
    api_key: test-key
    max_retries: 1
`+extra)
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version", "--output", "json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, Version, info["version"])
	assert.NotEmpty(t, info["go_version"])
}

func TestConfigValidate(t *testing.T) {
	path := writeConfig(t, "budget:\n  monthly_usd: 250\n")
	out, err := executeCommand(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "configuration valid")
	assert.Contains(t, out, "250.00")

	bad := writeConfig(t, "budget:\n  alert_threshold: 0.99\n  breaker_threshold: 0.5\n")
	_, err = executeCommand(t, "config", "validate", "--config", bad)
	require.Error(t, err)
	assert.Equal(t, cli.ExitConfig, cli.ExitCode(err))
}

func TestConfigSchema(t *testing.T) {
	out, err := executeCommand(t, "config", "schema")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, "fallback_chain")
}

func TestModelsCommand(t *testing.T) {
	path := writeConfig(t, "models:\n  overrides:\n    azure:\n      sota: my-deployment\n")
	out, err := executeCommand(t, "models", "--config", path, "--output", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "PROVIDER,TIER,MODEL,INPUT_PER_1K,OUTPUT_PER_1K,CONTEXT,EMBEDDING", lines[0])
	assert.Contains(t, out, "azure,sota,my-deployment,")
	assert.Contains(t, out, "azure,cost_effective,gpt-4o-mini,0.00015,0.00060,")
	assert.NotContains(t, out, "vllm,sota")
}

func TestCompleteCommand(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		Body: testhelpers.MockChatResponse("pong", "gemini-test", 1000, 1000),
	})

	path := gcpConfig(t, mock.URL()+"/v1", "")
	out, err := executeCommand(t, "complete", "ping", "--config", path, "--output", "json")
	require.NoError(t, err)

	var summary completionSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "gcp", summary.Provider)
	assert.Equal(t, "pong", summary.Content)
	assert.Equal(t, 1000, summary.Usage.PromptTokens)
	assert.Greater(t, summary.CostUSD, 0.0)
	assert.Equal(t, 1, mock.RequestCount())
}

func TestCompleteCommand_AllProvidersFailed(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testhelpers.MockAuthError())

	path := gcpConfig(t, mock.URL()+"/v1", "")
	_, err := executeCommand(t, "complete", "ping", "--config", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, routing.ErrAllProvidersFailed)
	assert.Equal(t, cli.ExitAllProvidersFailed, cli.ExitCode(err))
}

func TestCompleteCommand_EmptyPrompt(t *testing.T) {
	_, err := executeCommand(t, "complete")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt cannot be empty")
}

func TestCompleteAndCostsCommands(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		Body: testhelpers.MockChatResponse("ok", "gemini-test", 10, 5),
	})

	journal := filepath.Join(t.TempDir(), "costs.db")
	path := gcpConfig(t, mock.URL()+"/v1", "journal:\n  enabled: true\n  path: "+journal+"\n")

	for range 2 {
		_, err := executeCommand(t, "complete", "hello", "--config", path)
		require.NoError(t, err)
	}

	out, err := executeCommand(t, "costs", "--config", path, "--since", "1h", "--output", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "gcp,cost_effective,2,20,10,"), lines[1])
}

func TestCostsCommand_JournalDisabled(t *testing.T) {
	_, err := executeCommand(t, "costs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal is disabled")
}

func TestStatusCommand(t *testing.T) {
	path := writeConfig(t, `
router:
  mode: hybrid
providers:
  aws:
    disabled: true
`)
	out, err := executeCommand(t, "status", "--config", path, "--output", "json")
	require.NoError(t, err)

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "hybrid", report.Mode)
	assert.Equal(t, budget.StateClosed, report.Budget.State)
	assert.True(t, report.Providers["ollama"])
	assert.False(t, report.Providers["azure"], "azure has no base url or key")
	assert.NotContains(t, report.Providers, "aws")
}

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "", want: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2026-02-01", want: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2026-02-01T10:00:00Z", want: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)},
		{in: "24h", want: now.Add(-24 * time.Hour)},
		{in: "-1h", wantErr: true},
		{in: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSince(tt.in, now)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestApp_Reload(t *testing.T) {
	cfg := config.Default()
	cfg.Budget.MonthlyUSD = 100

	primary := providertest.NewProvider("azure")
	a, err := newApp(cfg, map[string]providerfactory.Factory{
		"azure": func() (providers.Provider, error) { return primary, nil },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	assert.Equal(t, 100.0, a.breaker.Status().Limit)

	next := config.Default()
	next.Budget.MonthlyUSD = 40
	next.Router.Mode = config.ModeLocal
	next.Models.Overrides = map[string]map[string]string{"azure": {"sota": "renamed"}}
	require.NoError(t, a.reload(next))

	assert.Equal(t, 40.0, a.breaker.Status().Limit)
	assert.Equal(t, config.ModeLocal, a.router.Config().Mode)
	assert.Equal(t, "ollama", a.router.ResolveProvider("", ""))

	model, err := a.models.GetModel("azure", "sota")
	require.NoError(t, err)
	assert.Equal(t, "renamed", model.ModelID)
}

func TestRefreshStatus(t *testing.T) {
	cfg := config.Default()
	a, err := newApp(cfg, map[string]providerfactory.Factory{
		"azure": func() (providers.Provider, error) { return providertest.NewProvider("azure"), nil },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	refreshStatus(context.Background(), a)

	families, err := a.metrics.Registry().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "relay_router_provider_available")
	assert.Contains(t, names, "relay_router_budget_usage_ratio")
}
