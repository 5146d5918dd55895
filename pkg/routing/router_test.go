package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/relay/internal/providertest"
	"mercator-hq/relay/pkg/budget"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/costs"
	"mercator-hq/relay/pkg/models"
	"mercator-hq/relay/pkg/providerfactory"
	"mercator-hq/relay/pkg/providers"
)

type fixture struct {
	router    *Router
	breaker   *budget.CircuitBreaker
	tracker   *costs.Tracker
	metrics   *recordingMetrics
	providers map[string]*providertest.Provider
}

// newFixture builds a router over scripted providers. Every name in names
// gets a provider; the registry knows nothing else.
func newFixture(t *testing.T, cfg Config, limit float64, names ...string) *fixture {
	t.Helper()

	f := &fixture{
		breaker: budget.NewCircuitBreaker(budget.Config{
			MonthlyLimit:     limit,
			AlertThreshold:   0.8,
			BreakerThreshold: 0.95,
		}),
		metrics:   newRecordingMetrics(),
		providers: make(map[string]*providertest.Provider),
	}

	modelManager := models.NewManager()
	f.tracker = costs.NewTracker(modelManager)

	factories := make(map[string]providerfactory.Factory, len(names))
	for _, name := range names {
		p := providertest.NewProvider(name)
		f.providers[name] = p
		factories[name] = func() (providers.Provider, error) { return p, nil }
	}

	router, err := New(Deps{
		Registry: providerfactory.NewRegistry(factories),
		Models:   modelManager,
		Breaker:  f.breaker,
		Costs:    f.tracker,
		Metrics:  f.metrics,
	}, cfg)
	require.NoError(t, err)
	f.router = router
	return f
}

func cloudConfig(chain ...string) Config {
	return Config{
		Mode:            config.ModeCloud,
		DefaultProvider: "azure",
		FallbackChain:   chain,
	}
}

func userRequest(prompt string) *Request {
	return &Request{Messages: []providers.Message{{Role: providers.RoleUser, Content: prompt}}}
}

func collect(t *testing.T, chunks <-chan *providers.StreamChunk) []*providers.StreamChunk {
	t.Helper()
	var out []*providers.StreamChunk
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return out
			}
			out = append(out, chunk)
		case <-timeout:
			t.Fatal("timed out waiting for stream to close")
		}
	}
}

// waitForRequests polls until the breaker ledger holds n records.
func waitForRequests(t *testing.T, b *budget.CircuitBreaker, n int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return b.Status().RequestCount == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{}, Config{})
	assert.Error(t, err)

	f := newFixture(t, Config{}, 0)
	cfg := f.router.Config()
	assert.Equal(t, config.ModeCloud, cfg.Mode)
	assert.Equal(t, "azure", cfg.DefaultProvider)
	assert.Equal(t, "ollama", cfg.LocalProvider)
	assert.Equal(t, models.TierCostEffective, cfg.DefaultTier)
}

func TestResolveProvider(t *testing.T) {
	rules := []HybridRule{
		{DataClassification: "restricted", Provider: "ollama"},
		{DataClassification: "internal", Provider: "vllm"},
		{DataClassification: "RESTRICTED", Provider: "gcp"},
	}

	tests := []struct {
		name           string
		mode           string
		explicit       string
		classification string
		want           string
	}{
		{name: "explicit wins in cloud", mode: config.ModeCloud, explicit: "aws", want: "aws"},
		{name: "explicit wins over hybrid rule", mode: config.ModeHybrid, explicit: "aws", classification: "restricted", want: "aws"},
		{name: "explicit wins in local", mode: config.ModeLocal, explicit: "gcp", want: "gcp"},
		{name: "hybrid rule", mode: config.ModeHybrid, classification: "internal", want: "vllm"},
		{name: "hybrid first match case-insensitive", mode: config.ModeHybrid, classification: "Restricted", want: "ollama"},
		{name: "hybrid no match", mode: config.ModeHybrid, classification: "public", want: "azure"},
		{name: "hybrid without classification", mode: config.ModeHybrid, want: "azure"},
		{name: "classification ignored in cloud", mode: config.ModeCloud, classification: "restricted", want: "azure"},
		{name: "local mode", mode: config.ModeLocal, want: "ollama"},
		{name: "local mode ignores classification", mode: config.ModeLocal, classification: "restricted", want: "ollama"},
		{name: "cloud default", mode: config.ModeCloud, want: "azure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{Mode: tt.mode, DefaultProvider: "azure", HybridRules: rules}, 0)
			assert.Equal(t, tt.want, f.router.ResolveProvider(tt.explicit, tt.classification))
		})
	}
}

func TestFallbackChain(t *testing.T) {
	f := newFixture(t, cloudConfig("azure", "aws", "gcp", "ollama"), 0)

	tests := []struct {
		primary string
		want    []string
	}{
		{primary: "azure", want: []string{"azure", "aws", "gcp", "ollama"}},
		{primary: "gcp", want: []string{"gcp", "azure", "aws", "ollama"}},
		{primary: "ollama", want: []string{"ollama", "azure", "aws", "gcp"}},
		{primary: "vllm", want: []string{"vllm", "azure", "aws", "gcp", "ollama"}},
	}

	for _, tt := range tests {
		t.Run(tt.primary, func(t *testing.T) {
			chain := f.router.FallbackChain(tt.primary)
			assert.Equal(t, tt.want, chain)
			assert.Equal(t, tt.primary, chain[0])
		})
	}

	// Mutating the result must not leak into the router.
	chain := f.router.FallbackChain("azure")
	chain[1] = "mutated"
	assert.Equal(t, "aws", f.router.FallbackChain("azure")[1])
}

func TestFallbackChain_Empty(t *testing.T) {
	f := newFixture(t, Config{FallbackChain: []string{}}, 0)
	assert.Equal(t, []string{"gcp"}, f.router.FallbackChain("gcp"))
}

func TestComplete_Primary(t *testing.T) {
	f := newFixture(t, cloudConfig("azure", "aws"), 100, "azure", "aws")
	f.providers["azure"].SetResponse("hello", 10, 20)

	resp, err := f.router.Complete(context.Background(), userRequest("hi"))
	require.NoError(t, err)

	assert.Equal(t, "azure", resp.Provider)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "gpt-4o-mini", f.providers["azure"].LastRequest().Model)

	complete, _, _ := f.providers["aws"].Calls()
	assert.Zero(t, complete)

	status := f.breaker.Status()
	assert.Equal(t, 1, status.RequestCount)
	assert.InDelta(t, 0.0000135, status.Spend, 1e-12)

	entries := f.tracker.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "azure", entries[0].Provider)
	assert.Equal(t, models.TierCostEffective, entries[0].Tier)
	assert.NotEmpty(t, entries[0].RequestID)
	assert.Equal(t, entries[0].Cost, status.Spend)
}

func TestComplete_FallbackStopsAtFirstSuccess(t *testing.T) {
	f := newFixture(t, Config{DefaultProvider: "p1", FallbackChain: []string{"p1", "p2", "p3"}}, 0, "p1", "p2", "p3")
	f.providers["p1"].FailComplete(&providers.ProviderError{Provider: "p1", StatusCode: 500, Message: "boom"})

	resp, err := f.router.Complete(context.Background(), &Request{
		Messages: userRequest("hi").Messages,
		Model:    "custom-model",
	})
	require.NoError(t, err)
	assert.Equal(t, "p2", resp.Provider)

	p3Calls, _, _ := f.providers["p3"].Calls()
	assert.Zero(t, p3Calls, "p3 must never be invoked")
	assert.Equal(t, "custom-model", f.providers["p2"].LastRequest().Model)
	assert.Equal(t, 1, f.metrics.count("fallback:complete"))
}

func TestComplete_ScenarioB(t *testing.T) {
	f := newFixture(t, cloudConfig("azure", "aws", "ollama"), 100, "azure", "aws", "ollama")
	f.providers["azure"].FailComplete(&providers.ProviderError{Provider: "azure", StatusCode: 503, Message: "unavailable"})
	f.providers["aws"].FailComplete(&providers.ProviderError{Provider: "aws", StatusCode: 500, Message: "internal"})
	f.providers["ollama"].SetResponse("local answer", 10, 20)

	before := f.breaker.Status().RequestCount

	resp, err := f.router.Complete(context.Background(), userRequest("hi"))
	require.NoError(t, err)

	assert.Equal(t, "ollama", resp.Provider)
	status := f.breaker.Status()
	assert.Equal(t, before+1, status.RequestCount)
	assert.Zero(t, status.Spend)

	entries := f.tracker.Entries()
	require.Len(t, entries, 1)
	assert.Zero(t, entries[0].Cost)
	assert.Equal(t, 10, entries[0].InputTokens)
	assert.Equal(t, 20, entries[0].OutputTokens)
}

func TestComplete_AllProvidersFailed(t *testing.T) {
	// gcp is not registered and aws is not available.
	f := newFixture(t, cloudConfig("azure", "aws", "gcp"), 100, "azure", "aws")
	f.providers["azure"].FailComplete(&providers.RateLimitError{Provider: "azure", RetryAfter: time.Second})
	f.providers["aws"].SetAvailable(false)

	_, err := f.router.Complete(context.Background(), userRequest("hi"))
	require.Error(t, err)

	var apf *AllProvidersFailedError
	require.ErrorAs(t, err, &apf)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.NotErrorIs(t, err, budget.ErrBudgetExceeded)
	assert.Equal(t, []string{"azure", "aws", "gcp"}, apf.Chain)
	assert.Len(t, apf.Errors, 3)
	assert.ErrorIs(t, apf.Errors["gcp"], providers.ErrProviderUnavailable)
	assert.ErrorIs(t, apf.Errors["aws"], providers.ErrProviderUnavailable)

	var rl *providers.RateLimitError
	assert.ErrorAs(t, err, &rl)

	awsCalls, _, _ := f.providers["aws"].Calls()
	assert.Zero(t, awsCalls, "unavailable providers are skipped without a call")
	assert.Zero(t, f.breaker.Status().RequestCount)
	assert.Equal(t, 1, f.metrics.count("rejection:complete:all_providers_failed"))
}

func TestComplete_BudgetOpenBlocksEverything(t *testing.T) {
	f := newFixture(t, cloudConfig("azure", "aws"), 100, "azure", "aws")
	f.breaker.RecordUsage(budget.UsageRecord{Provider: "azure", Cost: 96})

	_, err := f.router.Complete(context.Background(), userRequest("hi"))
	require.Error(t, err)

	var be *budget.BudgetExceededError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 96.0, be.Spend)
	assert.Equal(t, 100.0, be.Limit)
	assert.NotErrorIs(t, err, ErrAllProvidersFailed)

	for name, p := range f.providers {
		complete, stream, _ := p.Calls()
		assert.Zero(t, complete+stream, "provider %s must not be called", name)
	}

	_, err = f.router.Stream(context.Background(), userRequest("hi"))
	assert.ErrorIs(t, err, budget.ErrBudgetExceeded)
	assert.Equal(t, 2, f.metrics.count("rejection:*:budget_exceeded"))
}

func TestComplete_ScenarioA_HalfOpenStillRoutes(t *testing.T) {
	f := newFixture(t, cloudConfig("azure"), 100, "azure")
	f.breaker.RecordUsage(budget.UsageRecord{Provider: "azure", Cost: 85})
	require.Equal(t, budget.StateHalfOpen, f.breaker.State())

	_, err := f.router.Complete(context.Background(), userRequest("hi"))
	require.NoError(t, err)

	f.breaker.RecordUsage(budget.UsageRecord{Provider: "azure", Cost: 11})
	require.Equal(t, budget.StateOpen, f.breaker.State())

	_, err = f.router.Complete(context.Background(), userRequest("hi"))
	assert.ErrorIs(t, err, budget.ErrBudgetExceeded)
}

func TestComplete_BudgetErrorFromProviderAborts(t *testing.T) {
	f := newFixture(t, cloudConfig("azure", "aws"), 100, "azure", "aws")
	f.providers["azure"].FailComplete(fmt.Errorf("gateway: %w", &budget.BudgetExceededError{Spend: 10, Limit: 10}))

	_, err := f.router.Complete(context.Background(), userRequest("hi"))
	assert.ErrorIs(t, err, budget.ErrBudgetExceeded)

	awsCalls, _, _ := f.providers["aws"].Calls()
	assert.Zero(t, awsCalls)
}

func TestComplete_ModelNotFoundPropagates(t *testing.T) {
	f := newFixture(t, Config{DefaultProvider: "vllm", FallbackChain: []string{"azure"}}, 100, "vllm", "azure")

	req := userRequest("hi")
	req.Tier = models.TierSOTA
	_, err := f.router.Complete(context.Background(), req)

	var mnf *models.ModelNotFoundError
	require.ErrorAs(t, err, &mnf)
	assert.ErrorIs(t, err, models.ErrModelNotFound)

	azureCalls, _, _ := f.providers["azure"].Calls()
	assert.Zero(t, azureCalls)
}

func TestComplete_UnpricedSuccessKeepsLedgersAligned(t *testing.T) {
	f := newFixture(t, cloudConfig("azure"), 100, "azure", "p1")
	f.providers["p1"].SetResponse("ok", 10, 5)

	req := userRequest("hi")
	req.Provider = "p1"
	req.Model = "custom"
	resp, err := f.router.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "p1", resp.Provider)

	status := f.breaker.Status()
	entries := f.tracker.Entries()
	require.Len(t, entries, status.RequestCount)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Unpriced)
	assert.Zero(t, entries[0].Cost)
	assert.Equal(t, entries[0].Cost, status.Spend)
	assert.Equal(t, "custom", entries[0].Model)
}

func TestComplete_HybridRouting(t *testing.T) {
	f := newFixture(t, Config{
		Mode:            config.ModeHybrid,
		DefaultProvider: "azure",
		FallbackChain:   []string{"azure", "ollama"},
		HybridRules:     []HybridRule{{DataClassification: "restricted", Provider: "ollama"}},
	}, 100, "azure", "ollama")

	req := userRequest("patient record")
	req.DataClassification = "Restricted"
	req.RequestID = "req-42"

	resp, err := f.router.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ollama", resp.Provider)

	entries := f.tracker.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].RequestID)
}

func TestComplete_InvalidRequest(t *testing.T) {
	f := newFixture(t, cloudConfig("azure"), 0, "azure")

	_, err := f.router.Complete(context.Background(), nil)
	assert.Error(t, err)
	_, err = f.router.Complete(context.Background(), &Request{})
	assert.Error(t, err)
}

func TestComplete_Concurrent(t *testing.T) {
	f := newFixture(t, cloudConfig("azure", "aws"), 1000, "azure", "aws")
	f.providers["azure"].FailComplete(errors.New("flaky"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.router.Complete(context.Background(), userRequest("hi"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, f.breaker.Status().RequestCount)
	assert.Equal(t, 50, f.tracker.Summary().TotalRequests)
}

func TestStream_ReportedUsage(t *testing.T) {
	f := newFixture(t, cloudConfig("azure"), 100, "azure")
	f.providers["azure"].SetStream(
		providertest.Chunk("Hel"),
		providertest.Chunk("lo"),
		providertest.FinalChunk(&providers.TokenUsage{PromptTokens: 12, CompletionTokens: 2, TotalTokens: 14}),
	)

	chunks, err := f.router.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)

	got := collect(t, chunks)
	require.Len(t, got, 3)
	for _, c := range got {
		assert.Equal(t, "azure", c.Provider)
		assert.Equal(t, "gpt-4o-mini", c.Model)
	}
	assert.Equal(t, "Hel", got[0].Content)

	waitForRequests(t, f.breaker, 1)
	entries := f.tracker.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 12, entries[0].InputTokens)
	assert.Equal(t, 2, entries[0].OutputTokens)
}

func TestStream_EstimatesMissingUsage(t *testing.T) {
	f := newFixture(t, cloudConfig("azure"), 100, "azure")
	f.providers["azure"].SetStream(
		providertest.Chunk("abcdefgh"),
		providertest.FinalChunk(nil),
	)

	chunks, err := f.router.Stream(context.Background(), userRequest("abcd"))
	require.NoError(t, err)
	collect(t, chunks)

	waitForRequests(t, f.breaker, 1)
	entries := f.tracker.Entries()
	require.Len(t, entries, 1)
	// 8 chars at 4 chars/token.
	assert.Equal(t, 2, entries[0].OutputTokens)
	assert.Positive(t, entries[0].InputTokens)
}

func TestStream_FallbackOnOpen(t *testing.T) {
	f := newFixture(t, cloudConfig("azure", "gcp"), 100, "azure", "gcp")
	f.providers["azure"].FailStream(&providers.AuthError{Provider: "azure", Message: "unauthorized"})
	f.providers["gcp"].SetStream(providertest.Chunk("ok"), providertest.FinalChunk(nil))

	chunks, err := f.router.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)

	got := collect(t, chunks)
	require.NotEmpty(t, got)
	assert.Equal(t, "gcp", got[0].Provider)

	waitForRequests(t, f.breaker, 1)
}

func TestStream_MidStreamErrorIsNotRetried(t *testing.T) {
	f := newFixture(t, cloudConfig("azure", "aws"), 100, "azure", "aws")
	streamErr := &providers.StreamError{Provider: "azure", Message: "connection reset"}
	f.providers["azure"].SetStream(providertest.Chunk("part"), providertest.ErrorChunk(streamErr))

	chunks, err := f.router.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)

	got := collect(t, chunks)
	require.Len(t, got, 2)
	assert.ErrorIs(t, got[1].Err, streamErr)

	_, awsStreams, _ := f.providers["aws"].Calls()
	assert.Zero(t, awsStreams)
	waitForRequests(t, f.breaker, 1)
}

func TestStream_AbandonedConsumerStillAccounted(t *testing.T) {
	f := newFixture(t, cloudConfig("azure"), 100, "azure")
	var chunks []*providers.StreamChunk
	for i := 0; i < 3*streamBuffer; i++ {
		chunks = append(chunks, providertest.Chunk("x"))
	}
	f.providers["azure"].SetStream(chunks...)

	ctx, cancel := context.WithCancel(context.Background())
	out, err := f.router.Stream(ctx, userRequest("hi"))
	require.NoError(t, err)

	<-out
	cancel()

	waitForRequests(t, f.breaker, 1)
}

func TestStream_StalledConsumerStillAccounted(t *testing.T) {
	cfg := cloudConfig("azure")
	cfg.StreamStallTimeout = 20 * time.Millisecond
	f := newFixture(t, cfg, 100, "azure")
	var chunks []*providers.StreamChunk
	for i := 0; i < 3*streamBuffer; i++ {
		chunks = append(chunks, providertest.Chunk("x"))
	}
	f.providers["azure"].SetStream(chunks...)

	out, err := f.router.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)

	// Read one chunk, then stop reading without cancelling.
	<-out

	waitForRequests(t, f.breaker, 1)
	entries := f.tracker.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 3*streamBuffer/4, entries[0].OutputTokens)

	got := collect(t, out)
	assert.Less(t, len(got), 3*streamBuffer-1)
}

func TestStream_AllProvidersFailed(t *testing.T) {
	f := newFixture(t, cloudConfig("azure"), 100, "azure")
	f.providers["azure"].FailStream(errors.New("refused"))

	chunks, err := f.router.Stream(context.Background(), userRequest("hi"))
	assert.Nil(t, chunks)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}

func TestEmbed_BypassesBudget(t *testing.T) {
	f := newFixture(t, cloudConfig("azure"), 100, "azure")
	f.breaker.RecordUsage(budget.UsageRecord{Provider: "azure", Cost: 99})
	require.Equal(t, budget.StateOpen, f.breaker.State())
	f.providers["azure"].SetEmbedding(6, []float64{0.1, 0.2}, []float64{0.3, 0.4})

	resp, err := f.router.Embed(context.Background(), &EmbedRequest{Input: []string{"a", "b"}})
	require.NoError(t, err)

	assert.Equal(t, "azure", resp.Provider)
	assert.Len(t, resp.Embeddings, 2)
	assert.Equal(t, "text-embedding-3-small", f.providers["azure"].LastEmbedRequest().Model)

	assert.Equal(t, 1, f.breaker.Status().RequestCount, "embeddings are not recorded in the ledger")
	assert.Empty(t, f.tracker.Entries())
	assert.Equal(t, 6, f.metrics.count("embedding_tokens:azure"))
}

func TestEmbed_ModelResolution(t *testing.T) {
	f := newFixture(t, Config{DefaultProvider: "vllm", FallbackChain: []string{"ollama"}}, 0, "vllm", "ollama")
	f.providers["vllm"].FailEmbed(errors.New("no embedding endpoint"))

	resp, err := f.router.Embed(context.Background(), &EmbedRequest{Input: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "ollama", resp.Provider)

	assert.Equal(t, "meta-llama/Meta-Llama-3.1-8B-Instruct", f.providers["vllm"].LastEmbedRequest().Model)
	assert.Equal(t, "nomic-embed-text", f.providers["ollama"].LastEmbedRequest().Model)

	_, err = f.router.Embed(context.Background(), &EmbedRequest{Input: []string{"a"}, Model: "custom", Provider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "custom", f.providers["ollama"].LastEmbedRequest().Model)
}

func TestEmbed_Errors(t *testing.T) {
	f := newFixture(t, cloudConfig("azure"), 0, "azure")

	_, err := f.router.Embed(context.Background(), &EmbedRequest{})
	assert.Error(t, err)

	f.providers["azure"].FailEmbed(errors.New("down"))
	_, err = f.router.Embed(context.Background(), &EmbedRequest{Input: []string{"a"}})
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, cloudConfig("azure", "ollama"), 100, "azure", "ollama")
	f.providers["ollama"].SetAvailable(false)

	_, err := f.router.Complete(context.Background(), userRequest("hi"))
	require.NoError(t, err)

	status := f.router.Status()
	assert.Equal(t, config.ModeCloud, status.Mode)
	assert.Equal(t, "azure", status.DefaultProvider)
	assert.Equal(t, []string{"azure", "ollama"}, status.FallbackChain)
	assert.Equal(t, map[string]bool{"azure": true, "ollama": false}, status.Providers)
	assert.Equal(t, 1, status.Budget.RequestCount)
	assert.Equal(t, 1, status.Costs.TotalRequests)
	assert.Contains(t, status.Models, "vllm")

	data, err := json.Marshal(status)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "closed", decoded["budget"].(map[string]any)["state"])
	assert.Contains(t, decoded["models"].(map[string]any)["azure"], "sota")
}

func TestUpdateConfig(t *testing.T) {
	f := newFixture(t, cloudConfig("azure"), 0, "azure", "ollama")

	f.router.UpdateConfig(Config{Mode: config.ModeLocal, FallbackChain: []string{"azure"}})

	assert.Equal(t, "ollama", f.router.ResolveProvider("", ""))
	resp, err := f.router.Complete(context.Background(), userRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, "ollama", resp.Provider)
}

func TestConfigFromRouter(t *testing.T) {
	cfg, err := ConfigFromRouter(config.RouterConfig{
		Mode:            config.ModeHybrid,
		DefaultProvider: "azure",
		DefaultTier:     "SOTA",
		FallbackChain:   []string{"azure", "aws"},
		HybridRules:     []config.HybridRule{{DataClassification: "pii", Provider: "ollama"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TierSOTA, cfg.DefaultTier)
	assert.Equal(t, []HybridRule{{DataClassification: "pii", Provider: "ollama"}}, cfg.HybridRules)

	_, err = ConfigFromRouter(config.RouterConfig{DefaultTier: "premium"})
	assert.Error(t, err)
}

func TestAllProvidersFailedError_Message(t *testing.T) {
	err := &AllProvidersFailedError{
		Chain: []string{"azure", "aws"},
		Errors: map[string]error{
			"azure": errors.New("timeout"),
			"aws":   errors.New("401"),
		},
	}
	assert.Equal(t, "all providers failed (chain: azure, aws); azure: timeout; aws: 401", err.Error())
	assert.Len(t, err.Unwrap(), 2)
}
