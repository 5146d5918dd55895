package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/relay/pkg/budget"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/costs"
	"mercator-hq/relay/pkg/models"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/telemetry/tracing"
	"mercator-hq/relay/pkg/tokens"
)

// Registry looks up provider handles by name. *providerfactory.Registry
// implements it.
type Registry interface {
	Get(name string) (providers.Provider, error)
	Availability() map[string]bool
}

// Deps are the collaborators a Router is built from. Registry, Models,
// Breaker and Costs are required.
type Deps struct {
	Registry  Registry
	Models    *models.Manager
	Breaker   *budget.CircuitBreaker
	Costs     *costs.Tracker
	Metrics   Metrics
	Tracer    *tracing.Tracer
	Estimator tokens.Estimator
}

// Router sends requests to the resolved primary provider and falls back
// through the configured chain, one provider at a time. Successful
// completions are priced once, recorded with the cost tracker and forwarded
// to the budget breaker.
//
// Router is safe for concurrent use.
type Router struct {
	registry  Registry
	models    *models.Manager
	breaker   *budget.CircuitBreaker
	costs     *costs.Tracker
	metrics   Metrics
	tracer    *tracing.Tracer
	estimator tokens.Estimator

	mu     sync.RWMutex
	config Config
}

// New creates a router.
func New(deps Deps, cfg Config) (*Router, error) {
	switch {
	case deps.Registry == nil:
		return nil, errors.New("routing: registry is required")
	case deps.Models == nil:
		return nil, errors.New("routing: model manager is required")
	case deps.Breaker == nil:
		return nil, errors.New("routing: circuit breaker is required")
	case deps.Costs == nil:
		return nil, errors.New("routing: cost tracker is required")
	}

	r := &Router{
		registry:  deps.Registry,
		models:    deps.Models,
		breaker:   deps.Breaker,
		costs:     deps.Costs,
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
		estimator: deps.Estimator,
		config:    cfg.withDefaults(),
	}
	if r.metrics == nil {
		r.metrics = noopMetrics{}
	}
	if r.tracer == nil {
		r.tracer = tracing.Noop()
	}
	if r.estimator == nil {
		r.estimator = tokens.NewSimpleEstimator(nil)
	}
	return r, nil
}

// Config returns a copy of the current routing settings.
func (r *Router) Config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.withDefaults()
}

// UpdateConfig replaces the routing settings. Requests already walking a
// chain keep the chain they started with.
func (r *Router) UpdateConfig(cfg Config) {
	cfg = cfg.withDefaults()

	r.mu.Lock()
	r.config = cfg
	r.mu.Unlock()

	slog.Info("router configuration updated",
		"mode", cfg.Mode,
		"default_provider", cfg.DefaultProvider,
		"fallback_chain", cfg.FallbackChain,
	)
}

// ResolveProvider picks the primary provider. Priority: explicit, then the
// first hybrid rule matching classification (hybrid mode only), then the
// local provider (local mode only), then the default provider.
func (r *Router) ResolveProvider(explicit, classification string) string {
	return r.Config().resolve(explicit, classification)
}

func (c Config) resolve(explicit, classification string) string {
	if explicit != "" {
		return explicit
	}
	if c.Mode == config.ModeHybrid && classification != "" {
		for _, rule := range c.HybridRules {
			if strings.EqualFold(rule.DataClassification, classification) {
				return rule.Provider
			}
		}
	}
	if c.Mode == config.ModeLocal {
		return c.LocalProvider
	}
	return c.DefaultProvider
}

// FallbackChain returns the providers to try for primary: primary first,
// exactly once, followed by the rest of the configured chain in order.
func (r *Router) FallbackChain(primary string) []string {
	return r.Config().chain(primary)
}

func (c Config) chain(primary string) []string {
	chain := make([]string, 0, len(c.FallbackChain)+1)
	chain = append(chain, primary)
	for _, name := range c.FallbackChain {
		if name != primary {
			chain = append(chain, name)
		}
	}
	return chain
}

// Status returns the aggregate router state.
func (r *Router) Status() Status {
	cfg := r.Config()
	return Status{
		Mode:            cfg.Mode,
		DefaultProvider: cfg.DefaultProvider,
		LocalProvider:   cfg.LocalProvider,
		DefaultTier:     cfg.DefaultTier,
		FallbackChain:   cfg.FallbackChain,
		Providers:       r.registry.Availability(),
		Budget:          r.breaker.Status(),
		Costs:           r.costs.Summary(),
		Models:          r.models.Catalog(),
	}
}

// plan is the routing decision for one logical request.
type plan struct {
	operation      string
	requestID      string
	mode           string
	classification string
	primary        string
	chain          []string
	tier           models.Tier
	streamStall    time.Duration
}

func (r *Router) newPlan(operation, requestID, explicit, classification string, tier models.Tier) plan {
	cfg := r.Config()
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if tier == "" {
		tier = cfg.DefaultTier
	}
	primary := cfg.resolve(explicit, classification)
	return plan{
		operation:      operation,
		requestID:      requestID,
		mode:           cfg.Mode,
		classification: classification,
		primary:        primary,
		chain:          cfg.chain(primary),
		tier:           tier,
		streamStall:    cfg.StreamStallTimeout,
	}
}

// start opens the request span and attaches the request id to ctx for
// logging.
func (r *Router) start(ctx context.Context, spanName string, p plan) (context.Context, trace.Span) {
	ctx = logging.WithRequestID(ctx, p.requestID)
	return r.tracer.Start(ctx, spanName, tracing.NewAttributeBuilder().
		WithOperation(p.operation, p.requestID).
		WithRouting(p.mode, p.classification, p.primary, p.chain).
		Build())
}

// checkBudget consults the breaker before any provider is touched.
func (r *Router) checkBudget(ctx context.Context, p plan) error {
	if err := r.breaker.CheckBudget(); err != nil {
		r.metrics.RecordRejection(p.operation, metrics.ReasonBudgetExceeded)
		slog.WarnContext(ctx, "request rejected by budget breaker",
			"operation", p.operation,
			"error", err,
		)
		return err
	}
	return nil
}

// attemptFunc invokes one provider with the resolved model.
type attemptFunc func(ctx context.Context, provider providers.Provider, model string) error

// modelFunc resolves the model id for a provider.
type modelFunc func(provider string) (string, error)

// walk tries the chain in order until an attempt succeeds. Lookup failures
// and unavailable providers are skipped; model resolution failures and
// budget rejections abort the walk; every other failure moves on to the
// next provider. It returns the name of the provider that succeeded.
func (r *Router) walk(ctx context.Context, p plan, resolveModel modelFunc, attempt attemptFunc) (string, error) {
	failures := make(map[string]error, len(p.chain))

	for i, name := range p.chain {
		remaining := len(p.chain) - i - 1

		provider, err := r.registry.Get(name)
		if err != nil {
			failures[name] = err
			r.metrics.RecordRequest(p.operation, name, metrics.OutcomeUnavailable, 0)
			slog.DebugContext(ctx, "provider not registered, skipping",
				"provider", name,
				"remaining", remaining,
			)
			continue
		}
		if !provider.IsAvailable() {
			failures[name] = &providers.UnavailableError{Provider: name}
			r.metrics.RecordRequest(p.operation, name, metrics.OutcomeUnavailable, 0)
			slog.DebugContext(ctx, "provider not available, skipping",
				"provider", name,
				"remaining", remaining,
			)
			continue
		}

		model, err := resolveModel(name)
		if err != nil {
			r.metrics.RecordRejection(p.operation, metrics.ReasonModelNotFound)
			return "", err
		}

		attemptCtx, span := r.tracer.Start(logging.WithProvider(ctx, name), tracing.SpanAttempt,
			tracing.NewAttributeBuilder().WithAttempt(name, i+1).Build())
		tracing.SetProviderAttributes(span, name, model, p.tier.String())

		start := time.Now()
		err = attempt(logging.WithModel(attemptCtx, model), provider, model)
		duration := time.Since(start)

		if err == nil {
			span.End()
			r.metrics.RecordRequest(p.operation, name, metrics.OutcomeSuccess, duration)
			if i > 0 {
				r.metrics.RecordFallback(p.operation)
			}
			return name, nil
		}

		tracing.SetErrorAttributes(span, err, metrics.ErrorType(err))
		span.End()
		r.metrics.RecordRequest(p.operation, name, metrics.OutcomeError, duration)
		r.metrics.RecordProviderError(name, err)

		if errors.Is(err, budget.ErrBudgetExceeded) {
			return "", err
		}

		failures[name] = err
		slog.WarnContext(ctx, "provider attempt failed",
			"operation", p.operation,
			"provider", name,
			"remaining", remaining,
			"error", err,
		)
	}

	r.metrics.RecordRejection(p.operation, metrics.ReasonAllProvidersFailed)
	return "", &AllProvidersFailedError{Chain: p.chain, Errors: failures}
}

// completionModel resolves the model for a completion attempt.
func (r *Router) completionModel(p plan, explicit string) modelFunc {
	return func(provider string) (string, error) {
		if explicit != "" {
			return explicit, nil
		}
		mc, err := r.models.GetModel(provider, p.tier)
		if err != nil {
			return "", err
		}
		return mc.ModelID, nil
	}
}

// account prices a successful call, records it with the cost tracker and
// forwards the same cost to the budget breaker.
func (r *Router) account(ctx context.Context, span trace.Span, p plan, provider, model string, usage providers.TokenUsage, estimated bool) {
	entry, err := r.costs.Record(ctx, costs.Usage{
		Provider:     provider,
		Tier:         p.tier,
		Model:        model,
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		RequestID:    p.requestID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to price usage, recording zero cost",
			"provider", provider,
			"tier", p.tier,
			"model", model,
			"error", err,
		)
	}

	r.breaker.RecordUsage(budget.UsageRecord{
		Provider:     provider,
		Model:        model,
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		Cost:         entry.Cost,
		RequestID:    p.requestID,
	})

	r.metrics.RecordTokens(provider, model, usage.PromptTokens, usage.CompletionTokens)
	r.metrics.RecordCost(provider, p.tier.String(), entry.Cost)
	tracing.SetUsageAttributes(span, usage.PromptTokens, usage.CompletionTokens, entry.Cost, estimated)

	slog.DebugContext(ctx, "usage recorded",
		"provider", provider,
		"model", model,
		"input_tokens", usage.PromptTokens,
		"output_tokens", usage.CompletionTokens,
		"cost_usd", entry.Cost,
		"estimated", estimated,
	)
}

func (req *Request) completionRequest(model string) *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
		Stop:        req.Stop,
		User:        req.User,
		Metadata:    req.Metadata,
	}
}

func validateRequest(req *Request) error {
	if req == nil {
		return errors.New("routing: request is nil")
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("routing: request %q has no messages", req.RequestID)
	}
	return nil
}
