package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"mercator-hq/relay/pkg/budget"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/costs"
	"mercator-hq/relay/pkg/models"
	"mercator-hq/relay/pkg/providerfactory"
	"mercator-hq/relay/pkg/routing"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/telemetry/tracing"
	"mercator-hq/relay/pkg/tokens"
)

// app wires every relay component from one configuration. It is the only
// place components are constructed.
type app struct {
	mu  sync.RWMutex
	cfg *config.Config

	metrics   *metrics.Collector
	tracer    *tracing.Tracer
	models    *models.Manager
	breaker   *budget.CircuitBreaker
	journal   *costs.SQLiteJournal
	costs     *costs.Tracker
	estimator *tokens.SimpleEstimator
	registry  *providerfactory.Registry
	router    *routing.Router
}

// newApp builds the component graph. Providers are constructed lazily by
// the registry on first use.
func newApp(cfg *config.Config, factories map[string]providerfactory.Factory) (*app, error) {
	overrides, err := cfg.Models.TierOverrides()
	if err != nil {
		return nil, err
	}
	routerCfg, err := routing.ConfigFromRouter(cfg.Router)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	a.models = models.NewManager(
		models.WithOverrides(overrides),
		models.WithEmbeddingOverrides(cfg.Models.EmbeddingOverrides),
	)
	a.breaker = budget.NewCircuitBreaker(budgetConfig(cfg.Budget), budget.WithObserver(a.metrics))

	var trackerOpts []costs.TrackerOption
	if cfg.Journal.Enabled {
		a.journal, err = costs.OpenSQLiteJournal(cfg.Journal.Path)
		if err != nil {
			_ = a.tracer.Shutdown(context.Background())
			return nil, err
		}
		trackerOpts = append(trackerOpts, costs.WithJournal(a.journal))
	}
	a.costs = costs.NewTracker(a.models, trackerOpts...)
	a.estimator = tokens.NewSimpleEstimator(cfg.Tokens.CharsPerToken)

	if factories == nil {
		factories = providerfactory.BuiltinFactories(cfg)
	}
	a.registry = providerfactory.NewRegistry(factories,
		providerfactory.WithHealthTimeout(cfg.Server.HealthCheckTimeout),
	)

	a.router, err = routing.New(routing.Deps{
		Registry:  a.registry,
		Models:    a.models,
		Breaker:   a.breaker,
		Costs:     a.costs,
		Metrics:   a.metrics,
		Tracer:    a.tracer,
		Estimator: a.estimator,
	}, routerCfg)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	return a, nil
}

// reload applies a changed configuration to the running components.
// Provider connection settings, the journal and telemetry exporters are
// only read at startup.
func (a *app) reload(cfg *config.Config) error {
	overrides, err := cfg.Models.TierOverrides()
	if err != nil {
		return err
	}
	routerCfg, err := routing.ConfigFromRouter(cfg.Router)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.breaker.UpdateConfig(budgetConfig(cfg.Budget))
	a.models.SetOverrides(overrides, cfg.Models.EmbeddingOverrides)
	a.estimator.SetRatios(cfg.Tokens.CharsPerToken)
	a.router.UpdateConfig(routerCfg)

	if !providersEqual(a.cfg.Providers, cfg.Providers) {
		slog.Warn("provider settings changed; restart to apply them")
	}
	a.cfg = cfg
	return nil
}

// config returns the configuration last applied by reload.
func (a *app) config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Close releases providers, the journal and the tracer.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.registry != nil {
		errs = append(errs, a.registry.Close())
	}
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func budgetConfig(bc config.BudgetConfig) budget.Config {
	return budget.Config{
		MonthlyLimit:     bc.MonthlyUSD,
		AlertThreshold:   bc.AlertThreshold,
		BreakerThreshold: bc.BreakerThreshold,
	}
}

func providersEqual(a, b map[string]config.ProviderConfig) bool {
	if len(a) != len(b) {
		return false
	}
	for name, pa := range a {
		pb, ok := b[name]
		if !ok || pa != pb {
			return false
		}
	}
	return true
}
