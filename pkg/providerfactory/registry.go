package providerfactory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/health"
)

// Factory constructs one provider handle.
type Factory func() (providers.Provider, error)

// Registry owns the provider handles. Handles are built lazily on first use:
// every factory runs exactly once, and a failing factory only removes its
// own entry.
//
// Registry is safe for concurrent use.
type Registry struct {
	factories     map[string]Factory
	healthTimeout time.Duration

	once      sync.Once
	mu        sync.RWMutex
	providers map[string]providers.Provider
	initErrs  map[string]error
}

// Option configures a Registry.
type Option func(*Registry)

// WithHealthTimeout bounds each provider probe run by HealthCheckAll.
func WithHealthTimeout(timeout time.Duration) Option {
	return func(r *Registry) {
		r.healthTimeout = timeout
	}
}

// NewRegistry creates a registry over factories. No factory runs until the
// registry is first used.
func NewRegistry(factories map[string]Factory, opts ...Option) *Registry {
	r := &Registry{
		factories:     make(map[string]Factory, len(factories)),
		healthTimeout: health.DefaultCheckTimeout,
	}
	for name, factory := range factories {
		r.factories[name] = factory
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init constructs every provider. It is idempotent; later calls are no-ops.
func (r *Registry) Init() {
	r.once.Do(r.build)
}

func (r *Registry) build() {
	built := make(map[string]providers.Provider, len(r.factories))
	errs := make(map[string]error)

	for _, name := range slices.Sorted(maps.Keys(r.factories)) {
		provider, err := r.factories[name]()
		if err == nil && provider == nil {
			err = errors.New("factory returned no provider")
		}
		if err != nil {
			errs[name] = err
			slog.Warn("provider initialization failed",
				"provider", name,
				"error", err,
			)
			continue
		}
		built[name] = provider
	}

	r.mu.Lock()
	r.providers = built
	r.initErrs = errs
	r.mu.Unlock()

	slog.Info("provider registry initialized",
		"providers", len(built),
		"failed", len(errs),
	)
}

// InitErrors returns the construction failure of each provider that could
// not be built.
func (r *Registry) InitErrors() map[string]error {
	r.Init()

	r.mu.RLock()
	defer r.mu.RUnlock()

	errs := make(map[string]error, len(r.initErrs))
	for name, err := range r.initErrs {
		errs[name] = err
	}
	return errs
}

// Get returns the provider named name. It returns an
// *providers.UnavailableError when the provider is unknown or failed to
// initialize. Get does not check IsAvailable.
func (r *Registry) Get(name string) (providers.Provider, error) {
	r.Init()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider, ok := r.providers[name]; ok {
		return provider, nil
	}
	if err, ok := r.initErrs[name]; ok {
		return nil, &providers.UnavailableError{Provider: name, Cause: err}
	}
	return nil, &providers.UnavailableError{Provider: name}
}

// GetAvailable returns every constructed provider whose IsAvailable reports
// true, sorted by name.
func (r *Registry) GetAvailable() []providers.Provider {
	r.Init()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []providers.Provider
	for _, name := range slices.Sorted(maps.Keys(r.providers)) {
		if provider := r.providers[name]; provider.IsAvailable() {
			available = append(available, provider)
		}
	}
	return available
}

// GetAvailableNames returns the sorted names of available providers.
func (r *Registry) GetAvailableNames() []string {
	available := r.GetAvailable()
	names := make([]string, 0, len(available))
	for _, provider := range available {
		names = append(names, provider.Name())
	}
	return names
}

// Names returns the sorted names of every constructed provider.
func (r *Registry) Names() []string {
	r.Init()

	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.providers))
}

// Availability reports IsAvailable for every constructed provider.
func (r *Registry) Availability() map[string]bool {
	r.Init()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.providers))
	for name, provider := range r.providers {
		out[name] = provider.IsAvailable()
	}
	return out
}

// Checker returns a health checker with one check per constructed provider.
// Providers without a live probe always report unhealthy.
func (r *Registry) Checker() *health.Checker {
	r.Init()

	checker := health.New(r.healthTimeout)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, provider := range r.providers {
		hc, ok := provider.(providers.HealthChecker)
		if !ok {
			checker.Register(name, func(context.Context) error {
				return fmt.Errorf("provider %q has no health probe", name)
			})
			continue
		}
		checker.Register(name, hc.HealthCheck)
	}
	return checker
}

// HealthCheckAll probes every constructed provider concurrently and reports
// which ones answered.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]bool {
	results := r.Checker().Run(ctx)

	out := make(map[string]bool, len(results))
	for name, result := range results {
		out[name] = result.Healthy()
		if !result.Healthy() {
			slog.Debug("provider health check failed",
				"provider", name,
				"message", result.Message,
			)
		}
	}
	return out
}

// StartHealthCheckers starts the background probe of every provider that
// supports one. The probes stop when ctx is cancelled.
func (r *Registry) StartHealthCheckers(ctx context.Context) {
	type healthCheckStarter interface {
		StartHealthChecker(context.Context)
	}

	r.Init()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, provider := range r.providers {
		if starter, ok := provider.(healthCheckStarter); ok && provider.IsAvailable() {
			starter.StartHealthChecker(ctx)
			slog.Debug("health checker started", "provider", name)
		}
	}
}

// Close closes every provider that implements io.Closer. Providers are not
// rebuilt afterwards.
func (r *Registry) Close() error {
	r.Init()

	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, name := range slices.Sorted(maps.Keys(r.providers)) {
		closer, ok := r.providers[name].(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", name, err))
		}
	}
	r.providers = map[string]providers.Provider{}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	slog.Info("provider registry closed")
	return nil
}
