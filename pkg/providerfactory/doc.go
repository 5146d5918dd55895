// Package providerfactory builds and owns the relay's provider handles.
//
// A Registry is created from a map of factories and constructs every
// provider lazily, exactly once, on first use. A factory that fails only
// removes its own provider; the failure is kept and reported by InitErrors
// and by Get as a *providers.UnavailableError.
//
//	cfg, _ := config.LoadConfigWithEnvOverrides("relay.yaml")
//	registry := providerfactory.NewRegistry(providerfactory.BuiltinFactories(cfg),
//	    providerfactory.WithHealthTimeout(cfg.Server.HealthCheckTimeout))
//	defer registry.Close()
//
//	azure, err := registry.Get("azure")
//
// HealthCheckAll probes every provider concurrently through a
// health.Checker, bounded by a per-probe timeout.
package providerfactory
