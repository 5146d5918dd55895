package providerfactory

import (
	"log/slog"

	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/providers/openai"
)

// ProviderConfig converts a configuration entry to adapter settings.
func ProviderConfig(name string, pc config.ProviderConfig) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:                name,
		Dialect:             providers.Dialect(pc.Dialect),
		BaseURL:             pc.BaseURL,
		APIKey:              pc.APIKey,
		APIVersion:          pc.APIVersion,
		Local:               pc.Local,
		Timeout:             pc.Timeout,
		MaxRetries:          pc.MaxRetries,
		RequestsPerSecond:   pc.RequestsPerSecond,
		Burst:               pc.Burst,
		HealthCheckInterval: pc.HealthCheckInterval,
	}
}

// NewProvider creates the OpenAI-compatible adapter for one configured
// provider. Every backend the relay supports speaks either the openai or
// the azure dialect, so there is a single adapter.
func NewProvider(name string, pc config.ProviderConfig) (providers.Provider, error) {
	slog.Debug("creating provider",
		"name", name,
		"dialect", pc.Dialect,
		"base_url", pc.BaseURL,
	)

	client, err := openai.New(ProviderConfig(name, pc))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// BuiltinFactories returns one factory per configured provider. The five
// built-in providers are always present after config.ApplyDefaults;
// providers marked disabled are left out.
func BuiltinFactories(cfg *config.Config) map[string]Factory {
	factories := make(map[string]Factory, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		if pc.Disabled {
			slog.Info("provider disabled by configuration", "provider", name)
			continue
		}
		factories[name] = func() (providers.Provider, error) {
			return NewProvider(name, pc)
		}
	}
	return factories
}

