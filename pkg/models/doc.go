// Package models holds the model tier catalog.
//
// Each provider offers up to two tiers, TierSOTA and TierCostEffective, and
// each (provider, tier) pair maps to one immutable ModelConfig carrying the
// model identifier and its linear per-1000-token prices. The catalog is
// seeded from built-in presets; configuration may override the model
// identifier of an entry without touching its prices.
//
// Lookup of a missing pair returns a *ModelNotFoundError, which the router
// treats as a configuration error rather than a provider failure.
package models
