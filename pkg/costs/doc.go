// Package costs prices and aggregates successful provider calls.
//
// Tracker.Record computes the cost of one call exactly once from the model
// catalog's linear per-1000-token prices and returns the resulting Entry;
// the router forwards that same cost to the budget circuit breaker so the
// two ledgers never disagree. Summary reports totals with breakdowns by
// provider and by tier.
//
// An optional SQLiteJournal keeps an append-only copy of entries on disk for
// reporting (see `relay costs`). It is not read back into the budget ledger.
package costs
