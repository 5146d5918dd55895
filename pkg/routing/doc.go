// Package routing sends completion, streaming and embedding requests to
// AI providers through an ordered fallback chain, gated by the monthly
// budget breaker.
//
// # Provider resolution
//
// The primary provider is chosen in this order:
//
//  1. the provider named on the request
//  2. in hybrid mode, the first hybrid rule whose data classification
//     matches the request (case-insensitive)
//  3. in local mode, the local provider
//  4. the default provider
//
// The chain is the primary followed by the configured fallback chain with
// the primary removed, so the primary is always tried first and only once.
//
// # Fallback
//
// Providers are tried strictly one at a time. A provider that is not
// registered or not available is skipped. Any provider error moves on to
// the next candidate, except a budget rejection, which aborts the request.
// A model that is missing from the catalog is a configuration error and is
// returned as *models.ModelNotFoundError without trying further providers.
//
// Callers see one of three outcomes:
//
//	resp, err := router.Complete(ctx, &routing.Request{Messages: msgs})
//	switch {
//	case errors.Is(err, budget.ErrBudgetExceeded):
//	    // limit reached; do not retry before the next period
//	case errors.Is(err, routing.ErrAllProvidersFailed):
//	    // availability problem; retry later
//	case err == nil:
//	    fmt.Println(resp.Provider, resp.Content)
//	}
//
// # Accounting
//
// Each successful completion is priced once by the cost tracker and the
// same cost is recorded in the breaker ledger. Streams are accounted when
// they end, from provider-reported usage or a character-based estimate.
// Embeddings bypass the breaker and are not accounted.
package routing
