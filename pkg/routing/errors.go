package routing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAllProvidersFailed is matched by AllProvidersFailedError via errors.Is().
var ErrAllProvidersFailed = errors.New("all providers failed")

// AllProvidersFailedError is returned when every provider in the fallback
// chain was unavailable or failed. It is an availability failure: callers
// may retry later. Budget rejections are reported as
// *budget.BudgetExceededError instead and never wrapped here.
type AllProvidersFailedError struct {
	// Chain is the full fallback chain that was walked, primary first.
	Chain []string

	// Errors holds the failure of each chain member, keyed by provider.
	Errors map[string]error
}

// Error implements the error interface.
func (e *AllProvidersFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all providers failed (chain: %s)", strings.Join(e.Chain, ", "))
	for _, name := range e.Chain {
		if err, ok := e.Errors[name]; ok {
			fmt.Fprintf(&b, "; %s: %v", name, err)
		}
	}
	return b.String()
}

// Is implements error matching for errors.Is().
func (e *AllProvidersFailedError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}

// Unwrap returns the per-provider failures in chain order.
func (e *AllProvidersFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, name := range e.Chain {
		if err, ok := e.Errors[name]; ok {
			errs = append(errs, err)
		}
	}
	return errs
}
