package models

import (
	"errors"
	"fmt"
)

// ErrModelNotFound is matched by ModelNotFoundError via errors.Is().
var ErrModelNotFound = errors.New("model not found")

// ModelNotFoundError is returned when a provider has no model configured
// for the requested tier, or the provider is not in the catalog at all.
type ModelNotFoundError struct {
	// Provider is the requested provider name.
	Provider string

	// Tier is the requested tier.
	Tier Tier
}

// Error implements the error interface.
func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("no %s model configured for provider %q", e.Tier, e.Provider)
}

// Is implements error matching for errors.Is().
func (e *ModelNotFoundError) Is(target error) bool {
	return target == ErrModelNotFound
}
