package budget

import (
	"errors"
	"fmt"
)

// ErrBudgetExceeded is matched by BudgetExceededError via errors.Is().
var ErrBudgetExceeded = errors.New("monthly budget exceeded")

// BudgetExceededError is returned by CheckBudget while the breaker is OPEN.
type BudgetExceededError struct {
	// Spend is the USD spent in the current period.
	Spend float64

	// Limit is the configured monthly limit.
	Limit float64
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("monthly budget exceeded: spent $%.2f of $%.2f", e.Spend, e.Limit)
}

// Is implements error matching for errors.Is().
func (e *BudgetExceededError) Is(target error) bool {
	return target == ErrBudgetExceeded
}
