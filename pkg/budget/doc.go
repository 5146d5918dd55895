// Package budget implements the monthly spend circuit breaker.
//
// # States
//
// The breaker state is a pure function of the current month's ledger:
//
//	ratio = spend / limit            (0 when limit <= 0)
//	ratio >= breaker threshold  ->   OPEN       requests rejected
//	ratio >= alert threshold    ->   HALF_OPEN  requests allowed, warning logged
//	otherwise                   ->   CLOSED
//
// OPEN is latched for the rest of the month. The month boundary is detected
// lazily: the first call after the UTC year-month changes clears the ledger
// and returns the breaker to CLOSED.
//
// # Usage
//
//	breaker := budget.NewCircuitBreaker(budget.Config{
//	    MonthlyLimit:     500,
//	    AlertThreshold:   0.8,
//	    BreakerThreshold: 0.95,
//	})
//
//	if err := breaker.CheckBudget(); err != nil {
//	    return err // *BudgetExceededError
//	}
//	// ... call provider ...
//	breaker.RecordUsage(budget.UsageRecord{Provider: "azure", Model: "gpt-4o", Cost: entry.Cost})
//
// The ledger lives in memory only.
package budget
