package budget

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config holds the monthly budget and the breaker thresholds.
// Thresholds are fractions of the limit in [0, 1] with AlertThreshold <= BreakerThreshold.
type Config struct {
	// MonthlyLimit is the USD budget per calendar month. A limit <= 0
	// disables the breaker: the usage ratio is always 0.
	MonthlyLimit float64

	// AlertThreshold is the ratio at which the breaker enters HALF_OPEN.
	AlertThreshold float64

	// BreakerThreshold is the ratio at which the breaker enters OPEN.
	BreakerThreshold float64
}

// CircuitState is the budget breaker state.
type CircuitState int

const (
	// StateClosed allows requests; spend is below the alert threshold.
	StateClosed CircuitState = iota

	// StateHalfOpen allows requests; spend is past the alert threshold.
	StateHalfOpen

	// StateOpen blocks requests until the next monthly reset.
	StateOpen
)

// String returns the state name.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its name.
func (s CircuitState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state name written by MarshalJSON.
func (s *CircuitState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "closed":
		*s = StateClosed
	case "half_open":
		*s = StateHalfOpen
	case "open":
		*s = StateOpen
	default:
		return fmt.Errorf("unknown circuit state %q", name)
	}
	return nil
}

// UsageRecord is one successful call in the monthly ledger.
type UsageRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Cost         float64   `json:"cost_usd"`
	RequestID    string    `json:"request_id"`
}

// Status is a snapshot of the current budget period.
type Status struct {
	Limit        float64      `json:"limit_usd"`
	Spend        float64      `json:"spend_usd"`
	Remaining    float64      `json:"remaining_usd"`
	Ratio        float64      `json:"usage_ratio"`
	State        CircuitState `json:"state"`
	PeriodStart  time.Time    `json:"period_start"`
	PeriodEnd    time.Time    `json:"period_end"`
	RequestCount int          `json:"request_count"`
}
