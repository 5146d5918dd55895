package costs

import (
	"time"

	"mercator-hq/relay/pkg/models"
)

// Usage is the token consumption of one successful provider call.
type Usage struct {
	Provider     string
	Tier         models.Tier
	Model        string
	InputTokens  int
	OutputTokens int
	RequestID    string
}

// Entry is an immutable cost fact recorded for one successful call.
// Its Cost is the single value forwarded to the budget ledger.
type Entry struct {
	Timestamp    time.Time   `json:"timestamp"`
	Provider     string      `json:"provider"`
	Tier         models.Tier `json:"tier"`
	Model        string      `json:"model"`
	InputTokens  int         `json:"input_tokens"`
	OutputTokens int         `json:"output_tokens"`
	Cost         float64     `json:"cost_usd"`
	RequestID    string      `json:"request_id"`

	// Unpriced marks an entry whose usage could not be priced. Its Cost
	// is zero.
	Unpriced bool `json:"unpriced,omitempty"`
}

// Breakdown aggregates entries along one dimension.
type Breakdown struct {
	Cost         float64 `json:"cost_usd"`
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
}

func (b *Breakdown) add(e Entry) {
	b.Cost += e.Cost
	b.Requests++
	b.InputTokens += e.InputTokens
	b.OutputTokens += e.OutputTokens
}

// Summary is a snapshot of all recorded costs.
type Summary struct {
	TotalCost         float64                   `json:"total_cost_usd"`
	TotalRequests     int                       `json:"total_requests"`
	TotalInputTokens  int                       `json:"total_input_tokens"`
	TotalOutputTokens int                       `json:"total_output_tokens"`
	ByProvider        map[string]Breakdown      `json:"by_provider"`
	ByTier            map[models.Tier]Breakdown `json:"by_tier"`
}
