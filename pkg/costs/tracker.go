package costs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/relay/pkg/models"
)

// Pricer prices token usage for a (provider, tier) pair.
// *models.Manager satisfies it.
type Pricer interface {
	EstimateCost(provider string, tier models.Tier, inputTokens, outputTokens int) (float64, error)
}

// Journal receives every recorded entry for external reporting.
// It is write-only from the tracker's point of view.
type Journal interface {
	Append(ctx context.Context, e Entry) error
}

// Tracker computes and aggregates the cost of successful provider calls.
// It is safe for concurrent use.
type Tracker struct {
	pricer  Pricer
	journal Journal
	now     func() time.Time

	mu         sync.Mutex
	entries    []Entry
	total      Breakdown
	byProvider map[string]*Breakdown
	byTier     map[models.Tier]*Breakdown
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithJournal forwards every recorded entry to j.
func WithJournal(j Journal) TrackerOption {
	return func(t *Tracker) {
		t.journal = j
	}
}

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a cost tracker pricing usage with p.
func NewTracker(p Pricer, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		pricer:     p,
		now:        time.Now,
		byProvider: make(map[string]*Breakdown),
		byTier:     make(map[models.Tier]*Breakdown),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CalculateCost returns the linear cost of the given usage without recording it.
func (t *Tracker) CalculateCost(provider string, tier models.Tier, inputTokens, outputTokens int) (float64, error) {
	return t.pricer.EstimateCost(provider, tier, inputTokens, outputTokens)
}

// Record prices u once, appends the resulting entry and returns it.
// The caller forwards entry.Cost to the budget ledger so both ledgers agree.
//
// Usage that cannot be priced is still recorded, with zero cost and
// Unpriced set; the pricing error is returned together with that entry.
// Journal failures are logged and do not fail the record.
func (t *Tracker) Record(ctx context.Context, u Usage) (Entry, error) {
	cost, priceErr := t.pricer.EstimateCost(u.Provider, u.Tier, u.InputTokens, u.OutputTokens)
	if priceErr != nil {
		cost = 0
		priceErr = fmt.Errorf("failed to price usage: %w", priceErr)
	}

	entry := Entry{
		Timestamp:    t.now(),
		Provider:     u.Provider,
		Tier:         u.Tier,
		Model:        u.Model,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		Cost:         cost,
		RequestID:    u.RequestID,
		Unpriced:     priceErr != nil,
	}

	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.total.add(entry)
	bucket(t.byProvider, entry.Provider).add(entry)
	bucket(t.byTier, entry.Tier).add(entry)
	t.mu.Unlock()

	if t.journal != nil {
		if err := t.journal.Append(ctx, entry); err != nil {
			slog.Warn("failed to journal cost entry",
				"request_id", entry.RequestID,
				"provider", entry.Provider,
				"error", err,
			)
		}
	}

	return entry, priceErr
}

// Summary returns totals and per-provider and per-tier breakdowns.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		TotalCost:         t.total.Cost,
		TotalRequests:     t.total.Requests,
		TotalInputTokens:  t.total.InputTokens,
		TotalOutputTokens: t.total.OutputTokens,
		ByProvider:        make(map[string]Breakdown, len(t.byProvider)),
		ByTier:            make(map[models.Tier]Breakdown, len(t.byTier)),
	}
	for name, b := range t.byProvider {
		s.ByProvider[name] = *b
	}
	for tier, b := range t.byTier {
		s.ByTier[tier] = *b
	}
	return s
}

// Entries returns a copy of every recorded entry in record order.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func bucket[K comparable](m map[K]*Breakdown, key K) *Breakdown {
	b, ok := m[key]
	if !ok {
		b = &Breakdown{}
		m[key] = b
	}
	return b
}
