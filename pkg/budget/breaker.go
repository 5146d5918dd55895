package budget

import (
	"log/slog"
	"sync"
	"time"
)

// periodLayout formats the calendar-month token that keys the ledger.
const periodLayout = "2006-01"

// Observer is notified of breaker state changes and status snapshots.
// Calls happen outside the breaker lock. Status snapshots are delivered in
// the order they were taken; a snapshot older than one already delivered
// is dropped.
type Observer interface {
	ObserveTransition(from, to CircuitState)
	ObserveStatus(s Status)
}

// CircuitBreaker gates requests on monthly spend.
//
// The state is derived from the ledger on every access: ratio >= breaker
// threshold is OPEN, ratio >= alert threshold is HALF_OPEN, anything lower
// is CLOSED. Once OPEN the breaker stays OPEN until the calendar month
// changes, even if the limit is raised. The month change is detected
// lazily on the first access in the new month, which clears the ledger.
//
// All ledger reads, writes and resets happen under a single mutex.
type CircuitBreaker struct {
	now      func() time.Time
	observer Observer

	mu      sync.Mutex
	config  Config
	ledger  []UsageRecord
	period  string
	state   CircuitState
	latched bool
	seq     uint64

	observeMu sync.Mutex
	observed  uint64
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithClock overrides the wall clock used for period detection.
func WithClock(now func() time.Time) Option {
	return func(b *CircuitBreaker) {
		b.now = now
	}
}

// WithObserver registers an observer for transitions and snapshots.
func WithObserver(o Observer) Option {
	return func(b *CircuitBreaker) {
		b.observer = o
	}
}

// NewCircuitBreaker creates a breaker in the CLOSED state for the current month.
func NewCircuitBreaker(cfg Config, opts ...Option) *CircuitBreaker {
	b := &CircuitBreaker{
		now:    time.Now,
		config: cfg,
		state:  StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.period = periodToken(b.now())
	return b
}

// transition is a state change detected under the lock and reported after it.
type transition struct {
	from, to CircuitState
	status   Status
}

// CheckBudget returns a *BudgetExceededError when the breaker is OPEN.
// HALF_OPEN does not block.
func (b *CircuitBreaker) CheckBudget() error {
	b.mu.Lock()
	events := b.refreshLocked()
	status := b.statusLocked()
	b.mu.Unlock()

	b.emit(events)

	if status.State == StateOpen {
		return &BudgetExceededError{Spend: status.Spend, Limit: status.Limit}
	}
	return nil
}

// RecordUsage appends rec to the ledger and re-evaluates the state.
func (b *CircuitBreaker) RecordUsage(rec UsageRecord) {
	b.mu.Lock()
	events := b.refreshLocked()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = b.now()
	}
	b.ledger = append(b.ledger, rec)
	events = append(events, b.evaluateLocked()...)
	status, seq := b.snapshotLocked()
	b.mu.Unlock()

	b.emit(events)
	b.observe(seq, status)
}

// Status returns a snapshot of the current period.
func (b *CircuitBreaker) Status() Status {
	b.mu.Lock()
	events := b.refreshLocked()
	status, seq := b.snapshotLocked()
	b.mu.Unlock()

	b.emit(events)
	b.observe(seq, status)
	return status
}

// State returns the current state.
func (b *CircuitBreaker) State() CircuitState {
	return b.Status().State
}

// UsageByProvider returns the period spend per provider.
func (b *CircuitBreaker) UsageByProvider() map[string]float64 {
	return b.usageBy(func(r UsageRecord) string { return r.Provider })
}

// UsageByModel returns the period spend per model.
func (b *CircuitBreaker) UsageByModel() map[string]float64 {
	return b.usageBy(func(r UsageRecord) string { return r.Model })
}

// UpdateConfig replaces the limit and thresholds. An OPEN breaker stays OPEN
// until the monthly reset.
func (b *CircuitBreaker) UpdateConfig(cfg Config) {
	b.mu.Lock()
	b.config = cfg
	events := b.refreshLocked()
	b.mu.Unlock()

	b.emit(events)
	slog.Info("budget limits updated",
		"monthly_limit", cfg.MonthlyLimit,
		"alert_threshold", cfg.AlertThreshold,
		"breaker_threshold", cfg.BreakerThreshold,
	)
}

func (b *CircuitBreaker) usageBy(key func(UsageRecord) string) map[string]float64 {
	b.mu.Lock()
	events := b.refreshLocked()
	out := make(map[string]float64)
	for _, r := range b.ledger {
		out[key(r)] += r.Cost
	}
	b.mu.Unlock()

	b.emit(events)
	return out
}

// refreshLocked applies a pending monthly reset and re-derives the state.
func (b *CircuitBreaker) refreshLocked() []transition {
	var events []transition

	now := b.now()
	if token := periodToken(now); token != b.period {
		prev := b.state
		b.ledger = nil
		b.period = token
		b.state = StateClosed
		b.latched = false

		slog.Info("budget period reset",
			"period", token,
			"previous_state", prev.String(),
		)
		if prev != StateClosed {
			events = append(events, transition{from: prev, to: StateClosed, status: b.statusLocked()})
		}
	}

	return append(events, b.evaluateLocked()...)
}

// evaluateLocked derives the state from the ledger and records any change.
func (b *CircuitBreaker) evaluateLocked() []transition {
	next := stateFor(b.ratio(b.spendLocked()), b.config)
	if b.latched {
		next = StateOpen
	}
	if next == StateOpen {
		b.latched = true
	}
	if next == b.state {
		return nil
	}

	prev := b.state
	b.state = next
	return []transition{{from: prev, to: next, status: b.statusLocked()}}
}

// snapshotLocked returns the status with a sequence number ordering it
// against other snapshots.
func (b *CircuitBreaker) snapshotLocked() (Status, uint64) {
	b.seq++
	return b.statusLocked(), b.seq
}

// observe forwards a snapshot unless a newer one was already delivered.
func (b *CircuitBreaker) observe(seq uint64, status Status) {
	if b.observer == nil {
		return
	}
	b.observeMu.Lock()
	defer b.observeMu.Unlock()
	if seq < b.observed {
		return
	}
	b.observed = seq
	b.observer.ObserveStatus(status)
}

func (b *CircuitBreaker) statusLocked() Status {
	spend := b.spendLocked()
	start := periodStart(b.now())
	return Status{
		Limit:        b.config.MonthlyLimit,
		Spend:        spend,
		Remaining:    max(0, b.config.MonthlyLimit-spend),
		Ratio:        b.ratio(spend),
		State:        b.state,
		PeriodStart:  start,
		PeriodEnd:    start.AddDate(0, 1, 0),
		RequestCount: len(b.ledger),
	}
}

func (b *CircuitBreaker) spendLocked() float64 {
	var total float64
	for _, r := range b.ledger {
		total += r.Cost
	}
	return total
}

func (b *CircuitBreaker) ratio(spend float64) float64 {
	if b.config.MonthlyLimit <= 0 {
		return 0
	}
	return spend / b.config.MonthlyLimit
}

// emit logs warnings for entering OPEN, or HALF_OPEN from CLOSED, and
// forwards every transition to the observer.
func (b *CircuitBreaker) emit(events []transition) {
	for _, ev := range events {
		switch {
		case ev.to == StateOpen:
			slog.Warn("budget circuit breaker opened, blocking requests until monthly reset",
				"spend", ev.status.Spend,
				"limit", ev.status.Limit,
				"ratio", ev.status.Ratio,
				"period_end", ev.status.PeriodEnd,
			)
		case ev.to == StateHalfOpen && ev.from == StateClosed:
			slog.Warn("budget alert threshold reached",
				"spend", ev.status.Spend,
				"limit", ev.status.Limit,
				"ratio", ev.status.Ratio,
			)
		}
		if b.observer != nil {
			b.observer.ObserveTransition(ev.from, ev.to)
		}
	}
}

func stateFor(ratio float64, cfg Config) CircuitState {
	switch {
	case ratio >= cfg.BreakerThreshold && cfg.MonthlyLimit > 0:
		return StateOpen
	case ratio >= cfg.AlertThreshold && cfg.MonthlyLimit > 0:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

func periodToken(t time.Time) string {
	return t.UTC().Format(periodLayout)
}

func periodStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
