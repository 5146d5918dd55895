package costs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/relay/pkg/models"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS cost_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	tier TEXT NOT NULL,
	model TEXT NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	cost_usd REAL NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cost_entries_recorded_at ON cost_entries(recorded_at);
CREATE INDEX IF NOT EXISTS idx_cost_entries_provider ON cost_entries(provider);
`

// SQLiteJournal is an append-only SQLite log of cost entries used for
// reporting. The budget ledger is never rebuilt from it.
type SQLiteJournal struct {
	db        *sql.DB
	path      string
	closeOnce sync.Once

	insertStmt *sql.Stmt
}

// ProviderRollup is the journaled spend of one provider and tier.
type ProviderRollup struct {
	Provider     string      `json:"provider"`
	Tier         models.Tier `json:"tier"`
	Requests     int         `json:"requests"`
	InputTokens  int         `json:"input_tokens"`
	OutputTokens int         `json:"output_tokens"`
	Cost         float64     `json:"cost_usd"`
}

// OpenSQLiteJournal opens (and creates if needed) the journal database at path.
func OpenSQLiteJournal(path string) (*SQLiteJournal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	insert, err := db.Prepare(`
		INSERT INTO cost_entries (request_id, provider, tier, model, input_tokens, output_tokens, cost_usd, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare journal statement: %w", err)
	}

	return &SQLiteJournal{db: db, path: path, insertStmt: insert}, nil
}

// Append writes one entry.
func (j *SQLiteJournal) Append(ctx context.Context, e Entry) error {
	_, err := j.insertStmt.ExecContext(ctx,
		e.RequestID, e.Provider, string(e.Tier), e.Model,
		e.InputTokens, e.OutputTokens, e.Cost, e.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("append cost entry: %w", err)
	}
	return nil
}

// Rollup aggregates entries recorded at or after since, grouped by provider and tier.
func (j *SQLiteJournal) Rollup(ctx context.Context, since time.Time) ([]ProviderRollup, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT provider, tier, COUNT(*), SUM(input_tokens), SUM(output_tokens), SUM(cost_usd)
		FROM cost_entries
		WHERE recorded_at >= ?
		GROUP BY provider, tier
		ORDER BY provider, tier`, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query cost rollup: %w", err)
	}
	defer rows.Close()

	var out []ProviderRollup
	for rows.Next() {
		var r ProviderRollup
		var tier string
		if err := rows.Scan(&r.Provider, &tier, &r.Requests, &r.InputTokens, &r.OutputTokens, &r.Cost); err != nil {
			return nil, fmt.Errorf("scan cost rollup: %w", err)
		}
		r.Tier = models.Tier(tier)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Path returns the database file path.
func (j *SQLiteJournal) Path() string {
	return j.path
}

// Close releases the prepared statement and database handle.
func (j *SQLiteJournal) Close() error {
	var err error
	j.closeOnce.Do(func() {
		j.insertStmt.Close()
		err = j.db.Close()
	})
	return err
}
