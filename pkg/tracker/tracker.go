// Package tracker records per-query tier, token, and cost data in SQLite.
// It backs the /stats endpoint, the CLI, and budget enforcement.
package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/semgate-ai/semgate/pkg/models"
)

// Tracker records and queries routed-query usage.
type Tracker interface {
	// Record stores a query record.
	Record(ctx context.Context, rec models.QueryRecord) error
	// Summary returns per-tier aggregates since a given time.
	Summary(ctx context.Context, since time.Time) ([]models.TierSummary, error)
	// Totals returns aggregate usage since a given time.
	Totals(ctx context.Context, since time.Time) (models.UsageTotals, error)
	// SpentSince returns total USD spent on metered tiers since a given time.
	SpentSince(ctx context.Context, since time.Time) (float64, error)
	// Close releases resources.
	Close() error
}

// SQLiteTracker implements Tracker with a SQLite database.
type SQLiteTracker struct {
	db *sql.DB
}

const createQueryTable = `
CREATE TABLE IF NOT EXISTS query_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tier TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	total_tokens INTEGER NOT NULL,
	cost_usd REAL NOT NULL,
	saved_usd REAL NOT NULL,
	cache_hit INTEGER NOT NULL DEFAULT 0,
	latency_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_query_tier_time ON query_records(tier, created_at);
CREATE INDEX IF NOT EXISTS idx_query_time ON query_records(created_at);
`

// New creates a SQLiteTracker and runs auto-migration.
func New(dbPath string) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open tracker db: %w", err)
	}

	if _, err := db.Exec(createQueryTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate tracker db: %w", err)
	}

	return &SQLiteTracker{db: db}, nil
}

// Record implements Tracker.
func (t *SQLiteTracker) Record(ctx context.Context, rec models.QueryRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO query_records
		 (tier, model, prompt_tokens, completion_tokens, total_tokens,
		  cost_usd, saved_usd, cache_hit, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Tier), rec.Model, rec.PromptTokens, rec.CompletionTokens,
		rec.TotalTokens, rec.CostUSD, rec.SavedUSD, boolToInt(rec.CacheHit),
		rec.LatencyMs, createdAt,
	)
	if err != nil {
		return fmt.Errorf("record query: %w", err)
	}
	return nil
}

// Summary implements Tracker.
func (t *SQLiteTracker) Summary(ctx context.Context, since time.Time) ([]models.TierSummary, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT tier, COUNT(*), SUM(total_tokens), SUM(cost_usd), SUM(saved_usd), AVG(latency_ms)
		 FROM query_records WHERE created_at >= ?
		 GROUP BY tier ORDER BY SUM(cost_usd) DESC`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.TierSummary
	for rows.Next() {
		var s models.TierSummary
		var tier string
		if err := rows.Scan(&tier, &s.QueryCount, &s.TotalTokens, &s.CostUSD, &s.SavedUSD, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		s.Tier = models.Tier(tier)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Totals implements Tracker.
func (t *SQLiteTracker) Totals(ctx context.Context, since time.Time) (models.UsageTotals, error) {
	var tot models.UsageTotals
	err := t.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN tier = 'cache' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN tier = 'local' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN tier NOT IN ('cache', 'local') THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(total_tokens), 0),
		        COALESCE(SUM(cost_usd), 0),
		        COALESCE(SUM(saved_usd), 0)
		 FROM query_records WHERE created_at >= ?`,
		since.UTC(),
	).Scan(&tot.Queries, &tot.CacheHits, &tot.LocalQueries, &tot.CloudQueries,
		&tot.TokensProcessed, &tot.SpentUSD, &tot.SavedUSD)
	if err != nil {
		return models.UsageTotals{}, fmt.Errorf("query totals: %w", err)
	}
	return tot, nil
}

// SpentSince implements Tracker.
func (t *SQLiteTracker) SpentSince(ctx context.Context, since time.Time) (float64, error) {
	var spent float64
	err := t.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(cost_usd), 0) FROM query_records WHERE created_at >= ?`,
		since.UTC(),
	).Scan(&spent)
	if err != nil {
		return 0, fmt.Errorf("query spend: %w", err)
	}
	return spent, nil
}

// Close implements Tracker.
func (t *SQLiteTracker) Close() error {
	return t.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
