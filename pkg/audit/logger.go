// Package audit records routing decisions, in particular cloud requests
// blocked by paranoid mode or budget caps, in a dedicated SQLite database.
// Query text is never persisted; only a hash and a short prefix.
package audit

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/semgate-ai/semgate/pkg/models"
)

// Logger writes and queries audit events.
type Logger struct {
	db   *sql.DB
	cfg  models.AuditConfig
	done chan struct{}
	wg   sync.WaitGroup
}

// New opens the audit database and creates the schema.
func New(cfg models.AuditConfig) (*Logger, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}

	l := &Logger{
		db:   db,
		cfg:  cfg,
		done: make(chan struct{}),
	}

	if cfg.RetentionDays > 0 {
		l.wg.Add(1)
		go l.retentionLoop()
	}

	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS audit_events (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id   TEXT NOT NULL,
		event        TEXT NOT NULL,
		tier         TEXT NOT NULL,
		query_hash   TEXT NOT NULL,
		query_prefix TEXT NOT NULL,
		reason       TEXT,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms   INTEGER NOT NULL DEFAULT 0,
		created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return err
	}
	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_event ON audit_events(event)`); err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_events(created_at)`)
	return err
}

// Log inserts an audit event.
func (l *Logger) Log(ctx context.Context, ev models.AuditEvent) error {
	if l == nil || l.db == nil {
		return nil
	}
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO audit_events
		 (request_id, event, tier, query_hash, query_prefix, reason, total_tokens, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RequestID, ev.Event, string(ev.Tier), ev.QueryHash, ev.QueryPrefix,
		ev.Reason, ev.TotalTokens, ev.LatencyMs, createdAt,
	)
	return err
}

// LogBlocked records a cloud request that was denied.
func (l *Logger) LogBlocked(ctx context.Context, requestID, query, reason string, tier models.Tier) error {
	hash, prefix := HashQuery(query)
	return l.Log(ctx, models.AuditEvent{
		RequestID:   requestID,
		Event:       models.AuditEventBlocked,
		Tier:        tier,
		QueryHash:   hash,
		QueryPrefix: prefix,
		Reason:      reason,
	})
}

// Query returns events matching the given options, newest first.
func (l *Logger) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEvent, error) {
	q := `SELECT request_id, event, tier, query_hash, query_prefix, reason, total_tokens, latency_ms, created_at
		FROM audit_events WHERE 1=1`
	var args []any

	if opts.RequestID != "" {
		q += " AND request_id = ?"
		args = append(args, opts.RequestID)
	}
	if opts.Event != "" {
		q += " AND event = ?"
		args = append(args, opts.Event)
	}
	if opts.Tier != "" {
		q += " AND tier = ?"
		args = append(args, string(opts.Tier))
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since)
	}

	q += " ORDER BY created_at DESC LIMIT ?"
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var ev models.AuditEvent
		var tier string
		var reason sql.NullString
		if err := rows.Scan(&ev.RequestID, &ev.Event, &tier, &ev.QueryHash,
			&ev.QueryPrefix, &reason, &ev.TotalTokens, &ev.LatencyMs, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		ev.Tier = models.Tier(tier)
		ev.Reason = reason.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Cleanup deletes events older than the configured retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -l.cfg.RetentionDays)
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM audit_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}

func (l *Logger) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			_, _ = l.Cleanup(context.Background())
		}
	}
}

// HashQuery returns the SHA-256 hex hash and a short prefix of a query for
// correlation without retaining the text.
func HashQuery(query string) (hash, prefix string) {
	h := sha256.Sum256([]byte(query))
	hash = hex.EncodeToString(h[:])
	prefix = query
	if runes := []rune(query); len(runes) > 24 {
		prefix = string(runes[:24])
	}
	return hash, prefix
}
