// Package storage persists an audit trail of served responses in SQLite.
// Auditing is best-effort: a write failure is logged and never blocks a reply.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id      TEXT NOT NULL,
	query           TEXT NOT NULL,
	intent          TEXT NOT NULL,
	language        TEXT NOT NULL,
	scenario_id     INTEGER NOT NULL,
	scenario_name   TEXT NOT NULL,
	link_strategy   TEXT NOT NULL,
	link_url        TEXT NOT NULL DEFAULT '',
	link_confidence REAL NOT NULL DEFAULT 0,
	guard_repaired  INTEGER NOT NULL DEFAULT 0,
	duration_ms     INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_log(created_at);
CREATE INDEX IF NOT EXISTS idx_audit_scenario ON audit_log(scenario_id);
`

// Entry is one audited request/response pair.
type Entry struct {
	RequestID      string
	Query          string
	Intent         string
	Language       string
	ScenarioID     int
	ScenarioName   string
	LinkStrategy   string
	LinkURL        string
	LinkConfidence float64
	GuardRepaired  bool
	DurationMS     int64
	CreatedAt      time.Time
}

// AuditStore records served responses in a SQLite database.
type AuditStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditStore opens (or creates) the audit database at path.
func NewAuditStore(path string, logger *zap.Logger) (*AuditStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}
	return &AuditStore{db: db, logger: logger}, nil
}

// Record inserts one audit entry. Callers treat errors as non-fatal.
func (s *AuditStore) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log
			(request_id, query, intent, language, scenario_id, scenario_name,
			 link_strategy, link_url, link_confidence, guard_repaired, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Query, e.Intent, e.Language, e.ScenarioID, e.ScenarioName,
		e.LinkStrategy, e.LinkURL, e.LinkConfidence, e.GuardRepaired, e.DurationMS, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, query, intent, language, scenario_id, scenario_name,
		       link_strategy, link_url, link_confidence, guard_repaired, duration_ms, created_at
		FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RequestID, &e.Query, &e.Intent, &e.Language,
			&e.ScenarioID, &e.ScenarioName, &e.LinkStrategy, &e.LinkURL,
			&e.LinkConfidence, &e.GuardRepaired, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ScenarioCounts returns how many responses each scenario served.
func (s *AuditStore) ScenarioCounts(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scenario_id, COUNT(*) FROM audit_log GROUP BY scenario_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count scenarios: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan scenario count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// Close closes the underlying database.
func (s *AuditStore) Close() error {
	return s.db.Close()
}
