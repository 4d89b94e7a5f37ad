// Package audit persists a per-request trail of gateway activity,
// including failed authentication attempts, to a local SQLite database.
// Recording is best-effort: an audit failure never fails the request it
// describes.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const defaultBusyTimeout = 5 * time.Second

var schema = []string{
	`CREATE TABLE IF NOT EXISTS audit_log (
        id         TEXT PRIMARY KEY,
        ts         TEXT NOT NULL,
        method     TEXT NOT NULL,
        route      TEXT NOT NULL,
        status     INTEGER NOT NULL,
        kind       TEXT NOT NULL,
        detail     TEXT NOT NULL DEFAULT ''
    )`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_ts ON audit_log(ts)`,
}

// Entry is one recorded request outcome.
type Entry struct {
	ID     string
	Time   time.Time
	Method string
	Route  string
	Status int
	Kind   string
	Detail string
}

// Store provides access to the audit database.
type Store struct {
	db   *sql.DB
	path string
}

// Open initialises the audit store at dbPath, creating the schema on first
// use.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("audit: open sqlite store: %w", err)
	}

	// SQLite serialises writers; a single connection avoids SQLITE_BUSY
	// churn under concurrent request handlers.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", defaultBusyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("audit: apply pragma: %w", err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("audit: apply schema: %w", err)
		}
	}

	return &Store{db: db, path: dbPath}, nil
}

// Record inserts one entry. A zero ID or Time is filled in.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO audit_log (id, ts, method, route, status, kind, detail)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Time.UTC().Format(time.RFC3339Nano),
		entry.Method,
		entry.Route,
		entry.Status,
		entry.Kind,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("audit: record entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT id, ts, method, route, status, kind, detail
        FROM audit_log ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var ts string
		if err := rows.Scan(&entry.ID, &ts, &entry.Method, &entry.Route, &entry.Status, &entry.Kind, &entry.Detail); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		if parsed, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			entry.Time = parsed
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
