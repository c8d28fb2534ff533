// Package history records picked records so earlier picks can be
// recalled without another round of searching.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded pick.
type Entry struct {
	RecordID    string
	DisplayName string
	LogicalName string
	PickedAt    time.Time
}

// Store is an append-mostly pick log backed by SQLite. Re-picking a
// record bumps its row instead of inserting a duplicate.
type Store struct {
	db *sql.DB
}

// DefaultPath returns ~/.cache/dvpick/history.db, honoring DVPICK_CACHE
// as an override for tests and sandboxed installs.
func DefaultPath() (string, error) {
	if dir := os.Getenv("DVPICK_CACHE"); dir != "" {
		return filepath.Join(dir, "history.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "dvpick", "history.db"), nil
}

// Open opens (creating if needed) the pick history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open pick history: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS picks (
			record_id         TEXT NOT NULL,
			logical_name      TEXT NOT NULL,
			display_name      TEXT NOT NULL DEFAULT '',
			picked_at_unix_ms INTEGER NOT NULL,
			PRIMARY KEY (record_id, logical_name)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create pick history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record logs a pick, replacing any earlier pick of the same record.
func (s *Store) Record(ctx context.Context, e Entry) error {
	when := e.PickedAt
	if when.IsZero() {
		when = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO picks (record_id, logical_name, display_name, picked_at_unix_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(record_id, logical_name) DO UPDATE SET
			display_name = excluded.display_name,
			picked_at_unix_ms = excluded.picked_at_unix_ms
	`, e.RecordID, e.LogicalName, e.DisplayName, when.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record pick: %w", err)
	}
	return nil
}

// Recent returns up to limit picks, most recent first. An empty entity
// filter returns picks across all entities.
func (s *Store) Recent(ctx context.Context, entity string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT record_id, logical_name, display_name, picked_at_unix_ms
		FROM picks`
	args := []any{}
	if entity != "" {
		query += ` WHERE logical_name = ?`
		args = append(args, entity)
	}
	query += ` ORDER BY picked_at_unix_ms DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read pick history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.RecordID, &e.LogicalName, &e.DisplayName, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan pick history row: %w", err)
		}
		e.PickedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
