package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a persistent descriptor cache backed by SQLite. Schema
// descriptors change rarely (solution imports), so entries carry a TTL
// rather than any invalidation protocol.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// DefaultStorePath returns ~/.cache/dvpick/metadata.db, honoring
// DVPICK_CACHE as an override for tests and sandboxed installs.
func DefaultStorePath() (string, error) {
	if dir := os.Getenv("DVPICK_CACHE"); dir != "" {
		return filepath.Join(dir, "metadata.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "dvpick", "metadata.db"), nil
}

// OpenStore opens (creating if needed) the cache database at path.
// Entries older than ttl are treated as absent.
func OpenStore(path string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entity_metadata (
			logical_name       TEXT PRIMARY KEY,
			entity_set         TEXT NOT NULL,
			primary_id         TEXT NOT NULL,
			primary_name       TEXT NOT NULL DEFAULT '',
			fetched_at_unix_ms INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create metadata cache schema: %w", err)
	}

	return &Store{db: db, ttl: ttl}, nil
}

// Get returns the cached descriptor, or (nil, nil) when absent or expired.
func (s *Store) Get(ctx context.Context, logicalName string) (*Descriptor, error) {
	cutoff := time.Now().Add(-s.ttl).UnixMilli()

	row := s.db.QueryRowContext(ctx, `
		SELECT logical_name, entity_set, primary_id, primary_name
		FROM entity_metadata
		WHERE logical_name = ? AND fetched_at_unix_ms > ?
	`, logicalName, cutoff)

	var d Descriptor
	err := row.Scan(&d.LogicalName, &d.EntitySetName, &d.PrimaryIDAttribute, &d.PrimaryNameAttribute)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read metadata cache: %w", err)
	}
	return &d, nil
}

// Put upserts a descriptor with the current timestamp.
func (s *Store) Put(ctx context.Context, d *Descriptor) error {
	if d == nil {
		return errors.New("descriptor cannot be nil")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_metadata (logical_name, entity_set, primary_id, primary_name, fetched_at_unix_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(logical_name) DO UPDATE SET
			entity_set = excluded.entity_set,
			primary_id = excluded.primary_id,
			primary_name = excluded.primary_name,
			fetched_at_unix_ms = excluded.fetched_at_unix_ms
	`, d.LogicalName, d.EntitySetName, d.PrimaryIDAttribute, d.PrimaryNameAttribute, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write metadata cache: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
