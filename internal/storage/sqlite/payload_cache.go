// Package sqlite provides the on-disk payload cache used by the crawl
// tooling. A crawl that dies halfway can be rerun without refetching every
// kitty the API already served.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/lineage/pkg/types"
)

// ErrNotFound is returned when no payload is cached for an id.
var ErrNotFound = errors.New("sqlite: payload not found")

// Schema creates the payload cache table.
const Schema = `
CREATE TABLE IF NOT EXISTS kitty_payloads (
    id         INTEGER PRIMARY KEY,
    fetched_at TEXT NOT NULL,
    payload    TEXT NOT NULL
);
`

// PayloadCache stores raw kitty payloads keyed by id.
type PayloadCache struct {
	db *sql.DB
}

// Open opens (or creates) a payload cache at the given DSN. Use ":memory:"
// for tests.
func Open(dsn string) (*PayloadCache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite supports one concurrent writer; a single connection
	// serializes writes and avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &PayloadCache{db: db}, nil
}

// Close closes the underlying database.
func (c *PayloadCache) Close() error {
	return c.db.Close()
}

// Put stores or replaces the payload for a kitty.
func (c *PayloadCache) Put(ctx context.Context, id int64, raw types.RawKitty) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("sqlite: marshal payload %d: %w", id, err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO kitty_payloads (id, fetched_at, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			payload    = excluded.payload
	`, id, time.Now().UTC().Format(time.RFC3339), string(data))
	if err != nil {
		return fmt.Errorf("sqlite: store payload %d: %w", id, err)
	}
	return nil
}

// Get returns the cached payload for id, or ErrNotFound.
func (c *PayloadCache) Get(ctx context.Context, id int64) (types.RawKitty, error) {
	var data string
	err := c.db.QueryRowContext(ctx,
		"SELECT payload FROM kitty_payloads WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load payload %d: %w", id, err)
	}

	var raw types.RawKitty
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("sqlite: decode payload %d: %w", id, err)
	}
	return raw, nil
}

// Has reports whether a payload is cached for id.
func (c *PayloadCache) Has(ctx context.Context, id int64) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx,
		"SELECT 1 FROM kitty_payloads WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: check payload %d: %w", id, err)
	}
	return true, nil
}

// Count returns the number of cached payloads.
func (c *PayloadCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM kitty_payloads").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count payloads: %w", err)
	}
	return n, nil
}
