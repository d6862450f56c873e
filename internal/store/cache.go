// Package store persists fetched contribution grids in SQLite so a graph
// can be regenerated offline.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/neuralgraph/internal/contrib"
	_ "modernc.org/sqlite" // SQLite driver
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS grids (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    login TEXT NOT NULL,
    levels TEXT NOT NULL,     -- 371 digits, column-major
    active INTEGER NOT NULL,
    fetched_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_grids_login ON grids(login, fetched_at);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// Entry summarizes a cached grid.
type Entry struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	Active    int       `json:"active"`
	FetchedAt time.Time `json:"fetched_at"`
}

// GridCache is a SQLite-backed contrib.GridCache.
type GridCache struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Open opens (creating if needed) the cache database in dir.
func Open(dir string) (*GridCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, "grids.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &GridCache{db: db, dbPath: dbPath, now: time.Now}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (c *GridCache) Path() string {
	return c.dbPath
}

// Save stores g as the newest grid for login.
func (c *GridCache) Save(ctx context.Context, login string, g *contrib.Grid) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO grids (login, levels, active, fetched_at) VALUES (?, ?, ?, ?)`,
		login, encodeGrid(g), g.Active(), c.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert grid: %w", err)
	}
	return nil
}

// Latest returns the newest grid cached for login.
// It returns contrib.ErrNoCachedGrid if there is none.
func (c *GridCache) Latest(ctx context.Context, login string) (*contrib.Grid, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var levels, fetchedAt string
	err := c.db.QueryRowContext(ctx,
		`SELECT levels, fetched_at FROM grids WHERE login = ? ORDER BY fetched_at DESC, id DESC LIMIT 1`,
		login).Scan(&levels, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, contrib.ErrNoCachedGrid
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query grid: %w", err)
	}

	g, err := decodeGrid(levels)
	if err != nil {
		return nil, time.Time{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse fetched_at: %w", err)
	}
	return g, at, nil
}

// List returns all cached entries, newest first.
func (c *GridCache) List(ctx context.Context) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, login, active, fetched_at FROM grids ORDER BY fetched_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list grids: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var fetchedAt string
		if err := rows.Scan(&e.ID, &e.Login, &e.Active, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grid: %w", err)
		}
		at, err := time.Parse(time.RFC3339Nano, fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fetched_at for grid %d: %w", e.ID, err)
		}
		e.FetchedAt = at
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes every cached grid and returns how many were removed.
func (c *GridCache) Clear(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, `DELETE FROM grids`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear grids: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (c *GridCache) Close() error {
	return c.db.Close()
}

// encodeGrid writes one digit per cell, column-major.
func encodeGrid(g *contrib.Grid) string {
	var b strings.Builder
	b.Grow(contrib.Weeks * contrib.Days)
	for x := 0; x < contrib.Weeks; x++ {
		for y := 0; y < contrib.Days; y++ {
			b.WriteByte(byte('0' + g.At(x, y)))
		}
	}
	return b.String()
}

func decodeGrid(s string) (*contrib.Grid, error) {
	if len(s) != contrib.Weeks*contrib.Days {
		return nil, fmt.Errorf("cached grid has %d cells, want %d", len(s), contrib.Weeks*contrib.Days)
	}
	var g contrib.Grid
	for i := 0; i < len(s); i++ {
		d := s[i]
		if d < '0' || d > byte('0'+contrib.MaxLevel) {
			return nil, fmt.Errorf("cached grid has invalid level %q at %d", d, i)
		}
		g.Set(i/contrib.Days, i%contrib.Days, contrib.Level(d-'0'))
	}
	return &g, nil
}
