package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Index is a SQLite table of runs, for listing without walking run
// directories.
type Index struct {
	db *sql.DB
}

func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		dt REAL NOT NULL,
		ticks INTEGER NOT NULL,
		workers INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		clamps INTEGER NOT NULL,
		elapsed_s REAL NOT NULL,
		raw_json TEXT NOT NULL
	);`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_recorded ON runs(recorded_at);`)
	return err
}

func (x *Index) Close() error { return x.db.Close() }

// Record inserts or replaces the row for meta.ID.
func (x *Index) Record(ctx context.Context, meta *RunMetadata) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	clamps := 0
	for _, c := range meta.Clamps {
		clamps += c
	}
	_, err = x.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, name, recorded_at, seed, dt, ticks, workers, agents, clamps, elapsed_s, raw_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Name, meta.Timestamp.UTC().Format(timeLayout), meta.Seed, meta.Dt,
		int64(meta.Ticks), meta.Workers, meta.Agents, clamps, meta.Elapsed, string(raw),
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (x *Index) Recent(ctx context.Context, limit int) ([]RunMetadata, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT raw_json FROM runs ORDER BY recorded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunMetadata
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}
