package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"dcflab/pkg/core/simulation"
)

// RunLog persists run history and last-used settings to a local SQLite
// file. The CLI uses it so analysts keep history without a server
// database; the driver is pure Go, so no cgo toolchain is needed.
type RunLog struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenRunLog opens (or creates) the SQLite database and runs migrations.
func OpenRunLog(dbPath string) (*RunLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so a reader (report generation) never blocks the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	l := &RunLog{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return l, nil
}

func (l *RunLog) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			ticker     TEXT,
			created_at INTEGER NOT NULL,
			run_json   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS settings (
			profile       TEXT PRIMARY KEY,
			settings_json TEXT NOT NULL,
			updated_at    INTEGER NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := l.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:30], err)
		}
	}
	return nil
}

// SaveRun inserts a completed run
func (l *RunLog) SaveRun(ctx context.Context, rec *RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `INSERT INTO runs (id, ticker, created_at, run_json) VALUES (?,?,?,?)`,
		rec.ID, rec.Ticker, rec.CreatedAt.Unix(), string(raw))
	return err
}

// GetRun loads one run by id
func (l *RunLog) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	var raw string
	err := l.db.QueryRowContext(ctx, `SELECT run_json FROM runs WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run '%s' not found", id)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	var rec RunRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &rec, nil
}

// ListRuns returns the newest runs first, optionally filtered by ticker.
// The rowid tiebreak keeps same-second inserts in insertion order.
func (l *RunLog) ListRuns(ctx context.Context, ticker string, limit int) ([]*RunRecord, error) {
	limit = normalizeLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	if ticker == "" {
		rows, err = l.db.QueryContext(ctx,
			`SELECT run_json FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	} else {
		rows, err = l.db.QueryContext(ctx,
			`SELECT run_json FROM runs WHERE ticker = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, ticker, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		var rec RunRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return records, nil
}

// GetSettings returns the stored settings, nil when none saved yet
func (l *RunLog) GetSettings(ctx context.Context) (*simulation.Settings, error) {
	var raw string
	err := l.db.QueryRowContext(ctx, `SELECT settings_json FROM settings WHERE profile = 'default'`).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var s simulation.Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &s, nil
}

// SaveSettings upserts the default profile's settings
func (l *RunLog) SaveSettings(ctx context.Context, s simulation.Settings) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `INSERT INTO settings (profile, settings_json, updated_at)
		VALUES ('default', ?, ?)
		ON CONFLICT(profile) DO UPDATE SET
			settings_json = excluded.settings_json,
			updated_at = excluded.updated_at`,
		string(raw), time.Now().Unix())
	return err
}

// Close closes the underlying database
func (l *RunLog) Close() error {
	return l.db.Close()
}
