package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RunRepo persists run history in Postgres as one JSONB blob per run,
// with the ticker and timestamp pulled into columns for filtering.
//
// Schema assumption:
// CREATE TABLE IF NOT EXISTS simulation_runs (
//   id UUID PRIMARY KEY,
//   ticker TEXT,
//   created_at TIMESTAMPTZ,
//   run_json JSONB
// );
type RunRepo struct{}

// NewRunRepo creates a new repository instance
func NewRunRepo() *RunRepo {
	return &RunRepo{}
}

// SaveRun inserts a completed run
func (r *RunRepo) SaveRun(ctx context.Context, rec *RunRecord) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	query := `
		INSERT INTO simulation_runs (id, ticker, created_at, run_json)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := pool.Exec(ctx, query, rec.ID, rec.Ticker, rec.CreatedAt, raw); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun loads one run by id
func (r *RunRepo) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT run_json FROM simulation_runs WHERE id = $1`

	var raw []byte
	err := pool.QueryRow(ctx, query, id).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no run found for id %s", id)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	var rec RunRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &rec, nil
}

// ListRuns returns the newest runs, optionally filtered by ticker
func (r *RunRepo) ListRuns(ctx context.Context, ticker string, limit int) ([]*RunRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	limit = normalizeLimit(limit)

	var (
		rows pgx.Rows
		err  error
	)
	if ticker == "" {
		rows, err = pool.Query(ctx, `SELECT run_json FROM simulation_runs ORDER BY created_at DESC LIMIT $1`, limit)
	} else {
		rows, err = pool.Query(ctx, `SELECT run_json FROM simulation_runs WHERE ticker = $1 ORDER BY created_at DESC LIMIT $2`, ticker, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		var rec RunRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return records, nil
}
