// Package store persists simulation settings and run history.
//
// Three backends share the same interfaces: Postgres for the shared API
// deployment, SQLite for local CLI history, and an in-memory store for
// tests and single-shot runs with no database configured.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dcflab/pkg/core/simulation"
	"dcflab/pkg/core/valuation"
)

// RunRecord is one persisted simulation run: the inputs as actually used
// (after clamping) plus the aggregate outcome.
type RunRecord struct {
	ID        string               `json:"id"`
	Ticker    string               `json:"ticker"`
	Scenario  string               `json:"scenario,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	Params    valuation.Parameters `json:"params"`
	Settings  simulation.Settings  `json:"settings"`
	Summary   *simulation.Summary  `json:"summary"`
}

// NewRunRecord stamps a fresh record with a UUID and the current time
func NewRunRecord(scenarioName string, params valuation.Parameters, settings simulation.Settings, summary *simulation.Summary) *RunRecord {
	return &RunRecord{
		ID:        uuid.New().String(),
		Ticker:    params.Ticker,
		Scenario:  scenarioName,
		CreatedAt: time.Now().UTC(),
		Params:    params,
		Settings:  settings,
		Summary:   summary,
	}
}

// RunStore is the run-history collaborator used by the API and CLI hosts.
// ListRuns returns newest first; an empty ticker matches every run.
type RunStore interface {
	SaveRun(ctx context.Context, rec *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, ticker string, limit int) ([]*RunRecord, error)
}

const defaultListLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
