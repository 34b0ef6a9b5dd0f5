package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dcflab/pkg/core/simulation"
)

// SettingsRepo persists last-used simulation settings in Postgres, one
// row per profile.
//
// Schema assumption:
// CREATE TABLE IF NOT EXISTS simulation_settings (
//   profile TEXT PRIMARY KEY,
//   settings_json JSONB,
//   updated_at TIMESTAMPTZ
// );
type SettingsRepo struct {
	Profile string
}

// NewSettingsRepo creates a repository bound to the default profile
func NewSettingsRepo() *SettingsRepo {
	return &SettingsRepo{Profile: "default"}
}

func (r *SettingsRepo) profile() string {
	if r.Profile == "" {
		return "default"
	}
	return r.Profile
}

// GetSettings returns the stored settings, or nil when the profile has
// never saved any.
func (r *SettingsRepo) GetSettings(ctx context.Context) (*simulation.Settings, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT settings_json FROM simulation_settings WHERE profile = $1`

	var raw []byte
	err := pool.QueryRow(ctx, query, r.profile()).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var s simulation.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &s, nil
}

// SaveSettings upserts the profile's settings
func (r *SettingsRepo) SaveSettings(ctx context.Context, s simulation.Settings) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	query := `
		INSERT INTO simulation_settings (profile, settings_json, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile)
		DO UPDATE SET
			settings_json = EXCLUDED.settings_json,
			updated_at = EXCLUDED.updated_at;
	`

	if _, err := pool.Exec(ctx, query, r.profile(), raw, time.Now()); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
