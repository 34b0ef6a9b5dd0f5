package simulation

import "context"

// Settings is the persistable slice of Config: what a host remembers as
// the analyst's last-used simulation inputs between sessions.
type Settings struct {
	Trials           int     `json:"trials"`
	GrowthVolPP      float64 `json:"growth_vol_pp"`
	MarginVolPP      float64 `json:"margin_vol_pp"`
	SalesToCapVolPct float64 `json:"sales_to_cap_vol_pct"`
	Correlation      float64 `json:"correlation"`
	Seed             string  `json:"seed"`
	ProgressEvery    int     `json:"progress_every"`
}

// DefaultSettings are the values a host starts from when the store is
// empty: 1000 trials, 2pp growth and 1pp margin volatility, 10%
// sales-to-capital volatility, mild positive growth/margin correlation.
func DefaultSettings() Settings {
	return Settings{
		Trials:           1000,
		GrowthVolPP:      2.0,
		MarginVolPP:      1.0,
		SalesToCapVolPct: 10.0,
		Correlation:      0.3,
		ProgressEvery:    DefaultProgressEvery,
	}
}

// Config expands stored settings back into a runnable Config
func (s Settings) Config() Config {
	return Config{
		Trials:           s.Trials,
		GrowthVolPP:      s.GrowthVolPP,
		MarginVolPP:      s.MarginVolPP,
		SalesToCapVolPct: s.SalesToCapVolPct,
		Correlation:      s.Correlation,
		Seed:             s.Seed,
		ProgressEvery:    s.ProgressEvery,
	}
}

// settings captures the values a run actually used, post-clamping
func (c Config) settings(trials int, correlation float64) Settings {
	return Settings{
		Trials:           trials,
		GrowthVolPP:      c.GrowthVolPP,
		MarginVolPP:      c.MarginVolPP,
		SalesToCapVolPct: c.SalesToCapVolPct,
		Correlation:      correlation,
		Seed:             c.Seed,
		ProgressEvery:    c.progressEvery(),
	}
}

// UsedSettings reconstructs the post-clamp inputs of a finished run, for
// hosts persisting a run record alongside its summary.
func (c Config) UsedSettings(sum *Summary) Settings {
	return c.settings(sum.Trials, sum.Correlation)
}

// SettingsStore is the collaborator that remembers last-used settings.
// The orchestrator treats it as optional and best-effort: a nil store or a
// failing one must never fail a run. Implementations live in
// pkg/core/store.
type SettingsStore interface {
	GetSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}
