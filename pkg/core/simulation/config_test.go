package simulation

import (
	"math"
	"strings"
	"testing"
)

func TestConfigValidateAccepts(t *testing.T) {
	cfg := Config{Trials: 1000, GrowthVolPP: 2.0, MarginVolPP: 1.0, SalesToCapVolPct: 10, Correlation: 0.3}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Valid config rejected: %v", err)
	}

	// Out-of-band but repairable values pass validation; the run-time
	// clamps take care of them.
	cfg = Config{Trials: 50, Correlation: 0.999}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Clampable config should pass validation, got: %v", err)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		needles []string
	}{
		{"zero trials", Config{Trials: 0}, []string{"trial count"}},
		{"negative trials", Config{Trials: -5}, []string{"trial count"}},
		{"absurd trials", Config{Trials: 2000000}, []string{"hard cap"}},
		{"negative volatility", Config{Trials: 100, GrowthVolPP: -1}, []string{"growth volatility"}},
		{"runaway volatility", Config{Trials: 100, MarginVolPP: 80}, []string{"margin volatility"}},
		{"nan volatility", Config{Trials: 100, SalesToCapVolPct: math.NaN()}, []string{"sales-to-capital volatility"}},
		{"correlation above 1", Config{Trials: 100, Correlation: 1.5}, []string{"correlation"}},
		{"many problems", Config{Trials: 0, GrowthVolPP: -1, Correlation: 2},
			[]string{"trial count", "growth volatility", "correlation"}},
	}

	for _, tc := range cases {
		err := tc.cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
			continue
		}
		joined := err.Error()
		for _, needle := range tc.needles {
			if !strings.Contains(joined, needle) {
				t.Errorf("%s: expected %q in %q", tc.name, needle, joined)
			}
		}
	}
}

func TestClampTrials(t *testing.T) {
	cases := map[int]int{
		1:     100,
		99:    100,
		100:   100,
		5000:  5000,
		10000: 10000,
		99999: 10000,
	}
	for in, want := range cases {
		if got := clampTrials(in); got != want {
			t.Errorf("clampTrials(%d) expected %d, got %d", in, want, got)
		}
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := DefaultSettings()
	cfg := s.Config()
	if cfg.Trials != s.Trials || cfg.GrowthVolPP != s.GrowthVolPP || cfg.Correlation != s.Correlation {
		t.Errorf("Settings to Config lost values: %+v vs %+v", s, cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default settings must validate, got: %v", err)
	}
}
