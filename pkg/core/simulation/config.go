package simulation

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// Trial counts outside this band are pulled back to the nearest edge.
	MinTrials = 100
	MaxTrials = 10000

	// hardTrialCap is the validation ceiling: a request above it is a
	// caller bug rather than an ambitious run, and is rejected outright.
	hardTrialCap = 1000000

	// maxVolPP is the validation ceiling for the percentage-point
	// volatilities.
	maxVolPP = 50.0

	DefaultProgressEvery = 500
)

// ProgressFunc receives completed-trial counts during a run. It is called
// synchronously from the trial loop; hosts marshal to their own threads.
type ProgressFunc func(done, total int, elapsed time.Duration)

// Config controls one Monte Carlo run. Volatilities are in percentage
// points (2.0 means a 2pp standard deviation) and are converted to
// fractions internally. An empty Seed draws a random one.
type Config struct {
	Trials           int     `json:"trials"`
	GrowthVolPP      float64 `json:"growth_vol_pp"`
	MarginVolPP      float64 `json:"margin_vol_pp"`
	SalesToCapVolPct float64 `json:"sales_to_cap_vol_pct"`
	Correlation      float64 `json:"correlation"`
	Seed             string  `json:"seed"`
	ProgressEvery    int     `json:"progress_every"`

	OnProgress ProgressFunc `json:"-"`
}

// ValidationError carries every problem found during pre-run validation.
// When it is non-nil the run never started.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid simulation config: " + strings.Join(e.Messages, "; ")
}

// Validate rejects inputs no clamp can repair: non-positive or absurd trial
// counts, negative or runaway volatilities, correlations outside [-1, 1],
// and non-finite numbers. Values that are merely outside the preferred
// band (for example 50 trials) pass validation and are clamped at run time.
func (c Config) Validate() *ValidationError {
	var msgs []string

	if c.Trials <= 0 {
		msgs = append(msgs, fmt.Sprintf("trial count must be positive, got %d", c.Trials))
	} else if c.Trials > hardTrialCap {
		msgs = append(msgs, fmt.Sprintf("trial count %d exceeds the hard cap of %d", c.Trials, hardTrialCap))
	}

	vols := []struct {
		name string
		val  float64
	}{
		{"growth volatility", c.GrowthVolPP},
		{"margin volatility", c.MarginVolPP},
		{"sales-to-capital volatility", c.SalesToCapVolPct},
	}
	for _, v := range vols {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			msgs = append(msgs, fmt.Sprintf("%s must be a finite number", v.name))
		} else if v.val < 0 {
			msgs = append(msgs, fmt.Sprintf("%s must not be negative, got %.2f", v.name, v.val))
		} else if v.val > maxVolPP {
			msgs = append(msgs, fmt.Sprintf("%s of %.2f percentage points is not plausible (max %.0f)", v.name, v.val, maxVolPP))
		}
	}

	if math.IsNaN(c.Correlation) || math.IsInf(c.Correlation, 0) {
		msgs = append(msgs, "correlation must be a finite number")
	} else if c.Correlation < -1 || c.Correlation > 1 {
		msgs = append(msgs, fmt.Sprintf("correlation must be between -1 and 1, got %.2f", c.Correlation))
	}

	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}

// clampTrials pulls a validated trial count into [MinTrials, MaxTrials]
func clampTrials(trials int) int {
	if trials < MinTrials {
		return MinTrials
	}
	if trials > MaxTrials {
		return MaxTrials
	}
	return trials
}

// progressEvery resolves the progress interval, defaulting to 500
func (c Config) progressEvery() int {
	if c.ProgressEvery <= 0 {
		return DefaultProgressEvery
	}
	return c.ProgressEvery
}
