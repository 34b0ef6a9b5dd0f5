package simulation

import (
	"context"
	"time"

	"dcflab/pkg/core/valuation"
)

// Orchestrator drives repeated DCF evaluations under correlated random
// perturbations. It holds no per-run state: every Run constructs its own
// RNG, so concurrent runs never share a random stream and the same seed
// always replays the same outcome sequence.
type Orchestrator struct {
	settings SettingsStore
}

// Options configures an Orchestrator. Settings may be nil; the store is
// best-effort and a failing one never fails a run.
type Options struct {
	Settings SettingsStore
}

func NewOrchestrator(opts Options) *Orchestrator {
	return &Orchestrator{settings: opts.Settings}
}

// Run executes the Monte Carlo loop: validate, clamp, then one DCF per
// trial over a perturbed copy of base, recording per-share values.
//
// Trials run strictly sequentially because each consumes the shared PRNG
// stream; the n-th trial's draws depend on how many draws every earlier
// trial made. The token (and ctx) are polled at trial boundaries only, so
// cancellation keeps completed trials and discards nothing mid-trial.
func (o *Orchestrator) Run(ctx context.Context, base valuation.Parameters, cfg Config, token *CancelToken) (*Summary, error) {
	if verr := cfg.Validate(); verr != nil {
		return nil, verr
	}

	trials := clampTrials(cfg.Trials)
	rho := clampCorrelation(cfg.Correlation)

	// Percentage points to fractions
	growthVol := cfg.GrowthVolPP / 100
	marginVol := cfg.MarginVolPP / 100
	salesToCapVol := cfg.SalesToCapVolPct / 100

	seed := ResolveSeed(cfg.Seed)
	shocks := NewShockGenerator(NewRNG(seed))
	every := cfg.progressEvery()

	// Remember the resolved inputs as the analyst's last-used settings.
	if o.settings != nil {
		_ = o.settings.SaveSettings(ctx, cfg.settings(trials, rho))
	}

	start := time.Now()
	outcomes := make([]float64, 0, trials)
	cancelled := false

	for i := 0; i < trials; i++ {
		if token.Requested() || ctx.Err() != nil {
			cancelled = true
			break
		}

		trial := perturb(base, shocks, growthVol, marginVol, salesToCapVol, rho)
		res := valuation.Compute(trial)
		outcomes = append(outcomes, res.Totals.PerShareValue)

		if len(outcomes)%every == 0 {
			notifyProgress(cfg.OnProgress, len(outcomes), trials, time.Since(start))
		}
	}

	elapsed := time.Since(start)
	notifyProgress(cfg.OnProgress, len(outcomes), trials, elapsed)

	summary := summarize(outcomes)
	summary.Seed = seed
	summary.Correlation = rho
	summary.Trials = trials
	summary.Completed = len(outcomes)
	summary.Cancelled = cancelled
	summary.Elapsed = elapsed
	return &summary, nil
}

// perturb builds one trial's parameter set. Stage-1 growth and margin move
// together through the correlated pair; stage-2/3 growth and margin take
// independent draws at the same magnitudes; each stage's sales-to-capital
// is shocked multiplicatively. The draw order is fixed, which keeps a
// seed's trial sequence stable.
func perturb(base valuation.Parameters, shocks *ShockGenerator, growthVol, marginVol, salesToCapVol, rho float64) valuation.Parameters {
	trial := base

	s1 := base.StageSnapshot(1)
	s2 := base.StageSnapshot(2)
	s3 := base.StageSnapshot(3)

	growthShock, marginShock := shocks.CorrelatedPair(rho)
	trial.Stages[0].Growth = override(s1.Growth + growthVol*growthShock)
	trial.Stages[0].Margin = override(s1.Margin + marginVol*marginShock)

	trial.Stages[1].Growth = override(s2.Growth + growthVol*shocks.Normal())
	trial.Stages[1].Margin = override(s2.Margin + marginVol*shocks.Normal())
	trial.Stages[2].Growth = override(s3.Growth + growthVol*shocks.Normal())
	trial.Stages[2].Margin = override(s3.Margin + marginVol*shocks.Normal())

	trial.Stages[0].SalesToCapital = override(shocks.Multiplicative(s1.SalesToCapital, salesToCapVol))
	trial.Stages[1].SalesToCapital = override(shocks.Multiplicative(s2.SalesToCapital, salesToCapVol))
	trial.Stages[2].SalesToCapital = override(shocks.Multiplicative(s3.SalesToCapital, salesToCapVol))

	return trial
}

func override(v float64) *float64 { return &v }

// notifyProgress shields the run from the callback: a panicking host
// observer must not abort the loop.
func notifyProgress(fn ProgressFunc, done, total int, elapsed time.Duration) {
	if fn == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	fn(done, total, elapsed)
}
