// Package reporting assembles valuation and simulation output into
// shareable artifacts: markdown, HTML, CSV, and XLSX.
package reporting

import (
	"time"

	"dcflab/pkg/core/simulation"
	"dcflab/pkg/core/valuation"
)

// Report is one valuation story: the deterministic DCF, and optionally a
// sensitivity grid and a Monte Carlo summary alongside it.
type Report struct {
	Ticker      string
	Scenario    string
	GeneratedAt time.Time

	Params    valuation.Parameters
	Valuation valuation.Result

	Sensitivity *valuation.SensitivityGrid
	Simulation  *simulation.Summary
}

// New assembles a report around a computed valuation
func New(scenarioName string, params valuation.Parameters, result valuation.Result) *Report {
	return &Report{
		Ticker:      params.Ticker,
		Scenario:    scenarioName,
		GeneratedAt: time.Now().UTC(),
		Params:      params,
		Valuation:   result,
	}
}

// WithSensitivity attaches a sensitivity grid
func (r *Report) WithSensitivity(grid *valuation.SensitivityGrid) *Report {
	r.Sensitivity = grid
	return r
}

// WithSimulation attaches a Monte Carlo summary
func (r *Report) WithSimulation(summary *simulation.Summary) *Report {
	r.Simulation = summary
	return r
}

// WithGeneratedAt pins the timestamp for deterministic output
func (r *Report) WithGeneratedAt(t time.Time) *Report {
	r.GeneratedAt = t
	return r
}

func (r *Report) title() string {
	if r.Ticker == "" {
		return "DCF Valuation"
	}
	return "DCF Valuation: " + r.Ticker
}
