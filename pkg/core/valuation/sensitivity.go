package valuation

// SensitivityInput describes a two-way data table around a base case.
// Deltas are absolute offsets applied to the base WACC and terminal growth;
// empty slices fall back to the conventional +/-1pp spread in 50bp steps.
type SensitivityInput struct {
	Base         Parameters `json:"base"`
	WACCDeltas   []float64  `json:"wacc_deltas"`
	GrowthDeltas []float64  `json:"growth_deltas"`
}

// SensitivityGrid is the per-share value matrix: one row per WACC value,
// one column per terminal growth value.
type SensitivityGrid struct {
	WACCValues   []float64   `json:"wacc_values"`
	GrowthValues []float64   `json:"growth_values"`
	PerShare     [][]float64 `json:"per_share"`
}

var defaultDeltas = []float64{-0.01, -0.005, 0, 0.005, 0.01}

// SensitivityMatrix evaluates the calculator across the WACC x growth grid.
// Degenerate cells (growth at or above WACC) are not skipped: the
// calculator's own clamping applies and the cell reflects the corrected
// combination, matching what a single run with those inputs would return.
func SensitivityMatrix(input SensitivityInput) SensitivityGrid {
	waccDeltas := input.WACCDeltas
	if len(waccDeltas) == 0 {
		waccDeltas = defaultDeltas
	}
	growthDeltas := input.GrowthDeltas
	if len(growthDeltas) == 0 {
		growthDeltas = defaultDeltas
	}

	grid := SensitivityGrid{
		WACCValues:   make([]float64, len(waccDeltas)),
		GrowthValues: make([]float64, len(growthDeltas)),
		PerShare:     make([][]float64, len(waccDeltas)),
	}
	for j, dg := range growthDeltas {
		grid.GrowthValues[j] = input.Base.TerminalGrowth + dg
	}

	for i, dw := range waccDeltas {
		wacc := input.Base.WACC + dw
		grid.WACCValues[i] = wacc
		row := make([]float64, len(growthDeltas))
		for j := range growthDeltas {
			params := input.Base
			params.WACC = wacc
			params.TerminalGrowth = grid.GrowthValues[j]
			row[j] = Compute(params).Totals.PerShareValue
		}
		grid.PerShare[i] = row
	}
	return grid
}
