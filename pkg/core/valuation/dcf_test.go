package valuation

import (
	"math"
	"reflect"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }

// baselineParams is the reference seven-year case used across tests:
// 500M base revenue, 12% year-1 growth fading 1.5pp/yr, 22% margin,
// 23% tax, 2.5x sales-to-capital, 9% WACC, 2.5% perpetuity growth.
func baselineParams() Parameters {
	return Parameters{
		Ticker:            "DEMO",
		BaseRevenue:       500,
		Years:             7,
		WACC:              0.09,
		TerminalGrowth:    0.025,
		TaxRate:           0.23,
		GrowthY1:          0.12,
		GrowthDecay:       0.015,
		Margin:            0.22,
		SalesToCapital:    2.5,
		SharesOutstanding: 150,
		NetDebt:           300,
	}
}

func TestComputeHandCalculatedCase(t *testing.T) {
	// 3-year case chosen so growth == WACC, which makes every discounted
	// FCFF identical and easy to verify by hand.
	// Base revenue 100, growth 10% flat, margin 20%, tax 25%, S2C 2.0,
	// no working capital, WACC 10%, terminal growth 2%.
	//
	// Year 1: rev 110, EBIT 22, NOPAT 16.5, capex (110-100)/2 = 5,
	//         FCFF 11.5, PV 11.5/1.1 = 10.4545...
	// Year 2: rev 121, NOPAT 18.15, capex 5.5, FCFF 12.65, PV 12.65/1.21
	// Year 3: rev 133.1, NOPAT 19.965, capex 6.05, FCFF 13.915, PV /1.331
	// Each PV = 10.454545..., sum = 31.363636...
	// TV = 13.915 * 1.02 / (0.10 - 0.02) = 177.41625
	// PV(TV) = 177.41625 / 1.331 = 133.295454...
	// EV = 164.659090..., Equity = 114.659090..., per share = 11.4659090...
	params := Parameters{
		BaseRevenue:       100,
		Years:             3,
		WACC:              0.10,
		TerminalGrowth:    0.02,
		TaxRate:           0.25,
		GrowthY1:          0.10,
		Margin:            0.20,
		SalesToCapital:    2.0,
		SharesOutstanding: 10,
		NetDebt:           50,
	}

	res := Compute(params)

	if len(res.Series.FCFF) != 3 {
		t.Fatalf("Expected 3 forecast years, got %d", len(res.Series.FCFF))
	}
	wantFCFF := []float64{11.5, 12.65, 13.915}
	for i, want := range wantFCFF {
		if math.Abs(res.Series.FCFF[i]-want) > 1e-9 {
			t.Errorf("Year %d FCFF expected %f, got %f", i+1, want, res.Series.FCFF[i])
		}
	}
	for i := range res.Series.PVFCFF {
		if math.Abs(res.Series.PVFCFF[i]-10.4545454545) > 1e-6 {
			t.Errorf("Year %d PV expected 10.4545..., got %f", i+1, res.Series.PVFCFF[i])
		}
	}

	if math.Abs(res.Totals.SumPVFCFF-31.3636363636) > 1e-6 {
		t.Errorf("Sum PV expected 31.3636..., got %f", res.Totals.SumPVFCFF)
	}
	if math.Abs(res.Totals.PVTerminalValue-133.2954545455) > 1e-6 {
		t.Errorf("PV(TV) expected 133.2954..., got %f", res.Totals.PVTerminalValue)
	}
	if math.Abs(res.Totals.EnterpriseValue-164.6590909091) > 1e-6 {
		t.Errorf("EV expected 164.6590..., got %f", res.Totals.EnterpriseValue)
	}
	if math.Abs(res.Totals.EquityValue-114.6590909091) > 1e-6 {
		t.Errorf("Equity expected 114.6590..., got %f", res.Totals.EquityValue)
	}
	if math.Abs(res.Totals.PerShareValue-11.4659090909) > 1e-6 {
		t.Errorf("Per share expected 11.4659..., got %f", res.Totals.PerShareValue)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", res.Warnings)
	}
}

func TestComputeExitMultiple(t *testing.T) {
	// Same hand case, exit multiple 12x instead of Gordon:
	// TV = 12 * 13.915 * 1.02 = 170.3196
	// PV(TV) = 170.3196 / 1.331 = 127.963636...
	// EV = 31.363636 + 127.963636 = 159.327272...
	params := Parameters{
		BaseRevenue:         100,
		Years:               3,
		WACC:                0.10,
		TerminalGrowth:      0.02,
		TaxRate:             0.25,
		GrowthY1:            0.10,
		Margin:              0.20,
		SalesToCapital:      2.0,
		SharesOutstanding:   10,
		NetDebt:             50,
		TerminalValueMethod: TerminalExitMultiple,
		ExitMultiple:        12,
	}

	res := Compute(params)

	if math.Abs(res.Totals.PVTerminalValue-127.9636363636) > 1e-6 {
		t.Errorf("PV(TV) expected 127.9636..., got %f", res.Totals.PVTerminalValue)
	}
	if math.Abs(res.Totals.EnterpriseValue-159.3272727273) > 1e-6 {
		t.Errorf("EV expected 159.3272..., got %f", res.Totals.EnterpriseValue)
	}
}

func TestComputeBaselineProperties(t *testing.T) {
	res := Compute(baselineParams())

	ev := res.Totals.EnterpriseValue
	eq := res.Totals.EquityValue
	ps := res.Totals.PerShareValue
	if !isFinite(ev) || !isFinite(eq) || !isFinite(ps) {
		t.Fatalf("Expected finite totals, got EV=%f Equity=%f PerShare=%f", ev, eq, ps)
	}
	if ev <= 0 || eq <= 0 || ps <= 0 {
		t.Errorf("Expected positive totals, got EV=%f Equity=%f PerShare=%f", ev, eq, ps)
	}
	tvPct := res.Totals.TerminalValuePctOfEV
	if tvPct <= 0 || tvPct >= 1 {
		t.Errorf("Terminal value share of EV expected in (0,1), got %f", tvPct)
	}
}

func TestComputeTerminalGrowthClamp(t *testing.T) {
	// Perpetuity growth above WACC is impossible; the calculator must pull
	// it back to WACC - 0.005 and keep going rather than blow up.
	params := baselineParams()
	params.TerminalGrowth = 0.10 // WACC is 0.09

	res := Compute(params)

	found := false
	for _, w := range res.Warnings {
		if w.Kind == WarnTerminalGrowthClamped {
			found = true
			if w.Year != 0 {
				t.Errorf("Clamp warning should carry year 0, got %d", w.Year)
			}
		}
	}
	if !found {
		t.Fatalf("Expected a %s warning, got %v", WarnTerminalGrowthClamped, res.Warnings)
	}

	if !isFinite(res.Totals.EnterpriseValue) || !isFinite(res.Totals.PerShareValue) {
		t.Errorf("Totals must stay finite after clamping, got EV=%f", res.Totals.EnterpriseValue)
	}

	// Effective growth 0.085 means the Gordon denominator is exactly 0.005.
	// Cross-check: TV = FCFF_n * 1.085 / 0.005.
	n := len(res.Series.FCFF)
	wantTV := res.Series.FCFF[n-1] * 1.085 / 0.005
	gotTV := res.Totals.PVTerminalValue * math.Pow(1.09, float64(n))
	if math.Abs(gotTV-wantTV)/wantTV > 1e-9 {
		t.Errorf("TV expected %f (growth clamped to 0.085), got %f", wantTV, gotTV)
	}
}

func TestComputePurity(t *testing.T) {
	params := baselineParams()
	params.Stages[1].Growth = floatPtr(0.06)
	params.Stage1End = 2
	params.Stage2End = 5

	a := Compute(params)
	b := Compute(params)

	if !reflect.DeepEqual(a, b) {
		t.Error("Two calls with identical parameters must be bit-identical")
	}
}

func TestComputeNWCSwingWarning(t *testing.T) {
	// 60% NWC ratio with 10% growth absorbs 6% of revenue every year,
	// above the 5% reporting threshold, so each year should be flagged.
	params := Parameters{
		BaseRevenue:       100,
		Years:             3,
		WACC:              0.10,
		TerminalGrowth:    0.02,
		TaxRate:           0.25,
		GrowthY1:          0.10,
		Margin:            0.20,
		SalesToCapital:    2.0,
		NWCRatio:          0.60,
		SharesOutstanding: 10,
	}

	res := Compute(params)

	years := map[int]bool{}
	for _, w := range res.Warnings {
		if w.Kind == WarnNWCSwing {
			years[w.Year] = true
		}
	}
	for y := 1; y <= 3; y++ {
		if !years[y] {
			t.Errorf("Expected a %s warning for year %d, got %v", WarnNWCSwing, y, res.Warnings)
		}
	}
}

func TestComputeNWCRelease(t *testing.T) {
	// Dropping the NWC ratio from 30% to 5% at the stage boundary releases
	// working capital: reinvestment goes negative and FCFF tops NOPAT.
	params := baselineParams()
	params.Years = 6
	params.Stage1End = 2
	params.Stage2End = 4
	params.Stages[0].NWCRatio = floatPtr(0.30)
	params.Stages[1].NWCRatio = floatPtr(0.05)
	params.Stages[2].NWCRatio = floatPtr(0.05)

	res := Compute(params)

	// Year 3 is the first stage-2 year
	if res.Series.Reinvestment[2] >= 0 {
		t.Errorf("Expected negative reinvestment in year 3, got %f", res.Series.Reinvestment[2])
	}
	if res.Series.FCFF[2] <= res.Series.NOPAT[2] {
		t.Errorf("Cash release should push FCFF above NOPAT, got FCFF=%f NOPAT=%f",
			res.Series.FCFF[2], res.Series.NOPAT[2])
	}

	released := false
	for _, w := range res.Warnings {
		if w.Kind == WarnNWCSwing && w.Year == 3 {
			released = true
		}
	}
	if !released {
		t.Error("Expected a nwc_swing warning for the release year")
	}
}

func TestComputeHorizonClamp(t *testing.T) {
	params := baselineParams()

	params.Years = 1
	if got := len(Compute(params).Series.Revenue); got != 3 {
		t.Errorf("Years=1 should clamp to 3, got %d", got)
	}

	params.Years = 50
	if got := len(Compute(params).Series.Revenue); got != 15 {
		t.Errorf("Years=50 should clamp to 15, got %d", got)
	}
}

func TestComputeFiniteAcrossHorizons(t *testing.T) {
	for years := 3; years <= 15; years++ {
		params := baselineParams()
		params.Years = years
		res := Compute(params)
		if !isFinite(res.Totals.EnterpriseValue) ||
			!isFinite(res.Totals.EquityValue) ||
			!isFinite(res.Totals.PerShareValue) {
			t.Errorf("Years=%d produced non-finite totals: %+v", years, res.Totals)
		}
	}
}

func TestComputeZeroShares(t *testing.T) {
	// The per-share divisor is floored at 1, so zero shares outstanding
	// degrades to equity value instead of dividing by zero.
	params := baselineParams()
	params.SharesOutstanding = 0

	res := Compute(params)
	if res.Totals.PerShareValue != res.Totals.EquityValue {
		t.Errorf("With zero shares, per-share %f should equal equity %f",
			res.Totals.PerShareValue, res.Totals.EquityValue)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
