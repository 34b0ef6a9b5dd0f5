package valuation

import (
	"fmt"
	"math"
)

// nwcSwingThreshold flags years where the working-capital move exceeds this
// share of revenue.
const nwcSwingThreshold = 0.05

// Compute runs the multi-stage DCF. It is a pure function: no shared state,
// fresh slices every call, identical inputs produce bit-identical outputs.
// It never returns an error; degenerate inputs are clamped and annotated
// through Result.Warnings instead.
func Compute(params Parameters) Result {
	years := params.horizon()
	stage1End, stage2End := params.stageBounds(years)

	warnings := []Warning{}

	// Perpetuity growth at or above the discount rate makes the Gordon
	// denominator collapse. Pull growth back under WACC and flag it.
	terminalGrowth := params.TerminalGrowth
	if params.TerminalValueMethod != TerminalExitMultiple && terminalGrowth >= params.WACC {
		terminalGrowth = params.WACC - 0.005
		warnings = append(warnings, Warning{
			Kind: WarnTerminalGrowthClamped,
			Year: 0,
			Message: fmt.Sprintf("terminal growth %.3f >= WACC %.3f; clamped to %.3f",
				params.TerminalGrowth, params.WACC, terminalGrowth),
		})
	}

	series := YearSeries{
		Revenue:      make([]float64, years),
		Growth:       make([]float64, years),
		Margin:       make([]float64, years),
		EBIT:         make([]float64, years),
		NOPAT:        make([]float64, years),
		NWC:          make([]float64, years),
		NWCRatio:     make([]float64, years),
		DeltaNWC:     make([]float64, years),
		CapexProxy:   make([]float64, years),
		Reinvestment: make([]float64, years),
		FCFF:         make([]float64, years),
		PVFCFF:       make([]float64, years),
	}

	prevRevenue := params.BaseRevenue
	// Anchor the opening working-capital level to the stage-1 ratio so year 1
	// only books the incremental move, not the whole opening balance.
	prevNWC := math.Max(0, params.stageValue(1, stage1End, stage2End, fieldNWCRatio)) * params.BaseRevenue

	var sumPVFCFF float64
	cumDiscountFactor := 1.0

	for t := 1; t <= years; t++ {
		i := t - 1

		// 1. Revenue
		growth := math.Max(0, params.stageValue(t, stage1End, stage2End, fieldGrowth))
		revenue := prevRevenue * (1 + growth)

		// 2. Operating profit
		margin := math.Max(0, params.stageValue(t, stage1End, stage2End, fieldMargin))
		ebit := revenue * margin
		nopat := ebit * (1 - params.TaxRate)

		// 3. Working capital
		nwcRatio := math.Max(0, params.stageValue(t, stage1End, stage2End, fieldNWCRatio))
		nwc := revenue * nwcRatio
		deltaNWC := nwc - prevNWC

		// 4. Growth capex via capital efficiency
		salesToCapital := math.Max(0.01, params.stageValue(t, stage1End, stage2End, fieldSalesToCapital))
		capexProxy := math.Max(0, (revenue-prevRevenue)/salesToCapital)

		// 5. Free cash flow and discounting
		// Reinvestment can be negative: shrinking NWC releases cash.
		reinvestment := capexProxy + deltaNWC
		fcff := nopat - reinvestment
		cumDiscountFactor /= 1 + params.WACC
		pvFCFF := fcff * cumDiscountFactor
		sumPVFCFF += pvFCFF

		if math.Abs(deltaNWC) > nwcSwingThreshold*revenue {
			warnings = append(warnings, Warning{
				Kind: WarnNWCSwing,
				Year: t,
				Message: fmt.Sprintf("year %d: significant cash %s, NWC delta %.1f vs revenue %.1f",
					t, swingDirection(deltaNWC), deltaNWC, revenue),
			})
		}

		series.Revenue[i] = revenue
		series.Growth[i] = growth
		series.Margin[i] = margin
		series.EBIT[i] = ebit
		series.NOPAT[i] = nopat
		series.NWC[i] = nwc
		series.NWCRatio[i] = nwcRatio
		series.DeltaNWC[i] = deltaNWC
		series.CapexProxy[i] = capexProxy
		series.Reinvestment[i] = reinvestment
		series.FCFF[i] = fcff
		series.PVFCFF[i] = pvFCFF

		prevRevenue = revenue
		prevNWC = nwc
	}

	// Terminal value off the final forecast year
	finalFCFF := series.FCFF[years-1]
	tv := 0.0
	if params.TerminalValueMethod == TerminalExitMultiple {
		tv = params.ExitMultiple * finalFCFF * (1 + terminalGrowth)
	} else if params.WACC > terminalGrowth {
		// Gordon growth: TV = FCFF_n * (1+g) / (WACC - g)
		tv = finalFCFF * (1 + terminalGrowth) / (params.WACC - terminalGrowth)
	}
	pvTerminal := tv * cumDiscountFactor

	// Aggregation
	ev := sumPVFCFF + pvTerminal
	equity := ev - params.NetDebt
	shares := math.Max(1, params.SharesOutstanding)
	perShare := equity / shares
	tvPct := 0.0
	if ev > 0 {
		tvPct = pvTerminal / ev
	}

	return Result{
		Series: series,
		Totals: Totals{
			SumPVFCFF:            sumPVFCFF,
			PVTerminalValue:      pvTerminal,
			EnterpriseValue:      ev,
			EquityValue:          equity,
			PerShareValue:        perShare,
			TerminalValuePctOfEV: tvPct,
		},
		Warnings: warnings,
	}
}

func swingDirection(deltaNWC float64) string {
	if deltaNWC < 0 {
		return "release"
	}
	return "absorption"
}
