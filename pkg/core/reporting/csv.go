package reporting

import (
	"fmt"
	"strings"

	"dcflab/pkg/core/simulation"
)

// RenderSeriesCSV renders the forecast line items, one row per year.
func RenderSeriesCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("year,revenue,growth,margin,ebit,nopat,nwc,delta_nwc,capex_proxy,reinvestment,fcff,pv_fcff\n")

	s := r.Valuation.Series
	for i := range s.Revenue {
		sb.WriteString(fmt.Sprintf("%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			i+1,
			s.Revenue[i],
			s.Growth[i],
			s.Margin[i],
			s.EBIT[i],
			s.NOPAT[i],
			s.NWC[i],
			s.DeltaNWC[i],
			s.CapexProxy[i],
			s.Reinvestment[i],
			s.FCFF[i],
			s.PVFCFF[i],
		))
	}

	return sb.String()
}

// RenderOutcomesCSV renders the sorted per-share outcomes, one per row.
// The row number is the rank, not the trial's position in the run.
func RenderOutcomesCSV(sum *simulation.Summary) string {
	var sb strings.Builder

	sb.WriteString("rank,per_share_value\n")
	for i, v := range sum.Outcomes {
		sb.WriteString(fmt.Sprintf("%d,%.6f\n", i+1, v))
	}

	return sb.String()
}
