package reporting

import (
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Valuation"
	forecastSheet = "Forecast"
	outcomesSheet = "Outcomes"
)

// WriteXLSX writes the report as a workbook: a headline sheet, the year
// series, and (when a simulation ran) the outcome distribution.
func WriteXLSX(r *Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	setRow := func(sheet string, row int, values ...interface{}) error {
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeSummarySheet(r, setRow); err != nil {
		return err
	}
	if err := writeForecastSheet(r, f, setRow); err != nil {
		return err
	}
	if r.Simulation != nil {
		if err := writeOutcomesSheet(r, f, setRow); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

type rowWriter func(sheet string, row int, values ...interface{}) error

func writeSummarySheet(r *Report, setRow rowWriter) error {
	t := r.Valuation.Totals
	rows := [][]interface{}{
		{"Ticker", r.Ticker},
		{"Scenario", r.Scenario},
		{"Generated", r.GeneratedAt.Format(time.RFC3339)},
		{},
		{"Enterprise Value", t.EnterpriseValue},
		{"Equity Value", t.EquityValue},
		{"Per-Share Value", t.PerShareValue},
		{"PV of Terminal Value", t.PVTerminalValue},
		{"Terminal Value % of EV", t.TerminalValuePctOfEV},
		{"Sum PV(FCFF)", t.SumPVFCFF},
	}

	if sum := r.Simulation; sum != nil {
		rows = append(rows,
			[]interface{}{},
			[]interface{}{"Monte Carlo", sum.Status()},
			[]interface{}{"Trials", sum.Trials},
			[]interface{}{"Completed", sum.Completed},
			[]interface{}{"Seed", int64(sum.Seed)},
			[]interface{}{"Mean", statCell(sum.Mean)},
			[]interface{}{"Median", statCell(sum.Median)},
			[]interface{}{"P10", statCell(sum.P10)},
			[]interface{}{"P90", statCell(sum.P90)},
		)
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := setRow(summarySheet, i+1, row...); err != nil {
			return err
		}
	}
	return nil
}

func writeForecastSheet(r *Report, f *excelize.File, setRow rowWriter) error {
	if _, err := f.NewSheet(forecastSheet); err != nil {
		return fmt.Errorf("failed to create forecast sheet: %w", err)
	}

	header := []interface{}{"Year", "Revenue", "Growth", "Margin", "EBIT", "NOPAT",
		"NWC", "Delta NWC", "Capex Proxy", "Reinvestment", "FCFF", "PV(FCFF)"}
	if err := setRow(forecastSheet, 1, header...); err != nil {
		return err
	}

	s := r.Valuation.Series
	for i := range s.Revenue {
		row := []interface{}{i + 1, s.Revenue[i], s.Growth[i], s.Margin[i], s.EBIT[i], s.NOPAT[i],
			s.NWC[i], s.DeltaNWC[i], s.CapexProxy[i], s.Reinvestment[i], s.FCFF[i], s.PVFCFF[i]}
		if err := setRow(forecastSheet, i+2, row...); err != nil {
			return err
		}
	}
	return nil
}

func writeOutcomesSheet(r *Report, f *excelize.File, setRow rowWriter) error {
	if _, err := f.NewSheet(outcomesSheet); err != nil {
		return fmt.Errorf("failed to create outcomes sheet: %w", err)
	}

	if err := setRow(outcomesSheet, 1, "Rank", "Per-Share Value"); err != nil {
		return err
	}
	for i, v := range r.Simulation.Outcomes {
		if err := setRow(outcomesSheet, i+2, i+1, v); err != nil {
			return err
		}
	}
	return nil
}

// statCell keeps NaN out of the workbook; spreadsheets have no NaN cell
func statCell(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return v
}
