package reporting

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"dcflab/pkg/core/simulation"
	"dcflab/pkg/core/valuation"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# " + r.title() + "\n\n")
	if r.Scenario != "" {
		sb.WriteString(fmt.Sprintf("Scenario: %s\n\n", r.Scenario))
	}
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Headline
	t := r.Valuation.Totals
	sb.WriteString("## Headline\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Enterprise Value | %s |\n", money(t.EnterpriseValue)))
	sb.WriteString(fmt.Sprintf("| Equity Value | %s |\n", money(t.EquityValue)))
	sb.WriteString(fmt.Sprintf("| Per-Share Value | %s |\n", money(t.PerShareValue)))
	sb.WriteString(fmt.Sprintf("| PV of Terminal Value | %s (%s of EV) |\n", money(t.PVTerminalValue), pct(t.TerminalValuePctOfEV)))
	sb.WriteString(fmt.Sprintf("| Discount Rate (WACC) | %s |\n", pct(r.Params.WACC)))
	sb.WriteString("\n")

	// Forecast
	s := r.Valuation.Series
	sb.WriteString("## Forecast\n\n")
	sb.WriteString("| Year | Revenue | Growth | Margin | NOPAT | Reinvestment | FCFF | PV(FCFF) |\n")
	sb.WriteString("|------|---------|--------|--------|-------|--------------|------|----------|\n")
	for i := range s.Revenue {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s |\n",
			i+1, money(s.Revenue[i]), pct(s.Growth[i]), pct(s.Margin[i]),
			money(s.NOPAT[i]), money(s.Reinvestment[i]), money(s.FCFF[i]), money(s.PVFCFF[i])))
	}
	sb.WriteString("\n")

	// Warnings
	if len(r.Valuation.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Valuation.Warnings {
			if w.Year > 0 {
				sb.WriteString(fmt.Sprintf("- Year %d: %s\n", w.Year, w.Message))
			} else {
				sb.WriteString(fmt.Sprintf("- %s\n", w.Message))
			}
		}
		sb.WriteString("\n")
	}

	if r.Simulation != nil {
		renderSimulation(&sb, r.Simulation)
	}
	if r.Sensitivity != nil {
		renderSensitivity(&sb, r.Sensitivity)
	}

	return sb.String()
}

func renderSimulation(sb *strings.Builder, sum *simulation.Summary) {
	sb.WriteString("## Monte Carlo\n\n")
	sb.WriteString(fmt.Sprintf("%d of %d trials completed (%s), seed %d, correlation %.2f\n\n",
		sum.Completed, sum.Trials, sum.Status(), sum.Seed, sum.Correlation))

	sb.WriteString("| Statistic | Per-Share Value |\n")
	sb.WriteString("|-----------|-----------------|\n")
	sb.WriteString(fmt.Sprintf("| Mean | %s |\n", stat(sum.Mean)))
	sb.WriteString(fmt.Sprintf("| Median | %s |\n", stat(sum.Median)))
	sb.WriteString(fmt.Sprintf("| P10 | %s |\n", stat(sum.P10)))
	sb.WriteString(fmt.Sprintf("| P90 | %s |\n", stat(sum.P90)))
	sb.WriteString(fmt.Sprintf("| Min | %s |\n", stat(sum.Min)))
	sb.WriteString(fmt.Sprintf("| Max | %s |\n", stat(sum.Max)))
	sb.WriteString("\n")
}

func renderSensitivity(sb *strings.Builder, grid *valuation.SensitivityGrid) {
	sb.WriteString("## Sensitivity\n\n")
	sb.WriteString("Per-share value across WACC (rows) and terminal growth (columns).\n\n")

	sb.WriteString("| WACC |")
	for _, g := range grid.GrowthValues {
		fmt.Fprintf(sb, " %s |", pct(g))
	}
	sb.WriteString("\n|------|")
	for range grid.GrowthValues {
		sb.WriteString("------|")
	}
	sb.WriteString("\n")

	for i, w := range grid.WACCValues {
		fmt.Fprintf(sb, "| %s |", pct(w))
		for _, v := range grid.PerShare[i] {
			fmt.Fprintf(sb, " %s |", money(v))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts the markdown report into a standalone HTML page.
func RenderHTML(r *Report) (string, error) {
	var body bytes.Buffer
	if err := htmlRenderer.Convert([]byte(RenderMarkdown(r)), &body); err != nil {
		return "", fmt.Errorf("failed to render report html: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(r.title()))
	sb.WriteString("<style>\n" + reportCSS + "</style>\n</head>\n<body>\n")
	sb.Write(body.Bytes())
	sb.WriteString("</body>\n</html>\n")
	return sb.String(), nil
}

const reportCSS = `body { font-family: sans-serif; margin: 2rem auto; max-width: 60rem; padding: 0 1rem; }
table { border-collapse: collapse; margin-bottom: 1rem; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: right; }
th:first-child, td:first-child { text-align: left; }
`

func money(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// stat formats a simulation statistic, showing n/a for the empty-run NaNs
func stat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
