package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"dcflab/pkg/core/reporting"
	"dcflab/pkg/core/scenario"
	"dcflab/pkg/core/simulation"
	"dcflab/pkg/core/store"
	"dcflab/pkg/core/valuation"
)

func main() {
	// Load environment variables
	godotenv.Load()

	scenarioPath := flag.String("scenario", "", "Scenario file (.hjson, .yaml or .json) (required)")
	mc := flag.Bool("mc", false, "Run the Monte Carlo simulation even without a scenario simulation block")
	trials := flag.Int("trials", 0, "Override the scenario's trial count")
	seed := flag.String("seed", "", "Override the scenario's seed")
	sensitivity := flag.Bool("sensitivity", false, "Include the WACC x terminal-growth sensitivity grid")
	outMD := flag.String("out-md", "", "Write the markdown report to this path")
	outHTML := flag.String("out-html", "", "Write the HTML report to this path")
	outCSV := flag.String("out-csv", "", "Write the forecast series CSV to this path")
	outOutcomes := flag.String("out-outcomes", "", "Write the Monte Carlo outcomes CSV to this path")
	outXLSX := flag.String("out-xlsx", "", "Write the XLSX workbook to this path")
	dbPath := flag.String("db", "", "Record the run in this SQLite database (default $SQLITE_PATH)")
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -scenario is required")
		flag.Usage()
		os.Exit(1)
	}
	if *dbPath == "" {
		*dbPath = os.Getenv("SQLITE_PATH")
	}

	scn, err := scenario.Load(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scenario: %v\n", err)
		os.Exit(1)
	}
	if err := scn.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var runLog *store.RunLog
	if *dbPath != "" {
		runLog, err = store.OpenRunLog(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening run database: %v\n", err)
			os.Exit(1)
		}
		defer runLog.Close()
	}

	params := scn.Valuation
	result := valuation.Compute(params)

	fmt.Printf("[DCF] %s (%s): %d-year forecast\n", params.Ticker, scn.Name, len(result.Series.Revenue))
	fmt.Printf("  Enterprise value:  %.1f\n", result.Totals.EnterpriseValue)
	fmt.Printf("  Equity value:      %.1f\n", result.Totals.EquityValue)
	fmt.Printf("  Per share:         %.2f\n", result.Totals.PerShareValue)
	fmt.Printf("  Terminal value:    %.1f%% of EV\n", result.Totals.TerminalValuePctOfEV*100)
	for _, warn := range result.Warnings {
		if warn.Year > 0 {
			fmt.Printf("  [WARN] Year %d: %s\n", warn.Year, warn.Message)
		} else {
			fmt.Printf("  [WARN] %s\n", warn.Message)
		}
	}

	rep := reporting.New(scn.Name, params, result)

	if *sensitivity {
		grid := valuation.SensitivityMatrix(valuation.SensitivityInput{Base: params})
		rep = rep.WithSensitivity(&grid)
	}

	var summary *simulation.Summary
	if *mc || scn.Simulation != nil {
		cfg := scn.SimulationConfig()
		if *trials > 0 {
			cfg.Trials = *trials
		}
		if *seed != "" {
			cfg.Seed = *seed
		}
		cfg.OnProgress = func(done, total int, elapsed time.Duration) {
			fmt.Printf("[SIM] %d/%d trials (%s)\n", done, total, elapsed.Round(time.Millisecond))
		}

		// Ctrl+C stops at the next trial boundary; finished trials are kept
		token := simulation.NewCancelToken()
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		go func() {
			<-sigCh
			fmt.Println("[SIM] Cancel requested, stopping at the next trial boundary...")
			token.Cancel()
		}()

		var settingsStore simulation.SettingsStore
		if runLog != nil {
			settingsStore = runLog
		}
		orch := simulation.NewOrchestrator(simulation.Options{Settings: settingsStore})

		summary, err = orch.Run(context.Background(), params, cfg, token)
		signal.Stop(sigCh)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running simulation: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("[SIM] %s: %d of %d trials, seed %d (%s)\n",
			summary.Status(), summary.Completed, summary.Trials, summary.Seed,
			summary.Elapsed.Round(time.Millisecond))
		if summary.N > 0 {
			fmt.Printf("  Mean:   %.2f\n", summary.Mean)
			fmt.Printf("  Median: %.2f\n", summary.Median)
			fmt.Printf("  P10:    %.2f   P90: %.2f\n", summary.P10, summary.P90)
			fmt.Printf("  Range:  %.2f to %.2f\n", summary.Min, summary.Max)
		}
		rep = rep.WithSimulation(summary)

		if runLog != nil {
			rec := store.NewRunRecord(scn.Name, params, cfg.UsedSettings(summary), summary)
			if err := runLog.SaveRun(context.Background(), rec); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to record run: %v\n", err)
			} else {
				fmt.Printf("[DB] Run %s recorded in %s\n", rec.ID, *dbPath)
			}
		}
	}

	var artifacts []string
	writeText := func(path, content string) {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		artifacts = append(artifacts, path)
	}

	if *outMD != "" {
		writeText(*outMD, reporting.RenderMarkdown(rep))
	}
	if *outHTML != "" {
		html, err := reporting.RenderHTML(rep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering HTML: %v\n", err)
			os.Exit(1)
		}
		writeText(*outHTML, html)
	}
	if *outCSV != "" {
		writeText(*outCSV, reporting.RenderSeriesCSV(rep))
	}
	if *outOutcomes != "" {
		if summary == nil {
			fmt.Fprintln(os.Stderr, "Error: -out-outcomes needs a simulation (use -mc or a scenario simulation block)")
			os.Exit(1)
		}
		writeText(*outOutcomes, reporting.RenderOutcomesCSV(summary))
	}
	if *outXLSX != "" {
		if err := reporting.WriteXLSX(rep, *outXLSX); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing workbook: %v\n", err)
			os.Exit(1)
		}
		artifacts = append(artifacts, *outXLSX)
	}

	if len(artifacts) > 0 {
		fmt.Println("Artifacts written:")
		for _, path := range artifacts {
			fmt.Printf("  - %s\n", path)
		}
	}
}
