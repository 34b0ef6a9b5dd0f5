// Package valuation exposes the DCF calculator and sensitivity grid over HTTP.
package valuation

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"dcflab/pkg/core/valuation"
)

// HandleDCF computes a deterministic multi-stage DCF from the posted
// assumptions and returns the full year series, totals and warnings.
func HandleDCF(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var params valuation.Parameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if params.BaseRevenue <= 0 {
		http.Error(w, "base_revenue must be positive", http.StatusBadRequest)
		return
	}

	result := valuation.Compute(params)
	zap.L().Info("DCF computed",
		zap.String("ticker", params.Ticker),
		zap.Int("years", params.Years),
		zap.Float64("per_share", result.Totals.PerShareValue),
		zap.Int("warnings", len(result.Warnings)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleSensitivity evaluates the two-way WACC x terminal-growth data
// table around the posted base case.
func HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input valuation.SensitivityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.Base.BaseRevenue <= 0 {
		http.Error(w, "base.base_revenue must be positive", http.StatusBadRequest)
		return
	}

	grid := valuation.SensitivityMatrix(input)
	zap.L().Info("Sensitivity grid computed",
		zap.String("ticker", input.Base.Ticker),
		zap.Int("rows", len(grid.WACCValues)),
		zap.Int("cols", len(grid.GrowthValues)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(grid)
}
