// Package simulation exposes Monte Carlo runs, settings and run history over HTTP.
package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"dcflab/pkg/core/simulation"
	"dcflab/pkg/core/store"
	"dcflab/pkg/core/valuation"
)

var (
	orchestrator  *simulation.Orchestrator
	settingsStore simulation.SettingsStore
	runStore      store.RunStore
)

// InitHandler wires the handlers' collaborators. Either store may be nil:
// settings then fall back to the defaults and run history is not kept.
func InitHandler(orch *simulation.Orchestrator, settings simulation.SettingsStore, runs store.RunStore) {
	orchestrator = orch
	settingsStore = settings
	runStore = runs
}

// ProgressEvent represents a single SSE progress update
type ProgressEvent struct {
	Step     string `json:"step"`   // "init", "simulate", "complete", "error"
	Status   string `json:"status"` // "started", "progress", "done", "error"
	Detail   string `json:"detail,omitempty"`
	TimingMs int64  `json:"timing_ms,omitempty"`
	Data     any    `json:"data,omitempty"` // Final record on "complete"
}

// RunRequest is the body of POST /api/simulation/run. Config may be
// omitted; the stored last-used settings (or the defaults) then apply.
type RunRequest struct {
	Scenario string               `json:"scenario,omitempty"`
	Params   valuation.Parameters `json:"params"`
	Config   *simulation.Config   `json:"config,omitempty"`
}

// HandleRun executes a Monte Carlo run synchronously and returns the run
// record: the inputs as actually used plus the outcome summary.
func HandleRun(w http.ResponseWriter, r *http.Request) {
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

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Params.BaseRevenue <= 0 {
		http.Error(w, "params.base_revenue must be positive", http.StatusBadRequest)
		return
	}

	cfg := resolveConfig(r.Context(), req.Config)
	summary, err := orchestrator.Run(r.Context(), req.Params, cfg, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec := store.NewRunRecord(req.Scenario, req.Params, cfg.UsedSettings(summary), summary)
	if runStore != nil {
		if err := runStore.SaveRun(r.Context(), rec); err != nil {
			zap.L().Error("Failed to persist run", zap.String("id", rec.ID), zap.Error(err))
		}
	}

	zap.L().Info("Simulation run finished",
		zap.String("ticker", req.Params.Ticker),
		zap.String("id", rec.ID),
		zap.Int("completed", summary.Completed),
		zap.Int("trials", summary.Trials),
		zap.Duration("elapsed", summary.Elapsed))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// HandleStream runs a simulation with progress streamed over SSE.
//
// EventSource clients can only issue GETs, so the valuation parameters
// travel as URL-encoded JSON in the params query value; trials, seed and
// correlation may be overridden with plain query values. A dropped
// connection cancels the run at the next trial boundary.
func HandleStream(w http.ResponseWriter, r *http.Request) {
	// SSE headers - must be set before any write
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Helper to send SSE event
	sendEvent := func(event ProgressEvent) {
		data, _ := json.Marshal(event)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	// Send immediate heartbeat to establish connection
	sendEvent(ProgressEvent{Step: "init", Status: "started", Detail: "Connection established"})

	paramsJSON := r.URL.Query().Get("params")
	if paramsJSON == "" {
		sendEvent(ProgressEvent{Step: "error", Status: "error", Detail: "Missing params query value"})
		return
	}
	var params valuation.Parameters
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		sendEvent(ProgressEvent{Step: "error", Status: "error", Detail: fmt.Sprintf("Bad params: %v", err)})
		return
	}
	if params.BaseRevenue <= 0 {
		sendEvent(ProgressEvent{Step: "error", Status: "error", Detail: "base_revenue must be positive"})
		return
	}

	cfg := resolveConfig(r.Context(), nil)
	if trialsStr := r.URL.Query().Get("trials"); trialsStr != "" {
		if n, err := strconv.Atoi(trialsStr); err == nil {
			cfg.Trials = n
		}
	}
	if seed := r.URL.Query().Get("seed"); seed != "" {
		cfg.Seed = seed
	}
	if rhoStr := r.URL.Query().Get("correlation"); rhoStr != "" {
		if rho, err := strconv.ParseFloat(rhoStr, 64); err == nil {
			cfg.Correlation = rho
		}
	}
	cfg.OnProgress = func(done, total int, elapsed time.Duration) {
		sendEvent(ProgressEvent{
			Step:     "simulate",
			Status:   "progress",
			Detail:   fmt.Sprintf("%d/%d trials", done, total),
			TimingMs: elapsed.Milliseconds(),
		})
	}

	sendEvent(ProgressEvent{Step: "simulate", Status: "started",
		Detail: fmt.Sprintf("Running up to %d trials for %s...", cfg.Trials, params.Ticker)})

	summary, err := orchestrator.Run(r.Context(), params, cfg, nil)
	if err != nil {
		sendEvent(ProgressEvent{Step: "error", Status: "error", Detail: err.Error()})
		return
	}

	rec := store.NewRunRecord("", params, cfg.UsedSettings(summary), summary)
	// A cancelled stream means the client went away; nobody is left to
	// read the record, so only finished runs enter the history.
	if runStore != nil && !summary.Cancelled {
		if err := runStore.SaveRun(r.Context(), rec); err != nil {
			zap.L().Error("Failed to persist streamed run", zap.String("id", rec.ID), zap.Error(err))
		}
	}

	sendEvent(ProgressEvent{
		Step:     "complete",
		Status:   "done",
		Detail:   fmt.Sprintf("%d of %d trials (%s)", summary.Completed, summary.Trials, summary.Status()),
		TimingMs: summary.Elapsed.Milliseconds(),
		Data:     rec,
	})
}

// HandleSettings serves the analyst's remembered simulation settings.
// GET returns the stored values, falling back to the defaults when the
// store is empty or absent; PUT validates and persists new values.
func HandleSettings(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case "GET":
		getSettings(w, r)
	case "PUT":
		putSettings(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func getSettings(w http.ResponseWriter, r *http.Request) {
	s := simulation.DefaultSettings()
	if settingsStore != nil {
		stored, err := settingsStore.GetSettings(r.Context())
		if err != nil {
			zap.L().Error("Failed to load settings", zap.Error(err))
		} else if stored != nil {
			s = *stored
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

func putSettings(w http.ResponseWriter, r *http.Request) {
	var s simulation.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if verr := s.Config().Validate(); verr != nil {
		http.Error(w, verr.Error(), http.StatusBadRequest)
		return
	}
	if settingsStore == nil {
		http.Error(w, "No settings store configured", http.StatusServiceUnavailable)
		return
	}
	if err := settingsStore.SaveSettings(r.Context(), s); err != nil {
		zap.L().Error("Failed to save settings", zap.Error(err))
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

// HandleRuns lists persisted run history, newest first. The ticker query
// value filters, limit caps the page, and id fetches a single record.
func HandleRuns(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if runStore == nil {
		http.Error(w, "No run store configured", http.StatusServiceUnavailable)
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		rec, err := runStore.GetRun(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, _ = strconv.Atoi(limitStr)
	}

	runs, err := runStore.ListRuns(r.Context(), r.URL.Query().Get("ticker"), limit)
	if err != nil {
		zap.L().Error("Failed to list runs", zap.Error(err))
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// resolveConfig picks the effective run config: an explicit request config
// wins, otherwise the stored last-used settings, otherwise the defaults.
func resolveConfig(ctx context.Context, override *simulation.Config) simulation.Config {
	if override != nil {
		return *override
	}
	if settingsStore != nil {
		if s, err := settingsStore.GetSettings(ctx); err == nil && s != nil {
			return s.Config()
		}
	}
	return simulation.DefaultSettings().Config()
}
