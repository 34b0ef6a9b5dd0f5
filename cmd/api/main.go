package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"dcflab/pkg/api/simulation"
	"dcflab/pkg/api/valuation"
	"dcflab/pkg/core/config"
	coreSimulation "dcflab/pkg/core/simulation"
	"dcflab/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	cfgPath := "config/app.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[FATAL] load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("[FATAL] config validation: %v\n", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg.Log.Level)
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	// Storage: Postgres when configured, the SQLite run log as fallback,
	// in-memory otherwise. A storage failure downgrades instead of
	// refusing to start; runs still work, history just does not survive.
	var settingsStore coreSimulation.SettingsStore
	var runStore store.RunStore
	switch {
	case cfg.Database.URL != "":
		if err := store.InitDB(context.Background(), cfg.Database.URL); err != nil {
			zap.L().Warn("Postgres unavailable, using in-memory stores", zap.Error(err))
			mem := store.NewMemoryStore()
			settingsStore, runStore = mem, mem
		} else {
			defer store.Close()
			settingsStore = store.NewSettingsRepo()
			runStore = store.NewRunRepo()
			zap.L().Info("Using Postgres stores")
		}
	case cfg.Database.SQLitePath != "":
		runLog, err := store.OpenRunLog(cfg.Database.SQLitePath)
		if err != nil {
			zap.L().Warn("SQLite unavailable, using in-memory stores", zap.Error(err))
			mem := store.NewMemoryStore()
			settingsStore, runStore = mem, mem
		} else {
			defer runLog.Close()
			settingsStore, runStore = runLog, runLog
			zap.L().Info("Using SQLite run log", zap.String("path", cfg.Database.SQLitePath))
		}
	default:
		mem := store.NewMemoryStore()
		settingsStore, runStore = mem, mem
	}

	orch := coreSimulation.NewOrchestrator(coreSimulation.Options{Settings: settingsStore})

	// Valuation endpoints
	http.HandleFunc("/api/valuation/dcf", valuation.HandleDCF)
	http.HandleFunc("/api/valuation/sensitivity", valuation.HandleSensitivity)

	// Simulation endpoints
	simulation.InitHandler(orch, settingsStore, runStore)
	http.HandleFunc("/api/simulation/run", simulation.HandleRun)
	http.HandleFunc("/api/simulation/stream", simulation.HandleStream)
	http.HandleFunc("/api/simulation/settings", simulation.HandleSettings)
	http.HandleFunc("/api/simulation/runs", simulation.HandleRuns)

	fmt.Printf("API server starting on %s...\n", cfg.Server.Addr)
	fmt.Println("  - POST /api/valuation/dcf")
	fmt.Println("  - POST /api/valuation/sensitivity")
	fmt.Println("  - POST /api/simulation/run")
	fmt.Println("  - GET  /api/simulation/stream  (SSE streaming)")
	fmt.Println("  - GET/PUT /api/simulation/settings")
	fmt.Println("  - GET  /api/simulation/runs")

	srv := &http.Server{Addr: cfg.Server.Addr}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zap.L().Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Shutdown error", zap.Error(err))
	}
	zap.L().Info("Server stopped")
}

func buildLogger(level string) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	switch level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, _ := zapCfg.Build()
	return logger
}
