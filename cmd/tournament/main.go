// cda-sim-tournament runs N independent replications of a configured
// continuous double-auction market and reports aggregate surplus and
// efficiency statistics.
//
// Architecture:
//
//	main.go                    — entry point: loads config, runs the tournament, serves results
//	internal/config            — MarketConfig/TournamentConfig loading + validation
//	internal/environment       — builds traders, demand/supply curves, competitive equilibrium
//	internal/auction           — limit order book + double-auction institution
//	internal/trader            — endowments, the five bidding strategies, per-trader ledger
//	internal/simulator         — single-period round driver
//	internal/tournament        — N-replication orchestration + aggregate statistics
//	internal/resultsapi        — read-only HTTP JSON endpoint serving the last run
//	internal/store             — JSON file persistence for completed runs
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cda-sim/internal/config"
	"cda-sim/internal/resultsapi"
	"cda-sim/internal/store"
	"cda-sim/internal/tournament"
)

// latestRun adapts the most recently completed tournament.Summary to
// resultsapi.ResultsProvider.
type latestRun struct {
	mu      sync.RWMutex
	name    string
	summary tournament.Summary
	has     bool
}

func (r *latestRun) MarketName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

func (r *latestRun) LatestSummary() (tournament.Summary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.summary, r.has
}

func (r *latestRun) set(name string, s tournament.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = name
	r.summary = s
	r.has = true
}

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("CDA_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	st, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	run := &latestRun{}

	var apiServer *resultsapi.Server
	if cfg.Dashboard.Enabled {
		apiServer = resultsapi.NewServer(cfg.Dashboard.Port, run, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("results server failed", "error", err)
			}
		}()
		logger.Info("results server started", "addr", fmt.Sprintf(":%d", cfg.Dashboard.Port))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tr := tournament.New(cfg.Tournament, logger)
	logger.Info("tournament starting",
		"market", cfg.Tournament.Market.MarketName,
		"replications", cfg.Tournament.Replications,
		"sim_period", cfg.Tournament.SimPeriod,
	)

	summary, err := tr.Run(ctx)
	if err != nil {
		logger.Error("tournament failed", "error", err)
		os.Exit(1)
	}

	run.set(cfg.Tournament.Market.MarketName, summary)
	logger.Info("tournament complete",
		"replications", summary.Replications,
		"failed", summary.Failed,
		"mean_surplus", summary.MeanSurplus,
		"mean_efficiency", summary.MeanEfficiency,
	)

	runID := cfg.Tournament.Market.MarketName + "_" + time.Now().UTC().Format("20060102T150405Z")
	if err := st.SaveRun(runID, summary); err != nil {
		logger.Error("failed to persist run", "error", err)
	}

	if apiServer != nil {
		<-ctx.Done()
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop results server", "error", err)
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
