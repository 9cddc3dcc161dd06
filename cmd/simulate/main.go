// cda-sim-simulate runs a single period of a configured continuous
// double-auction market and prints the resulting order book, contracts,
// and allocative efficiency.
package main

import (
	"log/slog"
	"math/rand"
	"os"

	"cda-sim/internal/config"
	"cda-sim/internal/environment"
	"cda-sim/internal/simulator"
)

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

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	seed := cfg.Tournament.RootSeed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	env, err := environment.New(cfg.Tournament.Market, rng)
	if err != nil {
		logger.Error("failed to build environment", "error", err)
		os.Exit(1)
	}

	sim := simulator.New(cfg.Tournament.Market.MarketName, env, rng, logger)
	result := sim.Run(cfg.Tournament.SimPeriod)

	logger.Info("period complete",
		"contracts", len(result.Contracts),
		"actual_surplus", result.ActualSurplus,
		"max_surplus", result.MaxSurplus,
		"efficiency", result.Efficiency,
		"eq_units", result.Equilibrium.Units,
	)

	os.Stdout.WriteString(sim.Institution().Book().String())
}
