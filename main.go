package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Run directory (empty = runs/<run id>)")
	noOutput := flag.Bool("no-output", false, "Do not write any files")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	generations := flag.Int("generations", 0, "Generations to run (0 = use config)")
	steps := flag.Int("steps", 0, "Steps per generation (0 = use config)")
	worldPath := flag.String("world", "", "World template JSON (overrides config)")
	populationPath := flag.String("population", "", "Population snapshot to start from (overrides config)")
	animate := flag.Bool("animate", false, "Write one video per generation")
	quiet := flag.Bool("headless-quiet", false, "Suppress per-generation log lines")
	verbose := flag.Bool("verbose", false, "Log debug output")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg().Clone()

	if *generations > 0 {
		cfg.Population.Generations = *generations
	}
	if *steps > 0 {
		cfg.Population.Steps = *steps
	}
	if *worldPath != "" {
		cfg.World.Template = *worldPath
	}
	if *populationPath != "" {
		cfg.Population.LoadPath = *populationPath
	}
	if *animate {
		cfg.Output.Animation = true
	}
	cfg.Recompute()

	runID := uuid.NewString()
	dir := *outputDir
	if dir == "" && !*noOutput {
		dir = filepath.Join("runs", runID)
	}
	if *noOutput {
		dir = ""
	}

	sim, err := game.New(game.Options{
		Config:    cfg,
		Seed:      *seed,
		RunID:     runID,
		OutputDir: dir,
		Quiet:     *quiet,
	})
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("simulation failed", "error", err)
		stop()
		os.Exit(1)
	}
}
