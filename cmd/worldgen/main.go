// World template generator: writes a random barrier and food layout that
// runs can load with world.template or -world.
//
// Usage: go run ./cmd/worldgen -out world.json -preview world.png
package main

import (
	"flag"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/renderer"
	"github.com/pthm-cable/evogrid/systems"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	dim := flag.Int("dim", 0, "Grid size (0 = use config)")
	barriers := flag.Int("barriers", -1, "Barrier cells (-1 = use config)")
	food := flag.Int("food", -1, "Food source cells (-1 = use config)")
	noiseScale := flag.Float64("noise-scale", -1, "Barrier noise frequency, 0 = uniform (-1 = use config)")
	noiseOctaves := flag.Int("noise-octaves", 0, "Barrier noise octaves (0 = use config)")
	out := flag.String("out", "world.json", "Template output path")
	preview := flag.String("preview", "", "PNG preview path (empty = none)")
	cellPx := flag.Int("cell-px", 8, "Preview pixels per cell")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	params := systems.WorldGenParams{
		Dim:          cfg.World.Dim,
		Barriers:     cfg.World.Barriers,
		FoodSources:  cfg.World.FoodSources,
		NoiseScale:   cfg.World.NoiseScale,
		NoiseOctaves: cfg.World.NoiseOctaves,
	}
	if *dim > 0 {
		params.Dim = *dim
	}
	if *barriers >= 0 {
		params.Barriers = *barriers
	}
	if *food >= 0 {
		params.FoodSources = *food
	}
	if *noiseScale >= 0 {
		params.NoiseScale = *noiseScale
	}
	if *noiseOctaves > 0 {
		params.NoiseOctaves = *noiseOctaves
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(rngSeed, rngSeed^0x9e3779b97f4a7c15))

	tpl, err := systems.GenerateWorld(rng, params)
	if err != nil {
		slog.Error("failed to generate world", "error", err)
		os.Exit(1)
	}
	if err := systems.SaveTemplate(*out, tpl); err != nil {
		slog.Error("failed to save world", "error", err)
		os.Exit(1)
	}

	if *preview != "" {
		if err := renderer.SavePNG(*preview, renderer.TemplateFrame(tpl), *cellPx); err != nil {
			slog.Error("failed to save preview", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("world generated",
		"seed", rngSeed,
		"dim", tpl.Dim,
		"barriers", len(tpl.Barriers),
		"food_sources", len(tpl.Food),
		"out", *out,
		"preview", *preview,
	)
}
