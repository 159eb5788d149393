package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.World.Dim != 50 {
		t.Errorf("World.Dim = %d, want 50", cfg.World.Dim)
	}
	if cfg.Population.Size != 100 {
		t.Errorf("Population.Size = %d, want 100", cfg.Population.Size)
	}
	if cfg.Genome.Length != 16 {
		t.Errorf("Genome.Length = %d, want 16", cfg.Genome.Length)
	}
	if math.Abs(cfg.Derived.EnergyDecrease-0.1) > 1e-9 {
		t.Errorf("Derived.EnergyDecrease = %v, want 0.1", cfg.Derived.EnergyDecrease)
	}
	if cfg.Derived.SelectN != 10 {
		t.Errorf("Derived.SelectN = %d, want 10", cfg.Derived.SelectN)
	}
}

func TestDerivedCounts(t *testing.T) {
	tests := []struct {
		name        string
		kill        bool
		pheromones  bool
		wantSensors int
		wantActions int
		wantRemap   bool
	}{
		{"all enabled", true, true, 28, 16, false},
		{"kill disabled", false, true, 28, 15, true},
		{"pheromones disabled", true, false, 25, 15, false},
		{"both disabled", false, false, 25, 14, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			cfg.Features.KillEnabled = tt.kill
			cfg.Features.PheromonesEnabled = tt.pheromones
			cfg.Recompute()

			if cfg.Derived.SensorCount != tt.wantSensors {
				t.Errorf("SensorCount = %d, want %d", cfg.Derived.SensorCount, tt.wantSensors)
			}
			if cfg.Derived.ActionCount != tt.wantActions {
				t.Errorf("ActionCount = %d, want %d", cfg.Derived.ActionCount, tt.wantActions)
			}
			if cfg.Derived.RemapKill != tt.wantRemap {
				t.Errorf("RemapKill = %v, want %v", cfg.Derived.RemapKill, tt.wantRemap)
			}
		})
	}
}

func TestSelectNFloor(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Population.Size = 5
	cfg.Recompute()
	if cfg.Derived.SelectN != 2 {
		t.Errorf("SelectN for population 5 = %d, want 2", cfg.Derived.SelectN)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("population:\n  size: 40\n  steps: 20\nfeatures:\n  kill_enabled: true\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Population.Size != 40 {
		t.Errorf("Population.Size = %d, want 40", cfg.Population.Size)
	}
	// Untouched keys keep their defaults
	if cfg.Population.Generations != 100 {
		t.Errorf("Population.Generations = %d, want 100", cfg.Population.Generations)
	}
	if math.Abs(cfg.Derived.EnergyDecrease-0.5) > 1e-9 {
		t.Errorf("Derived.EnergyDecrease = %v, want 0.5", cfg.Derived.EnergyDecrease)
	}
	if !cfg.Features.KillEnabled {
		t.Error("Features.KillEnabled should be overridden to true")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"tiny population", "population:\n  size: 1\n"},
		{"population beyond grid index range", "world:\n  dim: 200\npopulation:\n  size: 33000\n"},
		{"too many mutated genes", "evolution:\n  mutate_n_genes: 99\n"},
		{"bad store", "output:\n  store: postgres\n"},
		{"bad food range", "world:\n  min_food: 10\n  max_food: 2\n"},
		{"negative hall of fame", "output:\n  hall_of_fame: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Population.Size = 33

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if loaded.Population.Size != 33 {
		t.Errorf("Population.Size = %d, want 33", loaded.Population.Size)
	}
}

func TestValidatePopulationLimit(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Population.Size = MaxPopulation
	if err := cfg.Validate(); err != nil {
		t.Errorf("population of %d rejected: %v", MaxPopulation, err)
	}
	cfg.Population.Size = MaxPopulation + 1
	if err := cfg.Validate(); err == nil {
		t.Errorf("population of %d accepted, grid indices would overflow", MaxPopulation+1)
	}
}
