// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Sensor and action enum sizes. The pheromone sensors are the last three
// sensors and EMIT_PHEROMONE is the last action, so disabling features
// truncates the active id range from the end.
const (
	numSensors          = 28
	numPheromoneSensors = 3
	numActions          = 16
)

// MaxPopulation is the largest population whose indices fit a grid cell.
const MaxPopulation = math.MaxInt16

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Genome     GenomeConfig     `yaml:"genome"`
	Specimen   SpecimenConfig   `yaml:"specimen"`
	Energy     EnergyConfig     `yaml:"energy"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Features   FeaturesConfig   `yaml:"features"`
	Pheromone  PheromoneConfig  `yaml:"pheromone"`
	Output     OutputConfig     `yaml:"output"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions and world generation parameters.
type WorldConfig struct {
	Dim          int     `yaml:"dim"`           // Grid is Dim x Dim cells
	Barriers     int     `yaml:"barriers"`      // Barrier cells in a random world
	FoodSources  int     `yaml:"food_sources"`  // Food source cells in a random world
	MinFood      int     `yaml:"min_food"`      // Food units per source, lower bound (inclusive)
	MaxFood      int     `yaml:"max_food"`      // Food units per source, upper bound (inclusive)
	Template     string  `yaml:"template"`      // World template JSON (empty = random world)
	NoiseScale   float64 `yaml:"noise_scale"`   // Barrier clustering noise frequency (0 = uniform placement)
	NoiseOctaves int     `yaml:"noise_octaves"` // FBM octaves for barrier noise
}

// PopulationConfig holds population and run length parameters.
type PopulationConfig struct {
	Size        int    `yaml:"size"`
	Generations int    `yaml:"generations"`
	Steps       int    `yaml:"steps"`     // Steps per generation
	LoadPath    string `yaml:"load_path"` // Population snapshot to start from (empty = random)
}

// GenomeConfig holds genome shape parameters.
type GenomeConfig struct {
	Length          int `yaml:"length"`            // Genes per genome
	MaxInnerNeurons int `yaml:"max_inner_neurons"` // Inner neuron id range
}

// SpecimenConfig holds per-specimen behaviour parameters.
type SpecimenConfig struct {
	LongProbeDistance   int     `yaml:"long_probe_distance"`  // Initial long probe distance
	ResponsivenessK     float64 `yaml:"responsiveness_k"`     // Response curve steepness
	NeighbourhoodRadius int     `yaml:"neighbourhood_radius"` // Density sensor radius
	ActionThreshold     float64 `yaml:"action_threshold"`     // Min probability for kill/emit to fire
}

// EnergyConfig holds the energy economy.
type EnergyConfig struct {
	FoodAdded       float64 `yaml:"food_added"`        // Energy gained per food unit
	FoodIncrease    float64 `yaml:"food_increase"`     // Max energy gained per food unit
	PerMove         float64 `yaml:"per_move"`          // Energy used per cell moved
	EntryMax        float64 `yaml:"entry_max"`         // Max energy of a random specimen
	MaxSupremum     float64 `yaml:"max_supremum"`      // Upper bound of max energy
	DecreasePerStep float64 `yaml:"decrease_per_step"` // Passive drain per step (0 = entry_max / steps)
}

// EvolutionConfig holds selection and mutation parameters.
type EvolutionConfig struct {
	MutationProbability float64 `yaml:"mutation_probability"` // Per alive specimen per step
	MutateNGenes        int     `yaml:"mutate_n_genes"`
	MutateNBits         int     `yaml:"mutate_n_bits"`
	SelectN             int     `yaml:"select_n"` // Selection quota (0 = max(10% of population, 2))
}

// FeaturesConfig toggles optional behaviours.
type FeaturesConfig struct {
	KillEnabled       bool `yaml:"kill_enabled"`
	PheromonesEnabled bool `yaml:"pheromones_enabled"`
}

// PheromoneConfig holds pheromone field parameters.
type PheromoneConfig struct {
	Diffusion float64 `yaml:"diffusion"`
	Decay     float64 `yaml:"decay"`
	Strength  float64 `yaml:"strength"`
}

// OutputConfig holds persistence and rendering toggles.
type OutputConfig struct {
	SaveSteps       bool   `yaml:"save_steps"`
	SaveGenerations bool   `yaml:"save_generations"`
	SaveSelections  bool   `yaml:"save_selections"`
	SavePopulation  bool   `yaml:"save_population"`
	SaveConfig      bool   `yaml:"save_config"`
	SaveGrid        bool   `yaml:"save_grid"`
	Animation       bool   `yaml:"animation"`
	AnimationCellPx int    `yaml:"animation_cell_px"`
	AnimationFPS    int    `yaml:"animation_fps"`
	Chart           bool   `yaml:"chart"`
	Store           string `yaml:"store"`        // "" or "sqlite"
	QueueSize       int    `yaml:"queue_size"`   // Buffered records per writer
	HallOfFame      int    `yaml:"hall_of_fame"` // Entries per hall (0 = disabled)
	Bookmarks       bool   `yaml:"bookmarks"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SensorCount    int     // Active sensor ids
	ActionCount    int     // Active action ids
	RemapKill      bool    // KILL genes target EMIT_PHEROMONE instead
	EnergyDecrease float64 // Effective passive drain per step
	SelectN        int     // Effective selection quota
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Clone returns a deep copy with derived values recomputed.
func (c *Config) Clone() *Config {
	cp := *c
	cp.computeDerived()
	return &cp
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() {
	c.computeDerived()
}

// Validate reports settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.World.Dim < 3 {
		errs = append(errs, fmt.Errorf("world.dim must be >= 3, got %d", c.World.Dim))
	}
	if c.World.MinFood < 0 || c.World.MaxFood < c.World.MinFood {
		errs = append(errs, fmt.Errorf("world food range [%d,%d] is invalid", c.World.MinFood, c.World.MaxFood))
	}
	if c.Population.Size < 2 || c.Population.Size > MaxPopulation {
		errs = append(errs, fmt.Errorf("population.size must be in [2,%d], got %d", MaxPopulation, c.Population.Size))
	}
	if c.Population.Steps < 1 {
		errs = append(errs, fmt.Errorf("population.steps must be >= 1, got %d", c.Population.Steps))
	}
	if c.Genome.Length < 2 {
		errs = append(errs, fmt.Errorf("genome.length must be >= 2, got %d", c.Genome.Length))
	}
	if c.Genome.MaxInnerNeurons < 1 {
		errs = append(errs, fmt.Errorf("genome.max_inner_neurons must be >= 1, got %d", c.Genome.MaxInnerNeurons))
	}
	if c.Evolution.MutateNGenes < 0 || c.Evolution.MutateNGenes > c.Genome.Length {
		errs = append(errs, fmt.Errorf("evolution.mutate_n_genes must be in [0,%d], got %d", c.Genome.Length, c.Evolution.MutateNGenes))
	}
	if c.Evolution.MutateNBits < 1 || c.Evolution.MutateNBits > 32 {
		errs = append(errs, fmt.Errorf("evolution.mutate_n_bits must be in [1,32], got %d", c.Evolution.MutateNBits))
	}
	if c.Evolution.SelectN != 0 && (c.Evolution.SelectN < 2 || c.Evolution.SelectN > c.Population.Size) {
		errs = append(errs, fmt.Errorf("evolution.select_n must be in [2,%d], got %d", c.Population.Size, c.Evolution.SelectN))
	}
	if c.Energy.EntryMax <= 0 || c.Energy.MaxSupremum < c.Energy.EntryMax {
		errs = append(errs, errors.New("energy.entry_max must be > 0 and <= energy.max_supremum"))
	}
	if c.Pheromone.Diffusion < 0 || c.Pheromone.Diffusion > 1 || c.Pheromone.Decay < 0 || c.Pheromone.Decay > 1 {
		errs = append(errs, errors.New("pheromone diffusion and decay must be in [0,1]"))
	}
	if c.Output.HallOfFame < 0 {
		errs = append(errs, fmt.Errorf("output.hall_of_fame must be >= 0, got %d", c.Output.HallOfFame))
	}
	switch c.Output.Store {
	case "", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("output.store %q is not supported", c.Output.Store))
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.SensorCount = numSensors
	c.Derived.ActionCount = numActions
	if !c.Features.PheromonesEnabled {
		c.Derived.SensorCount -= numPheromoneSensors
		c.Derived.ActionCount--
	}
	if !c.Features.KillEnabled {
		c.Derived.ActionCount--
	}
	c.Derived.RemapKill = !c.Features.KillEnabled && c.Features.PheromonesEnabled

	c.Derived.EnergyDecrease = c.Energy.DecreasePerStep
	if c.Derived.EnergyDecrease == 0 && c.Population.Steps > 0 {
		c.Derived.EnergyDecrease = c.Energy.EntryMax / float64(c.Population.Steps)
	}

	c.Derived.SelectN = c.Evolution.SelectN
	if c.Derived.SelectN == 0 {
		c.Derived.SelectN = max(int(0.1*float64(c.Population.Size)), 2)
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
