package main

import (
	"math"

	"github.com/pthm-cable/evogrid/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // Rounded before use
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Evolution
			{Name: "mutation_probability", Path: "evolution.mutation_probability", Min: 0.0, Max: 0.5, Default: 0.2},
			{Name: "mutate_n_genes", Path: "evolution.mutate_n_genes", Min: 1, Max: 4, Default: 2, Integer: true},
			{Name: "mutate_n_bits", Path: "evolution.mutate_n_bits", Min: 1, Max: 8, Default: 2, Integer: true},
			// Energy (entry_max and max_supremum locked)
			{Name: "food_added", Path: "energy.food_added", Min: 0.5, Max: 5.0, Default: 2.0},
			{Name: "food_increase", Path: "energy.food_increase", Min: 0.01, Max: 0.5, Default: 0.1},
			{Name: "per_move", Path: "energy.per_move", Min: 0.05, Max: 1.0, Default: 0.2},
			// Specimen
			{Name: "responsiveness_k", Path: "specimen.responsiveness_k", Min: 0.5, Max: 4.0, Default: 2.0},
			{Name: "action_threshold", Path: "specimen.action_threshold", Min: 0.1, Max: 0.9, Default: 0.5},
			// Pheromones
			{Name: "pheromone_diffusion", Path: "pheromone.diffusion", Min: 0.0, Max: 0.2, Default: 0.01},
			{Name: "pheromone_decay", Path: "pheromone.decay", Min: 0.0, Max: 0.3, Default: 0.05},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds and integer parameters are
// whole.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := min(max(v[i], spec.Min), spec.Max)
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config and recomputes its
// derived values. Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	i := 0
	next := func() float64 {
		v := clamped[i]
		i++
		return v
	}

	cfg.Evolution.MutationProbability = next()
	cfg.Evolution.MutateNGenes = min(int(next()), cfg.Genome.Length)
	cfg.Evolution.MutateNBits = int(next())

	cfg.Energy.FoodAdded = next()
	cfg.Energy.FoodIncrease = next()
	cfg.Energy.PerMove = next()

	cfg.Specimen.ResponsivenessK = next()
	cfg.Specimen.ActionThreshold = next()

	cfg.Pheromone.Diffusion = next()
	cfg.Pheromone.Decay = next()

	cfg.Recompute()
}

// ExtractFromConfig extracts current parameter values from a Config.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Evolution.MutationProbability,
		float64(cfg.Evolution.MutateNGenes),
		float64(cfg.Evolution.MutateNBits),
		cfg.Energy.FoodAdded,
		cfg.Energy.FoodIncrease,
		cfg.Energy.PerMove,
		cfg.Specimen.ResponsivenessK,
		cfg.Specimen.ActionThreshold,
		cfg.Pheromone.Diffusion,
		cfg.Pheromone.Decay,
	}
}
