package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/game"
	"github.com/pthm-cable/evogrid/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []uint64
	baseConfig *config.Config

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestPopulation telemetry.PopulationFile
	lastQuality    float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []uint64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestPopulation returns the final population of the best evaluation.
func (fe *FitnessEvaluator) BestPopulation() telemetry.PopulationFile {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestPopulation
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Fraction of the final generations averaged into the score.
const tailFraction = 0.25

// runResult holds the results from a single simulation run.
type runResult struct {
	history    []telemetry.GenerationRecord
	population telemetry.PopulationFile
	err        error
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness    float64
	quality    float64
	population telemetry.PopulationFile
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated mean fitness of the late generations, so
// populations that keep more energy capacity score lower.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			if result.err != nil {
				slog.Error("evaluation run failed", "seed", s, "error", result.err)
				results[idx] = seedResult{fitness: 0}
				return
			}
			quality := computeQuality(result.history)
			results[idx] = seedResult{
				fitness:    computeFitness(result.history, quality),
				quality:    quality,
				population: result.population,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedPopulation telemetry.PopulationFile

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedPopulation = r.population
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestPopulation = bestSeedPopulation
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless simulation run without file
// output.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint64) *runResult {
	cfg := fe.baseConfig.Clone()
	cfg.Output = config.OutputConfig{}
	fe.params.ApplyToConfig(cfg, x)

	sim, err := game.New(game.Options{Config: cfg, Seed: seed, Quiet: true})
	if err != nil {
		return &runResult{err: err}
	}
	if err := sim.Run(context.Background()); err != nil {
		return &runResult{err: err}
	}
	return &runResult{history: sim.History(), population: sim.Snapshot()}
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(tailFitnessMean × (1.0 + 0.2 × quality))
func computeFitness(history []telemetry.GenerationRecord, quality float64) float64 {
	tail := tailOf(history)
	if len(tail) == 0 {
		return 0
	}
	means := make([]float64, len(tail))
	for i, r := range tail {
		means[i] = r.FitnessMean
	}
	return -(stat.Mean(means, nil) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightSurvival  = 0.5
	qualityWeightStability = 0.3
	qualityWeightForaging  = 0.2
)

// computeQuality scores the late generations in [0, 1]: how many
// specimens survive, how steady the mean fitness is, and how much food is
// found.
func computeQuality(history []telemetry.GenerationRecord) float64 {
	tail := tailOf(history)
	if len(tail) == 0 {
		return 0
	}

	survival := make([]float64, len(tail))
	fitness := make([]float64, len(tail))
	foraging := make([]float64, len(tail))
	for i, r := range tail {
		if r.Population > 0 {
			survival[i] = float64(r.Survived) / float64(r.Population)
			foraging[i] = 1 - math.Exp(-float64(r.FoodEaten)/float64(r.Population))
		}
		fitness[i] = r.FitnessMean
	}

	stability := 0.0
	if len(fitness) >= 2 {
		c := cv(fitness)
		stability = math.Exp(-c * c)
	}

	quality := qualityWeightSurvival*stat.Mean(survival, nil) +
		qualityWeightStability*stability +
		qualityWeightForaging*stat.Mean(foraging, nil)
	return clamp01(quality)
}

// tailOf returns the final tailFraction of the history, at least one
// generation.
func tailOf(history []telemetry.GenerationRecord) []telemetry.GenerationRecord {
	if len(history) == 0 {
		return nil
	}
	n := max(int(float64(len(history))*tailFraction), 1)
	return history[len(history)-n:]
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}
