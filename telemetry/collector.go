package telemetry

import "time"

// Collector accumulates step counters over a generation and produces a
// GenerationRecord when the generation ends.
type Collector struct {
	generation int
	started    time.Time
	foodStart  int

	steps      int
	kills      int
	mutations  int
	cellsMoved int
	foodLeft   int
}

// NewCollector creates a new generation collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Begin resets the counters for a new generation. foodTotal is the number of
// food units on the grid before the first step.
func (c *Collector) Begin(generation, foodTotal int) {
	*c = Collector{
		generation: generation,
		started:    time.Now(),
		foodStart:  foodTotal,
		foodLeft:   foodTotal,
	}
}

// Generation returns the generation being collected.
func (c *Collector) Generation() int { return c.generation }

// RecordStep adds one step's counters.
func (c *Collector) RecordStep(r StepRecord) {
	c.steps++
	c.kills += r.Killed
	c.mutations += r.Mutated
	c.cellsMoved += r.CellsMoved
	c.foodLeft = r.FoodLeft
}

// PopulationSample holds the end-of-generation population values the
// Collector cannot observe step by step.
type PopulationSample struct {
	Fitness   []float64
	Energy    []float64
	MaxEnergy []float64
	Survived  int
	Selected  int
	Killers   int
}

// Flush produces the GenerationRecord for the current generation.
func (c *Collector) Flush(p PopulationSample) GenerationRecord {
	fit := Summarize(p.Fitness)
	energy := Summarize(p.Energy)
	maxEnergy := Summarize(p.MaxEnergy)

	return GenerationRecord{
		Generation: c.generation,
		StepsRun:   c.steps,
		Population: len(p.Fitness),
		Survived:   p.Survived,
		Selected:   p.Selected,
		Killers:    p.Killers,

		Kills:      c.kills,
		Mutations:  c.mutations,
		CellsMoved: c.cellsMoved,
		FoodEaten:  c.foodStart - c.foodLeft,

		FitnessMean: fit.Mean,
		FitnessStd:  fit.Std,
		FitnessP10:  fit.P10,
		FitnessP50:  fit.P50,
		FitnessP90:  fit.P90,
		FitnessMax:  fit.Max,

		EnergyMean:    energy.Mean,
		MaxEnergyMean: maxEnergy.Mean,

		DurationMS: time.Since(c.started).Milliseconds(),
	}
}
