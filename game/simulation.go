// Package game runs generations of specimens and routes their telemetry.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/renderer"
	"github.com/pthm-cable/evogrid/systems"
	"github.com/pthm-cable/evogrid/telemetry"
)

// Options configures a simulation run.
type Options struct {
	Config    *config.Config // nil = config.Cfg()
	Seed      uint64         // 0 = time-based
	RunID     string         // empty = new UUID
	OutputDir string         // empty = no files written
	Quiet     bool           // no per-generation log lines

	// OnGeneration is called with every generation summary, on the
	// simulation goroutine.
	OnGeneration func(telemetry.GenerationRecord)
}

// Simulation runs generations of specimens on one grid. All state is owned
// by the goroutine calling Run; rendering and persistence work on copies.
type Simulation struct {
	cfg   *config.Config
	rng   *rand.Rand
	seed  uint64
	runID string

	world *systems.World
	pop   *Population

	// Heritable state of the next generation; nil = random genomes
	next []systems.Offspring

	generation int
	quiet      bool
	onGen      func(telemetry.GenerationRecord)

	output    *telemetry.OutputManager
	writers   *writers
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	render    *renderPool
	history   []telemetry.GenerationRecord
	bookmarks *telemetry.BookmarkDetector
	hof       *telemetry.HallOfFame
}

// New validates the configuration, builds the world and opens the outputs.
// The configuration is copied; later changes to opts.Config have no effect.
func New(opts Options) (*Simulation, error) {
	base := opts.Config
	if base == nil {
		base = config.Cfg()
	}
	cfg := base.Clone()

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s := &Simulation{
		cfg:       cfg,
		rng:       rng,
		seed:      seed,
		runID:     runID,
		quiet:     opts.Quiet,
		onGen:     opts.OnGeneration,
		collector: telemetry.NewCollector(),
		perf:      telemetry.NewPerfCollector(cfg.Population.Steps),
	}
	if cfg.Output.Bookmarks {
		s.bookmarks = telemetry.NewBookmarkDetector(10)
	}
	if cfg.Output.HallOfFame > 0 {
		s.hof = telemetry.NewHallOfFame(cfg.Output.HallOfFame)
	}

	s.loadPopulation()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s.world = systems.NewWorld(cfg, rng)
	if err := s.setupWorld(); err != nil {
		return nil, fmt.Errorf("world setup: %w", err)
	}

	if err := s.openOutputs(opts.OutputDir); err != nil {
		return nil, err
	}
	return s, nil
}

// RunID returns the identifier of this run.
func (s *Simulation) RunID() string { return s.runID }

// Seed returns the seed of the simulation RNG.
func (s *Simulation) Seed() uint64 { return s.seed }

// Config returns the configuration the simulation runs with.
func (s *Simulation) Config() *config.Config { return s.cfg }

// OutputDir returns the run directory, or "" when output is disabled.
func (s *Simulation) OutputDir() string { return s.output.Dir() }

// HallOfFame returns the fittest surviving genomes so far, or nil when
// disabled.
func (s *Simulation) HallOfFame() *telemetry.HallOfFame { return s.hof }

// History returns the summaries of all completed generations.
func (s *Simulation) History() []telemetry.GenerationRecord { return s.history }

// Population returns the current generation.
func (s *Simulation) Population() *Population { return s.pop }

// World returns the shared simulation context.
func (s *Simulation) World() *systems.World { return s.world }

// Run executes population.generations generations, or stops early when ctx
// is cancelled between generations. Outputs are finalized in both cases;
// the context error is returned after an early stop.
func (s *Simulation) Run(ctx context.Context) error {
	if !s.quiet {
		slog.Info("simulation started",
			"run_id", s.runID,
			"seed", s.seed,
			"generations", s.cfg.Population.Generations,
			"population", s.cfg.Population.Size,
			"output_dir", s.output.Dir(),
		)
	}

	var runErr error
	for s.generation < s.cfg.Population.Generations {
		if err := ctx.Err(); err != nil {
			slog.Warn("simulation interrupted", "generation", s.generation)
			runErr = err
			break
		}
		if err := s.RunGeneration(); err != nil {
			runErr = err
			break
		}
	}

	if err := s.finish(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

// RunGeneration spawns a generation, steps it until the step budget is used
// or every specimen is dead, then selects and breeds the next one.
func (s *Simulation) RunGeneration() error {
	cfg := s.cfg
	if err := s.spawnGeneration(); err != nil {
		return fmt.Errorf("generation %d: %w", s.generation, err)
	}

	killers := s.pop.KillerCount()
	s.logWorldState(killers)
	s.collector.Begin(s.generation, s.world.Grid.TotalFood())
	if s.render != nil {
		s.render.begin(cfg.Population.Steps + 1)
		s.render.submit(s.frame(0))
	}

	for step := 0; step < cfg.Population.Steps; step++ {
		if !s.Step(step) {
			break
		}
	}
	if s.render != nil {
		s.render.flush(s.generation)
	}

	s.endGeneration(killers)
	s.generation++
	return nil
}

// Step advances the world by one step. It reports false when every
// specimen died during the step, in which case the queues are not drained.
func (s *Simulation) Step(step int) bool {
	w := s.world
	cfg := s.cfg
	s.perf.StartStep()

	s.perf.StartPhase(telemetry.PhaseMutate)
	mutated := 0
	s.pop.Each(func(sp *components.Specimen) {
		if sp.Alive && s.rng.Float64() < cfg.Evolution.MutationProbability {
			systems.MutateSpecimen(w, sp)
			mutated++
		}
	})

	s.perf.StartPhase(telemetry.PhaseLive)
	alive := 0
	s.pop.Each(func(sp *components.Specimen) {
		if !sp.Alive {
			return
		}
		systems.Live(w, sp)
		if sp.Alive {
			alive++
		}
	})
	if alive == 0 {
		w.ResetQueues()
		s.perf.EndStep()
		s.collector.RecordStep(telemetry.StepRecord{Mutated: mutated, FoodLeft: w.Grid.TotalFood()})
		return false
	}

	s.perf.StartPhase(telemetry.PhaseKills)
	killed := systems.DrainKills(w)

	s.perf.StartPhase(telemetry.PhaseMoves)
	moved := systems.DrainMoves(w)

	s.perf.StartPhase(telemetry.PhasePheromones)
	if cfg.Features.PheromonesEnabled {
		w.Pheromones.Spread()
	}

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.recordStep(step, mutated, killed, moved)

	if s.render != nil {
		s.perf.StartPhase(telemetry.PhaseRender)
		s.render.submit(s.frame(step + 1))
	}

	s.perf.EndStep()
	return true
}

// endGeneration evaluates the generation, breeds the next one and emits
// the generation's telemetry.
func (s *Simulation) endGeneration(killers int) {
	cfg := s.cfg
	n := s.pop.Size()

	fitness := make([]float64, n)
	energy := make([]float64, n)
	maxEnergy := make([]float64, n)
	survived := 0
	s.pop.Each(func(sp *components.Specimen) {
		i := sp.Index - 1
		fitness[i] = sp.Fitness()
		energy[i] = sp.Energy
		maxEnergy[i] = sp.MaxEnergy
		if sp.Alive {
			survived++
		}
	})

	probs, selected := systems.EvaluateAndSelect(fitness, energy, cfg.Derived.SelectN)
	s.next = systems.Reproduce(s.rng, probs, selected, func(pos int) systems.Offspring {
		sp := s.pop.Specimen(pos + 1)
		return systems.Offspring{Genome: sp.Genome, MaxEnergy: sp.MaxEnergy}
	}, n)

	rec := s.collector.Flush(telemetry.PopulationSample{
		Fitness:   fitness,
		Energy:    energy,
		MaxEnergy: maxEnergy,
		Survived:  survived,
		Selected:  len(selected),
		Killers:   killers,
	})
	s.recordGeneration(rec, probs, selected)
}

// frame copies the state needed to draw the grid.
func (s *Simulation) frame(step int) *renderer.Frame {
	g := s.world.Grid
	dim := g.Dim()

	f := &renderer.Frame{
		Generation: s.generation,
		Step:       step,
		Dim:        dim,
		Cells:      g.Snapshot(nil),
		Food:       make([]bool, dim*dim),
		Alive:      make([]bool, s.pop.Size()+1),
		Killer:     make([]bool, s.pop.Size()+1),
	}
	for _, c := range g.FoodSources() {
		f.Food[c.X*dim+c.Y] = g.IsFood(c)
	}
	if s.cfg.Features.PheromonesEnabled {
		f.Pheromone = make([]float64, dim*dim)
		for x := 0; x < dim; x++ {
			for y := 0; y < dim; y++ {
				f.Pheromone[x*dim+y] = s.world.Pheromones.At(x, y)
			}
		}
	}
	s.pop.Each(func(sp *components.Specimen) {
		f.Alive[sp.Index] = sp.Alive
		f.Killer[sp.Index] = sp.Killer
	})
	return f
}
