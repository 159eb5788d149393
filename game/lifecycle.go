package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/neural"
	"github.com/pthm-cable/evogrid/systems"
	"github.com/pthm-cable/evogrid/telemetry"
)

// setupWorld fills the grid from the configured template, or generates a
// random world when none is set.
func (s *Simulation) setupWorld() error {
	cfg := s.cfg
	g := s.world.Grid

	if cfg.World.Template != "" {
		tpl, err := systems.LoadTemplate(cfg.World.Template)
		if err != nil {
			return err
		}
		if err := g.ApplyTemplate(s.rng, tpl); err != nil {
			return fmt.Errorf("world template %s: %w", cfg.World.Template, err)
		}
		return nil
	}

	tpl, err := systems.GenerateWorld(s.rng, systems.WorldGenParams{
		Dim:          cfg.World.Dim,
		Barriers:     cfg.World.Barriers,
		FoodSources:  cfg.World.FoodSources,
		NoiseScale:   cfg.World.NoiseScale,
		NoiseOctaves: cfg.World.NoiseOctaves,
	})
	if err != nil {
		return err
	}
	return g.ApplyTemplate(s.rng, tpl)
}

// loadPopulation reads the configured population snapshot. Population size
// and genome length follow the snapshot; specimens without a max energy get
// energy.entry_max. Any failure falls back to a random first generation.
func (s *Simulation) loadPopulation() {
	path := s.cfg.Population.LoadPath
	if path == "" {
		return
	}

	lp, err := telemetry.LoadPopulation(path)
	if err == nil {
		switch {
		case lp.Size() < 2:
			err = fmt.Errorf("population has %d specimens, need at least 2", lp.Size())
		case lp.Size() > config.MaxPopulation:
			err = fmt.Errorf("population has %d specimens, at most %d fit the grid", lp.Size(), config.MaxPopulation)
		case lp.GenomeLength() < 2:
			err = fmt.Errorf("genome length %d, need at least 2", lp.GenomeLength())
		}
	}
	if err != nil {
		slog.Warn("population load failed, starting from random genomes", "path", path, "error", err)
		return
	}

	s.cfg.Population.Size = lp.Size()
	s.cfg.Genome.Length = lp.GenomeLength()
	s.cfg.Evolution.MutateNGenes = min(s.cfg.Evolution.MutateNGenes, lp.GenomeLength())
	s.cfg.Recompute()

	s.next = make([]systems.Offspring, lp.Size())
	for i := range s.next {
		maxEnergy := lp.MaxEnergy[i]
		if maxEnergy <= 0 {
			maxEnergy = s.cfg.Energy.EntryMax
		}
		s.next[i] = systems.Offspring{Genome: lp.Genomes[i], MaxEnergy: maxEnergy}
	}
	slog.Info("population loaded", "path", path, "size", lp.Size(), "genome_length", lp.GenomeLength())
}

// spawnGeneration resets the grid and builds a new population, either from
// the children of the last generation or from random genomes.
func (s *Simulation) spawnGeneration() error {
	cfg := s.cfg
	s.world.Grid.Reset(s.rng)
	s.world.Pheromones.Reset()
	s.world.ResetQueues()

	free := s.world.Grid.EmptyCells()
	if len(free) < cfg.Population.Size {
		return fmt.Errorf("only %d free cells for %d specimens", len(free), cfg.Population.Size)
	}
	s.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	pop := NewPopulation(cfg.Population.Size)
	for i := 0; i < cfg.Population.Size; i++ {
		var genome neural.Genome
		maxEnergy := cfg.Energy.EntryMax
		if s.next != nil {
			genome = s.next[i].Genome
			maxEnergy = s.next[i].MaxEnergy
		} else {
			genome = neural.RandomGenome(s.rng, cfg.Genome.Length)
		}
		if len(genome) != cfg.Genome.Length {
			return fmt.Errorf("specimen %d: genome length %d, want %d", i+1, len(genome), cfg.Genome.Length)
		}

		idx := pop.Add(s.newSpecimen(free[i], genome, maxEnergy))
		s.world.Grid.Set(free[i], int16(idx))
	}

	s.pop = pop
	s.world.Roster = pop
	s.next = nil
	return nil
}

// newSpecimen builds a specimen at full energy with a freshly compiled
// brain.
func (s *Simulation) newSpecimen(loc components.Coord, genome neural.Genome, maxEnergy float64) components.Specimen {
	brain := neural.Compile(genome, s.world.Decoder)
	return components.Specimen{
		Loc:            loc,
		Genome:         genome,
		Brain:          brain,
		Killer:         brain.Killer,
		Energy:         maxEnergy,
		MaxEnergy:      maxEnergy,
		Alive:          true,
		Responsiveness: components.InitialResponsiveness,
		ResponseCurve:  systems.ResponseCurve(components.InitialResponsiveness, s.cfg.Specimen.ResponsivenessK),
		OscPeriod:      components.InitialOscPeriod,
		ProbeDist:      s.cfg.Specimen.LongProbeDistance,
		LastDir:        components.RandomDirection(s.rng),
	}
}
