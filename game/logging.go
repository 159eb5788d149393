package game

import (
	"log/slog"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/telemetry"
)

// logGeneration logs a completed generation and the step timing behind it.
func (s *Simulation) logGeneration(rec telemetry.GenerationRecord) {
	if s.quiet {
		return
	}
	slog.Info("generation complete", "stats", rec)
	slog.Debug("step timing", "generation", rec.Generation, "perf", s.perf.Stats())
}

// logWorldState logs the state of a freshly spawned generation.
func (s *Simulation) logWorldState(killers int) {
	if s.quiet {
		return
	}

	var energy, maxEnergy float64
	s.pop.Each(func(sp *components.Specimen) {
		energy += sp.Energy
		maxEnergy = max(maxEnergy, sp.MaxEnergy)
	})
	n := s.pop.Size()
	avg := 0.0
	if n > 0 {
		avg = energy / float64(n)
	}

	g := s.world.Grid
	slog.Debug("generation spawned",
		"generation", s.generation,
		"specimens", n,
		"killers", killers,
		"energy_avg", avg,
		"max_energy", maxEnergy,
		"barriers", len(g.Barriers()),
		"food_sources", len(g.FoodSources()),
		"food_total", g.TotalFood(),
	)
}
