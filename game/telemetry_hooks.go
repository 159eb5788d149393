package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/renderer"
	"github.com/pthm-cable/evogrid/telemetry"
	"gopkg.in/yaml.v3"
)

// writers holds the asynchronous record streams of a run. Disabled streams
// are nil and drop records.
type writers struct {
	steps       *telemetry.AsyncWriter[telemetry.StepRecord]
	generations *telemetry.AsyncWriter[telemetry.GenerationRecord]
	perf        *telemetry.AsyncWriter[telemetry.PerfRecord]
	populations *telemetry.AsyncWriter[telemetry.PopulationRecord]
	selections  *telemetry.AsyncWriter[telemetry.SelectionRecord]
	store       *telemetry.AsyncWriter[telemetry.GenerationSnapshot]
	bookmarks   *telemetry.AsyncWriter[telemetry.Bookmark]
}

// close joins every writer. Each drains its queue and closes its file.
func (w *writers) close() {
	w.steps.Close()
	w.generations.Close()
	w.perf.Close()
	w.populations.Close()
	w.selections.Close()
	w.store.Close()
	w.bookmarks.Close()
}

func openCSV[T any](om *telemetry.OutputManager, name string, queue int) (*telemetry.AsyncWriter[T], error) {
	sink, err := telemetry.NewCSVSink[T](om.Path(name))
	if err != nil {
		return nil, err
	}
	return telemetry.NewAsyncWriter[T](name, sink, queue), nil
}

func openJSON[T any](om *telemetry.OutputManager, name string, queue int) (*telemetry.AsyncWriter[T], error) {
	sink, err := telemetry.NewJSONArraySink[T](om.Path(name))
	if err != nil {
		return nil, err
	}
	return telemetry.NewAsyncWriter[T](name, sink, queue), nil
}

// openOutputs creates the run directory and starts the enabled writers.
func (s *Simulation) openOutputs(dir string) error {
	s.writers = &writers{}

	om, err := telemetry.NewOutputManager(dir)
	if err != nil {
		return err
	}
	s.output = om
	if om == nil {
		return nil
	}

	out := s.cfg.Output
	q := out.QueueSize
	w := s.writers
	var errs []error
	if out.SaveSteps {
		w.steps, err = openCSV[telemetry.StepRecord](om, telemetry.StepsFile, q)
		errs = append(errs, err)
	}
	if out.SaveGenerations {
		w.generations, err = openCSV[telemetry.GenerationRecord](om, telemetry.GenerationsFile, q)
		errs = append(errs, err)
		w.perf, err = openCSV[telemetry.PerfRecord](om, telemetry.PerfFile, q)
		errs = append(errs, err)
		w.populations, err = openJSON[telemetry.PopulationRecord](om, telemetry.PopulationsFile, q)
		errs = append(errs, err)
	}
	if out.SaveSelections {
		w.selections, err = openJSON[telemetry.SelectionRecord](om, telemetry.SelectionsFile, q)
		errs = append(errs, err)
	}
	if out.Bookmarks {
		w.bookmarks, err = openJSON[telemetry.Bookmark](om, telemetry.BookmarksFile, q)
		errs = append(errs, err)
	}
	if out.Store == "sqlite" {
		w.store, err = s.openStore(om)
		errs = append(errs, err)
	}
	if out.SaveConfig {
		errs = append(errs, om.WriteConfig(s.cfg))
	}
	if out.SaveGrid {
		errs = append(errs, om.WriteWorld(s.world.Grid.Template()))
	}
	if out.Animation {
		animDir, err := om.Subdir("animation")
		errs = append(errs, err)
		s.render = newRenderPool(animDir, s.cfg.World.Dim, out.AnimationCellPx, out.AnimationFPS)
	}

	if err := errors.Join(errs...); err != nil {
		w.close()
		return fmt.Errorf("opening outputs: %w", err)
	}
	return nil
}

func (s *Simulation) openStore(om *telemetry.OutputManager) (*telemetry.AsyncWriter[telemetry.GenerationSnapshot], error) {
	ctx := context.Background()
	store := telemetry.NewSQLiteStore(om.Path(telemetry.StoreFile))
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	cfgYAML, err := yaml.Marshal(s.cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	run := telemetry.RunInfo{ID: s.runID, Seed: s.seed, StartedAt: time.Now(), Config: string(cfgYAML)}
	if err := store.SaveRun(ctx, run); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("saving run: %w", err)
	}
	return telemetry.NewAsyncWriter(telemetry.StoreFile, store.Sink(s.runID), s.cfg.Output.QueueSize), nil
}

// recordStep emits the per-step record.
func (s *Simulation) recordStep(step, mutated, killed, moved int) {
	alive := 0
	var energy float64
	s.pop.Each(func(sp *components.Specimen) {
		if sp.Alive {
			alive++
			energy += sp.Energy
		}
	})

	rec := telemetry.StepRecord{
		Generation: s.generation,
		Step:       step,
		Alive:      alive,
		Mutated:    mutated,
		Killed:     killed,
		CellsMoved: moved,
		FoodLeft:   s.world.Grid.TotalFood(),
		Pheromone:  s.world.Pheromones.Sum(),
	}
	if alive > 0 {
		rec.EnergyMean = energy / float64(alive)
	}

	s.collector.RecordStep(rec)
	s.writers.steps.Send(rec)
}

// recordGeneration emits the per-generation summary, population dump and
// selection.
func (s *Simulation) recordGeneration(rec telemetry.GenerationRecord, probs []float64, selected []int) {
	s.history = append(s.history, rec)
	s.logGeneration(rec)
	if s.onGen != nil {
		s.onGen(rec)
	}

	s.writers.generations.Send(rec)
	s.writers.perf.Send(s.perf.Stats().Record(rec.Generation))

	if s.writers.populations != nil || s.writers.store != nil || s.hof != nil {
		pop := telemetry.PopulationRecord{Generation: rec.Generation, Specimens: s.specimenRecords(nil)}
		s.writers.populations.Send(pop)
		s.writers.store.Send(telemetry.GenerationSnapshot{Record: rec, Population: pop})
		for _, sp := range pop.Specimens {
			s.hof.Consider(rec.Generation, sp)
		}
	}

	if s.bookmarks != nil {
		for _, b := range s.bookmarks.Check(rec) {
			if !s.quiet {
				b.LogBookmark()
			}
			s.writers.bookmarks.Send(b)
		}
	}

	if s.writers.selections != nil {
		// selected holds 0-based positions
		indices := make([]int, len(selected))
		for i, pos := range selected {
			indices[i] = pos + 1
		}
		s.writers.selections.Send(telemetry.SelectionRecord{
			Generation:    rec.Generation,
			Probabilities: probs,
			Selected:      s.specimenRecords(indices),
		})
	}
}

// specimenRecords snapshots the given specimens, or all when indices is nil.
func (s *Simulation) specimenRecords(indices []int) []telemetry.SpecimenRecord {
	toRecord := func(sp *components.Specimen) telemetry.SpecimenRecord {
		return telemetry.SpecimenRecord{
			Index:     sp.Index,
			Energy:    sp.Energy,
			MaxEnergy: sp.MaxEnergy,
			Fitness:   sp.Fitness(),
			Alive:     sp.Alive,
			Killer:    sp.Killer,
			Genome:    sp.Genome.Hex(),
		}
	}

	if indices == nil {
		out := make([]telemetry.SpecimenRecord, 0, s.pop.Size())
		s.pop.Each(func(sp *components.Specimen) { out = append(out, toRecord(sp)) })
		return out
	}
	out := make([]telemetry.SpecimenRecord, 0, len(indices))
	for _, idx := range indices {
		out = append(out, toRecord(s.pop.Specimen(idx)))
	}
	return out
}

// finish joins the render workers and writers, then writes the final
// population snapshot and the fitness chart.
func (s *Simulation) finish() error {
	if s.render != nil {
		s.render.close()
	}
	s.writers.close()

	if s.output == nil {
		return nil
	}

	var errs []error
	if s.cfg.Output.SavePopulation {
		errs = append(errs, s.output.WritePopulation(s.Snapshot()))
	}
	if s.hof != nil {
		errs = append(errs, s.output.WriteHallOfFame(s.hof))
	}
	if s.cfg.Output.Chart && len(s.history) > 0 {
		errs = append(errs, s.writeChart())
	}
	if err := errors.Join(errs...); err != nil {
		slog.Error("final output failed", "error", err)
		return err
	}
	slog.Info("simulation finished", "run_id", s.runID, "generations", len(s.history), "output_dir", s.output.Dir())
	return nil
}

// Snapshot returns the loadable population: the bred children when a
// generation completed, otherwise the current specimens.
func (s *Simulation) Snapshot() telemetry.PopulationFile {
	if s.next != nil {
		pf := telemetry.NewPopulationFile(len(s.next))
		for i, o := range s.next {
			pf.Set(i+1, o.Genome, o.MaxEnergy)
		}
		return pf
	}

	pf := telemetry.NewPopulationFile(0)
	if s.pop != nil {
		pf = telemetry.NewPopulationFile(s.pop.Size())
		s.pop.Each(func(sp *components.Specimen) { pf.Set(sp.Index, sp.Genome, sp.MaxEnergy) })
	}
	return pf
}

func (s *Simulation) writeChart() error {
	n := len(s.history)
	mean := make([]float64, n)
	best := make([]float64, n)
	survival := make([]float64, n)
	for i, r := range s.history {
		mean[i] = r.FitnessMean
		best[i] = r.FitnessMax
		survival[i] = float64(r.Survived)
	}

	err := renderer.SaveChart(s.output.Path("fitness.png"), "Fitness", "fitness",
		renderer.Series{Name: "mean", Values: mean},
		renderer.Series{Name: "max", Values: best},
	)
	if err != nil {
		return err
	}
	return renderer.SaveChart(s.output.Path("survival.png"), "Survivors", "specimens",
		renderer.Series{Name: "survived", Values: survival},
	)
}
