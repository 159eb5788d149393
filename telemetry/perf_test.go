package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseLive)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseMoves)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.AvgStep <= 0 {
		t.Error("expected positive average step duration")
	}
	if stats.MinStep > stats.AvgStep || stats.AvgStep > stats.MaxStep {
		t.Errorf("min %v, avg %v, max %v out of order", stats.MinStep, stats.AvgStep, stats.MaxStep)
	}
	if stats.PhasePct[PhaseLive] <= 0 || stats.PhasePct[PhaseMoves] <= 0 {
		t.Error("expected live and moves phases to be tracked")
	}
	if stats.PhasePct[PhaseRender] != 0 {
		t.Error("render phase was never started")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 12; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseKills)
		pc.EndStep()
	}

	if pc.count != 5 {
		t.Errorf("window holds %d samples, want 5", pc.count)
	}
	if stats := pc.Stats(); stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(PhasePheromones)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseLive)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.PhasePct[PhaseLive] <= stats.PhasePct[PhasePheromones] {
		t.Errorf("expected live (%v%%) > pheromones (%v%%)",
			stats.PhasePct[PhaseLive], stats.PhasePct[PhasePheromones])
	}

	rec := stats.Record(3)
	if rec.Generation != 3 || rec.LivePct != stats.PhasePct[PhaseLive] {
		t.Errorf("record %+v does not match stats", rec)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()
	if stats.AvgStep != 0 || stats.StepsPerSecond != 0 {
		t.Error("expected zero stats for empty collector")
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseMoves.String() != "moves" {
		t.Errorf("PhaseMoves = %q", PhaseMoves.String())
	}
	if Phase(200).String() != "unknown" {
		t.Error("out-of-range phase should be unknown")
	}
}
