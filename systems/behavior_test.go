package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/neural"
)

// Genes with LOC_X as source and weight 4.0 (0x7D00) or -4.0 (0x8300).
const (
	geneLocXToMoveEast = 0x00067D00
	geneLocXToMoveXNeg = 0x00048300
	geneLocXToKill     = 0x00037D00
	geneLocXToResp     = 0x00000000 // weight 0
)

func setBrain(w *World, s *components.Specimen, genes ...neural.Gene) {
	s.Genome = neural.Genome(genes)
	s.Brain = neural.Compile(s.Genome, w.Decoder)
	s.Killer = s.Brain.Killer
}

func TestResponseCurve(t *testing.T) {
	tests := []struct {
		r, k, want float64
	}{
		{0, 2, 0},
		{1, 2, 1},
		{0.5, 2, math.Pow(1.5, -4) - math.Pow(2, -4)*0.5},
		{1, 1, 1},
	}
	for _, tt := range tests {
		if got := ResponseCurve(tt.r, tt.k); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ResponseCurve(%v, %v) = %v, want %v", tt.r, tt.k, got, tt.want)
		}
	}
}

func TestActionFormulas(t *testing.T) {
	if got := OscPeriodFor(-100); got != 3 {
		t.Errorf("OscPeriodFor(-inf) = %d, want 3", got)
	}
	if got := OscPeriodFor(100); got != 1+int(math.Floor(1.5+math.Exp(7))) {
		t.Errorf("OscPeriodFor(+inf) = %d", got)
	}
	if got := ProbeDistFor(0); got != 17 {
		t.Errorf("ProbeDistFor(0) = %d, want 17", got)
	}
	if got := ProbeDistFor(-100); got != 1 {
		t.Errorf("ProbeDistFor(-inf) = %d, want 1", got)
	}
}

func TestLiveStarves(t *testing.T) {
	w := newTestWorld(5)
	r := place(w, components.Coord{X: 4, Y: 0})
	s := r[1]
	s.Energy = w.Cfg.Derived.EnergyDecrease / 2

	Live(w, s)

	if s.Alive || s.Energy != 0 || s.Age != 1 {
		t.Errorf("alive=%v energy=%v age=%d after starving", s.Alive, s.Energy, s.Age)
	}
	if len(w.PendingMoves()) != 0 {
		t.Error("a starved specimen queued a move")
	}
}

func TestLiveQueuesPath(t *testing.T) {
	w := newTestWorld(5)
	r := place(w, components.Coord{X: 4, Y: 0}) // LOC_X = 1
	s := r[1]
	setBrain(w, s, geneLocXToMoveEast, geneLocXToMoveXNeg)

	steps := 0
	for range 200 {
		s.Energy = s.MaxEnergy
		Live(w, s)
	}
	for _, m := range w.PendingMoves() {
		if m.Index != 1 {
			t.Fatalf("queued index %d, want 1", m.Index)
		}
		for _, d := range m.Path {
			if d != components.East && d != components.West {
				t.Fatalf("unexpected step %v", d)
			}
			steps++
		}
	}
	if n := len(w.PendingMoves()); n != 200 {
		t.Errorf("queued %d paths, want one per step", n)
	}
	// East fires with p ~0.88, MOVE_X west with p ~0.12
	if steps < 150 || steps > 250 {
		t.Errorf("%d steps over 200 trials", steps)
	}
}

func TestMoveRateIgnoresResponseCurve(t *testing.T) {
	w := newTestWorld(5)
	r := place(w, components.Coord{X: 4, Y: 0}) // LOC_X = 1
	s := r[1]
	setBrain(w, s, geneLocXToMoveEast)
	s.Responsiveness = 0.5
	s.ResponseCurve = ResponseCurve(0.5, w.Cfg.Specimen.ResponsivenessK)
	if s.ResponseCurve >= 0.5 {
		t.Fatalf("curve = %v, want a strongly damped curve", s.ResponseCurve)
	}

	const trials = 4000
	for range trials {
		s.Energy = s.MaxEnergy
		Live(w, s)
	}
	steps := 0
	for _, m := range w.PendingMoves() {
		steps += len(m.Path)
	}

	want := squeeze(math.Tanh(4))
	if rate := float64(steps) / trials; math.Abs(rate-want) > 0.03 {
		t.Errorf("move rate = %v, want ~%v", rate, want)
	}
}

func TestSetResponsiveness(t *testing.T) {
	w := newTestWorld(5)
	r := place(w, components.Coord{X: 2, Y: 2})
	s := r[1]
	setBrain(w, s, geneLocXToResp)

	Live(w, s)

	if s.Responsiveness != 0.5 {
		t.Errorf("responsiveness = %v, want 0.5", s.Responsiveness)
	}
	want := ResponseCurve(0.5, w.Cfg.Specimen.ResponsivenessK)
	if math.Abs(s.ResponseCurve-want) > 1e-12 {
		t.Errorf("curve = %v, want %v", s.ResponseCurve, want)
	}
}

func TestKillQueuesNeighbours(t *testing.T) {
	w := newTestWorld(6)
	w.Cfg.Features.KillEnabled = true
	w.Cfg.Recompute()
	w.Decoder = DecoderFor(w.Cfg)

	r := place(w,
		components.Coord{X: 5, Y: 2}, // LOC_X = 1
		components.Coord{X: 4, Y: 3}, // diagonal neighbour
		components.Coord{X: 3, Y: 2}, // two cells away
	)
	s := r[1]
	setBrain(w, s, geneLocXToKill)
	if !s.Killer {
		t.Fatal("kill gene did not mark the specimen as a killer")
	}

	for range 20 {
		s.Energy = s.MaxEnergy
		Live(w, s)
	}

	kills := w.PendingKills()
	if len(kills) != 1 || kills[0] != 2 {
		t.Errorf("kill queue = %v, want [2]", kills)
	}
	if !r[2].Alive {
		t.Error("kill must be deferred until the queue is drained")
	}
}

func TestKillRemappedToEmit(t *testing.T) {
	w := newTestWorld(8)
	r := place(w, components.Coord{X: 7, Y: 4}, components.Coord{X: 6, Y: 4})
	s := r[1]
	s.LastDir = components.West
	setBrain(w, s, geneLocXToKill)

	if s.Killer {
		t.Fatal("remapped genome should not be a killer")
	}
	for range 20 {
		s.Energy = s.MaxEnergy
		Live(w, s)
	}
	if len(w.PendingKills()) != 0 {
		t.Error("remapped kill gene queued kills")
	}
	if w.Pheromones.Sum() <= 0 {
		t.Error("remapped kill gene should emit pheromone")
	}
}

func TestMutateSpecimen(t *testing.T) {
	w := newTestWorld(5)
	r := place(w, components.Coord{X: 1, Y: 1})
	s := r[1]
	setBrain(w, s, neural.RandomGenome(w.Rng, 16)...)
	before := s.Genome.Clone()

	MutateSpecimen(w, s)

	changed := 0
	for i := range before {
		if before[i] != s.Genome[i] {
			changed++
		}
	}
	if changed != w.Cfg.Evolution.MutateNGenes {
		t.Errorf("%d genes changed, want %d", changed, w.Cfg.Evolution.MutateNGenes)
	}
	if s.Brain == nil {
		t.Error("brain was not recompiled")
	}
}
