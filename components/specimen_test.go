package components

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestEat(t *testing.T) {
	tests := []struct {
		name                   string
		energy, maxEnergy      float64
		added, increase, sup   float64
		wantEnergy, wantMaxEnr float64
	}{
		{"starving specimen", 0, 10, 2, 0.1, 50, 2, 10.1},
		{"energy capped by new max", 9.5, 10, 2, 0.1, 50, 10.1, 10.1},
		{"max capped by supremum", 49, 50, 2, 0.1, 50, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Specimen{Energy: tt.energy, MaxEnergy: tt.maxEnergy, Alive: true}
			s.Eat(tt.added, tt.increase, tt.sup)
			if math.Abs(s.Energy-tt.wantEnergy) > 1e-9 {
				t.Errorf("energy = %v, want %v", s.Energy, tt.wantEnergy)
			}
			if math.Abs(s.MaxEnergy-tt.wantMaxEnr) > 1e-9 {
				t.Errorf("max energy = %v, want %v", s.MaxEnergy, tt.wantMaxEnr)
			}
		})
	}
}

func TestUseEnergyFloorsAtZero(t *testing.T) {
	s := Specimen{Energy: 0.1, MaxEnergy: 10, Alive: true}
	s.UseEnergy(0.2)
	if s.Energy != 0 {
		t.Errorf("energy = %v, want 0", s.Energy)
	}
	if s.CanMove() {
		t.Error("specimen without energy must not move")
	}
}

func TestKill(t *testing.T) {
	s := Specimen{Energy: 5, MaxEnergy: 10, Alive: true, Loc: Coord{3, 4}}
	s.Kill()
	if s.Alive || s.Energy != 0 {
		t.Errorf("after Kill alive=%v energy=%v", s.Alive, s.Energy)
	}
	if s.Loc != (Coord{3, 4}) {
		t.Error("Kill must not move the body")
	}
	if got, want := s.Fitness(), 7.5; got != want {
		t.Errorf("Fitness() = %v, want %v", got, want)
	}
}

func TestRotate(t *testing.T) {
	tests := []struct {
		d    Direction
		n    int
		want Direction
	}{
		{North, 2, East},
		{North, -2, West},
		{NorthWest, -1, West},
		{West, 1, NorthWest},
		{East, 4, West},
		{SouthEast, 12, NorthWest},
		{Center, 3, Center},
	}

	for _, tt := range tests {
		if got := tt.d.Rotate(tt.n); got != tt.want {
			t.Errorf("%v.Rotate(%d) = %v, want %v", tt.d, tt.n, got, tt.want)
		}
	}

	if North.Left() != West || North.Right() != East || North.Reverse() != South {
		t.Error("Left/Right/Reverse of North are wrong")
	}
}

func TestCoordAsDirection(t *testing.T) {
	for d := NorthWest; d < Center; d++ {
		if got := CoordAsDirection(d.Vector()); got != d {
			t.Errorf("CoordAsDirection(%v) = %v, want %v", d.Vector(), got, d)
		}
		// Longer displacements on the same line keep their heading
		if got := CoordAsDirection(d.Vector().Mul(5)); got != d {
			t.Errorf("CoordAsDirection(%v) = %v, want %v", d.Vector().Mul(5), got, d)
		}
	}

	tests := []struct {
		c    Coord
		want Direction
	}{
		{Coord{0, 0}, Center},
		{Coord{3, 1}, East},
		{Coord{1, 3}, North},
		{Coord{2, 3}, NorthEast},
		{Coord{-3, -1}, West},
	}
	for _, tt := range tests {
		if got := CoordAsDirection(tt.c); got != tt.want {
			t.Errorf("CoordAsDirection(%v) = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestRandomDirectionNeverCenter(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	seen := map[Direction]bool{}
	for i := 0; i < 1000; i++ {
		d := RandomDirection(rng)
		if d == Center {
			t.Fatal("RandomDirection returned Center")
		}
		seen[d] = true
	}
	if len(seen) != 8 {
		t.Errorf("saw %d directions, want 8", len(seen))
	}
}
