// Package components defines ECS components for the simulation.
package components

import (
	"github.com/pthm-cable/evogrid/neural"
)

// Initial values of the per-specimen state that actions later override.
const (
	InitialResponsiveness = 1.0
	InitialOscPeriod      = 32
)

// Specimen holds all per-agent state. One Specimen lives in the ECS world
// per agent; Index is the value written into the grid for its cell.
type Specimen struct {
	Index int   // 1-based, stable within a generation
	Loc   Coord // Current cell

	Genome neural.Genome
	Brain  *neural.Network
	Killer bool // Genome has a gene targeting KILL

	Age       int
	Energy    float64
	MaxEnergy float64
	Alive     bool

	// Action-controlled state
	Responsiveness float64 // 0..1
	ResponseCurve  float64 // Cached curve value for Responsiveness
	OscPeriod      int
	OscPhase       int
	ProbeDist      int

	LastMove Coord     // Displacement of the last resolved path
	LastDir  Direction // Heading used by directional sensors
}

// Eat consumes one food unit: the energy cap grows by increase (bounded by
// supremum), then energy grows by added (bounded by the new cap).
func (s *Specimen) Eat(added, increase, supremum float64) {
	s.MaxEnergy = min(s.MaxEnergy+increase, supremum)
	s.Energy = min(s.Energy+added, s.MaxEnergy)
}

// UseEnergy spends energy, flooring at zero.
func (s *Specimen) UseEnergy(amount float64) {
	s.Energy = max(s.Energy-amount, 0)
}

// CanMove reports whether the specimen may take another step.
func (s *Specimen) CanMove() bool {
	return s.Alive && s.Energy > 0
}

// Kill marks the specimen dead. The body keeps its cell until the grid is
// reset.
func (s *Specimen) Kill() {
	s.Alive = false
	s.Energy = 0
}

// Fitness scores a specimen for selection. Capacity counts more than the
// energy left at the end of a generation.
func (s *Specimen) Fitness() float64 {
	return Fitness(s.Energy, s.MaxEnergy)
}

// Fitness is the selection score for the given energy state.
func Fitness(energy, maxEnergy float64) float64 {
	return 0.25*energy + 0.75*maxEnergy
}
