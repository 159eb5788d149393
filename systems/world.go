// Package systems implements the grid world and the per-step rules that
// specimens follow on it.
package systems

import (
	"math/rand/v2"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/neural"
)

// Roster resolves grid values to specimens.
type Roster interface {
	// Specimen returns the specimen with the given 1-based index, or nil.
	Specimen(index int) *components.Specimen
}

// MoveRequest is one specimen's path for the current step.
type MoveRequest struct {
	Index int
	Path  []components.Direction
}

// World is the shared simulation context passed to every system. It owns
// the grid, the pheromone field and the deferred kill and move queues.
// All access happens on the simulation goroutine.
type World struct {
	Cfg        *config.Config
	Grid       *Grid
	Pheromones *Pheromones
	Rng        *rand.Rand
	Roster     Roster
	Decoder    neural.Decoder

	kills    []int
	killSeen map[int]bool
	moves    []MoveRequest

	inputs []float64
}

// NewWorld builds an empty world from cfg. The caller fills the grid and
// sets Roster before stepping.
func NewWorld(cfg *config.Config, rng *rand.Rand) *World {
	dim := cfg.World.Dim
	return &World{
		Cfg:  cfg,
		Grid: NewGrid(dim, cfg.World.MinFood, cfg.World.MaxFood),
		Pheromones: NewPheromones(dim,
			cfg.Pheromone.Diffusion, cfg.Pheromone.Decay, cfg.Pheromone.Strength),
		Rng:      rng,
		Decoder:  DecoderFor(cfg),
		killSeen: make(map[int]bool),
		inputs:   make([]float64, neural.NumSensors),
	}
}

// DecoderFor returns the gene decoder matching the enabled features.
func DecoderFor(cfg *config.Config) neural.Decoder {
	return neural.Decoder{
		Sensors:   cfg.Derived.SensorCount,
		Inner:     cfg.Genome.MaxInnerNeurons,
		Actions:   cfg.Derived.ActionCount,
		RemapKill: cfg.Derived.RemapKill,
	}
}

// QueueKill marks a specimen for removal at the end of the step. Repeated
// requests for the same index are merged.
func (w *World) QueueKill(index int) {
	if w.killSeen[index] {
		return
	}
	w.killSeen[index] = true
	w.kills = append(w.kills, index)
}

// QueueMove appends a path to the move queue.
func (w *World) QueueMove(index int, path []components.Direction) {
	w.moves = append(w.moves, MoveRequest{Index: index, Path: path})
}

// PendingKills returns the queued kill indices in request order.
func (w *World) PendingKills() []int { return w.kills }

// PendingMoves returns the queued paths in request order.
func (w *World) PendingMoves() []MoveRequest { return w.moves }

// ResetQueues drops all queued kills and moves.
func (w *World) ResetQueues() {
	w.kills = w.kills[:0]
	clear(w.killSeen)
	w.moves = w.moves[:0]
}
