package systems

import (
	"math"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/neural"
)

// Oscillator period and long probe bounds.
const (
	minOscPeriod = 2
	maxOscPeriod = 2048
	probeScale   = 32
)

// Live advances one alive specimen by a step: it ages, pays the passive
// energy drain, and if it survives it senses, thinks and acts. Kills and
// moves are only queued.
func Live(w *World, s *components.Specimen) {
	s.Age++
	s.Energy -= w.Cfg.Derived.EnergyDecrease
	if s.Energy <= 0 {
		s.Kill()
		return
	}

	Sense(w, s, w.inputs)
	out := s.Brain.Run(w.inputs)
	act(w, s, out)
}

// ResponseCurve maps responsiveness r in [0,1] onto an action probability
// multiplier. It is 0 at r=0, 1 at r=1, and k controls how sharply it
// rises.
func ResponseCurve(r, k float64) float64 {
	return math.Pow(2-r, -2*k) - math.Pow(2, -2*k)*(1-r)
}

// OscPeriodFor converts an action output to an oscillator period.
func OscPeriodFor(v float64) int {
	p := 1 + math.Floor(1.5+math.Exp(7*squeeze(v)))
	return int(max(minOscPeriod, min(maxOscPeriod, p)))
}

// ProbeDistFor converts an action output to a long probe distance.
func ProbeDistFor(v float64) int {
	return 1 + int(squeeze(v)*probeScale)
}

func act(w *World, s *components.Specimen, out []float64) {
	actions := s.Brain.Actions()

	for _, a := range actions {
		v := out[a]
		switch a {
		case neural.SetResponsiveness:
			s.Responsiveness = squeeze(v)
			s.ResponseCurve = ResponseCurve(s.Responsiveness, w.Cfg.Specimen.ResponsivenessK)
		case neural.SetOscillatorPeriod:
			s.OscPeriod = OscPeriodFor(v)
		case neural.SetLongProbeDist:
			s.ProbeDist = ProbeDistFor(v)
		case neural.EmitPheromone:
			if w.Cfg.Features.PheromonesEnabled && fires(w, s, v) {
				w.Pheromones.Emit(s.Loc.X, s.Loc.Y, s.LastDir)
			}
		case neural.Kill:
			if w.Cfg.Features.KillEnabled && fires(w, s, v) {
				queueNeighbourKills(w, s)
			}
		}
	}

	var path []components.Direction
	for _, a := range actions {
		if !a.IsMovement() {
			continue
		}
		v := out[a]
		if w.Rng.Float64() >= squeeze(v) {
			continue
		}
		path = append(path, stepFor(w, s, a, v))
	}
	w.QueueMove(s.Index, path)
}

// fires rolls a thresholded Bernoulli trial for emit and kill.
func fires(w *World, s *components.Specimen, v float64) bool {
	p := squeeze(v) * s.ResponseCurve
	return p > w.Cfg.Specimen.ActionThreshold && w.Rng.Float64() < p
}

func queueNeighbourKills(w *World, s *components.Specimen) {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			x, y := s.Loc.X+dx, s.Loc.Y+dy
			if (dx == 0 && dy == 0) || !w.Grid.InBoundsXY(x, y) {
				continue
			}
			if w.Grid.IsOccupiedXY(x, y) {
				w.QueueKill(int(w.Grid.AtXY(x, y)))
			}
		}
	}
}

func stepFor(w *World, s *components.Specimen, a neural.Action, v float64) components.Direction {
	switch a {
	case neural.MoveX:
		if v > 0 {
			return components.East
		}
		return components.West
	case neural.MoveY:
		if v > 0 {
			return components.North
		}
		return components.South
	case neural.MoveEast:
		return components.East
	case neural.MoveWest:
		return components.West
	case neural.MoveNorth:
		return components.North
	case neural.MoveSouth:
		return components.South
	case neural.MoveForward:
		return s.LastDir
	case neural.MoveReverse:
		return s.LastDir.Reverse()
	case neural.MoveLeft:
		return s.LastDir.Left()
	case neural.MoveRight:
		return s.LastDir.Right()
	case neural.MoveRandom:
		return components.RandomDirection(w.Rng)
	}
	return components.Center
}

// MutateSpecimen applies the mutation operator to the specimen's genome and
// recompiles its network.
func MutateSpecimen(w *World, s *components.Specimen) {
	evo := w.Cfg.Evolution
	s.Genome = Mutate(w.Rng, s.Genome, evo.MutateNGenes, evo.MutateNBits)
	s.Brain = neural.Compile(s.Genome, w.Decoder)
	s.Killer = s.Brain.Killer
}
