package systems

import (
	"math"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/neural"
)

// sensorFunc computes one sensor value in [0,1].
type sensorFunc func(w *World, s *components.Specimen) float64

// sensorTable dispatches by sensor ordinal. Missing entries read as 0.
var sensorTable = [neural.NumSensors]sensorFunc{
	neural.LocX:             senseLocX,
	neural.LocY:             senseLocY,
	neural.BoundaryDistX:    senseBoundaryX,
	neural.BoundaryDist:     senseBoundary,
	neural.BoundaryDistY:    senseBoundaryY,
	neural.GeneticSimFwd:    senseGeneticSimFwd,
	neural.LastMoveDistX:    func(_ *World, s *components.Specimen) float64 { return squeeze(float64(s.LastMove.X)) },
	neural.LastMoveDistY:    func(_ *World, s *components.Specimen) float64 { return squeeze(float64(s.LastMove.Y)) },
	neural.LongProbePopFwd:  senseLongProbe(cellOccupied),
	neural.LongProbeBarFwd:  senseLongProbe(cellBarrier),
	neural.LongProbeFoodFwd: senseLongProbe(cellFood),
	neural.Population:       senseDensity(cellOccupied),
	neural.PopulationFwd:    senseLine(cellOccupied, 0),
	neural.PopulationLR:     senseLine(cellOccupied, 2),
	neural.Food:             senseDensity(cellFood),
	neural.FoodFwd:          senseLine(cellFood, 0),
	neural.FoodLR:           senseLine(cellFood, 2),
	neural.FoodDistFwd:      senseDistance(cellFood, false),
	neural.FoodDistLR:       senseDistance(cellFood, true),
	neural.Osc:              senseOsc,
	neural.Age:              senseAge,
	neural.BarrierFwd:       senseDistance(cellBarrier, false),
	neural.BarrierLR:        senseDistance(cellBarrier, true),
	neural.Random:           func(w *World, _ *components.Specimen) float64 { return w.Rng.Float64() },
	neural.Energy:           senseEnergy,
	neural.PheromoneFwd:     sensePheromone(AxisForward),
	neural.PheromoneL:       sensePheromone(AxisLeft),
	neural.PheromoneR:       sensePheromone(AxisRight),
}

// Sense fills dst (indexed by sensor id) with the sensors the specimen's
// network reads. Other entries are left untouched.
func Sense(w *World, s *components.Specimen, dst []float64) {
	active := neural.Sensor(w.Cfg.Derived.SensorCount)
	for _, id := range s.Brain.UsedSensors() {
		f := sensorTable[id]
		if id >= active || f == nil {
			dst[id] = 0
			continue
		}
		dst[id] = f(w, s)
	}
}

// squeeze maps any real onto (0,1).
func squeeze(x float64) float64 {
	return (math.Tanh(x) + 1) / 2
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

// cellTest classifies a grid cell for ray casts and density counts.
type cellTest func(g *Grid, x, y int) bool

func cellOccupied(g *Grid, x, y int) bool { return g.IsOccupiedXY(x, y) }
func cellBarrier(g *Grid, x, y int) bool  { return g.IsBarrierXY(x, y) }
func cellFood(g *Grid, x, y int) bool     { return g.IsFoodXY(x, y) }

// castRay walks from loc along dir for at most maxDist cells (<= 0 means
// until the edge) and returns the distance of the first cell matching hit.
// Barriers stop the ray unless they are what it looks for.
func castRay(g *Grid, loc components.Coord, dir components.Direction, maxDist int, hit cellTest) (int, bool) {
	if dir == components.Center {
		return 0, false
	}
	v := dir.Vector()
	x, y := loc.X, loc.Y
	for i := 1; maxDist <= 0 || i <= maxDist; i++ {
		x += v.X
		y += v.Y
		if !g.InBoundsXY(x, y) {
			return 0, false
		}
		if hit(g, x, y) {
			return i, true
		}
		if g.IsBarrierXY(x, y) {
			return 0, false
		}
	}
	return 0, false
}

// countLine counts matching cells along dir and its reverse, excluding loc.
func countLine(g *Grid, loc components.Coord, dir components.Direction, match cellTest) int {
	if dir == components.Center {
		return 0
	}
	n := 0
	for _, d := range [2]components.Direction{dir, dir.Reverse()} {
		v := d.Vector()
		for x, y := loc.X+v.X, loc.Y+v.Y; g.InBoundsXY(x, y); x, y = x+v.X, y+v.Y {
			if match(g, x, y) {
				n++
			}
		}
	}
	return n
}

func senseLocX(w *World, s *components.Specimen) float64 {
	return float64(s.Loc.X) / float64(w.Grid.Dim()-1)
}

func senseLocY(w *World, s *components.Specimen) float64 {
	return float64(s.Loc.Y) / float64(w.Grid.Dim()-1)
}

func boundaryDist(v, dim int) float64 {
	return clamp01(float64(min(v, dim-v)) / (float64(dim) / 2))
}

func senseBoundaryX(w *World, s *components.Specimen) float64 {
	return boundaryDist(s.Loc.X, w.Grid.Dim())
}

func senseBoundaryY(w *World, s *components.Specimen) float64 {
	return boundaryDist(s.Loc.Y, w.Grid.Dim())
}

func senseBoundary(w *World, s *components.Specimen) float64 {
	return min(senseBoundaryX(w, s), senseBoundaryY(w, s))
}

func senseGeneticSimFwd(w *World, s *components.Specimen) float64 {
	dist, ok := castRay(w.Grid, s.Loc, s.LastDir, 0, cellOccupied)
	if !ok || w.Roster == nil {
		return 0
	}
	hit := s.Loc.Add(s.LastDir.Vector().Mul(dist))
	other := w.Roster.Specimen(int(w.Grid.At(hit)))
	if other == nil {
		return 0
	}
	return neural.Similarity(s.Genome, other.Genome)
}

func senseLongProbe(match cellTest) sensorFunc {
	return func(w *World, s *components.Specimen) float64 {
		dist, ok := castRay(w.Grid, s.Loc, s.LastDir, s.ProbeDist, match)
		if !ok {
			return 0
		}
		return squeeze(float64(dist))
	}
}

// senseDensity counts matches in the square neighbourhood around the
// specimen.
func senseDensity(match cellTest) sensorFunc {
	return func(w *World, s *components.Specimen) float64 {
		r := w.Cfg.Specimen.NeighbourhoodRadius
		if r <= 0 {
			return 0
		}
		n := 0
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				x, y := s.Loc.X+dx, s.Loc.Y+dy
				if (dx == 0 && dy == 0) || !w.Grid.InBoundsXY(x, y) {
					continue
				}
				if match(w.Grid, x, y) {
					n++
				}
			}
		}
		return clamp01(float64(n) / float64(4*r*r))
	}
}

// senseLine counts matches on the line through the specimen along its
// heading rotated by turn eighths.
func senseLine(match cellTest, turn int) sensorFunc {
	return func(w *World, s *components.Specimen) float64 {
		n := countLine(w.Grid, s.Loc, s.LastDir.Rotate(turn), match)
		return clamp01(float64(n) / float64(w.Grid.Dim()))
	}
}

// senseDistance reports the squeezed distance to the first match forward,
// or to the nearer of the left and right matches.
func senseDistance(match cellTest, sideways bool) sensorFunc {
	return func(w *World, s *components.Specimen) float64 {
		if !sideways {
			dist, ok := castRay(w.Grid, s.Loc, s.LastDir, 0, match)
			if !ok {
				return 0
			}
			return squeeze(float64(dist))
		}

		l, okL := castRay(w.Grid, s.Loc, s.LastDir.Left(), 0, match)
		r, okR := castRay(w.Grid, s.Loc, s.LastDir.Right(), 0, match)
		switch {
		case okL && okR:
			return squeeze(float64(min(l, r)))
		case okL:
			return squeeze(float64(l))
		case okR:
			return squeeze(float64(r))
		}
		return 0
	}
}

func senseOsc(_ *World, s *components.Specimen) float64 {
	s.OscPhase++
	if s.OscPeriod <= 0 {
		return 0.5
	}
	return (math.Sin(2*math.Pi*float64(s.OscPhase)/float64(s.OscPeriod)) + 1) / 2
}

func senseAge(w *World, s *components.Specimen) float64 {
	return clamp01(float64(s.Age) / float64(w.Cfg.Population.Steps))
}

func senseEnergy(_ *World, s *components.Specimen) float64 {
	if s.MaxEnergy <= 0 {
		return 0
	}
	return clamp01(s.Energy / s.MaxEnergy)
}

func sensePheromone(axis Axis) sensorFunc {
	return func(w *World, s *components.Specimen) float64 {
		return squeeze(w.Pheromones.Read(s.Loc.X, s.Loc.Y, s.LastDir, axis))
	}
}
