package systems

import (
	"github.com/pthm-cable/evogrid/components"
)

// DrainKills applies the queued kills. Bodies stay on the grid.
func DrainKills(w *World) int {
	killed := 0
	for _, idx := range w.kills {
		s := w.Roster.Specimen(idx)
		if s == nil || !s.Alive {
			continue
		}
		s.Kill()
		killed++
	}
	w.kills = w.kills[:0]
	clear(w.killSeen)
	return killed
}

// DrainMoves resolves the queued paths in queue order. Each step into an
// empty in-bounds cell is taken while the specimen can still move; blocked
// steps are skipped. Entering a food cell eats one unit. Returns the number
// of cells moved in total.
func DrainMoves(w *World) int {
	g := w.Grid
	energy := w.Cfg.Energy
	moved := 0

	for _, req := range w.moves {
		s := w.Roster.Specimen(req.Index)
		if s == nil || !s.Alive {
			continue
		}

		start := s.Loc
		loc := start
		for _, d := range req.Path {
			next := loc.Add(d.Vector())
			if !g.InBounds(next) || !g.IsEmpty(next) {
				continue
			}
			if !s.CanMove() {
				break
			}
			loc = next
			if g.IsFood(loc) {
				s.Eat(energy.FoodAdded, energy.FoodIncrease, energy.MaxSupremum)
				g.FoodEatenAt(loc)
			}
			s.UseEnergy(energy.PerMove)
			moved++
		}

		g.Set(start, Empty)
		g.Set(loc, int16(s.Index))
		s.Loc = loc
		s.LastMove = loc.Sub(start)
		if s.LastMove.IsZero() {
			s.LastDir = components.RandomDirection(w.Rng)
		} else {
			s.LastDir = components.CoordAsDirection(s.LastMove)
		}
	}
	w.moves = w.moves[:0]
	return moved
}
