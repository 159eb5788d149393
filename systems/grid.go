package systems

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/pthm-cable/evogrid/components"
)

// Grid cell values. Positive values are specimen indices.
const (
	Empty   int16 = 0
	Barrier int16 = -1
)

// Grid is the square occupancy matrix of the world plus its food sources.
// Barriers and food source positions survive Reset; occupancy and food
// amounts do not.
type Grid struct {
	dim     int
	cells   []int16 // x*dim + y
	food    map[components.Coord]int
	sites   []components.Coord // food source positions, sorted
	barrier []components.Coord

	minFood, maxFood int
}

// NewGrid creates an empty dim x dim grid. Food amounts are drawn from
// [minFood, maxFood].
func NewGrid(dim, minFood, maxFood int) *Grid {
	return &Grid{
		dim:     dim,
		cells:   make([]int16, dim*dim),
		food:    make(map[components.Coord]int),
		minFood: minFood,
		maxFood: maxFood,
	}
}

// Dim returns the side length.
func (g *Grid) Dim() int { return g.dim }

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c components.Coord) bool { return g.InBoundsXY(c.X, c.Y) }

// InBoundsXY is InBounds without building a Coord.
func (g *Grid) InBoundsXY(x, y int) bool {
	return x >= 0 && x < g.dim && y >= 0 && y < g.dim
}

// At returns the value of cell c.
func (g *Grid) At(c components.Coord) int16 { return g.cells[c.X*g.dim+c.Y] }

// AtXY is At without building a Coord.
func (g *Grid) AtXY(x, y int) int16 { return g.cells[x*g.dim+y] }

// Set writes v into cell c.
func (g *Grid) Set(c components.Coord, v int16) { g.cells[c.X*g.dim+c.Y] = v }

// SetXY is Set without building a Coord.
func (g *Grid) SetXY(x, y int, v int16) { g.cells[x*g.dim+y] = v }

func (g *Grid) IsEmpty(c components.Coord) bool   { return g.At(c) == Empty }
func (g *Grid) IsEmptyXY(x, y int) bool           { return g.AtXY(x, y) == Empty }
func (g *Grid) IsBarrier(c components.Coord) bool { return g.At(c) == Barrier }
func (g *Grid) IsBarrierXY(x, y int) bool         { return g.AtXY(x, y) == Barrier }
func (g *Grid) IsOccupied(c components.Coord) bool {
	return g.At(c) > Empty
}
func (g *Grid) IsOccupiedXY(x, y int) bool { return g.AtXY(x, y) > Empty }

// IsFood reports whether c is a food source with food left.
func (g *Grid) IsFood(c components.Coord) bool { return g.food[c] > 0 }

// IsFoodXY is IsFood without building a Coord.
func (g *Grid) IsFoodXY(x, y int) bool { return g.food[components.Coord{X: x, Y: y}] > 0 }

// FoodAt returns the food units left at c.
func (g *Grid) FoodAt(c components.Coord) int { return g.food[c] }

// FoodEatenAt consumes one unit at c. Eating where there is no food is a
// caller bug.
func (g *Grid) FoodEatenAt(c components.Coord) {
	if g.food[c] <= 0 {
		panic(fmt.Sprintf("grid: no food at %v", c))
	}
	g.food[c]--
}

// TotalFood returns the food units left on the grid.
func (g *Grid) TotalFood() int {
	total := 0
	for _, n := range g.food {
		total += n
	}
	return total
}

// Barriers returns the barrier positions.
func (g *Grid) Barriers() []components.Coord { return g.barrier }

// FoodSources returns the food source positions in x, y order.
func (g *Grid) FoodSources() []components.Coord { return g.sites }

// SetBarriers stamps barriers. Every position must be in bounds and empty.
func (g *Grid) SetBarriers(cs []components.Coord) error {
	if err := g.checkPlaceable(cs); err != nil {
		return fmt.Errorf("setting barriers: %w", err)
	}
	for _, c := range cs {
		g.Set(c, Barrier)
	}
	g.barrier = slices.Clone(cs)
	return nil
}

// SetFoodSources registers food sources and draws their amounts. Every
// position must be in bounds and empty.
func (g *Grid) SetFoodSources(rng *rand.Rand, cs []components.Coord) error {
	if err := g.checkPlaceable(cs); err != nil {
		return fmt.Errorf("setting food sources: %w", err)
	}
	g.sites = slices.Clone(cs)
	slices.SortFunc(g.sites, compareCoords)
	g.sites = slices.Compact(g.sites)
	g.rollFood(rng)
	return nil
}

func (g *Grid) checkPlaceable(cs []components.Coord) error {
	var errs []error
	for _, c := range cs {
		switch {
		case !g.InBounds(c):
			errs = append(errs, fmt.Errorf("%v is out of bounds", c))
		case !g.IsEmpty(c):
			errs = append(errs, fmt.Errorf("%v is not empty", c))
		}
	}
	return errors.Join(errs...)
}

func (g *Grid) rollFood(rng *rand.Rand) {
	clear(g.food)
	for _, c := range g.sites {
		g.food[c] = g.minFood + rng.IntN(g.maxFood-g.minFood+1)
	}
}

// Reset clears occupancy, re-stamps barriers and redraws food amounts.
func (g *Grid) Reset(rng *rand.Rand) {
	clear(g.cells)
	for _, c := range g.barrier {
		g.Set(c, Barrier)
	}
	g.rollFood(rng)
}

// Clear removes everything including barriers and food sources.
func (g *Grid) Clear() {
	clear(g.cells)
	clear(g.food)
	g.sites = nil
	g.barrier = nil
}

// EmptyCells returns all empty cells that are not food sources, in x, y
// order.
func (g *Grid) EmptyCells() []components.Coord {
	var out []components.Coord
	for x := 0; x < g.dim; x++ {
		for y := 0; y < g.dim; y++ {
			c := components.Coord{X: x, Y: y}
			if g.IsEmptyXY(x, y) {
				if _, ok := g.food[c]; !ok {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

// Snapshot copies the occupancy matrix, indexed x*dim + y.
func (g *Grid) Snapshot(dst []int16) []int16 {
	return append(dst[:0], g.cells...)
}

func compareCoords(a, b components.Coord) int {
	return cmp.Or(cmp.Compare(a.X, b.X), cmp.Compare(a.Y, b.Y))
}
