package systems

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/evogrid/components"
)

// Pheromone read axes relative to a heading.
type Axis uint8

const (
	AxisForward Axis = iota
	AxisLeft
	AxisRight
)

// emitRadius bounds both emission and reading.
const emitRadius = 3

// Pheromones is a scalar field over the grid. Specimens deposit a trail
// behind them; the field decays and diffuses once per step. Border cells
// never hold pheromone.
type Pheromones struct {
	size      int
	field     *mat.Dense
	scratch   *mat.Dense
	diffusion float64
	decay     float64
	strength  float64
}

// NewPheromones creates an empty field.
func NewPheromones(size int, diffusion, decay, strength float64) *Pheromones {
	return &Pheromones{
		size:      size,
		field:     mat.NewDense(size, size, nil),
		scratch:   mat.NewDense(size, size, nil),
		diffusion: diffusion,
		decay:     decay,
		strength:  strength,
	}
}

func (p *Pheromones) interior(x, y int) bool {
	return x > 0 && x < p.size-1 && y > 0 && y < p.size-1
}

// At returns the field value at x, y.
func (p *Pheromones) At(x, y int) float64 { return p.field.At(x, y) }

// Emit deposits pheromone around x, y, weighted towards the cells behind a
// specimen heading dir. Nothing is deposited for Center.
func (p *Pheromones) Emit(x, y int, dir components.Direction) {
	if dir == components.Center {
		return
	}
	back := dir.Reverse().Vector()

	for dx := -emitRadius; dx <= emitRadius; dx++ {
		for dy := -emitRadius; dy <= emitRadius; dy++ {
			nx, ny := x+dx, y+dy
			if !p.interior(nx, ny) {
				continue
			}
			dist := math.Hypot(float64(dx), float64(dy))
			if dist > emitRadius {
				continue
			}
			ux, uy := float64(dx)/(dist+1e-6), float64(dy)/(dist+1e-6)
			factor := max(0.01, ux*float64(back.X)+uy*float64(back.Y))
			p.field.Set(nx, ny, p.field.At(nx, ny)+p.strength*factor/(1+dist))
		}
	}
}

// Read averages the interior cells 1..3 steps from x, y along the given
// axis of dir. Cells outside the interior are not counted.
func (p *Pheromones) Read(x, y int, dir components.Direction, axis Axis) float64 {
	b := dir.Vector()
	var step components.Coord
	switch axis {
	case AxisForward:
		step = b
	case AxisRight:
		step = components.Coord{X: -b.Y, Y: b.X}
	case AxisLeft:
		step = components.Coord{X: b.Y, Y: -b.X}
	}

	var sum float64
	count := 0
	for i := 1; i <= emitRadius; i++ {
		nx, ny := x+i*step.X, y+i*step.Y
		if p.interior(nx, ny) {
			sum += p.field.At(nx, ny)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Spread decays the field, diffuses it with a 4-neighbour stencil (cells
// outside the grid count as zero) and clears the border.
func (p *Pheromones) Spread() {
	p.field.Scale(1-p.decay, p.field)

	centre := 1 - p.diffusion
	side := p.diffusion / 4
	n := p.size
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			v := centre * p.field.At(x, y)
			if x > 0 {
				v += side * p.field.At(x-1, y)
			}
			if x < n-1 {
				v += side * p.field.At(x+1, y)
			}
			if y > 0 {
				v += side * p.field.At(x, y-1)
			}
			if y < n-1 {
				v += side * p.field.At(x, y+1)
			}
			p.scratch.Set(x, y, v)
		}
	}
	p.field, p.scratch = p.scratch, p.field

	for i := 0; i < n; i++ {
		p.field.Set(0, i, 0)
		p.field.Set(n-1, i, 0)
		p.field.Set(i, 0, 0)
		p.field.Set(i, n-1, 0)
	}
}

// Sum returns the total pheromone mass.
func (p *Pheromones) Sum() float64 {
	return mat.Sum(p.field)
}

// Max returns the largest field value.
func (p *Pheromones) Max() float64 {
	return mat.Max(p.field)
}

// Reset zeroes the field.
func (p *Pheromones) Reset() {
	p.field.Zero()
}
