package components

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Coord is an integer grid position or displacement. North is +Y.
type Coord struct {
	X, Y int
}

// Add returns c + o.
func (c Coord) Add(o Coord) Coord { return Coord{c.X + o.X, c.Y + o.Y} }

// Sub returns c - o.
func (c Coord) Sub(o Coord) Coord { return Coord{c.X - o.X, c.Y - o.Y} }

// Mul scales c by n.
func (c Coord) Mul(n int) Coord { return Coord{c.X * n, c.Y * n} }

// Length is the rounded Euclidean length.
func (c Coord) Length() int {
	return int(math.Round(math.Hypot(float64(c.X), float64(c.Y))))
}

// IsZero reports whether c is the origin.
func (c Coord) IsZero() bool { return c.X == 0 && c.Y == 0 }

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// Direction is one of the eight compass points, or Center. The values run
// clockwise starting at north-west, so rotating by n steps is addition
// modulo 8.
type Direction uint8

const (
	NorthWest Direction = iota
	North
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	Center
)

var directionNames = [...]string{"NW", "N", "NE", "E", "SE", "S", "SW", "W", "C"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "?"
}

var directionVectors = [...]Coord{
	NorthWest: {-1, 1},
	North:     {0, 1},
	NorthEast: {1, 1},
	East:      {1, 0},
	SouthEast: {1, -1},
	South:     {0, -1},
	SouthWest: {-1, -1},
	West:      {-1, 0},
	Center:    {0, 0},
}

// Vector returns the unit step of d. Diagonals step on both axes.
func (d Direction) Vector() Coord {
	return directionVectors[d]
}

// Rotate turns d clockwise by n eighths (negative n turns counter-clockwise).
// Center does not rotate.
func (d Direction) Rotate(n int) Direction {
	if d == Center {
		return Center
	}
	return Direction(((int(d)+n)%8 + 8) % 8)
}

// Left is d turned 90 degrees counter-clockwise.
func (d Direction) Left() Direction { return d.Rotate(-2) }

// Right is d turned 90 degrees clockwise.
func (d Direction) Right() Direction { return d.Rotate(2) }

// Reverse is d turned 180 degrees.
func (d Direction) Reverse() Direction { return d.Rotate(4) }

// RandomDirection returns one of the eight compass points, never Center.
func RandomDirection(rng *rand.Rand) Direction {
	return North.Rotate(rng.IntN(8))
}

// CoordAsDirection maps a displacement to the nearest compass point. The
// vector is rotated clockwise by pi/8 so each octant boundary lands on an
// axis or diagonal; the zero vector maps to Center.
func CoordAsDirection(c Coord) Direction {
	sin, cos := math.Sincos(math.Pi / 8)
	x := float64(c.X)*cos + float64(c.Y)*sin
	y := -float64(c.X)*sin + float64(c.Y)*cos

	switch {
	case x > 0 && y >= 0:
		if y >= x {
			return North
		}
		return NorthEast
	case x >= 0 && y < 0:
		if y >= -x {
			return East
		}
		return SouthEast
	case x < 0 && y <= 0:
		if y <= x {
			return South
		}
		return SouthWest
	case x <= 0 && y > 0:
		if y <= -x {
			return West
		}
		return NorthWest
	}
	return Center
}
