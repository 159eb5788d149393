// Package renderer draws grid snapshots and run charts to image files.
package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/pthm-cable/evogrid/systems"
)

// Frame is a read-only copy of the world at one step. It is safe to hand to
// another goroutine.
type Frame struct {
	Generation int
	Step       int
	Dim        int
	Cells      []int16 // column-major like systems.Grid: x*Dim+y
	Food       []bool  // same layout as Cells
	Pheromone  []float64
	Killer     []bool // by specimen index
	Alive      []bool // by specimen index
}

// Palette for frame rendering.
var (
	ColorEmpty     = color.RGBA{250, 250, 245, 255}
	ColorBarrier   = color.RGBA{60, 60, 70, 255}
	ColorFood      = color.RGBA{70, 170, 60, 255}
	ColorSpecimen  = color.RGBA{40, 90, 200, 255}
	ColorKiller    = color.RGBA{210, 40, 40, 255}
	ColorCorpse    = color.RGBA{160, 160, 160, 255}
	ColorPheromone = color.RGBA{230, 150, 20, 255}
)

// Draw renders f with each cell as a cellPx square. Row 0 of the image is the
// top of the grid (largest y).
func Draw(f *Frame, cellPx int) *image.RGBA {
	cellPx = max(cellPx, 1)
	size := f.Dim * cellPx
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	peak := 0.0
	for _, v := range f.Pheromone {
		peak = max(peak, v)
	}

	for x := 0; x < f.Dim; x++ {
		for y := 0; y < f.Dim; y++ {
			i := x*f.Dim + y
			c := f.cellColor(i, peak)
			px, py := x*cellPx, (f.Dim-1-y)*cellPx
			for dy := 0; dy < cellPx; dy++ {
				for dx := 0; dx < cellPx; dx++ {
					img.SetRGBA(px+dx, py+dy, c)
				}
			}
		}
	}
	return img
}

func (f *Frame) cellColor(i int, peak float64) color.RGBA {
	v := f.Cells[i]
	switch {
	case v == systems.Barrier:
		return ColorBarrier
	case v > 0:
		idx := int(v)
		if idx < len(f.Alive) && !f.Alive[idx] {
			return ColorCorpse
		}
		if idx < len(f.Killer) && f.Killer[idx] {
			return ColorKiller
		}
		return ColorSpecimen
	case i < len(f.Food) && f.Food[i]:
		return ColorFood
	case peak > 0 && i < len(f.Pheromone) && f.Pheromone[i] > 0:
		return blend(ColorEmpty, ColorPheromone, f.Pheromone[i]/peak)
	}
	return ColorEmpty
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	t = min(max(t, 0), 1)
	mix := func(p, q uint8) uint8 { return uint8(float64(p) + (float64(q)-float64(p))*t) }
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}

// EncodeJPEG draws f and returns it JPEG encoded.
func EncodeJPEG(f *Frame, cellPx, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Draw(f, cellPx), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode frame %d/%d: %w", f.Generation, f.Step, err)
	}
	return buf.Bytes(), nil
}

// TemplateFrame returns a frame showing only the layout of tpl.
func TemplateFrame(tpl systems.WorldTemplate) *Frame {
	n := tpl.Dim * tpl.Dim
	f := &Frame{Dim: tpl.Dim, Cells: make([]int16, n), Food: make([]bool, n)}
	for _, b := range tpl.Barriers {
		f.Cells[b[0]*tpl.Dim+b[1]] = systems.Barrier
	}
	for _, c := range tpl.Food {
		f.Food[c[0]*tpl.Dim+c[1]] = true
	}
	return f
}

// SavePNG draws f to a PNG file.
func SavePNG(path string, f *Frame, cellPx int) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(out, Draw(f, cellPx)); err != nil {
		out.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return out.Close()
}
