package renderer

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Series is one named line of a chart, indexed by generation.
type Series struct {
	Name   string
	Values []float64
}

// SaveChart plots each series against generation number and writes the image
// to path. The format follows the file extension.
func SaveChart(path, title, yLabel string, series ...Series) error {
	if len(series) == 0 {
		return errors.New("chart has no series")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = yLabel

	var lines []any
	for _, s := range series {
		points := make(plotter.XYs, len(s.Values))
		for i, v := range s.Values {
			points[i].X = float64(i)
			points[i].Y = v
		}
		lines = append(lines, s.Name, points)
	}

	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return fmt.Errorf("add chart lines: %w", err)
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}
