package systems

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/evogrid/components"
)

// WorldTemplate is the persisted layout of a world: its size, barrier cells
// and food source cells. Food amounts are not part of a template; they are
// drawn when the template is applied.
type WorldTemplate struct {
	Dim      int      `json:"dim"`
	Barriers [][2]int `json:"barriers"`
	Food     [][2]int `json:"food"`
}

// WorldGenParams controls random world generation.
type WorldGenParams struct {
	Dim         int
	Barriers    int
	FoodSources int

	// NoiseScale > 0 places barriers on the highest cells of a simplex
	// noise field so they form walls and clumps. 0 places them uniformly.
	NoiseScale   float64
	NoiseOctaves int
}

// GenerateWorld builds a random template. Barriers are placed first, then
// food sources on the remaining cells.
func GenerateWorld(rng *rand.Rand, p WorldGenParams) (WorldTemplate, error) {
	cells := p.Dim * p.Dim
	if p.Barriers+p.FoodSources > cells {
		return WorldTemplate{}, fmt.Errorf("%d barriers and %d food sources do not fit a %dx%d world",
			p.Barriers, p.FoodSources, p.Dim, p.Dim)
	}

	var order []int
	if p.NoiseScale > 0 {
		order = noiseOrder(rng, p)
	} else {
		order = rng.Perm(cells)
	}

	tpl := WorldTemplate{Dim: p.Dim}
	used := make([]bool, cells)
	for _, i := range order[:p.Barriers] {
		tpl.Barriers = append(tpl.Barriers, [2]int{i / p.Dim, i % p.Dim})
		used[i] = true
	}

	free := make([]int, 0, cells-p.Barriers)
	for i := range cells {
		if !used[i] {
			free = append(free, i)
		}
	}
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	for _, i := range free[:p.FoodSources] {
		tpl.Food = append(tpl.Food, [2]int{i / p.Dim, i % p.Dim})
	}
	return tpl, nil
}

// noiseOrder returns cell indices sorted by descending fractal noise value.
func noiseOrder(rng *rand.Rand, p WorldGenParams) []int {
	noise := opensimplex.NewNormalized(rng.Int64())
	octaves := max(p.NoiseOctaves, 1)

	values := make([]float64, p.Dim*p.Dim)
	for x := 0; x < p.Dim; x++ {
		for y := 0; y < p.Dim; y++ {
			values[x*p.Dim+y] = fbm(noise, float64(x)*p.NoiseScale, float64(y)*p.NoiseScale, octaves)
		}
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case values[a] > values[b]:
			return -1
		case values[a] < values[b]:
			return 1
		}
		return 0
	})
	return order
}

func fbm(noise opensimplex.Noise, x, y float64, octaves int) float64 {
	sum, norm := 0.0, 0.0
	amp, freq := 0.5, 1.0
	for o := 0; o < octaves; o++ {
		sum += amp * noise.Eval2(x*freq, y*freq)
		norm += amp
		freq *= 2
		amp *= 0.5
	}
	return sum / norm
}

// ApplyTemplate clears the grid and stamps the template onto it.
func (g *Grid) ApplyTemplate(rng *rand.Rand, tpl WorldTemplate) error {
	if tpl.Dim != g.dim {
		return fmt.Errorf("template dim %d does not match grid dim %d", tpl.Dim, g.dim)
	}
	g.Clear()
	if err := g.SetBarriers(toCoords(tpl.Barriers)); err != nil {
		return err
	}
	return g.SetFoodSources(rng, toCoords(tpl.Food))
}

// Template captures the current barrier and food source layout.
func (g *Grid) Template() WorldTemplate {
	tpl := WorldTemplate{Dim: g.dim}
	for _, c := range g.barrier {
		tpl.Barriers = append(tpl.Barriers, [2]int{c.X, c.Y})
	}
	for _, c := range g.sites {
		tpl.Food = append(tpl.Food, [2]int{c.X, c.Y})
	}
	return tpl
}

func toCoords(ps [][2]int) []components.Coord {
	out := make([]components.Coord, len(ps))
	for i, p := range ps {
		out[i] = components.Coord{X: p[0], Y: p[1]}
	}
	return out
}

// LoadTemplate reads a world template from a JSON file.
func LoadTemplate(path string) (WorldTemplate, error) {
	var tpl WorldTemplate
	data, err := os.ReadFile(path)
	if err != nil {
		return tpl, fmt.Errorf("reading world template: %w", err)
	}
	if err := json.Unmarshal(data, &tpl); err != nil {
		return tpl, fmt.Errorf("parsing world template: %w", err)
	}
	return tpl, nil
}

// SaveTemplate writes a world template as JSON.
func SaveTemplate(path string, tpl WorldTemplate) error {
	data, err := json.MarshalIndent(tpl, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling world template: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing world template: %w", err)
	}
	return nil
}
