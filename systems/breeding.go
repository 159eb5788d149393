package systems

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/pthm-cable/evogrid/neural"
)

// Selection constants.
const (
	selectTopN        = 3    // Leaders averaged for the threshold
	selectThresholdFr = 0.67 // Fraction of the leaders' mean to pass
)

// Offspring is the heritable part of a specimen.
type Offspring struct {
	Genome    neural.Genome
	MaxEnergy float64
}

// EvaluateAndSelect picks the parents of the next generation and their
// mating probabilities. fitness and energy are indexed by specimen position
// (index-1); selected holds positions into those slices.
func EvaluateAndSelect(fitness, energy []float64, quota int) (probs []float64, selected []int) {
	selected = SelectBest(fitness, energy, quota)
	if len(selected) == 0 {
		return nil, nil
	}

	vals := make([]float64, len(selected))
	for i, idx := range selected {
		vals[i] = fitness[idx]
	}
	lse := floats.LogSumExp(vals)
	probs = make([]float64, len(vals))
	for i, v := range vals {
		probs[i] = math.Exp(v - lse)
	}
	return probs, selected
}

// SelectBest returns the positions of at least quota specimens (fewer only
// if the population is smaller). Specimens that ended with energy are
// preferred; if there are fewer of them than quota, the fittest of the rest
// fill the gap.
func SelectBest(fitness, energy []float64, quota int) []int {
	var alive, spent []int
	for i, e := range energy {
		if e != 0 {
			alive = append(alive, i)
		} else {
			spent = append(spent, i)
		}
	}

	if len(alive) < quota {
		slices.SortStableFunc(spent, func(a, b int) int {
			return cmp.Compare(fitness[b], fitness[a])
		})
		need := min(quota-len(alive), len(spent))
		out := append(alive, spent[:need]...)
		slices.Sort(out)
		return out
	}

	vals := slices.Clone(fitness)
	for _, i := range spent {
		vals[i] = 0
	}
	sorted := slices.Clone(vals)
	slices.SortFunc(sorted, func(a, b float64) int { return cmp.Compare(b, a) })

	threshold := selectThresholdFr * stat.Mean(sorted[:min(selectTopN, quota)], nil)
	selected := indicesWhere(vals, func(v float64) bool { return v > threshold })
	if len(selected) < quota {
		threshold = sorted[quota-1]
		selected = indicesWhere(vals, func(v float64) bool { return v >= threshold })
	}
	return selected
}

func indicesWhere(vals []float64, keep func(float64) bool) []int {
	var out []int
	for i, v := range vals {
		if keep(v) {
			out = append(out, i)
		}
	}
	return out
}

// Reproduce breeds popSize children. Each round draws two distinct parents
// by weighted sampling without replacement and keeps both crossover
// children. parent resolves a selected position to its heritable state.
func Reproduce(rng *rand.Rand, probs []float64, selected []int, parent func(pos int) Offspring, popSize int) []Offspring {
	rounds := popSize/2 + 1
	children := make([]Offspring, 0, 2*rounds)

	for range rounds {
		w := sampleuv.NewWeighted(probs, rng)
		i, _ := w.Take()
		j, ok := w.Take()
		if !ok {
			j = i
		}
		a, b := Crossover(rng, parent(selected[i]), parent(selected[j]))
		children = append(children, a, b)
	}
	return children[:popSize]
}

// Crossover recombines two equal-length genomes. A random subset of k genes
// of a is joined with a random subset of len-k genes of b for the first
// child; the second child gets the complements. Each child inherits the
// max energy of one parent.
func Crossover(rng *rand.Rand, a, b Offspring) (Offspring, Offspring) {
	n := len(a.Genome)
	k := 0
	if n > 1 {
		k = rng.IntN(n - 1)
	}

	inA := pick(rng, n, k)
	inB := pick(rng, n, n-k)

	first := make(neural.Genome, 0, n)
	second := make(neural.Genome, 0, n)
	for i, g := range a.Genome {
		if inA[i] {
			first = append(first, g)
		} else {
			second = append(second, g)
		}
	}
	for i, g := range b.Genome {
		if inB[i] {
			first = append(first, g)
		} else {
			second = append(second, g)
		}
	}

	maxA, maxB := a.MaxEnergy, b.MaxEnergy
	if rng.IntN(2) == 1 {
		maxA, maxB = maxB, maxA
	}
	return Offspring{Genome: first, MaxEnergy: maxA}, Offspring{Genome: second, MaxEnergy: maxB}
}

// pick marks k distinct positions out of n.
func pick(rng *rand.Rand, n, k int) []bool {
	marked := make([]bool, n)
	for _, i := range rng.Perm(n)[:k] {
		marked[i] = true
	}
	return marked
}

// Mutate returns a copy of genome with nGenes distinct genes each having a
// contiguous run of nBits flipped.
func Mutate(rng *rand.Rand, genome neural.Genome, nGenes, nBits int) neural.Genome {
	out := genome.Clone()
	nGenes = min(nGenes, len(out))
	for _, i := range rng.Perm(len(out))[:nGenes] {
		start := rng.IntN(neural.GeneBits - nBits + 1)
		out[i] = neural.FlipBits(out[i], start, nBits)
	}
	return out
}
