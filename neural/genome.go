package neural

import (
	"fmt"
	"math/bits"
	"math/rand/v2"
	"strconv"
)

// GeneBits is the width of one gene.
const GeneBits = 32

// Gene is one connection descriptor. Bit 0 is the most significant bit.
type Gene uint32

// Hex renders the gene as 8 lowercase hex digits.
func (g Gene) Hex() string {
	return fmt.Sprintf("%08x", uint32(g))
}

// field extracts n bits starting at MSB-first position start.
func (g Gene) field(start, n int) uint32 {
	return (uint32(g) >> (GeneBits - start - n)) & (1<<n - 1)
}

// FlipBits inverts n contiguous bits starting at MSB-first position start.
func FlipBits(g Gene, start, n int) Gene {
	mask := uint32(1<<n-1) << (GeneBits - start - n)
	return Gene(uint32(g) ^ mask)
}

// Genome is an ordered, fixed-length gene sequence.
type Genome []Gene

// RandomGenome returns n uniformly random genes.
func RandomGenome(rng *rand.Rand, n int) Genome {
	g := make(Genome, n)
	for i := range g {
		g[i] = Gene(rng.Uint32())
	}
	return g
}

// Clone returns an independent copy.
func (g Genome) Clone() Genome {
	out := make(Genome, len(g))
	copy(out, g)
	return out
}

// Hex returns the genes as hex strings, the persisted form.
func (g Genome) Hex() []string {
	out := make([]string, len(g))
	for i, gene := range g {
		out[i] = gene.Hex()
	}
	return out
}

// ParseGenome decodes hex strings produced by Genome.Hex.
func ParseGenome(hex []string) (Genome, error) {
	g := make(Genome, len(hex))
	for i, h := range hex {
		if len(h) != 8 {
			return nil, fmt.Errorf("gene %d: want 8 hex digits, got %q", i, h)
		}
		v, err := strconv.ParseUint(h, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("gene %d: %w", i, err)
		}
		g[i] = Gene(v)
	}
	return g, nil
}

// Similarity is 1 - differing_bits/total_bits over the common prefix.
// Genomes of different length compare the shorter length; empty genomes
// are identical.
func Similarity(a, b Genome) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 1
	}
	diff := 0
	for i := 0; i < n; i++ {
		diff += bits.OnesCount32(uint32(a[i] ^ b[i]))
	}
	return 1 - float64(diff)/float64(n*GeneBits)
}
