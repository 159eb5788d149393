package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/pthm-cable/evogrid/neural"
)

// PopulationEntry is one specimen of a population snapshot.
type PopulationEntry struct {
	Genome    []string `json:"genome"`
	MaxEnergy float64  `json:"max_energy"`
}

// PopulationFile is a loadable population snapshot. Element i holds
// specimen i; element 0 is always nil so indices match the grid.
type PopulationFile []*PopulationEntry

// NewPopulationFile allocates a snapshot for size specimens.
func NewPopulationFile(size int) PopulationFile {
	return make(PopulationFile, size+1)
}

// Set stores specimen index.
func (pf PopulationFile) Set(index int, genome neural.Genome, maxEnergy float64) {
	pf[index] = &PopulationEntry{Genome: genome.Hex(), MaxEnergy: maxEnergy}
}

// Size returns the number of specimens.
func (pf PopulationFile) Size() int {
	return max(len(pf)-1, 0)
}

// SavePopulation writes a snapshot to path.
func SavePopulation(path string, pf PopulationFile) error {
	data, err := json.Marshal(pf)
	if err != nil {
		return fmt.Errorf("marshal population: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write population: %w", err)
	}
	return nil
}

// LoadedPopulation is a validated population snapshot. Position i holds
// specimen i+1. A MaxEnergy of 0 means the snapshot did not set one.
type LoadedPopulation struct {
	Genomes   []neural.Genome
	MaxEnergy []float64
}

// Size returns the number of specimens.
func (lp *LoadedPopulation) Size() int { return len(lp.Genomes) }

// GenomeLength returns the common genome length.
func (lp *LoadedPopulation) GenomeLength() int { return len(lp.Genomes[0]) }

// LoadPopulation reads and validates a snapshot. Every specimen must have a
// genome of the same nonzero length. max_energy is optional; a missing or
// non-positive value loads as 0 and the caller picks the default.
func LoadPopulation(path string) (*LoadedPopulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read population: %w", err)
	}

	var pf PopulationFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("unmarshal population: %w", err)
	}
	if pf.Size() == 0 {
		return nil, errors.New("population is empty")
	}
	if pf[0] != nil {
		return nil, errors.New("population element 0 must be null")
	}

	lp := &LoadedPopulation{
		Genomes:   make([]neural.Genome, 0, pf.Size()),
		MaxEnergy: make([]float64, 0, pf.Size()),
	}
	for i, e := range pf[1:] {
		index := i + 1
		if e == nil {
			return nil, fmt.Errorf("specimen %d is null", index)
		}
		g, err := neural.ParseGenome(e.Genome)
		if err != nil {
			return nil, fmt.Errorf("specimen %d: %w", index, err)
		}
		if len(g) == 0 {
			return nil, fmt.Errorf("specimen %d has an empty genome", index)
		}
		if index > 1 && len(g) != len(lp.Genomes[0]) {
			return nil, fmt.Errorf("specimen %d: genome length %d, want %d", index, len(g), len(lp.Genomes[0]))
		}
		lp.Genomes = append(lp.Genomes, g)
		lp.MaxEnergy = append(lp.MaxEnergy, max(e.MaxEnergy, 0))
	}
	return lp, nil
}
