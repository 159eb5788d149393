package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Hall indices.
const (
	HallForagers = iota
	HallKillers
	numHalls
)

var hallNames = [numHalls]string{"foragers", "killers"}

// HallEntry is a specimen that finished a generation alive with one of the
// best fitness scores seen in the run.
type HallEntry struct {
	Generation int      `json:"gen"`
	Index      int      `json:"index"`
	Fitness    float64  `json:"fitness"`
	Energy     float64  `json:"energy"`
	MaxEnergy  float64  `json:"max_energy"`
	Genome     []string `json:"genome"`
}

// HallOfFame keeps the fittest surviving genomes of a run, one hall for
// killer genomes and one for the rest.
type HallOfFame struct {
	halls   [numHalls][]HallEntry
	maxSize int
}

// NewHallOfFame creates a new hall of fame with the given capacity per hall.
func NewHallOfFame(maxSize int) *HallOfFame {
	hof := &HallOfFame{maxSize: maxSize}
	for i := range hof.halls {
		hof.halls[i] = make([]HallEntry, 0, maxSize)
	}
	return hof
}

// Consider evaluates a specimen at the end of a generation.
// Returns true if the specimen was added to a hall.
func (hof *HallOfFame) Consider(generation int, s SpecimenRecord) bool {
	if hof == nil || hof.maxSize <= 0 || !s.Alive {
		return false
	}

	entry := HallEntry{
		Generation: generation,
		Index:      s.Index,
		Fitness:    s.Fitness,
		Energy:     s.Energy,
		MaxEnergy:  s.MaxEnergy,
		Genome:     s.Genome,
	}

	hall := &hof.halls[HallForagers]
	if s.Killer {
		hall = &hof.halls[HallKillers]
	}
	*hall = hof.insertEntry(*hall, entry)
	return containsEntry(*hall, entry)
}

func containsEntry(hall []HallEntry, e HallEntry) bool {
	for i := range hall {
		if hall[i].Generation == e.Generation && hall[i].Index == e.Index {
			return true
		}
	}
	return false
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) []HallEntry {
	// Find insertion point (sorted descending by fitness, ties keep the
	// earlier entry first)
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}
	return hall
}

// Size returns the number of entries in a hall.
func (hof *HallOfFame) Size(hall int) int {
	if hof == nil || hall < 0 || hall >= numHalls {
		return 0
	}
	return len(hof.halls[hall])
}

// TopFitness returns the highest fitness in a hall, or 0 if it is empty.
func (hof *HallOfFame) TopFitness(hall int) float64 {
	if hof.Size(hall) == 0 {
		return 0
	}
	return hof.halls[hall][0].Fitness
}

// MarshalJSON serializes the halls keyed by name.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	export := make(map[string][]HallEntry, numHalls)
	for i, hall := range hof.halls {
		export[hallNames[i]] = hall
	}
	return json.MarshalIndent(export, "", "  ")
}

// SaveHallOfFame writes the hall of fame as JSON.
func SaveHallOfFame(path string, hof *HallOfFame) error {
	data, err := json.Marshal(hof)
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing hall of fame: %w", err)
	}
	return nil
}
