// Package telemetry collects run statistics, bookmarks and snapshots and
// writes them to the run directory.
package telemetry

import "log/slog"

// StepRecord is one row of steps.csv.
type StepRecord struct {
	Generation int     `csv:"generation"`
	Step       int     `csv:"step"`
	Alive      int     `csv:"alive"`
	Mutated    int     `csv:"mutated"`
	Killed     int     `csv:"killed"`
	CellsMoved int     `csv:"cells_moved"`
	FoodLeft   int     `csv:"food_left"`
	EnergyMean float64 `csv:"energy_mean"`
	Pheromone  float64 `csv:"pheromone_total"`
}

// GenerationRecord is one row of generations.csv.
type GenerationRecord struct {
	Generation int `csv:"generation"`
	StepsRun   int `csv:"steps_run"`
	Population int `csv:"population"`
	Survived   int `csv:"survived"`
	Selected   int `csv:"selected"`
	Killers    int `csv:"killers"`

	// Totals over the generation
	Kills      int `csv:"kills"`
	Mutations  int `csv:"mutations"`
	CellsMoved int `csv:"cells_moved"`
	FoodEaten  int `csv:"food_eaten"`

	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessP10  float64 `csv:"fitness_p10"`
	FitnessP50  float64 `csv:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90"`
	FitnessMax  float64 `csv:"fitness_max"`

	EnergyMean    float64 `csv:"energy_mean"`
	MaxEnergyMean float64 `csv:"max_energy_mean"`

	DurationMS int64 `csv:"duration_ms"`
}

// LogValue implements slog.LogValuer for structured logging.
func (r GenerationRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", r.Generation),
		slog.Int("steps", r.StepsRun),
		slog.Int("survived", r.Survived),
		slog.Int("selected", r.Selected),
		slog.Int("killers", r.Killers),
		slog.Int("kills", r.Kills),
		slog.Int("food_eaten", r.FoodEaten),
		slog.Float64("fitness_mean", r.FitnessMean),
		slog.Float64("fitness_max", r.FitnessMax),
		slog.Float64("energy_mean", r.EnergyMean),
		slog.Int64("duration_ms", r.DurationMS),
	)
}

// SpecimenRecord is the persisted state of one specimen.
type SpecimenRecord struct {
	Index     int      `json:"index"`
	Energy    float64  `json:"energy"`
	MaxEnergy float64  `json:"max_energy"`
	Fitness   float64  `json:"fitness"`
	Alive     bool     `json:"alive"`
	Killer    bool     `json:"killer"`
	Genome    []string `json:"genome"`
}

// PopulationRecord is one element of generations.json: the population as it
// stood at the end of a generation.
type PopulationRecord struct {
	Generation int              `json:"gen"`
	Specimens  []SpecimenRecord `json:"specimens"`
}

// SelectionRecord is one element of selections.json.
type SelectionRecord struct {
	Generation    int              `json:"gen"`
	Probabilities []float64        `json:"probabilities"`
	Selected      []SpecimenRecord `json:"selected"`
}
