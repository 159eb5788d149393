package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// RunInfo describes one simulation run.
type RunInfo struct {
	ID        string
	Seed      uint64
	StartedAt time.Time
	Config    string // YAML snapshot
}

// GenerationSnapshot is what the store persists per generation.
type GenerationSnapshot struct {
	Record     GenerationRecord
	Population PopulationRecord
}

// SQLiteStore persists runs, generation summaries and populations.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database at path. Call Init before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the tables if needed.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// SaveRun inserts or replaces the metadata of a run.
func (s *SQLiteStore) SaveRun(ctx context.Context, run RunInfo) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, started_at, config)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			seed = excluded.seed,
			started_at = excluded.started_at,
			config = excluded.config
	`, run.ID, int64(run.Seed), run.StartedAt.UTC().Format(time.RFC3339Nano), run.Config)
	return err
}

// SaveGeneration stores a generation summary and its population in one
// transaction.
func (s *SQLiteStore) SaveGeneration(ctx context.Context, runID string, snap GenerationSnapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	r := snap.Record
	_, err = tx.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, steps_run, survived, selected, killers, kills, food_eaten, fitness_mean, fitness_max, energy_mean)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			steps_run = excluded.steps_run,
			survived = excluded.survived,
			selected = excluded.selected,
			killers = excluded.killers,
			kills = excluded.kills,
			food_eaten = excluded.food_eaten,
			fitness_mean = excluded.fitness_mean,
			fitness_max = excluded.fitness_max,
			energy_mean = excluded.energy_mean
	`, runID, r.Generation, r.StepsRun, r.Survived, r.Selected, r.Killers, r.Kills, r.FoodEaten,
		r.FitnessMean, r.FitnessMax, r.EnergyMean)
	if err != nil {
		return fmt.Errorf("insert generation %d: %w", r.Generation, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO specimens (run_id, generation, idx, energy, max_energy, fitness, alive, killer, genome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation, idx) DO UPDATE SET
			energy = excluded.energy,
			max_energy = excluded.max_energy,
			fitness = excluded.fitness,
			alive = excluded.alive,
			killer = excluded.killer,
			genome = excluded.genome
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sp := range snap.Population.Specimens {
		_, err := stmt.ExecContext(ctx, runID, snap.Population.Generation, sp.Index,
			sp.Energy, sp.MaxEnergy, sp.Fitness, sp.Alive, sp.Killer, strings.Join(sp.Genome, ","))
		if err != nil {
			return fmt.Errorf("insert specimen %d: %w", sp.Index, err)
		}
	}

	return tx.Commit()
}

// Generations returns the stored summaries of a run in generation order.
func (s *SQLiteStore) Generations(ctx context.Context, runID string) ([]GenerationRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, steps_run, survived, selected, killers, kills, food_eaten, fitness_mean, fitness_max, energy_mean
		FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenerationRecord
	for rows.Next() {
		var r GenerationRecord
		if err := rows.Scan(&r.Generation, &r.StepsRun, &r.Survived, &r.Selected, &r.Killers,
			&r.Kills, &r.FoodEaten, &r.FitnessMean, &r.FitnessMax, &r.EnergyMean); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Specimens returns the stored population of one generation in index order.
func (s *SQLiteStore) Specimens(ctx context.Context, runID string, generation int) ([]SpecimenRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT idx, energy, max_energy, fitness, alive, killer, genome
		FROM specimens WHERE run_id = ? AND generation = ? ORDER BY idx
	`, runID, generation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpecimenRecord
	for rows.Next() {
		var sp SpecimenRecord
		var genome string
		if err := rows.Scan(&sp.Index, &sp.Energy, &sp.MaxEnergy, &sp.Fitness, &sp.Alive, &sp.Killer, &genome); err != nil {
			return nil, err
		}
		if genome != "" {
			sp.Genome = strings.Split(genome, ",")
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Sink returns a Sink that saves each snapshot under runID and closes the
// store when closed.
func (s *SQLiteStore) Sink(runID string) Sink[GenerationSnapshot] {
	return &storeSink{store: s, runID: runID}
}

type storeSink struct {
	store *SQLiteStore
	runID string
}

func (ss *storeSink) Write(snap GenerationSnapshot) error {
	return ss.store.SaveGeneration(context.Background(), ss.runID, snap)
}

func (ss *storeSink) Close() error {
	return ss.store.Close()
}

// Close closes the database. Calling Close on a closed store is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			config TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			steps_run INTEGER NOT NULL,
			survived INTEGER NOT NULL,
			selected INTEGER NOT NULL,
			killers INTEGER NOT NULL,
			kills INTEGER NOT NULL,
			food_eaten INTEGER NOT NULL,
			fitness_mean REAL NOT NULL,
			fitness_max REAL NOT NULL,
			energy_mean REAL NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
		CREATE TABLE IF NOT EXISTS specimens (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			energy REAL NOT NULL,
			max_energy REAL NOT NULL,
			fitness REAL NOT NULL,
			alive INTEGER NOT NULL,
			killer INTEGER NOT NULL,
			genome TEXT NOT NULL,
			PRIMARY KEY (run_id, generation, idx)
		);
	`)
	return err
}
