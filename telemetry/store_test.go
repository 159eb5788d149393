package telemetry

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), StoreFile))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer store.Close()

	if err := store.SaveRun(ctx, RunInfo{ID: "run-1", Seed: 42, StartedAt: time.Now(), Config: "world: {}"}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	for gen := 0; gen < 3; gen++ {
		snap := GenerationSnapshot{
			Record: GenerationRecord{Generation: gen, StepsRun: 100, Survived: 10 - gen, FitnessMax: float64(gen)},
			Population: PopulationRecord{
				Generation: gen,
				Specimens: []SpecimenRecord{
					{Index: 1, Energy: 1, MaxEnergy: 10, Alive: true, Genome: []string{"00000001", "00000002"}},
					{Index: 2, Energy: 0, MaxEnergy: 11, Killer: true, Genome: []string{"ffffffff", "00000000"}},
				},
			},
		}
		if err := store.SaveGeneration(ctx, "run-1", snap); err != nil {
			t.Fatalf("SaveGeneration %d: %v", gen, err)
		}
	}
	// Saving a generation again replaces it
	if err := store.SaveGeneration(ctx, "run-1", GenerationSnapshot{Record: GenerationRecord{Generation: 1, Survived: 99}}); err != nil {
		t.Fatal(err)
	}

	gens, err := store.Generations(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(gens) != 3 || gens[1].Survived != 99 || gens[2].FitnessMax != 2 {
		t.Errorf("generations = %+v", gens)
	}

	specs, err := store.Specimens(ctx, "run-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d specimens", len(specs))
	}
	if !specs[0].Alive || specs[0].Killer || !specs[1].Killer {
		t.Errorf("flags did not round trip: %+v", specs)
	}
	if !slices.Equal(specs[1].Genome, []string{"ffffffff", "00000000"}) {
		t.Errorf("genome = %v", specs[1].Genome)
	}
}

func TestSQLiteStoreUninitialized(t *testing.T) {
	store := NewSQLiteStore("")
	if err := store.Init(context.Background()); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := store.Generations(context.Background(), "x"); err == nil {
		t.Error("expected error before Init")
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close on an unopened store: %v", err)
	}
}

func TestStoreSinkThroughAsyncWriter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), StoreFile)
	store := NewSQLiteStore(path)
	if err := store.Init(ctx); err != nil {
		t.Fatal(err)
	}

	w := NewAsyncWriter("store", store.Sink("run-2"), 4)
	for gen := 0; gen < 5; gen++ {
		w.Send(GenerationSnapshot{Record: GenerationRecord{Generation: gen}})
	}
	w.Close()

	reopened := NewSQLiteStore(path)
	if err := reopened.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	gens, err := reopened.Generations(ctx, "run-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(gens) != 5 {
		t.Errorf("stored %d generations, want 5", len(gens))
	}
}
