package telemetry

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pthm-cable/evogrid/neural"
)

func TestPopulationSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFile)

	pf := NewPopulationFile(2)
	pf.Set(1, neural.Genome{0x00000001, 0xdeadbeef}, 10)
	pf.Set(2, neural.Genome{0xffffffff, 0x0f0f0f0f}, 12.5)

	if err := SavePopulation(path, pf); err != nil {
		t.Fatalf("SavePopulation: %v", err)
	}

	lp, err := LoadPopulation(path)
	if err != nil {
		t.Fatalf("LoadPopulation: %v", err)
	}
	if lp.Size() != 2 || lp.GenomeLength() != 2 {
		t.Fatalf("size %d, genome length %d", lp.Size(), lp.GenomeLength())
	}
	if !slices.Equal(lp.Genomes[0], neural.Genome{0x00000001, 0xdeadbeef}) {
		t.Errorf("genome 1 = %v", lp.Genomes[0])
	}
	if lp.MaxEnergy[1] != 12.5 {
		t.Errorf("max energy 2 = %v", lp.MaxEnergy[1])
	}
}

func TestPopulationFileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFile)

	pf := NewPopulationFile(1)
	pf.Set(1, neural.Genome{0x0000ab01}, 3)
	if err := SavePopulation(path, pf); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `[null,{"genome":["0000ab01"],"max_energy":3}]`
	if string(data) != want {
		t.Errorf("file = %s, want %s", data, want)
	}
}

func TestLoadPopulationGenomeOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFile)
	content := `[null,{"genome":["00000001","00000002"]},{"genome":["00000003","00000004"],"max_energy":-2},{"genome":["00000005","00000006"],"max_energy":4}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	lp, err := LoadPopulation(path)
	if err != nil {
		t.Fatalf("LoadPopulation: %v", err)
	}
	if lp.Size() != 3 || lp.GenomeLength() != 2 {
		t.Fatalf("size %d, genome length %d", lp.Size(), lp.GenomeLength())
	}
	if !slices.Equal(lp.MaxEnergy, []float64{0, 0, 4}) {
		t.Errorf("max energy = %v, want [0 0 4]", lp.MaxEnergy)
	}
}

func TestLoadPopulationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{`},
		{"empty array", `[]`},
		{"only the null slot", `[null]`},
		{"element 0 set", `[{"genome":["00000000"],"max_energy":1},{"genome":["00000000"],"max_energy":1}]`},
		{"null specimen", `[null,null]`},
		{"bad hex", `[null,{"genome":["zzzzzzzz"],"max_energy":1}]`},
		{"short gene", `[null,{"genome":["abc"],"max_energy":1}]`},
		{"empty genome", `[null,{"genome":[],"max_energy":1}]`},
		{"length mismatch", `[null,{"genome":["00000000"],"max_energy":1},{"genome":["00000000","00000000"],"max_energy":1}]`},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "pop.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadPopulation(path); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadPopulation(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}
