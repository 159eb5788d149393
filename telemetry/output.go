package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/systems"
)

// Output file names inside a run directory.
const (
	StepsFile       = "steps.csv"
	GenerationsFile = "generations.csv"
	PerfFile        = "perf.csv"
	PopulationsFile = "generations.json"
	SelectionsFile  = "selections.json"
	SnapshotFile    = "population.json"
	ConfigFile      = "config.yaml"
	WorldFile       = "world.json"
	StoreFile       = "evogrid.db"
	BookmarksFile   = "bookmarks.json"
	HallOfFameFile  = "hall_of_fame.json"
)

// Sink receives records one at a time.
type Sink[T any] interface {
	Write(rec T) error
	Close() error
}

// CSVSink writes records as CSV rows, with a header before the first row.
type CSVSink[T any] struct {
	w             io.WriteCloser
	headerWritten bool
}

// NewCSVSink creates path and returns a sink writing to it.
func NewCSVSink[T any](path string) (*CSVSink[T], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	return &CSVSink[T]{w: f}, nil
}

// Write appends one row.
func (s *CSVSink[T]) Write(rec T) error {
	records := []T{rec}

	if !s.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, s.w); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		s.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, s.w); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *CSVSink[T]) Close() error {
	return s.w.Close()
}

// JSONArraySink writes records as the elements of a single JSON array. The
// closing bracket is written by Close, so a file is only valid JSON once its
// sink has been closed.
type JSONArraySink[T any] struct {
	w     io.WriteCloser
	count int
}

// NewJSONArraySink creates path and returns a sink writing to it.
func NewJSONArraySink[T any](path string) (*JSONArraySink[T], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	return &JSONArraySink[T]{w: f}, nil
}

// Write appends one array element.
func (s *JSONArraySink[T]) Write(rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	sep := ","
	if s.count == 0 {
		sep = "["
	}
	if _, err := io.WriteString(s.w, sep); err != nil {
		return err
	}
	if _, err := s.w.Write(data); err != nil {
		return err
	}
	s.count++
	return nil
}

// Close terminates the array and closes the underlying file.
func (s *JSONArraySink[T]) Close() error {
	end := "]\n"
	if s.count == 0 {
		end = "[]\n"
	}
	_, werr := io.WriteString(s.w, end)
	cerr := s.w.Close()
	if werr != nil {
		return fmt.Errorf("closing json array: %w", werr)
	}
	return cerr
}

// OutputManager owns a run directory and the one-shot files written to it.
// A nil *OutputManager is valid and writes nothing.
type OutputManager struct {
	dir string
}

// NewOutputManager creates the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &OutputManager{dir: dir}, nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Path returns the path of name inside the output directory.
func (om *OutputManager) Path(name string) string {
	if om == nil {
		return ""
	}
	return filepath.Join(om.dir, name)
}

// Subdir creates and returns a directory inside the output directory.
func (om *OutputManager) Subdir(name string) (string, error) {
	if om == nil {
		return "", nil
	}
	dir := filepath.Join(om.dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", name, err)
	}
	return dir, nil
}

// WriteConfig saves the run configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(om.Path(ConfigFile))
}

// WriteWorld saves the grid layout as a loadable world template.
func (om *OutputManager) WriteWorld(tpl systems.WorldTemplate) error {
	if om == nil {
		return nil
	}
	return systems.SaveTemplate(om.Path(WorldFile), tpl)
}

// WriteHallOfFame saves the run's hall of fame.
func (om *OutputManager) WriteHallOfFame(hof *HallOfFame) error {
	if om == nil || hof == nil {
		return nil
	}
	return SaveHallOfFame(om.Path(HallOfFameFile), hof)
}

// WritePopulation saves a loadable population snapshot.
func (om *OutputManager) WritePopulation(pf PopulationFile) error {
	if om == nil {
		return nil
	}
	return SavePopulation(om.Path(SnapshotFile), pf)
}
