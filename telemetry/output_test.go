package telemetry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/systems"
)

func init() {
	config.MustInit("")
}

func TestCSVSinkHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), StepsFile)
	sink, err := NewCSVSink[StepRecord](path)
	if err != nil {
		t.Fatal(err)
	}

	for step := 0; step < 3; step++ {
		if err := sink.Write(StepRecord{Generation: 1, Step: step, Alive: 10 - step}); err != nil {
			t.Fatal(err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "generation,step,alive") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "1,2,8") {
		t.Errorf("last row = %q", lines[3])
	}
}

func TestJSONArraySink(t *testing.T) {
	tests := []struct {
		name string
		recs []SelectionRecord
		want int
	}{
		{"empty", nil, 0},
		{"one", []SelectionRecord{{Generation: 0}}, 1},
		{"several", []SelectionRecord{{Generation: 0}, {Generation: 1}, {Generation: 2}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), SelectionsFile)
			sink, err := NewJSONArraySink[SelectionRecord](path)
			if err != nil {
				t.Fatal(err)
			}
			for _, r := range tt.recs {
				if err := sink.Write(r); err != nil {
					t.Fatal(err)
				}
			}
			if err := sink.Close(); err != nil {
				t.Fatal(err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			var got []SelectionRecord
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("closed file is not valid JSON: %v\n%s", err, data)
			}
			if len(got) != tt.want {
				t.Errorf("decoded %d records, want %d", len(got), tt.want)
			}
		})
	}
}

type memorySink struct {
	recs   []int
	failOn int
	closed bool
}

func (m *memorySink) Write(v int) error {
	if v == m.failOn {
		return errors.New("boom")
	}
	m.recs = append(m.recs, v)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func TestAsyncWriterOrderAndClose(t *testing.T) {
	sink := &memorySink{failOn: 3}
	w := NewAsyncWriter[int]("test", sink, 2)

	for i := 0; i < 10; i++ {
		w.Send(i)
	}
	w.Close()
	w.Close()

	if !sink.closed {
		t.Error("sink was not closed")
	}
	want := []int{0, 1, 2, 4, 5, 6, 7, 8, 9}
	if len(sink.recs) != len(want) {
		t.Fatalf("wrote %v, want %v", sink.recs, want)
	}
	for i := range want {
		if sink.recs[i] != want[i] {
			t.Fatalf("wrote %v, want %v", sink.recs, want)
		}
	}
}

func TestNilAsyncWriter(t *testing.T) {
	var w *AsyncWriter[int]
	w.Send(1)
	w.Close()
}

func TestOutputManager(t *testing.T) {
	om, err := NewOutputManager("")
	if om != nil || err != nil {
		t.Fatal("empty dir should disable output")
	}
	if err := om.WriteConfig(config.Cfg()); err != nil {
		t.Errorf("nil manager WriteConfig: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "run")
	om, err = NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := om.WriteConfig(config.Cfg()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if _, err := config.Load(om.Path(ConfigFile)); err != nil {
		t.Errorf("written config does not load: %v", err)
	}

	tpl := systems.WorldTemplate{Dim: 4, Barriers: [][2]int{{1, 1}}, Food: [][2]int{{2, 2}}}
	if err := om.WriteWorld(tpl); err != nil {
		t.Fatalf("WriteWorld: %v", err)
	}
	if _, err := systems.LoadTemplate(om.Path(WorldFile)); err != nil {
		t.Errorf("written world does not load: %v", err)
	}

	sub, err := om.Subdir("animation")
	if err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(sub); err != nil || !fi.IsDir() {
		t.Errorf("Subdir did not create %s", sub)
	}
}
