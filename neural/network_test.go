package neural

import (
	"math"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"
)

// newTestNetwork builds an uncompiled network with the given stages.
func newTestNetwork(sensors, inner int, direct, sensorInner, lateral, innerAction Stage) *Network {
	n := &Network{
		Direct:      direct,
		SensorInner: sensorInner,
		Lateral:     lateral,
		InnerAction: innerAction,
		numSensors:  sensors,
		numInner:    inner,
		numActions:  NumActions,
	}
	n.Prune()
	n.inner = make([]float64, inner)
	n.hidden = make([]float64, inner)
	n.out = make([]float64, NumActions)
	return n
}

func TestRun(t *testing.T) {
	n := newTestNetwork(4, 2,
		Stage{
			{ID: int(SetResponsiveness), Links: []Link{{Source: 2, Weight: -1}}},
			{ID: int(MoveEast), Links: []Link{{Source: 1, Weight: 2}}},
		},
		Stage{{ID: 0, Links: []Link{{Source: 0, Weight: 1}}}},
		Stage{
			{ID: 0, Links: []Link{{Source: 0, Weight: 1}}},
			{ID: 1, Links: []Link{{Source: 0, Weight: 2}}},
		},
		Stage{{ID: int(MoveEast), Links: []Link{{Source: 1, Weight: 1}}}},
	)

	inputs := []float64{0.5, 0.25, 1, 0}
	out := n.Run(inputs)

	// inner0 = 0.5; lateral reads the pre-lateral snapshot:
	// hidden0 = tanh(0.5 + 0.5), hidden1 = tanh(0 + 1.0)
	wantEast := math.Tanh(math.Tanh(1.0) + 0.5)
	wantResp := math.Tanh(-1)

	if math.Abs(out[MoveEast]-wantEast) > 1e-12 {
		t.Errorf("MOVE_EAST = %v, want %v", out[MoveEast], wantEast)
	}
	if math.Abs(out[SetResponsiveness]-wantResp) > 1e-12 {
		t.Errorf("SET_RESPONSIVENESS = %v, want %v", out[SetResponsiveness], wantResp)
	}

	wantActions := []Action{SetResponsiveness, MoveEast}
	if !slices.Equal(n.Actions(), wantActions) {
		t.Errorf("Actions() = %v, want %v", n.Actions(), wantActions)
	}
	wantSensors := []Sensor{LocX, LocY, BoundaryDistX}
	if !slices.Equal(n.UsedSensors(), wantSensors) {
		t.Errorf("UsedSensors() = %v, want %v", n.UsedSensors(), wantSensors)
	}

	// Repeated runs with the same inputs are stable
	again := n.Run(inputs)
	if math.Abs(again[MoveEast]-wantEast) > 1e-12 {
		t.Errorf("second run MOVE_EAST = %v, want %v", again[MoveEast], wantEast)
	}
}

func TestPrune(t *testing.T) {
	tests := []struct {
		name            string
		direct          Stage
		sensorInner     Stage
		lateral         Stage
		innerAction     Stage
		wantLinks       int
		wantSensors     []Sensor
		wantActions     []Action
		wantLateralIDs  []int
		wantSensorInner []int
	}{
		{
			name:        "inner neuron without output is removed",
			sensorInner: Stage{{ID: 0, Links: []Link{{Source: 3, Weight: 1}}}},
			wantLinks:   0,
		},
		{
			name:        "action fed by unreachable inner neuron is removed",
			innerAction: Stage{{ID: int(MoveNorth), Links: []Link{{Source: 1, Weight: 1}}}},
			wantLinks:   0,
		},
		{
			name: "lateral cycle without sensor input is removed",
			lateral: Stage{
				{ID: 0, Links: []Link{{Source: 1, Weight: 1}}},
				{ID: 1, Links: []Link{{Source: 0, Weight: 1}}},
			},
			innerAction: Stage{{ID: int(MoveNorth), Links: []Link{{Source: 0, Weight: 1}}}},
			wantLinks:   0,
		},
		{
			name:        "lateral chain reaches an action",
			sensorInner: Stage{{ID: 0, Links: []Link{{Source: 5, Weight: 1}}}},
			lateral: Stage{
				{ID: 1, Links: []Link{{Source: 0, Weight: 1}}},
				{ID: 2, Links: []Link{{Source: 1, Weight: 1}}},
			},
			innerAction:     Stage{{ID: int(MoveWest), Links: []Link{{Source: 2, Weight: 1}}}},
			wantLinks:       4,
			wantSensors:     []Sensor{Sensor(5)},
			wantActions:     []Action{MoveWest},
			wantLateralIDs:  []int{1, 2},
			wantSensorInner: []int{0},
		},
		{
			name:        "inner neuron passes through without lateral links",
			sensorInner: Stage{{ID: 0, Links: []Link{{Source: 1, Weight: 1}}}},
			lateral: Stage{
				{ID: 2, Links: []Link{{Source: 0, Weight: 1}}}, // dead end
			},
			innerAction:     Stage{{ID: int(Kill), Links: []Link{{Source: 0, Weight: 1}}}},
			wantLinks:       2,
			wantSensors:     []Sensor{LocY},
			wantActions:     []Action{Kill},
			wantSensorInner: []int{0},
		},
		{
			name: "self loop keeps a reached neuron",
			sensorInner: Stage{
				{ID: 1, Links: []Link{{Source: 0, Weight: 1}}},
				{ID: 2, Links: []Link{{Source: 0, Weight: 1}}}, // no path to an action
			},
			lateral: Stage{
				{ID: 1, Links: []Link{{Source: 1, Weight: 0.5}, {Source: 0, Weight: 1}}},
			},
			innerAction:     Stage{{ID: int(MoveX), Links: []Link{{Source: 1, Weight: 1}}}},
			wantLinks:       3, // links from unreached inner 0 are dropped
			wantSensors:     []Sensor{LocX},
			wantActions:     []Action{MoveX},
			wantLateralIDs:  []int{1},
			wantSensorInner: []int{1},
		},
		{
			name:        "direct links survive without inner layers",
			direct:      Stage{{ID: int(MoveRandom), Links: []Link{{Source: 7, Weight: 1}}}},
			sensorInner: Stage{{ID: 0, Links: []Link{{Source: 3, Weight: 1}}}},
			wantLinks:   1,
			wantSensors: []Sensor{Sensor(7)},
			wantActions: []Action{MoveRandom},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNetwork(10, 3, tt.direct, tt.sensorInner, tt.lateral, tt.innerAction)

			if got := n.Connections(); got != tt.wantLinks {
				t.Errorf("Connections() = %d, want %d", got, tt.wantLinks)
			}
			if !slices.Equal(n.UsedSensors(), tt.wantSensors) {
				t.Errorf("UsedSensors() = %v, want %v", n.UsedSensors(), tt.wantSensors)
			}
			if !slices.Equal(n.Actions(), tt.wantActions) {
				t.Errorf("Actions() = %v, want %v", n.Actions(), tt.wantActions)
			}
			if got := stageIDs(n.Lateral); !slices.Equal(got, tt.wantLateralIDs) {
				t.Errorf("lateral targets = %v, want %v", got, tt.wantLateralIDs)
			}
			if got := stageIDs(n.SensorInner); !slices.Equal(got, tt.wantSensorInner) {
				t.Errorf("sensor->inner targets = %v, want %v", got, tt.wantSensorInner)
			}
		})
	}
}

func stageIDs(s Stage) []int {
	var ids []int
	for _, t := range s {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestPruneIdempotent(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	dec := Decoder{Sensors: 28, Inner: 3, Actions: 15, RemapKill: true}

	for i := 0; i < 200; i++ {
		n := Compile(RandomGenome(rng, 16), dec)
		before := []Stage{n.Direct, n.SensorInner, n.Lateral, n.InnerAction}
		used := slices.Clone(n.UsedSensors())
		actions := slices.Clone(n.Actions())

		n.Prune()

		after := []Stage{n.Direct, n.SensorInner, n.Lateral, n.InnerAction}
		if !reflect.DeepEqual(before, after) {
			t.Fatalf("genome %d: second prune changed the stages", i)
		}
		if !slices.Equal(used, n.UsedSensors()) || !slices.Equal(actions, n.Actions()) {
			t.Fatalf("genome %d: second prune changed endpoints", i)
		}
	}
}

func TestCompileKiller(t *testing.T) {
	// sensor 0 -> action 3 (KILL), weight 1.0 (0x1F40 = 8000)
	genome := Genome{0x00031F40}

	n := Compile(genome, Decoder{Sensors: 28, Inner: 3, Actions: 16})
	if !n.Killer {
		t.Error("expected killer network when kill is enabled")
	}
	if !slices.Equal(n.Actions(), []Action{Kill}) {
		t.Errorf("Actions() = %v, want [KILL]", n.Actions())
	}

	remapped := Compile(genome, Decoder{Sensors: 28, Inner: 3, Actions: 15, RemapKill: true})
	if remapped.Killer {
		t.Error("remapped network must not be a killer")
	}
	if !slices.Equal(remapped.Actions(), []Action{EmitPheromone}) {
		t.Errorf("Actions() = %v, want [EMIT_PHEROMONE]", remapped.Actions())
	}

	inputs := make([]float64, NumSensors)
	inputs[LocX] = 0.5
	out := remapped.Run(inputs)
	if want := math.Tanh(0.5); math.Abs(out[EmitPheromone]-want) > 1e-12 {
		t.Errorf("EMIT_PHEROMONE = %v, want %v", out[EmitPheromone], want)
	}
}
