// Package neural compiles binary genomes into small layered networks and
// evaluates them.
package neural

// Kind identifies which neuron category an endpoint of a connection belongs to.
type Kind uint8

const (
	KindSensor Kind = iota
	KindInner
	KindAction
)

func (k Kind) String() string {
	switch k {
	case KindSensor:
		return "sensor"
	case KindInner:
		return "inner"
	case KindAction:
		return "action"
	}
	return "unknown"
}

// Sensor enumerates input neurons. The order is part of the genome encoding:
// a gene addresses sensors by ordinal, so reordering breaks saved genomes.
type Sensor uint8

const (
	LocX Sensor = iota
	LocY
	BoundaryDistX
	BoundaryDist
	BoundaryDistY
	GeneticSimFwd
	LastMoveDistX
	LastMoveDistY
	LongProbePopFwd
	LongProbeBarFwd
	LongProbeFoodFwd
	Population
	PopulationFwd
	PopulationLR
	Food
	FoodFwd
	FoodLR
	FoodDistFwd
	FoodDistLR
	Osc
	Age
	BarrierFwd
	BarrierLR
	Random
	Energy
	PheromoneFwd
	PheromoneL
	PheromoneR

	NumSensors = iota
)

var sensorNames = [NumSensors]string{
	"LOC_X", "LOC_Y", "BOUNDARY_DIST_X", "BOUNDARY_DIST", "BOUNDARY_DIST_Y",
	"GENETIC_SIM_FWD", "LAST_MOVE_DIST_X", "LAST_MOVE_DIST_Y",
	"LONGPROBE_POP_FWD", "LONGPROBE_BAR_FWD", "LONGPROBE_FOOD_FWD",
	"POPULATION", "POPULATION_FWD", "POPULATION_LR",
	"FOOD", "FOOD_FWD", "FOOD_LR", "FOOD_DIST_FWD", "FOOD_DIST_LR",
	"OSC", "AGE", "BARRIER_FWD", "BARRIER_LR", "RANDOM", "ENERGY",
	"PHEROMONE_FWD", "PHEROMONE_L", "PHEROMONE_R",
}

func (s Sensor) String() string {
	if int(s) < len(sensorNames) {
		return sensorNames[s]
	}
	return "SENSOR_UNKNOWN"
}

// Action enumerates output neurons. Like Sensor, ordinals are genome encoding.
type Action uint8

const (
	SetResponsiveness Action = iota
	SetOscillatorPeriod
	SetLongProbeDist
	Kill
	MoveX
	MoveY
	MoveEast
	MoveWest
	MoveNorth
	MoveSouth
	MoveForward
	MoveReverse
	MoveLeft
	MoveRight
	MoveRandom
	EmitPheromone

	NumActions = iota
)

var actionNames = [NumActions]string{
	"SET_RESPONSIVENESS", "SET_OSCILLATOR_PERIOD", "SET_LONGPROBE_DIST", "KILL",
	"MOVE_X", "MOVE_Y", "MOVE_EAST", "MOVE_WEST", "MOVE_NORTH", "MOVE_SOUTH",
	"MOVE_FORWARD", "MOVE_REVERSE", "MOVE_LEFT", "MOVE_RIGHT", "MOVE_RANDOM",
	"EMIT_PHEROMONE",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "ACTION_UNKNOWN"
}

// IsMovement reports whether the action contributes a step to the move path.
func (a Action) IsMovement() bool {
	return a >= MoveX && a <= MoveRandom
}
