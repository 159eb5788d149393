package neural

import (
	"math"
	"slices"
)

// Link is one weighted input of a target neuron.
type Link struct {
	Source int
	Weight float64
}

// Target is a neuron together with its incoming links.
type Target struct {
	ID    int
	Links []Link
}

// Stage is one layer of connections, ordered by target id.
type Stage []Target

// Network is the compiled brain of a specimen. The four stages are evaluated
// as direct(sensor->action) around sensor->inner -> lateral(inner->inner) ->
// inner->action. A Network is immutable once compiled; Run reuses internal
// scratch buffers and must not be called concurrently.
type Network struct {
	Direct      Stage
	SensorInner Stage
	Lateral     Stage
	InnerAction Stage

	// Killer is set when any gene targets the KILL action.
	Killer bool

	numSensors int
	numInner   int
	numActions int

	used    []Sensor
	actions []Action

	inner  []float64
	hidden []float64
	out    []float64
}

// Compile decodes a genome into a pruned network.
func Compile(genome Genome, dec Decoder) *Network {
	n := &Network{
		numSensors: dec.Sensors,
		numInner:   dec.Inner,
		numActions: NumActions,
	}

	sensorInner := map[int][]Link{}
	lateral := map[int][]Link{}
	innerAction := map[int][]Link{}
	direct := map[int][]Link{}

	for _, gene := range genome {
		c := dec.Decode(gene)
		link := Link{Source: c.Source, Weight: c.Weight}

		switch {
		case c.SourceKind == KindSensor && c.TargetKind == KindInner:
			sensorInner[c.Target] = append(sensorInner[c.Target], link)
		case c.SourceKind == KindInner && c.TargetKind == KindInner:
			lateral[c.Target] = append(lateral[c.Target], link)
		case c.SourceKind == KindInner && c.TargetKind == KindAction:
			innerAction[c.Target] = append(innerAction[c.Target], link)
		case c.SourceKind == KindSensor && c.TargetKind == KindAction:
			direct[c.Target] = append(direct[c.Target], link)
		}

		if c.TargetKind == KindAction && c.Target == int(Kill) {
			n.Killer = true
		}
	}

	n.Direct = stageFromMap(direct)
	n.SensorInner = stageFromMap(sensorInner)
	n.Lateral = stageFromMap(lateral)
	n.InnerAction = stageFromMap(innerAction)

	n.Prune()

	n.inner = make([]float64, n.numInner)
	n.hidden = make([]float64, n.numInner)
	n.out = make([]float64, n.numActions)
	return n
}

func stageFromMap(m map[int][]Link) Stage {
	s := make(Stage, 0, len(m))
	for id, links := range m {
		s = append(s, Target{ID: id, Links: links})
	}
	slices.SortFunc(s, func(a, b Target) int { return a.ID - b.ID })
	return s
}

// UsedSensors returns the sensors the network reads, ascending.
func (n *Network) UsedSensors() []Sensor {
	return n.used
}

// Actions returns the actions the network drives, ascending.
func (n *Network) Actions() []Action {
	return n.actions
}

// Connections returns the number of links that survived pruning.
func (n *Network) Connections() int {
	total := 0
	for _, s := range []Stage{n.Direct, n.SensorInner, n.Lateral, n.InnerAction} {
		for _, t := range s {
			total += len(t.Links)
		}
	}
	return total
}

// Run evaluates the network. inputs is indexed by sensor id; the returned
// slice is indexed by action id and only entries listed by Actions are
// meaningful. The slice is owned by the network and overwritten by the
// next call.
func (n *Network) Run(inputs []float64) []float64 {
	clear(n.inner)
	for _, t := range n.SensorInner {
		n.inner[t.ID] = weightedSum(inputs, t.Links)
	}

	// Lateral links read the pre-lateral snapshot so evaluation order
	// within the stage does not matter.
	copy(n.hidden, n.inner)
	for _, t := range n.Lateral {
		n.hidden[t.ID] += weightedSum(n.inner, t.Links)
	}
	for i, v := range n.hidden {
		n.hidden[i] = math.Tanh(v)
	}

	clear(n.out)
	for _, t := range n.InnerAction {
		n.out[t.ID] += weightedSum(n.hidden, t.Links)
	}
	for _, t := range n.Direct {
		n.out[t.ID] += weightedSum(inputs, t.Links)
	}
	for _, a := range n.actions {
		n.out[a] = math.Tanh(n.out[a])
	}
	return n.out
}

func weightedSum(values []float64, links []Link) float64 {
	var sum float64
	for _, l := range links {
		sum += values[l.Source] * l.Weight
	}
	return sum
}
