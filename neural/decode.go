package neural

// Connection is one decoded gene.
type Connection struct {
	Source     int
	SourceKind Kind
	Target     int
	TargetKind Kind
	Weight     float64
}

// WeightScale divides the raw 16-bit weight field.
const WeightScale = 8000.0

// Decoder maps genes onto the active id ranges of a configuration.
type Decoder struct {
	Sensors   int  // active sensor ids
	Inner     int  // inner neuron ids
	Actions   int  // active action ids
	RemapKill bool // route KILL targets to EMIT_PHEROMONE
}

// Decode splits a gene into its connection fields.
//
//	bit 0      source kind (0 sensor, 1 inner)
//	bits 1-7   source id, signed, modulo the source count
//	bit 8      target kind (0 action, 1 inner)
//	bits 9-15  target id, signed, modulo the target count
//	bits 16-31 weight, signed, divided by WeightScale
func (d Decoder) Decode(g Gene) Connection {
	var c Connection

	c.SourceKind = KindSensor
	numSources := d.Sensors
	if g.field(0, 1) == 1 {
		c.SourceKind = KindInner
		numSources = d.Inner
	}
	c.Source = floorMod(signed(g.field(1, 7), 7), numSources)

	c.TargetKind = KindAction
	numTargets := d.Actions
	if g.field(8, 1) == 1 {
		c.TargetKind = KindInner
		numTargets = d.Inner
	}
	c.Target = floorMod(signed(g.field(9, 7), 7), numTargets)

	if d.RemapKill && c.TargetKind == KindAction && c.Target == int(Kill) {
		c.Target = int(EmitPheromone)
	}

	c.Weight = float64(signed(g.field(16, 16), 16)) / WeightScale
	return c
}

// signed interprets the low n bits of v as two's complement.
func signed(v uint32, n int) int {
	x := int(v)
	if v&(1<<(n-1)) != 0 {
		x -= 1 << n
	}
	return x
}

// floorMod is a modulo whose result has the sign of m.
func floorMod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
