package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies one stage of a simulation step.
type Phase uint8

// Phases of a step, in execution order.
const (
	PhaseMutate Phase = iota
	PhaseLive
	PhaseKills
	PhaseMoves
	PhasePheromones
	PhaseTelemetry
	PhaseRender
	numPhases
)

var phaseNames = [numPhases]string{
	"mutate", "live", "kills", "moves", "pheromones", "telemetry", "render",
}

func (p Phase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

type perfSample struct {
	step   time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector tracks step timings over a rolling window.
type PerfCollector struct {
	samples []perfSample
	next    int
	count   int

	current    perfSample
	stepStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over windowSize steps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{samples: make([]perfSample, windowSize)}
}

// StartStep begins timing a new step.
func (p *PerfCollector) StartStep() {
	now := time.Now()
	p.current = perfSample{}
	p.stepStart = now
	p.inPhase = false
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.endPhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) endPhase(now time.Time) {
	if p.inPhase {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// EndStep closes the running phase and records the step.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	p.endPhase(now)
	p.current.step = now.Sub(p.stepStart)

	p.samples[p.next] = p.current
	p.next = (p.next + 1) % len(p.samples)
	if p.count < len(p.samples) {
		p.count++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgStep time.Duration
	MinStep time.Duration
	MaxStep time.Duration

	// Share of the average step spent in each phase, in percent
	PhasePct [numPhases]float64

	StepsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var out PerfStats
	if p.count == 0 {
		return out
	}

	var total time.Duration
	var phaseSum [numPhases]time.Duration
	for i, s := range p.samples[:p.count] {
		total += s.step
		if i == 0 || s.step < out.MinStep {
			out.MinStep = s.step
		}
		out.MaxStep = max(out.MaxStep, s.step)
		for ph, d := range s.phases {
			phaseSum[ph] += d
		}
	}

	out.AvgStep = total / time.Duration(p.count)
	if total > 0 {
		for ph, d := range phaseSum {
			out.PhasePct[ph] = float64(d) / float64(total) * 100
		}
	}
	if out.AvgStep > 0 {
		out.StepsPerSecond = float64(time.Second) / float64(out.AvgStep)
	}
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Int64("max_step_us", s.MaxStep.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	for ph, pct := range s.PhasePct {
		if pct > 0.1 {
			attrs = append(attrs, slog.Float64(Phase(ph).String()+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfRecord is one row of perf.csv.
type PerfRecord struct {
	Generation    int     `csv:"generation"`
	AvgStepUS     int64   `csv:"avg_step_us"`
	MinStepUS     int64   `csv:"min_step_us"`
	MaxStepUS     int64   `csv:"max_step_us"`
	StepsPerSec   float64 `csv:"steps_per_sec"`
	MutatePct     float64 `csv:"mutate_pct"`
	LivePct       float64 `csv:"live_pct"`
	KillsPct      float64 `csv:"kills_pct"`
	MovesPct      float64 `csv:"moves_pct"`
	PheromonesPct float64 `csv:"pheromones_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
	RenderPct     float64 `csv:"render_pct"`
}

// Record converts PerfStats to a flat CSV row.
func (s PerfStats) Record(generation int) PerfRecord {
	return PerfRecord{
		Generation:    generation,
		AvgStepUS:     s.AvgStep.Microseconds(),
		MinStepUS:     s.MinStep.Microseconds(),
		MaxStepUS:     s.MaxStep.Microseconds(),
		StepsPerSec:   s.StepsPerSecond,
		MutatePct:     s.PhasePct[PhaseMutate],
		LivePct:       s.PhasePct[PhaseLive],
		KillsPct:      s.PhasePct[PhaseKills],
		MovesPct:      s.PhasePct[PhaseMoves],
		PheromonesPct: s.PhasePct[PhasePheromones],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
		RenderPct:     s.PhasePct[PhaseRender],
	}
}
