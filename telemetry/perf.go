package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for a smoothing length run.
const (
	PhaseLoad      = "load"
	PhaseGridBuild = "grid_build"
	PhaseSolve     = "solve"
	PhaseOutput    = "output"
)

// phases lists the known phases in run order.
var phases = []string{PhaseLoad, PhaseGridBuild, PhaseSolve, PhaseOutput}

// PerfSample holds timing data for a single run.
type PerfSample struct {
	RunDuration time.Duration
	Phases      map[string]time.Duration
}

// PerfCollector tracks run timings over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	runStart      time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a new performance collector that averages over
// the last windowSize runs.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 1
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartRun begins timing a new run.
func (p *PerfCollector) StartRun() {
	p.runStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, ending the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndRun finishes timing the current run and records the sample.
func (p *PerfCollector) EndRun() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		RunDuration: now.Sub(p.runStart),
		Phases:      p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Runs int

	AvgRunDuration time.Duration
	MinRunDuration time.Duration
	MaxRunDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration
	// Phase percentages of total run time
	PhasePct map[string]float64

	// Particles per second through the solve phase, set by the caller.
	ParticlesPerSec float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total, minRun, maxRun time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.RunDuration
		if i == 0 || s.RunDuration < minRun {
			minRun = s.RunDuration
		}
		if s.RunDuration > maxRun {
			maxRun = s.RunDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)
	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	return PerfStats{
		Runs:           p.sampleCount,
		AvgRunDuration: avg,
		MinRunDuration: minRun,
		MaxRunDuration: maxRun,
		PhaseAvg:       phaseAvg,
		PhasePct:       phasePct,
	}
}

// WithThroughput sets ParticlesPerSec from the average solve phase time.
func (s PerfStats) WithThroughput(npart int) PerfStats {
	if d := s.PhaseAvg[PhaseSolve]; d > 0 {
		s.ParticlesPerSec = float64(npart) / d.Seconds()
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("runs", s.Runs),
		slog.Int64("avg_run_us", s.AvgRunDuration.Microseconds()),
		slog.Int64("min_run_us", s.MinRunDuration.Microseconds()),
		slog.Int64("max_run_us", s.MaxRunDuration.Microseconds()),
	}
	if s.ParticlesPerSec > 0 {
		attrs = append(attrs, slog.Float64("particles_per_sec", s.ParticlesPerSec))
	}
	for _, phase := range phases {
		if d, ok := s.PhaseAvg[phase]; ok {
			attrs = append(attrs,
				slog.Int64(phase+"_us", d.Microseconds()),
				slog.Float64(phase+"_pct", s.PhasePct[phase]),
			)
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Runs            int     `csv:"runs"`
	AvgRunUS        int64   `csv:"avg_run_us"`
	MinRunUS        int64   `csv:"min_run_us"`
	MaxRunUS        int64   `csv:"max_run_us"`
	ParticlesPerSec float64 `csv:"particles_per_sec"`
	LoadUS          int64   `csv:"load_us"`
	GridBuildUS     int64   `csv:"grid_build_us"`
	SolveUS         int64   `csv:"solve_us"`
	OutputUS        int64   `csv:"output_us"`
	LoadPct         float64 `csv:"load_pct"`
	GridBuildPct    float64 `csv:"grid_build_pct"`
	SolvePct        float64 `csv:"solve_pct"`
	OutputPct       float64 `csv:"output_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV() PerfStatsCSV {
	return PerfStatsCSV{
		Runs:            s.Runs,
		AvgRunUS:        s.AvgRunDuration.Microseconds(),
		MinRunUS:        s.MinRunDuration.Microseconds(),
		MaxRunUS:        s.MaxRunDuration.Microseconds(),
		ParticlesPerSec: s.ParticlesPerSec,
		LoadUS:          s.PhaseAvg[PhaseLoad].Microseconds(),
		GridBuildUS:     s.PhaseAvg[PhaseGridBuild].Microseconds(),
		SolveUS:         s.PhaseAvg[PhaseSolve].Microseconds(),
		OutputUS:        s.PhaseAvg[PhaseOutput].Microseconds(),
		LoadPct:         s.PhasePct[PhaseLoad],
		GridBuildPct:    s.PhasePct[PhaseGridBuild],
		SolvePct:        s.PhasePct[PhaseSolve],
		OutputPct:       s.PhasePct[PhaseOutput],
	}
}
