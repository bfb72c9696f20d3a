package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hsmooth/smoothing"
)

// Distribution summarises a per-particle quantity.
type Distribution struct {
	Mean float64
	Std  float64
	Min  float64
	P10  float64
	P50  float64
	P90  float64
	Max  float64
}

// SolveStats holds aggregated statistics of a smoothing length solve.
type SolveStats struct {
	Particles int `csv:"particles"`

	H          Distribution `csv:"-"`
	Rho        Distribution `csv:"-"`
	Neighbours Distribution `csv:"-"`

	TotalMass float64 `csv:"total_mass"`
	// Volume is the sum of m/rho, close to the domain volume for a
	// well resolved periodic set.
	Volume float64 `csv:"volume"`

	MaxIterations int `csv:"max_iterations"`
	Unconverged   int `csv:"unconverged"`
	Recoveries    int `csv:"recoveries"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean, population std, extremes and
// percentiles of values.
func ComputeDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return Distribution{
		Mean: mean,
		Std:  std,
		Min:  sorted[0],
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
		Max:  sorted[len(sorted)-1],
	}
}

// ComputeSolveStats summarises a solve result for the given masses.
func ComputeSolveStats(res *smoothing.Result, masses []float64) SolveStats {
	n := len(res.H)
	nneigh := make([]float64, n)
	var volume float64
	for i := 0; i < n; i++ {
		nneigh[i] = float64(len(res.Neighbours[i]))
		if res.Rho[i] > 0 {
			volume += masses[i] / res.Rho[i]
		}
	}

	d := res.Diagnostics
	return SolveStats{
		Particles:     n,
		H:             ComputeDistribution(res.H),
		Rho:           ComputeDistribution(res.Rho),
		Neighbours:    ComputeDistribution(nneigh),
		TotalMass:     floats.Sum(masses),
		Volume:        volume,
		MaxIterations: d.MaxIterations(),
		Unconverged:   d.Unconverged,
		Recoveries:    d.TotalRecoveries(),
	}
}

// LogValue implements slog.LogValuer.
func (d Distribution) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("mean", d.Mean),
		slog.Float64("std", d.Std),
		slog.Float64("min", d.Min),
		slog.Float64("p10", d.P10),
		slog.Float64("p50", d.P50),
		slog.Float64("p90", d.P90),
		slog.Float64("max", d.Max),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s SolveStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("particles", s.Particles),
		slog.Any("h", s.H),
		slog.Any("rho", s.Rho),
		slog.Any("neighbours", s.Neighbours),
		slog.Float64("total_mass", s.TotalMass),
		slog.Float64("volume", s.Volume),
		slog.Int("max_iterations", s.MaxIterations),
		slog.Int("unconverged", s.Unconverged),
		slog.Int("recoveries", s.Recoveries),
	)
}

// SolveStatsCSV is a flat struct for CSV export of solve stats.
type SolveStatsCSV struct {
	Particles     int     `csv:"particles"`
	HMean         float64 `csv:"h_mean"`
	HMin          float64 `csv:"h_min"`
	HP50          float64 `csv:"h_p50"`
	HMax          float64 `csv:"h_max"`
	RhoMean       float64 `csv:"rho_mean"`
	RhoStd        float64 `csv:"rho_std"`
	RhoP10        float64 `csv:"rho_p10"`
	RhoP90        float64 `csv:"rho_p90"`
	NeighMean     float64 `csv:"neighbours_mean"`
	NeighMin      float64 `csv:"neighbours_min"`
	NeighMax      float64 `csv:"neighbours_max"`
	TotalMass     float64 `csv:"total_mass"`
	Volume        float64 `csv:"volume"`
	MaxIterations int     `csv:"max_iterations"`
	Unconverged   int     `csv:"unconverged"`
	Recoveries    int     `csv:"recoveries"`
}

// ToCSV converts SolveStats to a flat CSV-friendly struct.
func (s SolveStats) ToCSV() SolveStatsCSV {
	return SolveStatsCSV{
		Particles:     s.Particles,
		HMean:         s.H.Mean,
		HMin:          s.H.Min,
		HP50:          s.H.P50,
		HMax:          s.H.Max,
		RhoMean:       s.Rho.Mean,
		RhoStd:        s.Rho.Std,
		RhoP10:        s.Rho.P10,
		RhoP90:        s.Rho.P90,
		NeighMean:     s.Neighbours.Mean,
		NeighMin:      s.Neighbours.Min,
		NeighMax:      s.Neighbours.Max,
		TotalMass:     s.TotalMass,
		Volume:        s.Volume,
		MaxIterations: s.MaxIterations,
		Unconverged:   s.Unconverged,
		Recoveries:    s.Recoveries,
	}
}
