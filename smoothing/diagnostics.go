package smoothing

import (
	"log/slog"
	"slices"
)

// Diagnostics records how each particle's iteration ended. Per-particle
// slices are indexed like the result arrays.
type Diagnostics struct {
	Iterations []int
	Converged  []bool
	// Recoveries counts Newton steps that landed on a non-positive or
	// undefined radius and were replaced by growing the radius.
	Recoveries []int
	// Cancelled marks particles whose iteration was stopped by cancellation.
	Cancelled []bool

	// Unconverged is the number of particles that stopped at the iteration
	// cap or on cancellation.
	Unconverged int
	// Interrupted is the number of cancelled particles.
	Interrupted int
}

func newDiagnostics(n int) Diagnostics {
	return Diagnostics{
		Iterations: make([]int, n),
		Converged:  make([]bool, n),
		Recoveries: make([]int, n),
		Cancelled:  make([]bool, n),
	}
}

// summarize fills the aggregate fields once all particles are solved.
func (d *Diagnostics) summarize() {
	d.Unconverged, d.Interrupted = 0, 0
	for i, ok := range d.Converged {
		if !ok {
			d.Unconverged++
		}
		if d.Cancelled[i] {
			d.Interrupted++
		}
	}
}

// UnconvergedIndices returns the particles whose iteration did not converge.
func (d *Diagnostics) UnconvergedIndices() []int {
	var idx []int
	for i, ok := range d.Converged {
		if !ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// TotalRecoveries sums Recoveries over all particles.
func (d *Diagnostics) TotalRecoveries() int {
	total := 0
	for _, r := range d.Recoveries {
		total += r
	}
	return total
}

// MaxIterations returns the largest iteration count of any particle.
func (d *Diagnostics) MaxIterations() int {
	if len(d.Iterations) == 0 {
		return 0
	}
	return slices.Max(d.Iterations)
}

// LogValue implements slog.LogValuer.
func (d Diagnostics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("particles", len(d.Converged)),
		slog.Int("unconverged", d.Unconverged),
		slog.Int("interrupted", d.Interrupted),
		slog.Int("max_iterations", d.MaxIterations()),
		slog.Int("recoveries", d.TotalRecoveries()),
	)
}
