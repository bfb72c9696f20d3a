package grid

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises how particles are spread over the cells.
type Stats struct {
	NCells int
	Cells  int
	Total  int
	Min    int
	Max    int
	Mean   float64
}

// Stats computes particle-per-cell statistics.
func (g *Grid) Stats() Stats {
	counts := make([]float64, len(g.cells))
	total := 0
	for i, c := range g.cells {
		counts[i] = float64(len(c.Parts))
		total += len(c.Parts)
	}
	return Stats{
		NCells: g.ncells,
		Cells:  len(g.cells),
		Total:  total,
		Min:    int(floats.Min(counts)),
		Max:    int(floats.Max(counts)),
		Mean:   stat.Mean(counts, nil),
	}
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("ncells", s.NCells),
		slog.Int("cells", s.Cells),
		slog.Int("total", s.Total),
		slog.Int("min", s.Min),
		slog.Int("max", s.Max),
		slog.Float64("mean", s.Mean),
	)
}
