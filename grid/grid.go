// Package grid buckets particles of the unit domain into a regular cell grid
// coarse enough that every cell neighbourhood holds a minimum number of
// candidate neighbours.
package grid

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MinNeighbourFactor is the multiple of the target neighbour count that every
// cell neighbourhood must exceed.
const MinNeighbourFactor = 2.0

var (
	// ErrTooFewParticles is wrapped by ConfigurationError.
	ErrTooFewParticles = errors.New("grid: too few particles for the requested neighbour count")
	ErrInvalidPosition = errors.New("grid: position outside [0, 1]")
	ErrInvalidInput    = errors.New("grid: invalid input")
	// ErrMismatch is returned by Check for positions the grid was not built from.
	ErrMismatch = errors.New("grid: positions do not match grid")
)

// ConfigurationError reports that no grid, not even a single cell, gives every
// cell neighbourhood enough particles.
type ConfigurationError struct {
	NPart          int
	NeighbourCount float64
	Threshold      float64
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("grid: %d particles cannot satisfy a minimum of %.3f particles per cell neighbourhood (neighbour count %.3f)",
		e.NPart, e.Threshold, e.NeighbourCount)
}

func (e *ConfigurationError) Unwrap() error { return ErrTooFewParticles }

// Cell owns the indices of the particles inside it, in insertion order.
type Cell struct {
	ID    int
	Parts []int
}

// Grid is a dense array of ncells^ndim cells covering [0,1)^ndim. Cells are
// stored row-major: id = row*ncells + col, col along x.
type Grid struct {
	ndim     int
	ncells   int
	periodic bool
	cellSize float64
	cells    []Cell

	npart int
	nngb  float64

	// neighbours[id] lists the cells searched for particles in cell id.
	neighbours [][]int
}

// Build distributes positions over the finest grid whose every cell
// neighbourhood holds more than MinNeighbourFactor*nngb particles. Starting
// from an estimate based on the mean particle density, the cell count per
// dimension is reduced by one until the condition holds.
func Build(positions []r2.Vec, ndim int, periodic bool, nngb float64) (*Grid, error) {
	if err := checkInput(positions, ndim, nngb); err != nil {
		return nil, err
	}

	npart := len(positions)
	threshold := MinNeighbourFactor * nngb
	ncells := initialCells(npart, ndim, nngb)

	for ncells > 0 {
		g := newGrid(ncells, ndim, periodic)
		g.distribute(positions)

		id, found, ok := g.checkNeighbourhoods(threshold)
		if ok {
			g.nngb = nngb
			slog.Debug("grid built", "ncells", ncells, "stats", g.Stats())
			return g, nil
		}

		slog.Debug("too few particles around cell, rebuilding grid",
			"cell", id,
			"found", found,
			"want", threshold,
			"ncells", ncells,
		)
		ncells--
	}

	return nil, &ConfigurationError{NPart: npart, NeighbourCount: nngb, Threshold: threshold}
}

func checkInput(positions []r2.Vec, ndim int, nngb float64) error {
	if ndim != 1 && ndim != 2 {
		return fmt.Errorf("%w: ndim must be 1 or 2, got %d", ErrInvalidInput, ndim)
	}
	if len(positions) == 0 {
		return fmt.Errorf("%w: no particles", ErrInvalidInput)
	}
	if !(nngb > 0) || math.IsInf(nngb, 0) {
		return fmt.Errorf("%w: neighbour count must be positive, got %g", ErrInvalidInput, nngb)
	}
	for i, p := range positions {
		if !(p.X >= 0 && p.X <= 1) || (ndim == 2 && !(p.Y >= 0 && p.Y <= 1)) {
			return fmt.Errorf("%w: particle %d at (%g, %g)", ErrInvalidPosition, i, p.X, p.Y)
		}
	}
	return nil
}

// initialCells estimates the cell count per dimension so that a cell holds
// about 1.5 times the target neighbour count.
func initialCells(npart, ndim int, nngb float64) int {
	var n int
	if ndim == 1 {
		n = int(float64(npart) / (1.5 * nngb))
	} else {
		n = int(math.Sqrt(float64(npart) / (1.5 * nngb)))
	}
	if n < 1 {
		n = 1
	}
	return n
}

func newGrid(ncells, ndim int, periodic bool) *Grid {
	total := ncells
	if ndim == 2 {
		total = ncells * ncells
	}

	cells := make([]Cell, total)
	neighbours := make([][]int, total)
	for i := range cells {
		cells[i].ID = i
		neighbours[i] = AppendNeighbours(make([]int, 0, 9), i, ncells, ndim, periodic)
	}

	return &Grid{
		ndim:       ndim,
		ncells:     ncells,
		periodic:   periodic,
		cellSize:   1 / float64(ncells),
		cells:      cells,
		neighbours: neighbours,
	}
}

// distribute appends every particle index to the cell containing it.
func (g *Grid) distribute(positions []r2.Vec) {
	g.npart = len(positions)
	for p, pos := range positions {
		id := g.CellOf(pos)
		g.cells[id].Parts = append(g.cells[id].Parts, p)
	}
}

// checkNeighbourhoods returns the first cell whose neighbourhood holds no more
// than threshold particles, with ok=false, or ok=true if there is none.
func (g *Grid) checkNeighbourhoods(threshold float64) (id, found int, ok bool) {
	for c := range g.cells {
		n := 0
		for _, nb := range g.neighbours[c] {
			n += len(g.cells[nb].Parts)
		}
		if float64(n) <= threshold {
			return c, n, false
		}
	}
	return 0, 0, true
}

// CellOf returns the id of the cell containing pos. Coordinates of exactly 1
// are placed in the last cell.
func (g *Grid) CellOf(pos r2.Vec) int {
	col := g.axisIndex(pos.X)
	if g.ndim == 1 {
		return col
	}
	row := g.axisIndex(pos.Y)
	return row*g.ncells + col
}

func (g *Grid) axisIndex(x float64) int {
	i := int(x / g.cellSize)
	if i < 0 {
		i = 0
	} else if i >= g.ncells {
		i = g.ncells - 1
	}
	return i
}

// NDim returns the number of dimensions.
func (g *Grid) NDim() int { return g.ndim }

// NCells returns the number of cells per dimension.
func (g *Grid) NCells() int { return g.ncells }

// NPart returns the number of particles the grid was built from.
func (g *Grid) NPart() int { return g.npart }

// NeighbourCount returns the target neighbour count the grid was sized for.
func (g *Grid) NeighbourCount() float64 { return g.nngb }

// Check verifies that positions are the particles the grid was built from:
// same count, and every particle sits in the cell that lists it.
func (g *Grid) Check(positions []r2.Vec) error {
	if len(positions) != g.npart {
		return fmt.Errorf("%w: grid holds %d particles, got %d", ErrMismatch, g.npart, len(positions))
	}
	for id, c := range g.cells {
		for _, p := range c.Parts {
			if p >= len(positions) {
				return fmt.Errorf("%w: cell %d lists particle %d", ErrMismatch, id, p)
			}
			if got := g.CellOf(positions[p]); got != id {
				return fmt.Errorf("%w: particle %d is in cell %d, grid has it in cell %d", ErrMismatch, p, got, id)
			}
		}
	}
	return nil
}

// Periodic reports whether neighbourhoods wrap around the domain edges.
func (g *Grid) Periodic() bool { return g.periodic }

// CellSize returns the cell side length, 1/NCells.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Len returns the total number of cells.
func (g *Grid) Len() int { return len(g.cells) }

// Cell returns the cell with the given id. The returned cell shares its
// particle list with the grid and must not be modified.
func (g *Grid) Cell(id int) Cell { return g.cells[id] }

// Neighbours returns the cells searched for particles of cell id, the cell
// itself first. The slice is shared and must not be modified.
func (g *Grid) Neighbours(id int) []int { return g.neighbours[id] }

// Counts returns the number of particles in every cell.
func (g *Grid) Counts() []int {
	counts := make([]int, len(g.cells))
	for i, c := range g.cells {
		counts[i] = len(c.Parts)
	}
	return counts
}

// NeighbourhoodParts appends the particle indices of every cell in the
// neighbourhood of cell id to dst.
func (g *Grid) NeighbourhoodParts(dst []int, id int) []int {
	for _, n := range g.neighbours[id] {
		dst = append(dst, g.cells[n].Parts...)
	}
	return dst
}
