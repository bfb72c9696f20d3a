// Package particles holds particle positions and masses in the unit domain
// and the generators and readers that produce them.
package particles

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	ErrEmpty          = errors.New("particles: empty particle set")
	ErrLengthMismatch = errors.New("particles: positions and masses differ in length")
	ErrOutOfDomain    = errors.New("particles: coordinate outside [0, 1]")
	ErrBadMass        = errors.New("particles: mass must be finite and non-negative")
	ErrUnsupportedDim = errors.New("particles: ndim must be 1 or 2")
)

// Set is a particle cloud stored as parallel arrays indexed by particle.
// In 1D only the X component of a position is used.
type Set struct {
	NDim      int
	Positions []r2.Vec
	Masses    []float64
}

// NewSet validates and wraps positions and masses. The slices are not copied.
func NewSet(ndim int, positions []r2.Vec, masses []float64) (*Set, error) {
	s := &Set{NDim: ndim, Positions: positions, Masses: masses}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of particles.
func (s *Set) Len() int { return len(s.Positions) }

// Validate checks that the set can be gridded. A coordinate of exactly 1 is
// accepted; the grid places it in the last cell.
func (s *Set) Validate() error {
	if s.NDim != 1 && s.NDim != 2 {
		return fmt.Errorf("%w: got %d", ErrUnsupportedDim, s.NDim)
	}
	if len(s.Positions) == 0 {
		return ErrEmpty
	}
	if len(s.Positions) != len(s.Masses) {
		return fmt.Errorf("%w: %d positions, %d masses", ErrLengthMismatch, len(s.Positions), len(s.Masses))
	}
	for i, p := range s.Positions {
		if !inDomain(p.X) || (s.NDim == 2 && !inDomain(p.Y)) {
			return fmt.Errorf("%w: particle %d at (%g, %g)", ErrOutOfDomain, i, p.X, p.Y)
		}
	}
	for i, m := range s.Masses {
		if m < 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: particle %d has mass %g", ErrBadMass, i, m)
		}
	}
	return nil
}

// TotalMass returns the summed particle mass.
func (s *Set) TotalMass() float64 {
	return floats.Sum(s.Masses)
}

func inDomain(x float64) bool {
	return x >= 0 && x <= 1
}

// UnitMasses returns n masses of value m.
func UnitMasses(n int, m float64) []float64 {
	masses := make([]float64, n)
	for i := range masses {
		masses[i] = m
	}
	return masses
}
