package particles

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// Initial condition kinds accepted by Generate.
const (
	KindUniform   = "uniform"
	KindPerturbed = "perturbed"
	KindRandom    = "random"
)

// Uniform returns nx^ndim positions on a regular lattice with spacing 1/nx,
// offset by half a spacing from the domain edges. In 2D x varies fastest.
func Uniform(nx, ndim int) []r2.Vec {
	coord := func(i int) float64 {
		return (float64(i) + 0.5) / float64(nx)
	}

	if ndim == 1 {
		pos := make([]r2.Vec, nx)
		for i := range pos {
			pos[i] = r2.Vec{X: coord(i)}
		}
		return pos
	}

	pos := make([]r2.Vec, 0, nx*nx)
	for j := 0; j < nx; j++ {
		for i := 0; i < nx; i++ {
			pos = append(pos, r2.Vec{X: coord(i), Y: coord(j)})
		}
	}
	return pos
}

// Perturbed returns a uniform lattice where every coordinate is displaced by
// less than half the lattice spacing, so particles stay inside the domain.
func Perturbed(nx, ndim int, rng *rand.Rand) []r2.Vec {
	pos := Uniform(nx, ndim)
	dxhalf := 0.5 / float64(nx)
	jitter := func() float64 {
		sign := 1.0
		if rng.Float64() < 0.5 {
			sign = -1
		}
		return sign * rng.Float64() * dxhalf
	}
	for i := range pos {
		pos[i].X += jitter()
		if ndim == 2 {
			pos[i].Y += jitter()
		}
	}
	return pos
}

// Random returns n positions drawn uniformly from [0,1)^ndim.
func Random(n, ndim int, rng *rand.Rand) []r2.Vec {
	pos := make([]r2.Vec, n)
	for i := range pos {
		pos[i].X = rng.Float64()
		if ndim == 2 {
			pos[i].Y = rng.Float64()
		}
	}
	return pos
}

// Generate builds a particle set of the given kind with nx particles per
// dimension and equal masses m. The seed makes perturbed and random sets
// reproducible.
func Generate(kind string, nx, ndim int, m float64, seed int64) (*Set, error) {
	if nx < 1 {
		return nil, fmt.Errorf("particles: nx must be positive, got %d", nx)
	}
	if ndim != 1 && ndim != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedDim, ndim)
	}

	rng := rand.New(rand.NewSource(seed))
	var pos []r2.Vec
	switch kind {
	case KindUniform:
		pos = Uniform(nx, ndim)
	case KindPerturbed:
		pos = Perturbed(nx, ndim, rng)
	case KindRandom:
		n := nx
		if ndim == 2 {
			n = nx * nx
		}
		pos = Random(n, ndim, rng)
	default:
		return nil, fmt.Errorf("particles: unknown initial condition kind %q", kind)
	}

	return NewSet(ndim, pos, UnitMasses(len(pos), m))
}
