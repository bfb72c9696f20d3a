package smoothing

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/pthm-cable/hsmooth/kernel"
)

// Solver defaults.
const (
	DefaultEta       = 1.2
	DefaultTolerance = 1e-3
	DefaultIterMax   = 100

	// HMax is the largest allowed support radius, half the unit domain.
	HMax = 0.5
	// hMinFactor scales the mean interparticle spacing to the smallest allowed
	// support radius.
	hMinFactor = 0.1
)

// ErrInvalidParams is wrapped by every parameter validation error.
var ErrInvalidParams = errors.New("smoothing: invalid parameters")

// Params configures a smoothing length computation. Either Eta or
// NeighbourCount must be positive; when both are set Eta wins.
type Params struct {
	Eta            float64
	NeighbourCount float64
	Kernel         string
	NDim           int
	Periodic       bool

	// Workers is the number of solver goroutines; 0 means GOMAXPROCS.
	Workers int
	// Tolerance is the relative support radius change accepted as converged;
	// 0 means DefaultTolerance.
	Tolerance float64
	// IterMax caps Newton-Raphson iterations per particle; 0 means DefaultIterMax.
	IterMax int
}

// DefaultParams returns parameters for a periodic 2D cubic spline run.
func DefaultParams() Params {
	return Params{
		Eta:      DefaultEta,
		Kernel:   kernel.CubicSpline,
		NDim:     2,
		Periodic: true,
	}
}

// Validate checks the parameters without resolving the kernel.
func (p Params) Validate() error {
	if p.NDim != 1 && p.NDim != 2 {
		return fmt.Errorf("%w: ndim must be 1 or 2, got %d", ErrInvalidParams, p.NDim)
	}
	if !(p.Eta > 0) && !(p.NeighbourCount > 0) {
		return fmt.Errorf("%w: eta or neighbour count must be positive", ErrInvalidParams)
	}
	if math.IsInf(p.Eta, 0) || math.IsInf(p.NeighbourCount, 0) {
		return fmt.Errorf("%w: eta and neighbour count must be finite", ErrInvalidParams)
	}
	if p.Tolerance < 0 || p.IterMax < 0 || p.Workers < 0 {
		return fmt.Errorf("%w: tolerance, iter_max and workers must not be negative", ErrInvalidParams)
	}
	return nil
}

// setup holds everything derived from Params that the solve needs.
type setup struct {
	params  Params
	kernel  kernel.Kernel
	eta     float64
	etaPow  float64 // eta^ndim, the target of h^ndim * N(H)
	nngb    float64
	nngbInt int // nngb rounded, index of the initial guess
	hmin    float64
	hmax    float64
}

func newSetup(p Params) (*setup, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	k, err := kernel.Lookup(p.Kernel, p.NDim)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	eta := p.Eta
	if !(eta > 0) {
		eta = kernel.EtaFromNeighbourCount(k, p.NeighbourCount)
	}
	nngb := kernel.NeighbourCount(k, eta)

	if p.Tolerance == 0 {
		p.Tolerance = DefaultTolerance
	}
	if p.IterMax == 0 {
		p.IterMax = DefaultIterMax
	}
	if p.Workers == 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}
	p.Eta = eta
	p.NeighbourCount = nngb

	return &setup{
		params:  p,
		kernel:  k,
		eta:     eta,
		etaPow:  math.Pow(eta, float64(p.NDim)),
		nngb:    nngb,
		nngbInt: int(nngb + 0.5),
		hmax:    HMax,
	}, nil
}

// withParticles fixes the lower support radius bound, which depends on the
// total particle count.
func (s *setup) withParticles(npart int) {
	s.hmin = math.Pow(float64(npart), -1/float64(s.params.NDim)) * hMinFactor
}
