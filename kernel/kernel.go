// Package kernel provides the compact-support smoothing kernels used for
// density estimation.
package kernel

import (
	"errors"
	"fmt"
	"math"
)

// Built-in kernel names.
const (
	CubicSpline = "cubic spline"
	WendlandC2  = "wendland C2"
)

var (
	// ErrUnknownKernel is returned by Lookup for names that have no implementation.
	ErrUnknownKernel = errors.New("kernel: unknown kernel")
	// ErrUnsupportedDim is returned by Lookup for dimensions other than 1 and 2.
	ErrUnsupportedDim = errors.New("kernel: unsupported dimension")
)

// Kernel is a radially symmetric weighting function with compact support H.
// W and DWDR return 0 for r > H.
type Kernel interface {
	Name() string
	NDim() int
	// Gamma is the compact support ratio H/h.
	Gamma() float64
	Norm() float64
	W(r, H float64) float64
	DWDR(r, H float64) float64
}

// Names returns the names accepted by Lookup.
func Names() []string {
	return []string{CubicSpline, WendlandC2}
}

// Lookup resolves a kernel by name for the given number of dimensions.
func Lookup(name string, ndim int) (Kernel, error) {
	if ndim != 1 && ndim != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDim, ndim)
	}
	switch name {
	case CubicSpline:
		return newCubicSpline(ndim), nil
	case WendlandC2:
		return newWendlandC2(ndim), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, name)
}

// NeighbourCount returns the target number of neighbours inside the compact
// support for resolution eta: 2*eta*gamma in 1D, pi*(eta*gamma)^2 in 2D.
func NeighbourCount(k Kernel, eta float64) float64 {
	if k.NDim() == 1 {
		return 2 * eta * k.Gamma()
	}
	t := eta * k.Gamma()
	return math.Pi * t * t
}

// EtaFromNeighbourCount inverts NeighbourCount.
func EtaFromNeighbourCount(k Kernel, nngb float64) float64 {
	if k.NDim() == 1 {
		return nngb * 0.5 / k.Gamma()
	}
	return math.Sqrt(nngb/math.Pi) / k.Gamma()
}

// SupportRadius converts a smoothing length h to the support radius H.
func SupportRadius(k Kernel, h float64) float64 { return h * k.Gamma() }

// SmoothingLength converts a support radius H to the smoothing length h.
func SmoothingLength(k Kernel, H float64) float64 { return H / k.Gamma() }

// pow returns H^n for the small integer exponents used here.
func pow(H float64, n int) float64 {
	p := H
	for i := 1; i < n; i++ {
		p *= H
	}
	return p
}
