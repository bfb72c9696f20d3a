package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// integrate returns the integral of W over its support using the midpoint rule.
func integrate(k Kernel, H float64) float64 {
	const steps = 20000
	dr := H / steps
	sum := 0.0
	for i := 0; i < steps; i++ {
		r := (float64(i) + 0.5) * dr
		if k.NDim() == 1 {
			sum += 2 * k.W(r, H) * dr
		} else {
			sum += 2 * math.Pi * r * k.W(r, H) * dr
		}
	}
	return sum
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		for _, ndim := range []int{1, 2} {
			k, err := Lookup(name, ndim)
			require.NoError(t, err)
			assert.Equal(t, name, k.Name())
			assert.Equal(t, ndim, k.NDim())
			assert.Greater(t, k.Gamma(), 1.0)
		}
	}

	_, err := Lookup("gaussian", 2)
	assert.ErrorIs(t, err, ErrUnknownKernel)

	_, err = Lookup(CubicSpline, 3)
	assert.ErrorIs(t, err, ErrUnsupportedDim)
}

func TestNormalization(t *testing.T) {
	for _, name := range Names() {
		for _, ndim := range []int{1, 2} {
			k, err := Lookup(name, ndim)
			require.NoError(t, err)
			for _, H := range []float64{0.05, 0.3, 1} {
				assert.InDelta(t, 1.0, integrate(k, H), 1e-4, "%s %dD H=%g", name, ndim, H)
			}
		}
	}
}

func TestCompactSupport(t *testing.T) {
	for _, name := range Names() {
		for _, ndim := range []int{1, 2} {
			k, _ := Lookup(name, ndim)
			assert.Zero(t, k.W(1.0001, 1))
			assert.Zero(t, k.DWDR(1.0001, 1))
			assert.Zero(t, k.W(2, 1))
			assert.Zero(t, k.W(1, 1))
			assert.Greater(t, k.W(0, 1), 0.0)
		}
	}
}

func TestCubicSplineValues(t *testing.T) {
	k, err := Lookup(CubicSpline, 1)
	require.NoError(t, err)

	// q = 0: (1)^3 - 4*(0.5)^3 = 0.5
	assert.InDelta(t, 0.5*2.666667, k.W(0, 1), 1e-12)
	// q = 0.5 sits exactly on the inner piece boundary.
	assert.InDelta(t, 0.125*2.666667, k.W(0.5, 1), 1e-12)
	// 1D scales with 1/H.
	assert.InDelta(t, k.W(0.25, 1)/2, k.W(0.5, 2), 1e-12)

	k2, err := Lookup(CubicSpline, 2)
	require.NoError(t, err)
	// 2D scales with 1/H^2, derivative with 1/H^3.
	assert.InDelta(t, k2.W(0.25, 1)/4, k2.W(0.5, 2), 1e-12)
	assert.InDelta(t, k2.DWDR(0.25, 1)/8, k2.DWDR(0.5, 2), 1e-12)
}

func TestDerivativeMatchesFiniteDifference(t *testing.T) {
	const eps = 1e-6
	for _, name := range Names() {
		for _, ndim := range []int{1, 2} {
			k, _ := Lookup(name, ndim)
			H := 0.7
			for _, r := range []float64{0.05, 0.2, 0.33, 0.5, 0.61} {
				fd := (k.W(r+eps, H) - k.W(r-eps, H)) / (2 * eps)
				assert.InDelta(t, fd, k.DWDR(r, H), 1e-4*math.Max(1, math.Abs(fd)), "%s %dD r=%g", name, ndim, r)
			}
		}
	}
}

func TestNeighbourCountRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ndim int
		eta  float64
		want float64
	}{
		{"cubic 1D", 1, 1.2, 2 * 1.2 * 1.732051},
		{"cubic 2D", 2, 1.2, math.Pi * (1.2 * 1.778002) * (1.2 * 1.778002)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := Lookup(CubicSpline, tt.ndim)
			require.NoError(t, err)
			nngb := NeighbourCount(k, tt.eta)
			assert.InDelta(t, tt.want, nngb, 1e-9)
			assert.InDelta(t, tt.eta, EtaFromNeighbourCount(k, nngb), 1e-12)
		})
	}
}

func TestSupportRadius(t *testing.T) {
	k, _ := Lookup(CubicSpline, 2)
	H := SupportRadius(k, 0.1)
	assert.InDelta(t, 0.1778002, H, 1e-12)
	assert.InDelta(t, 0.1, SmoothingLength(k, H), 1e-12)
}
