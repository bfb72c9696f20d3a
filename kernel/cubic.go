package kernel

// cubicSpline is the standard M4 cubic spline written in terms of the
// support radius H.
type cubicSpline struct {
	ndim  int
	gamma float64
	norm  float64
}

func newCubicSpline(ndim int) cubicSpline {
	if ndim == 1 {
		// norm = 8/3
		return cubicSpline{ndim: 1, gamma: 1.732051, norm: 2.666667}
	}
	// norm = 80/(7 pi)
	return cubicSpline{ndim: 2, gamma: 1.778002, norm: 3.637827}
}

func (k cubicSpline) Name() string   { return CubicSpline }
func (k cubicSpline) NDim() int      { return k.ndim }
func (k cubicSpline) Gamma() float64 { return k.gamma }
func (k cubicSpline) Norm() float64  { return k.norm }

// W evaluates the kernel at distance r for support radius H.
func (k cubicSpline) W(r, H float64) float64 {
	q := r / H
	w := 0.0
	if q <= 1 {
		t := 1 - q
		w += t * t * t
	}
	if q <= 0.5 {
		t := 0.5 - q
		w -= 4 * t * t * t
	}
	return w / pow(H, k.ndim) * k.norm
}

// DWDR evaluates dW/dr at distance r for support radius H.
func (k cubicSpline) DWDR(r, H float64) float64 {
	q := r / H
	dw := 0.0
	if q <= 1 {
		t := 1 - q
		dw -= 3 * t * t
	}
	if q <= 0.5 {
		t := 0.5 - q
		dw += 12 * t * t
	}
	// dW/dr = dW/dq / H
	return dw / pow(H, k.ndim+1) * k.norm
}
