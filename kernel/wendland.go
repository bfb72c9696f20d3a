package kernel

// wendlandC2 is the Wendland C2 kernel. Its 1D form is the C2 function for
// d <= 1, its 2D form the one for d <= 3.
type wendlandC2 struct {
	ndim  int
	gamma float64
	norm  float64
}

func newWendlandC2(ndim int) wendlandC2 {
	if ndim == 1 {
		// norm = 5/4
		return wendlandC2{ndim: 1, gamma: 1.620185, norm: 1.25}
	}
	// norm = 7/pi
	return wendlandC2{ndim: 2, gamma: 1.897367, norm: 2.228169}
}

func (k wendlandC2) Name() string   { return WendlandC2 }
func (k wendlandC2) NDim() int      { return k.ndim }
func (k wendlandC2) Gamma() float64 { return k.gamma }
func (k wendlandC2) Norm() float64  { return k.norm }

func (k wendlandC2) W(r, H float64) float64 {
	q := r / H
	if q > 1 {
		return 0
	}
	t := 1 - q
	var w float64
	if k.ndim == 1 {
		w = t * t * t * (1 + 3*q)
	} else {
		w = t * t * t * t * (1 + 4*q)
	}
	return w / pow(H, k.ndim) * k.norm
}

func (k wendlandC2) DWDR(r, H float64) float64 {
	q := r / H
	if q > 1 {
		return 0
	}
	t := 1 - q
	var dw float64
	if k.ndim == 1 {
		dw = -12 * q * t * t
	} else {
		dw = -20 * q * t * t * t
	}
	return dw / pow(H, k.ndim+1) * k.norm
}
