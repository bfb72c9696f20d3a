package smoothing

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// candidate is a potential neighbour of the particle being solved.
type candidate struct {
	idx int
	r   float64
}

// particleState is the Newton-Raphson state of one particle.
type particleState struct {
	H          float64 // support radius the sums were evaluated at
	Hnew       float64
	iterations int
	converged  bool
	cancelled  bool
	recoveries int
	count      int // candidates with r <= H, self included
}

// separation returns the distance between a and b, using the minimum image
// on each axis when periodic.
func separation(a, b r2.Vec, ndim int, periodic bool) float64 {
	dx := b.X - a.X
	if periodic {
		dx = minimumImage(dx)
	}
	if ndim == 1 {
		return math.Abs(dx)
	}
	dy := b.Y - a.Y
	if periodic {
		dy = minimumImage(dy)
	}
	return r2.Norm(r2.Vec{X: dx, Y: dy})
}

func minimumImage(d float64) float64 {
	if d > 0.5 {
		d -= 1
	} else if d < -0.5 {
		d += 1
	}
	return d
}

// sortCandidates orders candidates by increasing distance. Ties keep gather
// order, except that self always comes first.
func sortCandidates(cands []candidate, self int) {
	slices.SortStableFunc(cands, func(a, b candidate) int {
		if c := cmp.Compare(a.r, b.r); c != 0 {
			return c
		}
		switch {
		case a.idx == self && b.idx != self:
			return -1
		case b.idx == self && a.idx != self:
			return 1
		}
		return 0
	})
}

// sums accumulates N(H) = sum W(r_i, H) and sum(ndim*W + r*dW/dr) over the
// sorted candidates with r <= H. It stops at the first candidate beyond H, so
// count is the number of candidates inside the support.
func (s *setup) sums(cands []candidate, H float64) (n, dsum float64, count int) {
	ndim := float64(s.params.NDim)
	for _, c := range cands {
		if c.r > H {
			break
		}
		w := s.kernel.W(c.r, H)
		n += w
		dsum += ndim*w + c.r*s.kernel.DWDR(c.r, H)
		count++
	}
	return n, dsum, count
}

// initialGuess uses the distance to the nngb-th nearest candidate. Unlike a
// raw r[nngb] start it is clamped to [hmin, hmax], so an isolated particle
// starts at hmax instead of beyond it.
func (s *setup) initialGuess(cands []candidate) float64 {
	i := s.nngbInt
	if i >= len(cands) {
		i = len(cands) - 1
	}
	return s.clamp(cands[i].r)
}

func (s *setup) clamp(H float64) float64 {
	if H > s.hmax {
		return s.hmax
	}
	if H < s.hmin {
		return s.hmin
	}
	return H
}

// iterate runs Newton-Raphson on f(h) = h^ndim N(H) - eta^ndim with h = H/gamma
// over sorted candidates. done aborts the iteration early.
func (s *setup) iterate(p int, cands []candidate, done <-chan struct{}) particleState {
	ndim := s.params.NDim
	gamma := s.kernel.Gamma()
	st := particleState{H: s.initialGuess(cands)}

	for {
		st.iterations++

		n, dsum, count := s.sums(cands, st.H)
		st.count = count

		h := st.H / gamma
		hpow := math.Pow(h, float64(ndim-1))
		f := hpow*h*n - s.etaPow
		dfdh := hpow * (float64(ndim)*n - dsum)

		Hnew := st.H - f/dfdh
		if Hnew <= 0 || math.IsNaN(Hnew) {
			// Overshot into negative radii or hit 0/0: grow instead.
			Hnew = 1.1 * st.H
			st.recoveries++
		}
		st.Hnew = s.clamp(Hnew)

		if math.Abs(st.Hnew-st.H) < s.params.Tolerance*st.H {
			st.converged = true
			return st
		}
		if st.iterations >= s.params.IterMax {
			slog.Warn("reached max number of iterations for smoothing length",
				"particle", p,
				"iterations", st.iterations,
				"convergence_rate", math.Abs(st.Hnew-st.H)/st.H,
			)
			return s.accept(st, cands)
		}
		select {
		case <-done:
			st.cancelled = true
			return s.accept(st, cands)
		default:
		}
		st.H = st.Hnew
	}
}

// accept takes Hnew as the final radius of an unconverged particle, so its
// neighbours and density are evaluated where h is.
func (s *setup) accept(st particleState, cands []candidate) particleState {
	st.H = st.Hnew
	_, _, st.count = s.sums(cands, st.H)
	return st
}

// density returns sum m_i W(r_i, H) over the sorted candidates with r <= H.
func (s *setup) density(cands []candidate, masses []float64, H float64) float64 {
	rho := 0.0
	for _, c := range cands {
		if c.r > H {
			break
		}
		rho += masses[c.idx] * s.kernel.W(c.r, H)
	}
	return rho
}

// neighbourList copies the indices of the first count candidates, leaving out
// self.
func neighbourList(cands []candidate, count, self int) []int {
	nb := make([]int, 0, max(count-1, 0))
	for _, c := range cands[:count] {
		if c.idx != self {
			nb = append(nb, c.idx)
		}
	}
	return nb
}
