// Package smoothing computes adaptive SPH smoothing lengths and densities.
//
// For every particle the support radius H is iterated with Newton-Raphson
// until the kernel weighted neighbour count inside H matches eta^ndim. The
// candidates for each particle come from its grid cell neighbourhood.
package smoothing

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hsmooth/grid"
	"github.com/pthm-cable/hsmooth/kernel"
	"github.com/pthm-cable/hsmooth/particles"
)

// Result holds the per-particle output of a solve, indexed by particle.
type Result struct {
	// H is the smoothing length h = support / gamma.
	H   []float64
	Rho []float64
	// Neighbours lists, for every particle, the other particles within the
	// support radius in order of increasing distance.
	Neighbours [][]int
	// Support is the radius at which Neighbours and Rho were evaluated: the
	// last iterated radius for converged particles, and gamma*H otherwise.
	Support []float64

	Grid   *grid.Grid
	Kernel kernel.Kernel

	Eta            float64
	NeighbourCount float64
	// HMin and HMax bound the support radius.
	HMin, HMax float64

	Diagnostics Diagnostics
}

// BuildGrid resolves the kernel and builds the particle grid for params.
func BuildGrid(positions []r2.Vec, masses []float64, params Params) (*grid.Grid, error) {
	s, err := newSetup(params)
	if err != nil {
		return nil, err
	}
	if _, err := particles.NewSet(params.NDim, positions, masses); err != nil {
		return nil, err
	}
	return buildGrid(positions, s)
}

func buildGrid(positions []r2.Vec, s *setup) (*grid.Grid, error) {
	g, err := grid.Build(positions, s.params.NDim, s.params.Periodic, s.nngb)
	if err != nil {
		return nil, fmt.Errorf("building grid: %w", err)
	}
	slog.Info("finished grid building",
		"kernel", s.kernel.Name(),
		"eta", s.eta,
		"neighbour_count", s.nngb,
		"stats", g.Stats(),
	)
	return g, nil
}

// Compute builds a grid for the particles and solves for their smoothing
// lengths and densities. It is BuildGrid followed by Solve.
func Compute(ctx context.Context, positions []r2.Vec, masses []float64, params Params) (*Result, error) {
	g, err := BuildGrid(positions, masses, params)
	if err != nil {
		return nil, err
	}
	return Solve(ctx, g, positions, masses, params)
}

// Solve computes smoothing lengths and densities using a grid built from the
// same positions and params. Particles are solved concurrently; each one only
// writes its own output slots.
//
// If ctx is cancelled, particles still iterating stop at their latest radius
// and are marked unconverged and cancelled. Solve then returns the result with
// ctx.Err(); a cancellation that interrupted no particle is not reported.
func Solve(ctx context.Context, g *grid.Grid, positions []r2.Vec, masses []float64, params Params) (*Result, error) {
	s, err := newSetup(params)
	if err != nil {
		return nil, err
	}
	if _, err := particles.NewSet(params.NDim, positions, masses); err != nil {
		return nil, err
	}
	if g.NDim() != params.NDim || g.Periodic() != params.Periodic {
		return nil, fmt.Errorf("%w: grid is %dD periodic=%t, params are %dD periodic=%t",
			ErrInvalidParams, g.NDim(), g.Periodic(), params.NDim, params.Periodic)
	}
	if math.Abs(g.NeighbourCount()-s.nngb) > 1e-9*s.nngb {
		return nil, fmt.Errorf("%w: grid was built for neighbour count %g, params ask for %g",
			ErrInvalidParams, g.NeighbourCount(), s.nngb)
	}
	if err := g.Check(positions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	s.withParticles(len(positions))

	n := len(positions)
	res := &Result{
		H:              make([]float64, n),
		Rho:            make([]float64, n),
		Neighbours:     make([][]int, n),
		Support:        make([]float64, n),
		Grid:           g,
		Kernel:         s.kernel,
		Eta:            s.eta,
		NeighbourCount: s.nngb,
		HMin:           s.hmin,
		HMax:           s.hmax,
		Diagnostics:    newDiagnostics(n),
	}

	job := &solveJob{
		setup:     s,
		grid:      g,
		positions: positions,
		masses:    masses,
		result:    res,
		done:      ctx.Done(),
	}
	job.run(s.params.Workers)

	d := &res.Diagnostics
	d.summarize()
	if d.Unconverged > 0 {
		slog.Warn("smoothing lengths not converged for some particles",
			"unconverged", d.Unconverged,
			"particles", n,
			"iter_max", s.params.IterMax,
		)
	}
	slog.Info("finished smoothing length computation",
		"particles", n,
		"workers", s.params.Workers,
		"diagnostics", d,
	)

	if d.Interrupted > 0 {
		return res, ctx.Err()
	}
	return res, nil
}
