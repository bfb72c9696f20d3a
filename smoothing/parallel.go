package smoothing

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hsmooth/grid"
)

// parallelThreshold is the minimum particle count to solve in parallel.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 256

// chunksPerWorker splits the cells finer than one range per worker so that
// unevenly filled cells balance out.
const chunksPerWorker = 4

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	parts []int
	cands []candidate
}

// workChunk is a range of cell ids for a worker to process.
type workChunk struct {
	start, end int
}

// solveJob holds the read-only inputs of one solve and the result it fills.
// The grid, positions and masses are never written during the solve.
type solveJob struct {
	setup     *setup
	grid      *grid.Grid
	positions []r2.Vec
	masses    []float64
	result    *Result
	done      <-chan struct{}
}

// run solves every particle using up to numWorkers goroutines.
func (j *solveJob) run(numWorkers int) {
	ncells := j.grid.Len()
	if numWorkers <= 1 || len(j.positions) < parallelThreshold || ncells == 1 {
		var scratch workerScratch
		j.computeChunk(0, ncells, &scratch)
		return
	}

	nchunks := numWorkers * chunksPerWorker
	chunkSize := (ncells + nchunks - 1) / nchunks

	workChan := make(chan workChunk, nchunks)
	for start := 0; start < ncells; start += chunkSize {
		workChan <- workChunk{start: start, end: min(start+chunkSize, ncells)}
	}
	close(workChan)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var scratch workerScratch
			for chunk := range workChan {
				j.computeChunk(chunk.start, chunk.end, &scratch)
			}
		}()
	}
	wg.Wait()
}

// computeChunk solves all particles of cells [c0, c1).
func (j *solveJob) computeChunk(c0, c1 int, scratch *workerScratch) {
	for c := c0; c < c1; c++ {
		cell := j.grid.Cell(c)
		if len(cell.Parts) == 0 {
			continue
		}

		// All particles of a cell share the same candidate set.
		scratch.parts = j.grid.NeighbourhoodParts(scratch.parts[:0], c)

		for _, p := range cell.Parts {
			j.solveParticle(p, scratch)
		}
	}
}

// solveParticle writes the output slots of particle p.
func (j *solveJob) solveParticle(p int, scratch *workerScratch) {
	s := j.setup
	ndim, periodic := s.params.NDim, s.params.Periodic
	pos := j.positions[p]

	cands := scratch.cands[:0]
	for _, q := range scratch.parts {
		cands = append(cands, candidate{idx: q, r: separation(pos, j.positions[q], ndim, periodic)})
	}
	sortCandidates(cands, p)
	scratch.cands = cands

	st := s.iterate(p, cands, j.done)

	res := j.result
	res.H[p] = st.Hnew / s.kernel.Gamma()
	res.Support[p] = st.H
	res.Neighbours[p] = neighbourList(cands, st.count, p)
	res.Rho[p] = s.density(cands, j.masses, st.H)

	d := &res.Diagnostics
	d.Iterations[p] = st.iterations
	d.Converged[p] = st.converged
	d.Recoveries[p] = st.recoveries
	d.Cancelled[p] = st.cancelled
}
