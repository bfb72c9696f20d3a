package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/hsmooth/config"
	"github.com/pthm-cable/hsmooth/particles"
	"github.com/pthm-cable/hsmooth/smoothing"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	assert.Nil(t, om)

	// nil manager methods are no-ops
	assert.NoError(t, om.WriteParticles(nil, nil))
	assert.NoError(t, om.WriteNeighbours(nil))
	assert.NoError(t, om.WriteStats(SolveStats{}))
	assert.NoError(t, om.WritePerf(PerfStats{}))
	assert.NoError(t, om.WriteConfig(nil))
	assert.Equal(t, "", om.Dir())
	assert.NoError(t, om.Close())
}

func TestOutputManagerWritesRun(t *testing.T) {
	set, err := particles.Generate(particles.KindUniform, 10, 1, 0.1, 1)
	require.NoError(t, err)

	params := smoothing.DefaultParams()
	params.NDim = 1
	params.Periodic = false
	res, err := smoothing.Compute(context.Background(), set.Positions, set.Masses, params)
	require.NoError(t, err)

	cfg, err := config.Load("")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	require.NoError(t, err)
	defer om.Close()

	require.NoError(t, om.WriteConfig(cfg))
	require.NoError(t, om.WriteParticles(set, res))
	require.NoError(t, om.WriteNeighbours(res))
	require.NoError(t, om.WriteStats(ComputeSolveStats(res, set.Masses)))
	require.NoError(t, om.WritePerf(PerfStats{Runs: 1}))
	require.NoError(t, om.WritePerf(PerfStats{Runs: 2}))
	require.NoError(t, om.Close())

	for _, name := range []string{"config.yaml", "particles.csv", "neighbours.csv", "stats.csv", "perf.csv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	var rows []ParticleRow
	readCSV(t, filepath.Join(dir, "particles.csv"), &rows)
	require.Len(t, rows, 10)
	for i, row := range rows {
		assert.Equal(t, i, row.ID)
		assert.InDelta(t, res.H[i], row.H, 1e-12)
		assert.InDelta(t, res.Rho[i], row.Rho, 1e-9)
		assert.Equal(t, len(res.Neighbours[i]), row.Neighbours)
	}

	var pairs []NeighbourRow
	readCSV(t, filepath.Join(dir, "neighbours.csv"), &pairs)
	total := 0
	for _, nb := range res.Neighbours {
		total += len(nb)
	}
	assert.Len(t, pairs, total)

	var perf []PerfStatsCSV
	readCSV(t, filepath.Join(dir, "perf.csv"), &perf)
	require.Len(t, perf, 2)
	assert.Equal(t, 2, perf[1].Runs)
}

func readCSV(t *testing.T, path string, out any) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gocsv.Unmarshal(f, out))
}
