package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/hsmooth/kernel"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1.2, cfg.Solver.Eta)
	assert.Equal(t, kernel.CubicSpline, cfg.Solver.Kernel)
	assert.Equal(t, 2, cfg.Solver.NDim)
	assert.True(t, cfg.Solver.Periodic)
	assert.Equal(t, 100, cfg.Solver.IterMax)
	assert.Equal(t, "perturbed", cfg.InitialConditions.Kind)

	require.NotNil(t, cfg.Derived.Kernel)
	assert.InDelta(t, 14.3013, cfg.Derived.NeighbourCount, 1e-3)
}

func TestLoadMergesUserFile(t *testing.T) {
	path := writeFile(t, `
solver:
  ndim: 1
  periodic: false
initial_conditions:
  kind: uniform
  nx: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Solver.NDim)
	assert.False(t, cfg.Solver.Periodic)
	// untouched keys keep their defaults
	assert.Equal(t, 1.2, cfg.Solver.Eta)
	assert.Equal(t, 10, cfg.InitialConditions.NX)
	assert.InDelta(t, 2*1.2*1.732051, cfg.Derived.NeighbourCount, 1e-9)

	p := cfg.SolverParams()
	assert.Equal(t, 1, p.NDim)
	assert.False(t, p.Periodic)
}

func TestLoadNeighbourCount(t *testing.T) {
	path := writeFile(t, `
solver:
  eta: 0
  neighbour_count: 20
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 20, cfg.Derived.NeighbourCount, 1e-9)
	assert.Greater(t, cfg.Derived.Eta, 1.2)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown kernel", "solver:\n  kernel: gaussian\n"},
		{"bad ndim", "solver:\n  ndim: 3\n"},
		{"no resolution", "solver:\n  eta: 0\n  neighbour_count: 0\n"},
		{"unknown ic kind", "initial_conditions:\n  kind: glass\n"},
		{"zero nx", "initial_conditions:\n  nx: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Solver.NDim = 1
	cfg.Output.WriteNeighbours = true

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Solver, again.Solver)
	assert.Equal(t, cfg.Output, again.Output)
}

func TestInitAndCfg(t *testing.T) {
	require.NoError(t, Init(""))
	cfg := Cfg()
	assert.Equal(t, 2, cfg.Solver.NDim)

	cfg.Solver.NDim = 1
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Derived.Kernel.NDim())

	cfg.Solver.Kernel = "gaussian"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)

	assert.Error(t, Init(filepath.Join(t.TempDir(), "missing.yaml")))
	// failed Init keeps the previous configuration
	assert.Same(t, cfg, Cfg())
}

func TestMustInit(t *testing.T) {
	assert.NotPanics(t, func() { MustInit("") })
	assert.Equal(t, 2, Cfg().Solver.NDim)

	bad := writeFile(t, "solver:\n  ndim: 3\n")
	assert.Panics(t, func() { MustInit(bad) })
	// the previous configuration survives a failed MustInit
	assert.Equal(t, 2, Cfg().Solver.NDim)
}
