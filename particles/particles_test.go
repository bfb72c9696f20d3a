package particles

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		set     Set
		wantErr error
	}{
		{"ok 1D", Set{NDim: 1, Positions: []r2.Vec{{X: 0}, {X: 1}}, Masses: []float64{1, 1}}, nil},
		{"ok 2D", Set{NDim: 2, Positions: []r2.Vec{{X: 0.5, Y: 0.99}}, Masses: []float64{2}}, nil},
		{"1D ignores y", Set{NDim: 1, Positions: []r2.Vec{{X: 0.5, Y: 7}}, Masses: []float64{1}}, nil},
		{"bad ndim", Set{NDim: 3, Positions: []r2.Vec{{}}, Masses: []float64{1}}, ErrUnsupportedDim},
		{"empty", Set{NDim: 2}, ErrEmpty},
		{"mismatch", Set{NDim: 2, Positions: []r2.Vec{{}, {}}, Masses: []float64{1}}, ErrLengthMismatch},
		{"negative x", Set{NDim: 1, Positions: []r2.Vec{{X: -0.1}}, Masses: []float64{1}}, ErrOutOfDomain},
		{"y above one", Set{NDim: 2, Positions: []r2.Vec{{X: 0.1, Y: 1.5}}, Masses: []float64{1}}, ErrOutOfDomain},
		{"nan", Set{NDim: 2, Positions: []r2.Vec{{X: math.NaN()}}, Masses: []float64{1}}, ErrOutOfDomain},
		{"negative mass", Set{NDim: 1, Positions: []r2.Vec{{X: 0.1}}, Masses: []float64{-1}}, ErrBadMass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUniform(t *testing.T) {
	pos := Uniform(4, 2)
	require.Len(t, pos, 16)
	assert.InDelta(t, 0.125, pos[0].X, 1e-12)
	assert.InDelta(t, 0.125, pos[0].Y, 1e-12)
	// x varies fastest
	assert.InDelta(t, 0.375, pos[1].X, 1e-12)
	assert.InDelta(t, 0.125, pos[1].Y, 1e-12)
	assert.InDelta(t, 0.375, pos[4].Y, 1e-12)
	assert.InDelta(t, 0.875, pos[15].X, 1e-12)

	line := Uniform(10, 1)
	require.Len(t, line, 10)
	for i, p := range line {
		assert.InDelta(t, 0.05+0.1*float64(i), p.X, 1e-12)
		assert.Zero(t, p.Y)
	}
}

func TestPerturbedStaysInCell(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	nx := 8
	pos := Perturbed(nx, 2, rng)
	base := Uniform(nx, 2)
	require.Len(t, pos, nx*nx)
	for i := range pos {
		assert.Less(t, math.Abs(pos[i].X-base[i].X), 0.5/float64(nx))
		assert.Less(t, math.Abs(pos[i].Y-base[i].Y), 0.5/float64(nx))
	}
}

func TestGenerate(t *testing.T) {
	for _, kind := range []string{KindUniform, KindPerturbed, KindRandom} {
		s, err := Generate(kind, 6, 2, 0.5, 42)
		require.NoError(t, err, kind)
		assert.Equal(t, 36, s.Len())
		assert.InDelta(t, 18, s.TotalMass(), 1e-12)
	}

	a, _ := Generate(KindRandom, 20, 1, 1, 7)
	b, _ := Generate(KindRandom, 20, 1, 1, 7)
	assert.Equal(t, a.Positions, b.Positions, "same seed must give the same set")

	_, err := Generate("glass", 4, 2, 1, 0)
	assert.Error(t, err)
	_, err = Generate(KindUniform, 0, 2, 1, 0)
	assert.Error(t, err)
}

func TestCSVRoundTrip(t *testing.T) {
	s, err := Generate(KindPerturbed, 5, 2, 1, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s))
	assert.True(t, strings.HasPrefix(buf.String(), "x,y,m"))

	got, err := ReadCSV(&buf, 2)
	require.NoError(t, err)
	require.Equal(t, s.Len(), got.Len())
	for i := range s.Positions {
		assert.InDelta(t, s.Positions[i].X, got.Positions[i].X, 1e-12)
		assert.InDelta(t, s.Positions[i].Y, got.Positions[i].Y, 1e-12)
	}
}

func TestReadCSVRejectsOutOfDomain(t *testing.T) {
	in := "x,y,m\n0.5,0.5,1\n1.2,0.5,1\n"
	_, err := ReadCSV(strings.NewReader(in), 2)
	assert.ErrorIs(t, err, ErrOutOfDomain)
}
