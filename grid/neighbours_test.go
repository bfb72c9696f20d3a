package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNeighbours1D(t *testing.T) {
	tests := []struct {
		name     string
		id       int
		ncells   int
		periodic bool
		want     []int
	}{
		{"interior", 2, 5, false, []int{2, 1, 3}},
		{"left edge", 0, 5, false, []int{0, 1}},
		{"right edge", 4, 5, false, []int{4, 3}},
		{"left edge periodic", 0, 5, true, []int{0, 4, 1}},
		{"right edge periodic", 4, 5, true, []int{4, 3, 0}},
		{"two cells periodic", 0, 2, true, []int{0, 1}},
		{"single cell periodic", 0, 1, true, []int{0}},
		{"single cell", 0, 1, false, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Neighbours(tt.id, tt.ncells, 1, tt.periodic))
		})
	}
}

func TestNeighbours2D(t *testing.T) {
	tests := []struct {
		name     string
		id       int
		ncells   int
		periodic bool
		want     []int
	}{
		{"interior", 5, 4, false, []int{5, 4, 0, 8, 6, 2, 10, 1, 9}},
		{"interior periodic", 5, 4, true, []int{5, 4, 0, 8, 6, 2, 10, 1, 9}},
		{"corner", 0, 4, false, []int{0, 1, 5, 4}},
		{"corner periodic", 0, 4, true, []int{0, 3, 15, 7, 1, 13, 5, 12, 4}},
		{"top right corner", 15, 4, false, []int{15, 14, 10, 11}},
		{"two cells periodic", 0, 2, true, []int{0, 1, 3, 2}},
		{"single cell periodic", 0, 1, true, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Neighbours(tt.id, tt.ncells, 2, tt.periodic))
		})
	}
}

func TestAppendNeighboursKeepsPrefix(t *testing.T) {
	dst := []int{42, 5}
	got := AppendNeighbours(dst, 5, 4, 2, false)
	assert.Equal(t, []int{42, 5, 5, 4, 0, 8, 6, 2, 10, 1, 9}, got)
}

func TestRowColIndex(t *testing.T) {
	for id := 0; id < 36; id++ {
		row, col := RowCol(id, 6)
		assert.Equal(t, id, Index(row, col, 6))
		assert.Less(t, col, 6)
	}
	row, col := RowCol(7, 6)
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)
}
