package grid

// Neighbours returns the ids of the cells that must be searched for
// neighbours of particles in cell id: the cell itself, then its adjacent
// cells. Adjacent cells beyond a domain edge wrap around when periodic and are
// left out otherwise. Each cell appears at most once, which matters for
// periodic grids with fewer than three cells per dimension.
func Neighbours(id, ncells, ndim int, periodic bool) []int {
	return AppendNeighbours(make([]int, 0, 9), id, ncells, ndim, periodic)
}

// offsets2D lists (dcol, drow) in search order: left column, right column,
// then the cells below and above.
var offsets2D = [8][2]int{
	{-1, 0}, {-1, -1}, {-1, 1},
	{1, 0}, {1, -1}, {1, 1},
	{0, -1}, {0, 1},
}

// AppendNeighbours is like Neighbours but appends to dst.
func AppendNeighbours(dst []int, id, ncells, ndim int, periodic bool) []int {
	start := len(dst)
	dst = append(dst, id)

	if ndim == 1 {
		for _, d := range [2]int{-1, 1} {
			if c, ok := wrap(id+d, ncells, periodic); ok {
				dst = appendUnique(dst, start, c)
			}
		}
		return dst
	}

	row, col := RowCol(id, ncells)
	for _, off := range offsets2D {
		c, okc := wrap(col+off[0], ncells, periodic)
		r, okr := wrap(row+off[1], ncells, periodic)
		if okc && okr {
			dst = appendUnique(dst, start, Index(r, c, ncells))
		}
	}
	return dst
}

// RowCol splits a 2D cell id into row and column.
func RowCol(id, ncells int) (row, col int) {
	return id / ncells, id % ncells
}

// Index is the inverse of RowCol.
func Index(row, col, ncells int) int {
	return row*ncells + col
}

// wrap maps i into [0, ncells). ok is false for indices off the edge of a
// non-periodic grid.
func wrap(i, ncells int, periodic bool) (int, bool) {
	if i >= 0 && i < ncells {
		return i, true
	}
	if !periodic {
		return 0, false
	}
	return (i%ncells + ncells) % ncells, true
}

func appendUnique(dst []int, start, c int) []int {
	for _, v := range dst[start:] {
		if v == c {
			return dst
		}
	}
	return append(dst, c)
}
