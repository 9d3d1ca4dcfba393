package gps

import "math"

// cell addresses a grid square by row and column.
type cell struct {
	row, col int
}

// grid is the availability matrix for one layout call.
type grid struct {
	n    int
	used []bool
}

func newGrid(n int) *grid {
	return &grid{n: n, used: make([]bool, n*n)}
}

func (g *grid) free(c cell) bool {
	return c.row >= 0 && c.col >= 0 && c.row < g.n && c.col < g.n && !g.used[c.row*g.n+c.col]
}

// fits reports whether the rows×cols block with top-left c is inside the
// grid and entirely free.
func (g *grid) fits(c cell, rows, cols int) bool {
	if c.row+rows > g.n || c.col+cols > g.n {
		return false
	}
	for r := c.row; r < c.row+rows; r++ {
		for k := c.col; k < c.col+cols; k++ {
			if !g.free(cell{r, k}) {
				return false
			}
		}
	}
	return true
}

func (g *grid) mark(c cell, rows, cols int) {
	for r := c.row; r < c.row+rows; r++ {
		for k := c.col; k < c.col+cols; k++ {
			g.used[r*g.n+k] = true
		}
	}
}

func (g *grid) usage() int {
	n := 0
	for _, u := range g.used {
		if u {
			n++
		}
	}
	return n
}

// spiral returns the interior cells ring by ring outward from (1, 1). Ring
// k holds the cells with max(row, col) == k and is walked along row k, then
// up column k.
func (g *grid) spiral() []cell {
	var out []cell
	for k := 1; k < g.n; k++ {
		for c := 1; c <= k; c++ {
			out = append(out, cell{k, c})
		}
		for r := k - 1; r >= 1; r-- {
			out = append(out, cell{r, k})
		}
	}
	return out
}

// border returns the cells reserved for top-level variables: row 0 left to
// right, then column 0 top to bottom below the origin.
func (g *grid) border() []cell {
	out := make([]cell, 0, 2*g.n-1)
	for c := 0; c < g.n; c++ {
		out = append(out, cell{0, c})
	}
	for r := 1; r < g.n; r++ {
		out = append(out, cell{r, 0})
	}
	return out
}

// span returns how many rows and columns a w×h box occupies.
func span(w, h, cellSize float64) (rows, cols int) {
	return max(1, int(math.Ceil(h/cellSize))), max(1, int(math.Ceil(w/cellSize)))
}
