package geometry

import (
	"strconv"
	"strings"
)

// Pather is the subset of a 2D drawing surface needed to trace outlines.
// *gg.Context satisfies it, as does [PathData].
type Pather interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadraticTo(cx, cy, x, y float64)
	ClosePath()
}

// TraceRoundedRect appends a closed rounded-rectangle outline with top-left
// corner (x, y) to p. Corners are approximated with quadratic curves whose
// control point is the rectangle corner. A zero radius traces a plain
// rectangle. The caller strokes or fills the path.
func TraceRoundedRect(p Pather, x, y, w, h, r float64) {
	if r > w/2 {
		r = w / 2
	}
	if r > h/2 {
		r = h / 2
	}
	if r < 0 {
		r = 0
	}

	x1, y1 := x+w, y+h

	p.MoveTo(x+r, y)
	p.LineTo(x1-r, y)
	p.QuadraticTo(x1, y, x1, y+r)
	p.LineTo(x1, y1-r)
	p.QuadraticTo(x1, y1, x1-r, y1)
	p.LineTo(x+r, y1)
	p.QuadraticTo(x, y1, x, y1-r)
	p.LineTo(x, y+r)
	p.QuadraticTo(x, y, x+r, y)
	p.ClosePath()
}

// PathData accumulates SVG path commands ("M", "L", "Q", "Z").
type PathData struct {
	b strings.Builder
}

func (d *PathData) MoveTo(x, y float64) { d.cmd('M', x, y) }

func (d *PathData) LineTo(x, y float64) { d.cmd('L', x, y) }

func (d *PathData) QuadraticTo(cx, cy, x, y float64) { d.cmd('Q', cx, cy, x, y) }

func (d *PathData) ClosePath() {
	if d.b.Len() > 0 {
		d.b.WriteByte(' ')
	}
	d.b.WriteByte('Z')
}

// String returns the accumulated path data, suitable for a "d" attribute.
func (d *PathData) String() string { return d.b.String() }

func (d *PathData) cmd(op byte, coords ...float64) {
	if d.b.Len() > 0 {
		d.b.WriteByte(' ')
	}
	d.b.WriteByte(op)
	for i, c := range coords {
		if i > 0 {
			d.b.WriteByte(',')
		}
		d.b.WriteString(strconv.FormatFloat(c, 'f', -1, 64))
	}
}
