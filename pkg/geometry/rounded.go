package geometry

import (
	"math"

	"github.com/matzehuels/memviz/pkg/errors"
)

// Sector indices into RoundedRect.sectors. Boundaries are the angles (in
// degrees, counter-clockwise from +x) of the eight points where a straight
// edge meets a corner arc.
const (
	rightTop    = iota // right edge meets top-right arc
	topRight           // top-right arc meets top edge
	topLeft            // top edge meets top-left arc
	leftTop            // top-left arc meets left edge
	leftBottom         // left edge meets bottom-left arc
	bottomLeft         // bottom-left arc meets bottom edge
	bottomRight        // bottom edge meets bottom-right arc
	rightBottom        // bottom-right arc meets right edge
)

// RoundedRect is a rectangle with quarter-circle corners of radius R.
// Construct it with [NewRoundedRect]; the zero value is not usable.
type RoundedRect struct {
	W, H, R float64

	sectors [8]float64
}

// NewRoundedRect validates the dimensions and precomputes the angular
// sectors used by EdgePoint. A radius of at least half the shorter side (or
// a non-positive width/height) is degenerate.
func NewRoundedRect(w, h, r float64) (*RoundedRect, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidShape, "rounded rect needs positive size, got %vx%v", w, h)
	}
	if r < 0 || r >= math.Min(w, h)/2 {
		return nil, errors.New(errors.ErrCodeInvalidShape, "corner radius %v out of range [0, %v) for %vx%v", r, math.Min(w, h)/2, w, h)
	}

	hw, hh := w/2, h/2
	points := [8][2]float64{
		rightTop:    {hw, hh - r},
		topRight:    {hw - r, hh},
		topLeft:     {-(hw - r), hh},
		leftTop:     {-hw, hh - r},
		leftBottom:  {-hw, -(hh - r)},
		bottomLeft:  {-(hw - r), -hh},
		bottomRight: {hw - r, -hh},
		rightBottom: {hw, -(hh - r)},
	}

	rr := &RoundedRect{W: w, H: h, R: r}
	for i, p := range points {
		rr.sectors[i] = normalizeDegrees(math.Atan2(p[1], p[0]) * 180 / math.Pi)
	}
	return rr, nil
}

// Kind implements Shape.
func (*RoundedRect) Kind() Kind { return KindRoundedRect }

// Size implements Shape.
func (rr *RoundedRect) Size() (float64, float64) { return rr.W, rr.H }

// Sectors returns the eight precomputed sector boundaries in degrees.
func (rr *RoundedRect) Sectors() [8]float64 { return rr.sectors }

// EdgePoint implements Shape. Straight sectors use the same triangle
// formula as [Square]; corner sectors intersect the ray with the corner's
// circle.
func (rr *RoundedRect) EdgePoint(cx, cy, angle float64) (float64, float64, error) {
	a := normalizeRadians(angle)
	if math.IsNaN(a) {
		return 0, 0, unsupportedAngle(rr.Kind(), angle)
	}
	deg := normalizeDegrees(a * 180 / math.Pi)

	hw, hh, r := rr.W/2, rr.H/2, rr.R
	sin, cos := math.Sincos(a)
	s := rr.sectors

	var px, py float64
	switch {
	case deg >= s[rightBottom] || deg < s[rightTop]:
		px, py = hw, hw*sin/cos
	case deg < s[topRight]:
		px, py = rr.arcPoint(cos, sin, hw-r, hh-r)
	case deg < s[topLeft]:
		px, py = hh*cos/sin, hh
	case deg < s[leftTop]:
		px, py = rr.arcPoint(cos, sin, -(hw-r), hh-r)
	case deg < s[leftBottom]:
		px, py = -hw, -hw*sin/cos
	case deg < s[bottomLeft]:
		px, py = rr.arcPoint(cos, sin, -(hw-r), -(hh-r))
	case deg < s[bottomRight]:
		px, py = -hh*cos/sin, -hh
	case deg < s[rightBottom]:
		px, py = rr.arcPoint(cos, sin, hw-r, -(hh-r))
	default:
		return 0, 0, unsupportedAngle(rr.Kind(), angle)
	}

	return cx + px, cy - py, nil
}

// arcPoint returns the far intersection of the unit ray (dx, dy) from the
// origin with the circle of radius R centred at (ox, oy).
func (rr *RoundedRect) arcPoint(dx, dy, ox, oy float64) (float64, float64) {
	proj := dx*ox + dy*oy
	disc := proj*proj - (ox*ox + oy*oy) + rr.R*rr.R
	t := proj + math.Sqrt(math.Max(disc, 0))
	return t * dx, t * dy
}
