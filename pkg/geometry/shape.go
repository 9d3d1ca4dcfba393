package geometry

import (
	"math"

	"github.com/matzehuels/memviz/pkg/errors"
)

// Kind is the closed set of drawable shape variants.
type Kind int

const (
	// KindSquare is an axis-aligned rectangle (squares are the common case).
	KindSquare Kind = iota
	// KindCircle is an ellipse inscribed in the shape's bounding box.
	KindCircle
	// KindRoundedRect is a rectangle with quarter-circle corners.
	KindRoundedRect
)

// String returns the wire name used in exported documents.
func (k Kind) String() string {
	switch k {
	case KindSquare:
		return "square"
	case KindCircle:
		return "circle"
	case KindRoundedRect:
		return "rounded_rect"
	default:
		return "unknown"
	}
}

// Shape is the boundary model of a scene object. Implementations are
// immutable and safe for concurrent use.
type Shape interface {
	// Kind returns the shape variant tag.
	Kind() Kind
	// Size returns the bounding box dimensions.
	Size() (w, h float64)
	// EdgePoint returns the point where a ray from (cx, cy) at angle
	// radians leaves the shape. Angles grow counter-clockwise on screen, so
	// angle π/2 points toward smaller y.
	EdgePoint(cx, cy, angle float64) (x, y float64, err error)
}

// Square is a w×h rectangle.
type Square struct {
	W, H float64
}

// Kind implements Shape.
func (Square) Kind() Kind { return KindSquare }

// Size implements Shape.
func (s Square) Size() (float64, float64) { return s.W, s.H }

// EdgePoint implements Shape. The diagonals split the rectangle into four
// angular quadrants; within each, the hit point follows from similar
// triangles against the half-width or half-height.
func (s Square) EdgePoint(cx, cy, angle float64) (float64, float64, error) {
	a := normalizeRadians(angle)
	if math.IsNaN(a) {
		return 0, 0, unsupportedAngle(s.Kind(), angle)
	}

	hw, hh := s.W/2, s.H/2
	diag := math.Atan2(hh, hw)
	sin, cos := math.Sincos(a)

	switch {
	case a < diag || a >= 2*math.Pi-diag: // right
		return cx + hw, cy - hw*sin/cos, nil
	case a < math.Pi-diag: // top
		return cx + hh*cos/sin, cy - hh, nil
	case a < math.Pi+diag: // left
		return cx - hw, cy + hw*sin/cos, nil
	case a < 2*math.Pi-diag: // bottom
		return cx - hh*cos/sin, cy + hh, nil
	}
	return 0, 0, unsupportedAngle(s.Kind(), angle)
}

// Circle is an ellipse with radii W/2 and H/2. Values are drawn with W == H.
type Circle struct {
	W, H float64
}

// Kind implements Shape.
func (Circle) Kind() Kind { return KindCircle }

// Size implements Shape.
func (c Circle) Size() (float64, float64) { return c.W, c.H }

// EdgePoint implements Shape.
func (c Circle) EdgePoint(cx, cy, angle float64) (float64, float64, error) {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0, 0, unsupportedAngle(c.Kind(), angle)
	}
	return cx + c.W/2*math.Cos(angle), cy - c.H/2*math.Sin(angle), nil
}

func normalizeRadians(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func unsupportedAngle(k Kind, angle float64) error {
	return errors.New(errors.ErrCodeUnsupportedShapeAngle, "%s: no boundary sector for angle %v", k, angle)
}
