package scene

import (
	"github.com/matzehuels/memviz/pkg/geometry"
)

// Positionable is an object the layout engine can move. Positions are the
// top-left corner of the bounding box.
type Positionable interface {
	// Position returns the top-left corner and whether it has been set.
	Position() (x, y float64, ok bool)
	SetPosition(x, y float64)
	// Size returns the fixed bounding box dimensions.
	Size() (w, h float64)
	// Center returns the centre of the bounding box. It is only meaningful
	// once the position is set.
	Center() (x, y float64)
}

// Exportable is an object a sink can draw.
type Exportable interface {
	ID() string
	Shape() geometry.Shape
	Header() string
	Content() string
}

// Object is one drawable node of a scene. The set of implementations is
// closed: *Value, *Collection, *Namespace, *Container, and *Placeholder.
type Object interface {
	Positionable
	Exportable

	// InDegree is the number of references pointing at the object.
	InDegree() int
	// Children returns the object's slots in display order, or nil for
	// leaves and containers.
	Children() []*Variable
	// Enclosure returns the container drawn around this object, if any.
	// Enclosed objects are positioned through their container.
	Enclosure() *Container

	core() *base
}

type base struct {
	id      string
	header  string
	content string
	w, h    float64

	x, y   float64
	placed bool
	moves  int

	inDegree  int
	enclosure *Container
}

func (b *base) ID() string { return b.id }
func (b *base) Header() string { return b.header }
func (b *base) Content() string { return b.content }
func (b *base) Size() (float64, float64) { return b.w, b.h }
func (b *base) Position() (float64, float64, bool) { return b.x, b.y, b.placed }
func (b *base) Center() (float64, float64) { return b.x + b.w/2, b.y + b.h/2 }
func (b *base) InDegree() int { return b.inDegree }
func (b *base) Children() []*Variable { return nil }
func (b *base) Enclosure() *Container { return b.enclosure }
func (b *base) core() *base { return b }

func (b *base) SetPosition(x, y float64) {
	if b.placed && b.x == x && b.y == y {
		return
	}
	b.x, b.y, b.placed = x, y, true
	b.moves++
}

// Value is a primitive drawn as a circle. Its content is the adapter's
// rendered literal.
type Value struct {
	base
	shape geometry.Circle
}

func newValue(id, typeName, text string, opts Options) *Value {
	d := opts.CellSize - 2*opts.ValuePadding
	return &Value{
		base:  base{id: id, header: typeName, content: text, w: d, h: d},
		shape: geometry.Circle{W: d, H: d},
	}
}

// Shape implements Exportable.
func (v *Value) Shape() geometry.Shape { return v.shape }

// Placeholder stands in for a subtree whose description was malformed. Its
// content carries the error message.
type Placeholder struct {
	base
	shape geometry.Square
	err   error
}

func newPlaceholder(id string, err error, opts Options) *Placeholder {
	d := opts.CellSize - 2*opts.ValuePadding
	return &Placeholder{
		base:  base{id: id, header: "error", content: err.Error(), w: d, h: d},
		shape: geometry.Square{W: d, H: d},
		err:   err,
	}
}

// Shape implements Exportable.
func (p *Placeholder) Shape() geometry.Shape { return p.shape }

// Err returns the MALFORMED_NODE error that produced the placeholder.
func (p *Placeholder) Err() error { return p.err }
