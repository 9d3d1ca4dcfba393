package scene

import (
	"math"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/geometry"
)

// Variable is a named slot holding one reference. Top-level variables are
// placed by the layout engine; nested ones sit in their owner's slot row.
// Variables are never shared: two bindings to the same object are two
// Variables with the same head.
type Variable struct {
	name   string
	head   Object
	inline string
	isText bool

	owner Object
	coll  *Collection
	index int

	x, y   float64
	placed bool
	moves  int
}

// Name returns the binding, key, or index name. It is empty for elements of
// unordered collections.
func (v *Variable) Name() string { return v.name }

// Head returns the referenced object, or nil when the variable holds inline
// text instead.
func (v *Variable) Head() Object { return v.head }

// Inline returns the slot's inline text when primitives are not drawn.
func (v *Variable) Inline() (string, bool) { return v.inline, v.isText }

// Owner returns the collection or namespace holding the variable, or nil for
// a top-level binding.
func (v *Variable) Owner() Object { return v.owner }

// TopLevel reports whether the variable is a root binding.
func (v *Variable) TopLevel() bool { return v.owner == nil }

// Index returns the slot index within the owner, or the position within the
// frame for top-level variables.
func (v *Variable) Index() int { return v.index }

// Center returns the variable's anchor point. Nested variables derive it
// from their owner and are placed once the owner is.
func (v *Variable) Center() (float64, float64, bool) {
	if v.coll != nil {
		if !v.coll.placed {
			return 0, 0, false
		}
		x, y := v.coll.slotCenter(v.index)
		return x, y, true
	}
	return v.x, v.y, v.placed
}

// SetCenter places a top-level variable. It has no effect on nested
// variables, which follow their owner.
func (v *Variable) SetCenter(x, y float64) {
	if v.coll != nil {
		return
	}
	if v.placed && v.x == x && v.y == y {
		return
	}
	v.x, v.y, v.placed = x, y, true
	v.moves++
}

func (v *Variable) version() int {
	if v.coll != nil {
		return v.coll.moves
	}
	return v.moves
}

// Reference is an arrow from a variable to the object it holds. The head
// end touches the object's outline; both endpoints are cached until either
// end moves.
type Reference struct {
	tail *Variable
	head Object

	valid            bool
	tailVer, headVer int
	tx, ty, hx, hy   float64
}

func newReference(tail *Variable, head Object) *Reference {
	head.core().inDegree++
	return &Reference{tail: tail, head: head}
}

// Tail returns the variable the arrow starts at.
func (r *Reference) Tail() *Variable { return r.tail }

// Head returns the object the arrow points to.
func (r *Reference) Head() Object { return r.head }

// Endpoints returns the arrow's tail point and its head point on the
// target's outline. Both ends must be positioned.
func (r *Reference) Endpoints() (tx, ty, hx, hy float64, err error) {
	tv, hv := r.tail.version(), r.head.core().moves
	if r.valid && tv == r.tailVer && hv == r.headVer {
		return r.tx, r.ty, r.hx, r.hy, nil
	}

	tx, ty, ok := r.tail.Center()
	if !ok {
		return 0, 0, 0, 0, errors.New(errors.ErrCodeExportPrecondition, "variable %q has no position", r.tail.name)
	}
	if _, _, ok := r.head.Position(); !ok {
		return 0, 0, 0, 0, errors.New(errors.ErrCodeExportPrecondition, "object %q has no position", r.head.ID())
	}

	cx, cy := r.head.Center()
	hx, hy, err = EdgeToward(r.head.Shape(), cx, cy, tx, ty)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	r.tx, r.ty, r.hx, r.hy = tx, ty, hx, hy
	r.tailVer, r.headVer, r.valid = tv, hv, true
	return tx, ty, hx, hy, nil
}

// Length returns the Euclidean length of the arrow.
func (r *Reference) Length() (float64, error) {
	tx, ty, hx, hy, err := r.Endpoints()
	if err != nil {
		return 0, err
	}
	return math.Hypot(hx-tx, hy-ty), nil
}

// EdgeToward returns the point on shape, centred at (cx, cy), that faces the
// screen point (tx, ty).
func EdgeToward(shape geometry.Shape, cx, cy, tx, ty float64) (float64, float64, error) {
	angle := math.Atan2(-(ty - cy), tx-cx)
	return shape.EdgePoint(cx, cy, angle)
}

// Frame is a named, ordered group of top-level variables.
type Frame struct {
	name  string
	vars  []*Variable
	fixed bool
}

// Name returns "globals" or "locals".
func (f *Frame) Name() string { return f.name }

// Variables returns the frame's bindings in order.
func (f *Frame) Variables() []*Variable { return f.vars }

// SetReorderable toggles whether Reorder is accepted.
func (f *Frame) SetReorderable(ok bool) { f.fixed = !ok }

// Reorder permutes the frame's bindings.
func (f *Frame) Reorder(perm []int) error {
	if f.fixed {
		return errors.New(errors.ErrCodeReorderRejected, "frame %q is not reorderable", f.name)
	}
	if err := errors.ValidatePermutation(perm, len(f.vars)); err != nil {
		return err
	}
	f.vars = permute(f.vars, perm)
	return nil
}
