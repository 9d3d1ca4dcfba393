package scene

import (
	"github.com/matzehuels/memviz/pkg/errors"
)

// Frame names used for the two root binding groups.
const (
	FrameGlobals = "globals"
	FrameLocals  = "locals"
)

// Scene is the diagram of one snapshot: its objects in creation order, the
// root frames, and the reference arrows. A Scene owns its identity map; no
// state is shared between scenes.
type Scene struct {
	label    string
	opts     Options
	objects  []Object
	identity map[string]Object
	frames   []*Frame
	refs     []*Reference
	issues   []error

	width, height float64
}

// Label returns the snapshot label, if any.
func (s *Scene) Label() string { return s.label }

// Options returns the options the scene was built with.
func (s *Scene) Options() Options { return s.opts }

// Objects returns the visible objects in creation order. Objects reachable
// only through hidden attributes are not listed.
func (s *Scene) Objects() []Object { return s.objects }

// References returns the arrows in creation order.
func (s *Scene) References() []*Reference { return s.refs }

// Frames returns the root frames: globals, then locals.
func (s *Scene) Frames() []*Frame { return s.frames }

// Frame returns the frame with the given name.
func (s *Scene) Frame(name string) (*Frame, bool) {
	for _, f := range s.frames {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// Variables returns every top-level variable, frame by frame.
func (s *Scene) Variables() []*Variable {
	var out []*Variable
	for _, f := range s.frames {
		out = append(out, f.vars...)
	}
	return out
}

// Lookup returns the object built for a node identity.
func (s *Scene) Lookup(id string) (Object, bool) {
	obj, ok := s.identity[id]
	return obj, ok
}

// Issues returns the MALFORMED_NODE errors recovered during the build.
func (s *Scene) Issues() []error { return s.issues }

// Reorder permutes the slots of the object with the given identity. For a
// container the wrapped collection is reordered. An id that names no object
// but names a frame ("globals", "locals") reorders that frame's bindings.
func (s *Scene) Reorder(id string, perm []int) error {
	obj, ok := s.identity[id]
	if !ok {
		if f, ok := s.Frame(id); ok {
			return f.Reorder(perm)
		}
		return errors.New(errors.ErrCodeInvalidInput, "no object or frame %q", id)
	}
	if ct, ok := obj.(*Container); ok {
		obj = ct.inner
	}
	r, ok := obj.(interface{ Reorder([]int) error })
	if !ok {
		return errors.New(errors.ErrCodeReorderRejected, "object %q has no slots", id)
	}
	return r.Reorder(perm)
}

// SetCanvas records the drawing area, normally the layout grid.
func (s *Scene) SetCanvas(w, h float64) { s.width, s.height = w, h }

// Canvas returns the drawing area. Without an explicit canvas it is the
// bounding box of everything positioned.
func (s *Scene) Canvas() (float64, float64) {
	if s.width > 0 && s.height > 0 {
		return s.width, s.height
	}
	var w, h float64
	for _, obj := range s.objects {
		x, y, ok := obj.Position()
		if !ok {
			continue
		}
		ow, oh := obj.Size()
		w, h = max(w, x+ow), max(h, y+oh)
	}
	for _, v := range s.Variables() {
		if x, y, ok := v.Center(); ok {
			w, h = max(w, x), max(h, y)
		}
	}
	return w, h
}

// Positioned reports the first object or variable that has no position.
// It returns nil when the scene is ready for export.
func (s *Scene) Positioned() error {
	for _, obj := range s.objects {
		if _, _, ok := obj.Position(); !ok {
			return errors.New(errors.ErrCodeExportPrecondition, "object %q has no position", obj.ID())
		}
	}
	for _, v := range s.Variables() {
		if _, _, ok := v.Center(); !ok {
			return errors.New(errors.ErrCodeExportPrecondition, "variable %q has no position", v.name)
		}
	}
	return nil
}

// Slots returns the slot variables drawn inside obj. For a container these
// are the wrapped object's slots.
func Slots(obj Object) []*Variable {
	if ct, ok := obj.(*Container); ok {
		return ct.inner.Children()
	}
	return obj.Children()
}

// SlotOffset returns the centre of slot i relative to the top-left corner
// of obj. It reports false for objects without slots.
func SlotOffset(obj Object, i int) (float64, float64, bool) {
	switch o := obj.(type) {
	case *Container:
		dx, dy, ok := SlotOffset(o.inner, i)
		return dx + o.hmargin, dy + o.vmargin, ok
	case *Namespace:
		return SlotOffset(&o.Collection, i)
	case *Collection:
		return o.hmargin + float64(i)*o.cell + o.cell/2, o.vmargin + o.cell/2, true
	default:
		return 0, 0, false
	}
}
