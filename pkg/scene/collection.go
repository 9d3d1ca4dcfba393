package scene

import (
	"strings"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/geometry"
	"github.com/matzehuels/memviz/pkg/node"
)

// Collection is a sequence or mapping drawn as a rounded row of slots, one
// per child Variable.
type Collection struct {
	base
	kind  node.Kind
	shape geometry.Shape
	vars  []*Variable

	hmargin, vmargin, cell float64
}

func newCollection(id, typeName string, kind node.Kind, slots int, opts Options) (*Collection, error) {
	w, h := collectionSize(slots, opts)
	rr, err := geometry.NewRoundedRect(w, h, opts.CornerRadius)
	if err != nil {
		return nil, err
	}
	return &Collection{
		base:    base{id: id, header: typeName, w: w, h: h},
		kind:    kind,
		shape:   rr,
		hmargin: opts.CollectionHMargin,
		vmargin: opts.CollectionVMargin,
		cell:    opts.CellSize,
	}, nil
}

func collectionSize(slots int, opts Options) (float64, float64) {
	n := max(slots, 1)
	return 2*opts.CollectionHMargin + opts.CellSize*float64(n), 2*opts.CollectionVMargin + opts.CellSize
}

// Shape implements Exportable.
func (c *Collection) Shape() geometry.Shape { return c.shape }

// Kind returns the node kind the collection was built from.
func (c *Collection) Kind() node.Kind { return c.kind }

// Children implements Object.
func (c *Collection) Children() []*Variable { return c.vars }

// Content lists inline primitives when primitives are not drawn as shapes.
func (c *Collection) Content() string {
	var parts []string
	for _, v := range c.vars {
		text, ok := v.Inline()
		if !ok {
			continue
		}
		if v.name != "" {
			text = v.name + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, ", ")
}

// Reorderable reports whether Reorder is allowed. Index-addressed sequences
// keep their order since slot names are positions.
func (c *Collection) Reorderable() bool {
	return c.kind != node.KindOrderedSequence
}

// Reorder permutes the slots: slot i becomes the former slot perm[i].
func (c *Collection) Reorder(perm []int) error {
	if !c.Reorderable() {
		return errors.New(errors.ErrCodeReorderRejected, "%s %q keeps index order", c.kind, c.id)
	}
	if err := errors.ValidatePermutation(perm, len(c.vars)); err != nil {
		return err
	}
	c.vars = permute(c.vars, perm)
	// Slot centres derive from the index, so every outgoing arrow moved.
	c.moves++
	return nil
}

// slotCenter returns the centre of slot i given the collection's position.
func (c *Collection) slotCenter(i int) (float64, float64) {
	dx, dy, _ := SlotOffset(c, i)
	return c.x + dx, c.y + dy
}

// Namespace is an attribute mapping. It lays out like a collection but is
// drawn square.
type Namespace struct {
	Collection
	hidden []string
}

// Hidden returns the attribute names suppressed by the blacklist.
func (n *Namespace) Hidden() []string { return n.hidden }

// Reorderable implements reordering; attribute order is presentational.
func (n *Namespace) Reorderable() bool { return true }

// Reorder permutes the visible attributes.
func (n *Namespace) Reorder(perm []int) error {
	if err := errors.ValidatePermutation(perm, len(n.vars)); err != nil {
		return err
	}
	n.vars = permute(n.vars, perm)
	n.moves++
	return nil
}

func newNamespace(id, typeName string, slots int, opts Options) *Namespace {
	w, h := collectionSize(slots, opts)
	return &Namespace{Collection: Collection{
		base:    base{id: id, header: typeName, w: w, h: h},
		kind:    node.KindAttributeMapping,
		shape:   geometry.Square{W: w, H: h},
		hmargin: opts.CollectionHMargin,
		vmargin: opts.CollectionVMargin,
		cell:    opts.CellSize,
	}}
}

// Container frames an object instance: the instance's collection or
// namespace is drawn inside with the container margins, under the
// instance's type name.
type Container struct {
	base
	inner            Object
	shape            *geometry.RoundedRect
	hmargin, vmargin float64
}

func newContainer(id, typeName string, inner Object, opts Options) (*Container, error) {
	iw, ih := inner.Size()
	w, h := iw+2*opts.ContainerHMargin, ih+2*opts.ContainerVMargin
	rr, err := geometry.NewRoundedRect(w, h, opts.CornerRadius)
	if err != nil {
		return nil, err
	}
	ct := &Container{
		base:    base{id: id, header: typeName, w: w, h: h},
		inner:   inner,
		shape:   rr,
		hmargin: opts.ContainerHMargin,
		vmargin: opts.ContainerVMargin,
	}
	inner.core().enclosure = ct
	return ct, nil
}

// Shape implements Exportable.
func (ct *Container) Shape() geometry.Shape { return ct.shape }

// Inner returns the wrapped collection or namespace.
func (ct *Container) Inner() Object { return ct.inner }

// SetPosition moves the container and the object inside it.
func (ct *Container) SetPosition(x, y float64) {
	ct.base.SetPosition(x, y)
	ct.inner.SetPosition(x+ct.hmargin, y+ct.vmargin)
}

func permute(vars []*Variable, perm []int) []*Variable {
	out := make([]*Variable, len(vars))
	for i, p := range perm {
		out[i] = vars[p]
		out[i].index = i
	}
	return out
}
