package scene

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/node"
)

// Builder turns snapshots into scenes. A Builder holds only options and may
// be shared; every Build call gets its own identity map.
type Builder struct {
	opts Options
}

// NewBuilder returns a builder for the given options.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build converts a snapshot into an unpositioned scene.
//
// Node identities are resolved through a map created for this call, so
// aliases and cycles in the snapshot become shared objects in the scene.
// Malformed nodes are replaced by placeholders and reported through
// Scene.Issues; Build itself fails only on invalid options.
func (b *Builder) Build(s node.Snapshot) (*Scene, error) {
	if err := b.opts.Validate(); err != nil {
		return nil, err
	}

	st := &state{
		opts:      b.opts,
		blacklist: b.opts.blacklist(),
		identity:  make(map[string]Object),
		inline:    make(map[string]*node.Node),
	}

	frames := []*Frame{
		st.frame(FrameGlobals, s.Globals),
		st.frame(FrameLocals, s.Locals),
	}
	if st.err != nil {
		return nil, st.err
	}
	st.nameSynthetic()

	sc := &Scene{
		label:    s.Label,
		opts:     b.opts,
		identity: st.identity,
		frames:   frames,
		issues:   st.issues,
	}
	sc.objects, sc.refs = st.connect(frames)
	return sc, nil
}

// Build is a shorthand for NewBuilder(opts).Build(s).
func Build(s node.Snapshot, opts Options) (*Scene, error) {
	return NewBuilder(opts).Build(s)
}

type state struct {
	opts      Options
	blacklist map[string]bool
	identity  map[string]Object
	inline    map[string]*node.Node
	created   []Object
	issues    []error
	anonymous int
	synthetic []synthetic
	err       error
}

// synthetic is an object whose identity the builder makes up: the wrapped
// collection of a container, or a placeholder for a node without identity.
type synthetic struct {
	obj  Object
	base string
}

func (st *state) frame(name string, bindings []node.Binding) *Frame {
	f := &Frame{name: name}
	f.SetReorderable(!slices.Contains(st.opts.FixedFrames, name))
	for _, bnd := range bindings {
		path := name + "." + bnd.Name
		if err := errors.ValidateBindingName(bnd.Name); err != nil {
			st.issues = append(st.issues, errors.Wrap(errors.ErrCodeMalformedNode, err, "%s: binding skipped", name))
			continue
		}
		v := &Variable{name: bnd.Name, index: len(f.vars)}
		v.head = st.resolve(bnd.Value, path)
		f.vars = append(f.vars, v)
	}
	return f
}

// resolve returns the object for n, building it on first sight.
func (st *state) resolve(n *node.Node, path string) Object {
	if n == nil {
		return st.malformed("", path, "missing node")
	}
	if err := errors.ValidateIdentity(n.ID); err != nil {
		return st.malformed("", path, errors.UserMessage(err))
	}
	if obj, ok := st.identity[n.ID]; ok {
		return obj
	}
	if n.Kind == "" {
		// A stub for a primitive that was only seen inline so far.
		if full, ok := st.inline[n.ID]; ok {
			n = full
		}
	}
	if reason := shapeProblem(n); reason != "" {
		return st.malformed(n.ID, path, reason)
	}

	switch n.Kind {
	case node.KindPrimitive:
		v := newValue(n.ID, n.TypeName, n.Text, st.opts)
		st.register(n.ID, v)
		return v
	case node.KindOrderedSequence, node.KindUnorderedSequence, node.KindMapping:
		return st.collection(n, path)
	case node.KindAttributeMapping:
		return st.namespace(n, path)
	default:
		return st.malformed(n.ID, path, fmt.Sprintf("unrecognized kind %q", n.Kind))
	}
}

// shapeProblem describes why n cannot be built, or returns "".
func shapeProblem(n *node.Node) string {
	switch n.Kind {
	case "":
		return "stub for an identity not described earlier"
	case node.KindPrimitive:
		if len(n.Items) > 0 || len(n.Entries) > 0 {
			return "primitive with children"
		}
	case node.KindOrderedSequence, node.KindUnorderedSequence:
		if len(n.Entries) > 0 {
			return fmt.Sprintf("%s with keyed entries", n.Kind)
		}
	case node.KindMapping:
		if len(n.Items) > 0 {
			return "mapping with positional items"
		}
	case node.KindAttributeMapping:
		if len(n.Items) > 0 {
			return "attribute mapping with positional items"
		}
		for i, e := range n.Entries {
			if e.Key == "" {
				return fmt.Sprintf("attribute %d has an empty name", i)
			}
		}
	default:
		return fmt.Sprintf("unrecognized kind %q", n.Kind)
	}
	return ""
}

func (st *state) collection(n *node.Node, path string) Object {
	c, err := newCollection(n.ID, n.TypeName, n.Kind, n.Len(), st.opts)
	if err != nil {
		st.fail(err)
		return st.malformed(n.ID, path, errors.UserMessage(err))
	}
	outer := st.wrap(n, c)

	if n.Kind.Keyed() {
		for _, e := range n.Entries {
			c.vars = append(c.vars, st.slot(c, c, e.Key, e.Value, path+"["+e.Key+"]"))
		}
	} else {
		for i, item := range n.Items {
			name := ""
			if n.Kind == node.KindOrderedSequence {
				name = strconv.Itoa(i)
			}
			c.vars = append(c.vars, st.slot(c, c, name, item, path+"["+strconv.Itoa(i)+"]"))
		}
	}
	return outer
}

func (st *state) namespace(n *node.Node, path string) Object {
	var visible []node.Entry
	var hidden []string
	for _, e := range n.Entries {
		if st.blacklist[e.Key] && !st.opts.ShowInternal {
			hidden = append(hidden, e.Key)
			continue
		}
		visible = append(visible, e)
	}

	ns := newNamespace(n.ID, n.TypeName, len(visible), st.opts)
	ns.hidden = hidden
	outer := st.wrap(n, ns)

	for _, e := range n.Entries {
		if st.blacklist[e.Key] && !st.opts.ShowInternal {
			// Resolved for identity only; no slot, no arrow.
			st.resolve(e.Value, path+"."+e.Key)
			continue
		}
		ns.vars = append(ns.vars, st.slot(&ns.Collection, ns, e.Key, e.Value, path+"."+e.Key))
	}
	return outer
}

// wrap registers obj under n's identity, inside a container for object
// instances. The container is registered first so references land on it.
func (st *state) wrap(n *node.Node, obj Object) Object {
	if !n.Object {
		st.register(n.ID, obj)
		return obj
	}
	ct, err := newContainer(n.ID, n.TypeName, obj, st.opts)
	if err != nil {
		st.fail(err)
		st.register(n.ID, obj)
		return obj
	}
	st.synthetic = append(st.synthetic, synthetic{obj, n.ID + ":inner"})
	obj.core().header = ""
	st.register(n.ID, ct)
	st.created = append(st.created, obj)
	return ct
}

func (st *state) slot(owner *Collection, ownerObj Object, name string, child *node.Node, path string) *Variable {
	v := &Variable{name: name, owner: ownerObj, coll: owner, index: len(owner.vars)}
	if !st.opts.PrimitiveEra {
		if text, ok := st.inlineText(child); ok {
			v.inline, v.isText = text, true
			return v
		}
	}
	v.head = st.resolve(child, path)
	return v
}

// inlineText returns the text of a primitive child drawn inline.
func (st *state) inlineText(n *node.Node) (string, bool) {
	if n == nil || errors.ValidateIdentity(n.ID) != nil {
		return "", false
	}
	if obj, ok := st.identity[n.ID]; ok {
		if v, ok := obj.(*Value); ok {
			return v.content, true
		}
		return "", false
	}
	if full, ok := st.inline[n.ID]; ok && n.Kind == "" {
		return full.Text, true
	}
	if n.Kind == node.KindPrimitive && shapeProblem(n) == "" {
		st.inline[n.ID] = n
		return n.Text, true
	}
	return "", false
}

func (st *state) register(id string, obj Object) {
	st.identity[id] = obj
	st.created = append(st.created, obj)
}

func (st *state) malformed(id, path, reason string) Object {
	err := errors.New(errors.ErrCodeMalformedNode, "%s: %s", path, reason)
	if id != "" {
		err = errors.New(errors.ErrCodeMalformedNode, "%s (identity %q): %s", path, id, reason)
	}
	st.issues = append(st.issues, err)

	pid := id
	if pid == "" {
		st.anonymous++
		pid = "malformed-" + strconv.Itoa(st.anonymous)
	}
	p := newPlaceholder(pid, err, st.opts)
	if id != "" {
		st.register(id, p)
	} else {
		st.synthetic = append(st.synthetic, synthetic{p, pid})
		st.created = append(st.created, p)
	}
	return p
}

// nameSynthetic gives every made-up identity its final value once all
// snapshot identities are known. A name an adapter already uses gets a
// "~N" suffix.
func (st *state) nameSynthetic() {
	taken := make(map[string]bool, len(st.synthetic))
	for _, s := range st.synthetic {
		id := s.base
		for n := 2; st.identity[id] != nil || st.inline[id] != nil || taken[id]; n++ {
			id = s.base + "~" + strconv.Itoa(n)
		}
		taken[id] = true
		s.obj.core().id = id
	}
}

func (st *state) fail(err error) {
	if st.err == nil {
		st.err = errors.Wrap(errors.ErrCodeInternal, err, "build shape")
	}
}

// connect collects the objects reachable from the frames and creates one
// reference per visible slot. Objects seen only through hidden attributes
// are dropped from the directory.
func (st *state) connect(frames []*Frame) ([]Object, []*Reference) {
	seen := make(map[Object]bool)
	var visit func(Object)
	visit = func(obj Object) {
		if obj == nil || seen[obj] {
			return
		}
		seen[obj] = true
		if ct, ok := obj.(*Container); ok {
			visit(ct.inner)
		}
		for _, v := range obj.Children() {
			visit(v.head)
		}
	}
	for _, f := range frames {
		for _, v := range f.vars {
			visit(v.head)
		}
	}

	objects := make([]Object, 0, len(seen))
	for _, obj := range st.created {
		if seen[obj] {
			objects = append(objects, obj)
		}
	}

	var refs []*Reference
	for _, f := range frames {
		for _, v := range f.vars {
			if v.head != nil {
				refs = append(refs, newReference(v, v.head))
			}
		}
	}
	for _, obj := range objects {
		for _, v := range obj.Children() {
			if v.head != nil {
				refs = append(refs, newReference(v, v.head))
			}
		}
	}
	return objects, refs
}
