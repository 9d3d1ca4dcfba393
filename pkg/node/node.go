package node

// Kind is the closed set of node description variants an introspection
// adapter may emit.
type Kind string

const (
	// KindPrimitive is a scalar whose Text is already rendered by the adapter
	// (quoting and number formatting included).
	KindPrimitive Kind = "primitive"
	// KindOrderedSequence is an index-addressed collection (list, tuple).
	KindOrderedSequence Kind = "ordered"
	// KindUnorderedSequence is a collection without element names (set).
	KindUnorderedSequence Kind = "unordered"
	// KindMapping is a key/value collection in insertion order (dict).
	KindMapping Kind = "mapping"
	// KindAttributeMapping is an object's attribute set (instance __dict__,
	// module namespace).
	KindAttributeMapping Kind = "attributes"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPrimitive, KindOrderedSequence, KindUnorderedSequence, KindMapping, KindAttributeMapping:
		return true
	}
	return false
}

// Keyed reports whether children of this kind are stored as Entries.
func (k Kind) Keyed() bool {
	return k == KindMapping || k == KindAttributeMapping
}

// Node is one value in a snapshot description. Nodes are immutable once
// decoded; the scene builder never modifies them.
//
// A node whose ID already appeared earlier in the same snapshot may be a
// bare stub carrying only the ID. This is how adapters express aliasing and
// cycles in a finite tree.
type Node struct {
	ID       string  `json:"id" yaml:"id" msgpack:"id"`
	Kind     Kind    `json:"kind,omitempty" yaml:"kind,omitempty" msgpack:"kind,omitempty"`
	TypeName string  `json:"type,omitempty" yaml:"type,omitempty" msgpack:"type,omitempty"`
	Text     string  `json:"text,omitempty" yaml:"text,omitempty" msgpack:"text,omitempty"`
	Items    []*Node `json:"items,omitempty" yaml:"items,omitempty" msgpack:"items,omitempty"`
	Entries  []Entry `json:"entries,omitempty" yaml:"entries,omitempty" msgpack:"entries,omitempty"`

	// Object marks a node that stands for an object instance rather than a
	// bare language collection. Such nodes are drawn inside a container
	// headed by TypeName.
	Object bool `json:"object,omitempty" yaml:"object,omitempty" msgpack:"object,omitempty"`
}

// Entry is one key/value pair of a Mapping or AttributeMapping.
type Entry struct {
	Key   string `json:"key" yaml:"key" msgpack:"key"`
	Value *Node  `json:"value" yaml:"value" msgpack:"value"`
}

// Len returns the number of children of n.
func (n *Node) Len() int {
	if n.Kind.Keyed() {
		return len(n.Entries)
	}
	return len(n.Items)
}

// Binding names a root value in a frame.
type Binding struct {
	Name  string `json:"name" yaml:"name" msgpack:"name"`
	Value *Node  `json:"value" yaml:"value" msgpack:"value"`
}

// Snapshot is the state of a program at one checkpoint: the globals-like and
// locals-like root bindings, each in binding order.
type Snapshot struct {
	Label   string    `json:"label,omitempty" yaml:"label,omitempty" msgpack:"label,omitempty"`
	Globals []Binding `json:"globals,omitempty" yaml:"globals,omitempty" msgpack:"globals,omitempty"`
	Locals  []Binding `json:"locals,omitempty" yaml:"locals,omitempty" msgpack:"locals,omitempty"`
}

// Trace is an ordered sequence of snapshots, one per execution checkpoint.
type Trace struct {
	Checkpoints []Snapshot `json:"checkpoints" yaml:"checkpoints" msgpack:"checkpoints"`
}

// Primitive is a convenience constructor used by adapters and tests.
func Primitive(id, typeName, text string) *Node {
	return &Node{ID: id, Kind: KindPrimitive, TypeName: typeName, Text: text}
}

// Sequence builds an ordered sequence node.
func Sequence(id, typeName string, items ...*Node) *Node {
	return &Node{ID: id, Kind: KindOrderedSequence, TypeName: typeName, Items: items}
}

// Set builds an unordered sequence node.
func Set(id, typeName string, items ...*Node) *Node {
	return &Node{ID: id, Kind: KindUnorderedSequence, TypeName: typeName, Items: items}
}

// Mapping builds a mapping node with entries in the given order.
func Mapping(id, typeName string, entries ...Entry) *Node {
	return &Node{ID: id, Kind: KindMapping, TypeName: typeName, Entries: entries}
}

// Attributes builds an attribute mapping node.
func Attributes(id, typeName string, object bool, entries ...Entry) *Node {
	return &Node{ID: id, Kind: KindAttributeMapping, TypeName: typeName, Entries: entries, Object: object}
}

// Ref builds a stub that refers back to an already described identity.
func Ref(id string) *Node {
	return &Node{ID: id}
}
