package scene

import (
	"github.com/matzehuels/memviz/pkg/errors"
)

// DefaultBlacklist lists attribute names hidden from namespaces unless
// Options.ShowInternal is set.
var DefaultBlacklist = []string{"__dict__", "__weakref__", "__module__", "__doc__", "__class__"}

// Options control object sizing and what the builder exposes.
type Options struct {
	// CellSize is the side of one layout grid cell. Collections are sized in
	// whole cells so their slots line up with the grid.
	CellSize float64

	CollectionHMargin float64
	CollectionVMargin float64
	ContainerHMargin  float64
	ContainerVMargin  float64

	// CornerRadius is applied to collections and containers.
	CornerRadius float64
	// ValuePadding shrinks a value's circle inside its cell.
	ValuePadding float64

	// ShowInternal disables the namespace blacklist.
	ShowInternal bool
	// PrimitiveEra draws primitives as their own shapes. When false,
	// primitives nested in a collection become inline text on the slot.
	PrimitiveEra bool

	// Blacklist names attributes hidden from namespaces. Nil means
	// DefaultBlacklist; an empty non-nil slice hides nothing.
	Blacklist []string

	// FixedFrames names frames ("globals", "locals") whose binding order
	// may not be changed by Reorder.
	FixedFrames []string
}

// DefaultOptions returns the stock sizing.
func DefaultOptions() Options {
	return Options{
		CellSize:          100,
		CollectionHMargin: 10,
		CollectionVMargin: 10,
		ContainerHMargin:  10,
		ContainerVMargin:  10,
		CornerRadius:      10,
		ValuePadding:      10,
		PrimitiveEra:      true,
	}
}

// Validate reports option combinations that cannot produce valid shapes.
func (o Options) Validate() error {
	switch {
	case o.CellSize <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "cell size must be positive, got %v", o.CellSize)
	case o.CollectionHMargin < 0 || o.CollectionVMargin < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "collection margins must not be negative")
	case o.ContainerHMargin < 0 || o.ContainerVMargin < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "container margins must not be negative")
	case o.CornerRadius < 0 || 2*o.CornerRadius >= o.CellSize:
		return errors.New(errors.ErrCodeInvalidConfig, "corner radius %v must be in [0, %v)", o.CornerRadius, o.CellSize/2)
	case o.ValuePadding < 0 || 2*o.ValuePadding >= o.CellSize:
		return errors.New(errors.ErrCodeInvalidConfig, "value padding %v must be in [0, %v)", o.ValuePadding, o.CellSize/2)
	}
	return nil
}

func (o Options) blacklist() map[string]bool {
	names := o.Blacklist
	if names == nil {
		names = DefaultBlacklist
	}
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
