package gps

import (
	"math"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/scene"
)

// Options configure the layout grid.
type Options struct {
	CellSize  float64
	GridCells int
}

// DefaultOptions returns a 10×10 grid of 100px cells.
func DefaultOptions() Options {
	return Options{CellSize: 100, GridCells: 10}
}

// Validate rejects grids that cannot hold anything.
func (o Options) Validate() error {
	if o.CellSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cell size must be positive, got %v", o.CellSize)
	}
	if o.GridCells < 2 {
		return errors.New(errors.ErrCodeInvalidConfig, "grid needs at least 2 cells per side, got %d", o.GridCells)
	}
	return nil
}

// =============================================================================
// Layout
// =============================================================================

// Layout positions every object and top-level variable of sc. Placements
// are staged and only written to the scene when the whole layout succeeds,
// so a failed call leaves sc untouched.
//
// The same scene and options always produce the same positions.
func Layout(sc *scene.Scene, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	p := &planner{
		opts:   opts,
		grid:   newGrid(opts.GridCells),
		at:     make(map[scene.Object]cell),
		vars:   make(map[*scene.Variable]cell),
		placed: make(map[scene.Object]bool),
	}
	for _, obj := range sc.Objects() {
		if obj.Enclosure() == nil {
			p.objects = append(p.objects, obj)
		}
	}

	p.edgeValues(sc)
	p.edgeCollections()
	if err := p.remaining(); err != nil {
		return err
	}
	if err := p.freeVariables(sc); err != nil {
		return err
	}

	p.commit(sc)
	return nil
}

type planner struct {
	opts    Options
	grid    *grid
	objects []scene.Object

	order  []scene.Object
	at     map[scene.Object]cell
	placed map[scene.Object]bool

	varOrder []*scene.Variable
	vars     map[*scene.Variable]cell
}

// =============================================================================
// Stages
// =============================================================================

// edgeValues places values held by exactly one top-level variable along the
// spiral, first fit.
func (p *planner) edgeValues(sc *scene.Scene) {
	spiral := p.grid.spiral()
	for _, v := range sc.Variables() {
		val, ok := v.Head().(*scene.Value)
		if !ok || val.InDegree() != 1 || p.placed[val] {
			continue
		}
		rows, cols := p.span(val)
		for _, c := range spiral {
			if p.grid.fits(c, rows, cols) {
				p.place(val, c, rows, cols)
				break
			}
		}
	}
}

// edgeCollections places singly referenced collections in the first row with
// room, then stacks their singly referenced values under the owning slot,
// followed by values with two references.
func (p *planner) edgeCollections() {
	for _, obj := range p.objects {
		if p.placed[obj] || obj.InDegree() != 1 || !hasSlots(obj) {
			continue
		}
		rows, cols := p.span(obj)
		c, ok := p.rowScan(rows, cols)
		if !ok {
			continue
		}
		p.place(obj, c, rows, cols)

		for _, degree := range []int{1, 2} {
			for i, v := range scene.Slots(obj) {
				val, ok := v.Head().(*scene.Value)
				if !ok || val.InDegree() != degree || p.placed[val] {
					continue
				}
				p.stackBelow(obj, c, rows, i, val)
			}
		}
	}
}

// remaining places everything not yet positioned, in directory order.
func (p *planner) remaining() error {
	for _, obj := range p.objects {
		if p.placed[obj] {
			continue
		}
		rows, cols := p.span(obj)
		c, ok := p.rowScan(rows, cols)
		if !ok {
			w, h := obj.Size()
			return errors.New(errors.ErrCodeLayoutOverflow,
				"no room for %q (%vx%v, %dx%d cells) on a %dx%d grid with %d cells used",
				obj.ID(), w, h, cols, rows, p.grid.n, p.grid.n, p.grid.usage())
		}
		p.place(obj, c, rows, cols)
	}
	return nil
}

// freeVariables puts each top-level variable on the border cell that gives
// its arrow the shortest length. Ties keep the earliest cell in scan order.
func (p *planner) freeVariables(sc *scene.Scene) error {
	border := p.grid.border()
	for _, v := range sc.Variables() {
		best, bestLen, found := cell{}, math.Inf(1), false
		for _, c := range border {
			if !p.grid.free(c) {
				continue
			}
			l, err := p.arrowLength(v, c)
			if err != nil {
				return err
			}
			if !found || l < bestLen {
				best, bestLen, found = c, l, true
			}
		}
		if !found {
			return errors.New(errors.ErrCodeLayoutOverflow,
				"no border cell left for variable %q on a %dx%d grid with %d cells used",
				v.Name(), p.grid.n, p.grid.n, p.grid.usage())
		}
		p.grid.mark(best, 1, 1)
		p.vars[v] = best
		p.varOrder = append(p.varOrder, v)
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// span returns the block obj occupies, including the lead-in of slotted
// objects.
func (p *planner) span(obj scene.Object) (int, int) {
	w, h := obj.Size()
	if lead, ok := p.slotLead(obj); ok {
		return span(lead+w, h, p.opts.CellSize)
	}
	return span(w, h, p.opts.CellSize)
}

// slotLead returns how far a slotted object is shifted right inside its
// block so that the centre of its first slot lands on a cell centre. With
// slots one cell wide every slot is then aligned with a grid column.
func (p *planner) slotLead(obj scene.Object) (float64, bool) {
	if len(scene.Slots(obj)) == 0 {
		return 0, false
	}
	dx, _, _ := scene.SlotOffset(obj, 0)
	cs := p.opts.CellSize
	lead := math.Mod(cs/2-dx, cs)
	if lead < 0 {
		lead += cs
	}
	return lead, true
}

// rowScan finds the first interior block of the given span, scanning rows
// from the top and columns from the left.
func (p *planner) rowScan(rows, cols int) (cell, bool) {
	for r := 1; r < p.grid.n; r++ {
		for c := 1; c < p.grid.n; c++ {
			if p.grid.fits(cell{r, c}, rows, cols) {
				return cell{r, c}, true
			}
		}
	}
	return cell{}, false
}

// stackBelow places val in the column holding the centre of slot i of obj,
// in the first free row below obj. Values that do not fit are left for
// later stages.
func (p *planner) stackBelow(obj scene.Object, at cell, rows, i int, val scene.Object) {
	dx, _, ok := scene.SlotOffset(obj, i)
	if !ok {
		return
	}
	x, _ := p.topLeft(obj, at)
	col := int(math.Floor((x + dx) / p.opts.CellSize))

	vr, vc := p.span(val)
	for r := at.row + rows; r < p.grid.n; r++ {
		c := cell{r, col}
		if p.grid.fits(c, vr, vc) {
			p.place(val, c, vr, vc)
			return
		}
	}
}

func (p *planner) place(obj scene.Object, c cell, rows, cols int) {
	p.grid.mark(c, rows, cols)
	p.at[obj] = c
	p.placed[obj] = true
	p.order = append(p.order, obj)
}

// topLeft returns the position of obj in the block that starts at c.
// Objects are centred vertically; horizontally they are centred unless they
// have slots, which are aligned with the grid columns instead.
func (p *planner) topLeft(obj scene.Object, c cell) (float64, float64) {
	cs := p.opts.CellSize
	w, h := obj.Size()
	rows, cols := p.span(obj)
	y := float64(c.row)*cs + (float64(rows)*cs-h)/2
	if lead, ok := p.slotLead(obj); ok {
		return float64(c.col)*cs + lead, y
	}
	return float64(c.col)*cs + (float64(cols)*cs-w)/2, y
}

func (p *planner) cellCenter(c cell) (float64, float64) {
	cs := p.opts.CellSize
	return float64(c.col)*cs + cs/2, float64(c.row)*cs + cs/2
}

// arrowLength measures the arrow from a variable at c to its staged head.
func (p *planner) arrowLength(v *scene.Variable, c cell) (float64, error) {
	head := v.Head()
	if head == nil {
		return 0, nil
	}
	at, ok := p.at[head]
	if !ok {
		return 0, errors.New(errors.ErrCodeInternal, "head %q of %q was not placed", head.ID(), v.Name())
	}
	tx, ty := p.cellCenter(c)
	x, y := p.topLeft(head, at)
	w, h := head.Size()
	hx, hy, err := scene.EdgeToward(head.Shape(), x+w/2, y+h/2, tx, ty)
	if err != nil {
		return 0, err
	}
	return math.Hypot(hx-tx, hy-ty), nil
}

func (p *planner) commit(sc *scene.Scene) {
	for _, obj := range p.order {
		obj.SetPosition(p.topLeft(obj, p.at[obj]))
	}
	for _, v := range p.varOrder {
		v.SetCenter(p.cellCenter(p.vars[v]))
	}
	n := float64(p.opts.GridCells)
	sc.SetCanvas(n*p.opts.CellSize, n*p.opts.CellSize)
}

func hasSlots(obj scene.Object) bool {
	_, _, ok := scene.SlotOffset(obj, 0)
	return ok
}
