package pecs

// copyOp describes moving one retained component column's bytes from a
// source archetype to a destination archetype during migration. from/to
// are column indices (not slot numbers) into the two archetypes' columns
// slices.
type copyOp struct {
	from int
	to   int
	size int
}

// transitionEdge caches the destination archetype and precomputed column
// copy list for one structural transition out of a given source
// archetype.
type transitionEdge struct {
	target *archetype
	copies []copyOp
}

// archetypeGraph owns every archetype keyed by its component signature,
// plus memoized add/remove transition edges so repeated structural
// changes along the same path become an O(1) cache lookup after the
// first time they're taken. addEdges and removeEdges are split because
// an (archetype, mask) pair means something different on each side (mask
// to add vs. mask to remove).
type archetypeGraph struct {
	byMask      map[componentMask]*archetype
	all         []*archetype
	addEdges    map[*archetype]map[componentMask]*transitionEdge
	removeEdges map[*archetype]map[componentMask]*transitionEdge
	reg         *componentRegistry
	empty       *archetype

	// gen counts archetype creations. Queries cache their matched-archetype
	// set alongside the gen it was computed at, and recompute only when gen
	// has advanced.
	gen int

	initialCapacity int
}

func newArchetypeGraph(reg *componentRegistry, initialCapacity int) *archetypeGraph {
	g := &archetypeGraph{
		byMask:          make(map[componentMask]*archetype, 32),
		all:             make([]*archetype, 0, 32),
		addEdges:        make(map[*archetype]map[componentMask]*transitionEdge),
		removeEdges:     make(map[*archetype]map[componentMask]*transitionEdge),
		reg:             reg,
		initialCapacity: initialCapacity,
	}
	g.empty = g.findOrCreate(componentMask{})
	return g
}

// findOrCreate returns the archetype for mask, creating it (and its
// column set, derived from the registry's per-slot metadata) if absent.
func (g *archetypeGraph) findOrCreate(mask componentMask) *archetype {
	if a, ok := g.byMask[mask]; ok {
		return a
	}
	var metas []*ComponentMeta
	for _, slot := range mask.slots() {
		metas = append(metas, g.reg.bySlot[slot])
	}
	a := newArchetype(mask, metas, g.initialCapacity)
	a.index = len(g.all)
	g.byMask[mask] = a
	g.all = append(g.all, a)
	g.gen++
	return a
}

// transitionAdd returns the cached (or newly computed) edge for adding
// addMask's components to an entity currently in from. addMask must be
// disjoint from from.mask; callers filter out slots already present
// before reaching here, since those are overwritten in place instead.
func (g *archetypeGraph) transitionAdd(from *archetype, addMask componentMask) *transitionEdge {
	edges, ok := g.addEdges[from]
	if !ok {
		edges = make(map[componentMask]*transitionEdge)
		g.addEdges[from] = edges
	}
	if e, ok := edges[addMask]; ok {
		return e
	}
	target := g.findOrCreate(from.mask.or(addMask))
	e := &transitionEdge{target: target, copies: buildCopies(from, target)}
	edges[addMask] = e
	return e
}

// transitionRemove returns the cached (or newly computed) edge for
// removing removeMask's components from an entity currently in from.
func (g *archetypeGraph) transitionRemove(from *archetype, removeMask componentMask) *transitionEdge {
	edges, ok := g.removeEdges[from]
	if !ok {
		edges = make(map[componentMask]*transitionEdge)
		g.removeEdges[from] = edges
	}
	if e, ok := edges[removeMask]; ok {
		return e
	}
	targetMask := from.mask
	for _, slot := range removeMask.slots() {
		targetMask = targetMask.without(slot)
	}
	target := g.findOrCreate(targetMask)
	e := &transitionEdge{target: target, copies: buildCopies(from, target)}
	edges[removeMask] = e
	return e
}

// buildCopies computes, for every component slot present in both from and
// to, the (from-column, to-column, size) triple needed to carry that
// column's bytes across a migration.
func buildCopies(from, to *archetype) []copyOp {
	var copies []copyOp
	for _, m := range to.metas {
		fromCol := from.columnIndex(m.Slot)
		if fromCol < 0 {
			continue
		}
		toCol := to.columnIndex(m.Slot)
		copies = append(copies, copyOp{from: fromCol, to: toCol, size: int(m.Size)})
	}
	return copies
}

// migrate moves the entity at (from, row) into edge.target, copying every
// retained column's bytes, running destructors on any column that is
// dropped in the process, then swap-removing the vacated source row. It
// returns the entity's new row in edge.target.
//
// The edge is already fully resolved before any byte is touched, so
// there is no partial-migration failure mode: copy retained+added,
// destruct removed, swap-remove source, report the new location so the
// caller can update the identity registry — including the location of
// whichever entity got swapped into the vacated row.
func migrate(from *archetype, row int, edge *transitionEdge) (newRow int, movedIntoOldRow EntityHandle, didMove bool) {
	h := from.entities[row]
	newRow = edge.target.push(h)
	for _, op := range edge.copies {
		size := op.size
		dst := edge.target.columns[op.to][newRow*size : newRow*size+size]
		src := from.columns[op.from][row*size : row*size+size]
		copy(dst, src)
	}
	dropRemovedColumns(from, row, edge.target)
	movedIntoOldRow, didMove = from.swapRemove(row)
	return newRow, movedIntoOldRow, didMove
}

// dropRemovedColumns runs the destructor for every column present in from
// but absent from to, i.e. every component the migration is dropping.
func dropRemovedColumns(from *archetype, row int, to *archetype) {
	for i, m := range from.metas {
		if !m.hasDrop {
			continue
		}
		if to.columnIndex(m.Slot) >= 0 {
			continue
		}
		size := int(m.Size)
		b := from.columns[i][row*size : row*size+size]
		invokeDrop(m, b)
	}
}
