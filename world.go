package pecs

import (
	"reflect"
	"sync"
	"unsafe"

	"go.uber.org/zap"
)

// WorldConfig configures a new World.
type WorldConfig struct {
	// InitialCapacity hints the starting row capacity for newly created
	// archetypes, amortizing the first few spawns' slice growth.
	InitialCapacity int

	// Logger receives persistence codec diagnostics; structural changes
	// are not logged. A nil Logger falls back to the process-wide
	// Config logger, or to zap.NewNop() if none is set, so constructing a
	// World never requires a caller to wire up logging first.
	Logger *zap.Logger
}

const defaultInitialCapacity = 8

// World is the single entry point bundling the identity registry,
// component registry, and archetype graph behind one mutex discipline.
// Despawn is synchronous — it takes effect immediately rather than at
// an end-of-frame flush point — and a sync.RWMutex gives single-writer,
// many-readers access described in doc.go.
type World struct {
	mu sync.RWMutex

	identity   *identityRegistry
	components *componentRegistry
	graph      *archetypeGraph
	logger     *zap.Logger

	initialCapacity int
}

// NewWorld constructs an empty World ready to register components and
// spawn entities into.
func NewWorld(cfg WorldConfig) *World {
	cap := Config.resolveInitialCapacity(cfg.InitialCapacity)
	logger := Config.resolveLogger(cfg.Logger)
	reg := newComponentRegistry()
	w := &World{
		identity:        newIdentityRegistry(),
		components:      reg,
		graph:           newArchetypeGraph(reg, cap),
		logger:          logger,
		initialCapacity: cap,
	}
	return w
}

// Len returns the number of currently live entities.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.identity.count()
}

// IsAlive reports whether h still refers to a live entity.
func (w *World) IsAlive(h EntityHandle) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.identity.isAlive(h)
}

// StableIdOf returns the StableId bound to a live handle.
func (w *World) StableIdOf(h EntityHandle) (StableId, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.identity.stableOf(h)
	if !ok {
		return NilStableId, &InvalidHandleError{Handle: h}
	}
	return id, nil
}

// Resolve returns the live EntityHandle currently mapped to id, if one
// exists.
func (w *World) Resolve(id StableId) (EntityHandle, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.identity.lookupStable(id)
}

// Spawn creates a new entity with no components, placed in the empty
// archetype, and returns its handle.
func (w *World) Spawn() EntityHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	row := w.graph.empty.push(0)
	h, _ := w.identity.allocate(EntityLocation{Archetype: w.graph.empty.index, Row: row})
	w.graph.empty.entities[row] = h
	return h
}

// SpawnWithStableId creates a new entity bound to a caller-supplied
// StableId, failing with DuplicateStableIdError if that id is already in
// use by a live entity.
func (w *World) SpawnWithStableId(id StableId) (EntityHandle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.identity.lookupStable(id); ok {
		return 0, &DuplicateStableIdError{StableId: id}
	}
	row := w.graph.empty.push(0)
	h, _ := w.identity.allocateWith(EntityLocation{Archetype: w.graph.empty.index, Row: row}, id)
	w.graph.empty.entities[row] = h
	return h, nil
}

// Despawn destroys an entity immediately: every remaining component's
// destructor (if any) runs, the archetype row is swap-removed, the
// identity registry slot is freed with a bumped generation, and any
// entity that was swap-moved into the vacated row has its recorded
// location updated. The effect is observable by the very next
// operation — there is no deferred or batched removal. Despawning a
// handle that is already dead or was never valid is a no-op that
// reports false rather than an error: despawn is idempotent.
func (w *World) Despawn(h EntityHandle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	loc, ok := w.identity.resolve(h)
	if !ok {
		return false
	}
	a := w.graph.all[loc.Archetype]
	a.dropRow(loc.Row)
	moved, didMove := a.swapRemove(loc.Row)
	if didMove {
		w.identity.updateLocation(moved, EntityLocation{Archetype: loc.Archetype, Row: loc.Row})
	}
	w.identity.release(h)
	return true
}

// has reports whether the live entity at h currently carries component T.
func has[T any](w *World, h EntityHandle) bool {
	meta, ok := componentIdOf[T](w)
	if !ok {
		return false
	}
	loc, ok := w.identity.resolve(h)
	if !ok {
		return false
	}
	return w.graph.all[loc.Archetype].mask.has(meta.Slot)
}

// Has reports whether the live entity at h currently carries component T.
func Has[T any](w *World, h EntityHandle) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return has[T](w, h)
}

// Get returns a pointer to entity h's T component. The pointer is valid
// only until the next structural change to h's archetype (an insert,
// remove, or despawn of any entity that triggers a migration or
// swap-remove touching this archetype); callers needing a stable value
// should copy it out immediately.
func Get[T any](w *World, h EntityHandle) (*T, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	meta, ok := componentIdOf[T](w)
	if !ok {
		var zero T
		return nil, &UnknownComponentTypeError{TypeId: componentTypeIdFor(reflect.TypeOf(zero))}
	}
	loc, ok := w.identity.resolve(h)
	if !ok {
		return nil, &InvalidHandleError{Handle: h}
	}
	a := w.graph.all[loc.Archetype]
	if !a.mask.has(meta.Slot) {
		return nil, &UnknownComponentTypeError{TypeId: meta.TypeId}
	}
	return (*T)(a.componentPtr(loc.Row, meta.Slot)), nil
}

// Insert adds or overwrites entity h's T component, migrating it to the
// archetype with T added if it doesn't already carry T. If it already
// does, T's destructor (if any) runs on the old value before the new
// value is written in place, and no migration happens.
func Insert[T any](w *World, h EntityHandle, value T) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	meta, ok := componentIdOf[T](w)
	if !ok {
		var err error
		meta, err = RegisterComponent[T](w)
		if err != nil {
			return err
		}
	}
	loc, ok := w.identity.resolve(h)
	if !ok {
		return &InvalidHandleError{Handle: h}
	}
	src := w.graph.all[loc.Archetype]
	if src.mask.has(meta.Slot) {
		if meta.hasDrop {
			b := src.bytesOf(loc.Row, meta.Slot)
			invokeDrop(meta, b)
		}
		ptr := src.componentPtr(loc.Row, meta.Slot)
		*(*T)(ptr) = value
		return nil
	}
	edge := w.graph.transitionAdd(src, maskOf(meta.Slot))
	newRow, moved, didMove := migrate(src, loc.Row, edge)
	if didMove {
		w.identity.updateLocation(moved, loc)
	}
	newLoc := EntityLocation{Archetype: edge.target.index, Row: newRow}
	w.identity.updateLocation(h, newLoc)
	*(*T)(edge.target.componentPtr(newRow, meta.Slot)) = value
	return nil
}

// Remove drops entity h's T component, migrating it to the archetype
// without T, and returns the value it carried just before removal — the
// bytes are copied out before the migration's destructor runs, so the
// returned value is byte-identical to whatever was last inserted or
// decoded, even for types with a Drop method. The second return reports
// whether T was actually present; both the value and ok are zero/false
// if h doesn't carry T or T was never registered, and an error is only
// returned for an invalid handle.
func Remove[T any](w *World, h EntityHandle) (T, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var zero T
	meta, ok := componentIdOf[T](w)
	if !ok {
		return zero, false, nil
	}
	loc, ok := w.identity.resolve(h)
	if !ok {
		return zero, false, &InvalidHandleError{Handle: h}
	}
	src := w.graph.all[loc.Archetype]
	if !src.mask.has(meta.Slot) {
		return zero, false, nil
	}
	removed := *(*T)(src.componentPtr(loc.Row, meta.Slot))
	edge := w.graph.transitionRemove(src, maskOf(meta.Slot))
	newRow, moved, didMove := migrate(src, loc.Row, edge)
	if didMove {
		w.identity.updateLocation(moved, loc)
	}
	w.identity.updateLocation(h, EntityLocation{Archetype: edge.target.index, Row: newRow})
	return removed, true, nil
}

// spawnFromBundle places a freshly allocated entity directly into the
// archetype matching the bundle's component set, writing every staged
// component's bytes in one shot rather than spawning empty and then
// inserting component-by-component — this is what keeps SpawnBundleN to
// exactly one archetype write.
func spawnFromBundle(w *World, b *bundle) EntityHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	target := w.graph.findOrCreate(b.mask())
	row := target.push(0)
	b.writeInto(target, row)
	h, _ := w.identity.allocate(EntityLocation{Archetype: target.index, Row: row})
	target.entities[row] = h
	return h
}

// insertFromBundle applies every component in b to a live entity. A
// bundle component type the entity already carries is overwritten in
// place — its destructor (if any) runs on the old value first, exactly
// as Insert does for a single type — with no migration involved. Every
// bundle component type the entity does not yet carry is batched into
// one migration, so a bundle mixing overwrites and genuinely new types
// still costs at most one structural change.
func insertFromBundle(w *World, h EntityHandle, b *bundle) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	loc, ok := w.identity.resolve(h)
	if !ok {
		return &InvalidHandleError{Handle: h}
	}
	src := w.graph.all[loc.Archetype]

	var newMask componentMask
	for _, meta := range b.metas {
		if src.mask.has(meta.Slot) {
			continue
		}
		newMask = newMask.with(meta.Slot)
	}
	for i, meta := range b.metas {
		if !src.mask.has(meta.Slot) {
			continue
		}
		if meta.hasDrop {
			invokeDrop(meta, src.bytesOf(loc.Row, meta.Slot))
		}
		size := int(meta.Size)
		dst := unsafe.Slice((*byte)(src.componentPtr(loc.Row, meta.Slot)), size)
		srcBytes := unsafe.Slice((*byte)(b.ptrs[i]), size)
		copy(dst, srcBytes)
	}

	if newMask.isZero() {
		return nil
	}

	edge := w.graph.transitionAdd(src, newMask)
	newRow, moved, didMove := migrate(src, loc.Row, edge)
	if didMove {
		w.identity.updateLocation(moved, loc)
	}
	w.identity.updateLocation(h, EntityLocation{Archetype: edge.target.index, Row: newRow})
	for i, meta := range b.metas {
		if !newMask.has(meta.Slot) {
			continue
		}
		col := edge.target.columnIndex(meta.Slot)
		size := int(meta.Size)
		dst := edge.target.columns[col][newRow*size : newRow*size+size]
		srcBytes := unsafe.Slice((*byte)(b.ptrs[i]), size)
		copy(dst, srcBytes)
	}
	return nil
}
