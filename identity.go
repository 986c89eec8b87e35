package pecs

import "github.com/kamstrup/intmap"

// identityRegistry owns the mapping from EntityHandle to EntityLocation,
// the generation counters that detect stale handles, and the StableId
// side index used by SpawnWithStableId and by codec load to re-attach
// persisted entities.
//
// It holds a dense per-index slot vector plus a free list of reclaimed
// indices. The StableId->EntityHandle direction layers a
// kamstrup/intmap fast-path cache (folded StableId -> candidate index)
// over the authoritative slots slice, verifying the full 128-bit id
// before trusting a cache hit, since the fold can collide.
type identityRegistry struct {
	slots    []entitySlot
	free     []uint32
	byStable *intmap.Map[uint64, uint32]
}

func newIdentityRegistry() *identityRegistry {
	return &identityRegistry{
		slots:    make([]entitySlot, 0, 256),
		free:     make([]uint32, 0, 64),
		byStable: intmap.New[uint64, uint32](256),
	}
}

// allocate reserves a fresh EntityHandle and assigns it a random StableId.
func (r *identityRegistry) allocate(loc EntityLocation) (EntityHandle, StableId) {
	return r.allocateWith(loc, NewStableId())
}

// allocateWith reserves a fresh EntityHandle bound to the given StableId.
// The caller (World.SpawnWithStableId) must first confirm via lookupStable
// that id is not already in use; allocateWith does not check.
func (r *identityRegistry) allocateWith(loc EntityLocation, id StableId) (EntityHandle, StableId) {
	var index uint32
	var generation uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
		generation = r.slots[index].generation
	} else {
		index = uint32(len(r.slots))
		r.slots = append(r.slots, entitySlot{})
		generation = 0
	}
	r.slots[index] = entitySlot{
		generation: generation,
		location:   loc,
		stableId:   id,
		alive:      true,
	}
	r.byStable.Put(id.fold(), index)
	return NewEntityHandle(index, generation), id
}

// lookupStable resolves a StableId to its live EntityHandle, if any.
func (r *identityRegistry) lookupStable(id StableId) (EntityHandle, bool) {
	idx, ok := r.byStable.Get(id.fold())
	if !ok {
		return 0, false
	}
	if int(idx) >= len(r.slots) {
		return 0, false
	}
	slot := r.slots[idx]
	if !slot.alive || slot.stableId != id {
		return 0, false
	}
	return NewEntityHandle(idx, slot.generation), true
}

// resolve returns the current location of a live handle. The second
// result is false for a stale or out-of-range handle (ErrInvalidHandle at
// the World facade).
func (r *identityRegistry) resolve(h EntityHandle) (EntityLocation, bool) {
	idx := h.Index()
	if int(idx) >= len(r.slots) {
		return EntityLocation{}, false
	}
	slot := &r.slots[idx]
	if !slot.alive || slot.generation != h.Generation() {
		return EntityLocation{}, false
	}
	return slot.location, true
}

// stableOf returns the StableId bound to a live handle.
func (r *identityRegistry) stableOf(h EntityHandle) (StableId, bool) {
	idx := h.Index()
	if int(idx) >= len(r.slots) {
		return NilStableId, false
	}
	slot := &r.slots[idx]
	if !slot.alive || slot.generation != h.Generation() {
		return NilStableId, false
	}
	return slot.stableId, true
}

// updateLocation rewrites the location recorded for a live handle, called
// after a migration or a swap-remove moves the entity's row.
func (r *identityRegistry) updateLocation(h EntityHandle, loc EntityLocation) bool {
	idx := h.Index()
	if int(idx) >= len(r.slots) {
		return false
	}
	slot := &r.slots[idx]
	if !slot.alive || slot.generation != h.Generation() {
		return false
	}
	slot.location = loc
	return true
}

// release frees a live handle: its generation is bumped so outstanding
// copies of the handle become stale, its index is returned to the free
// list, and its StableId mapping is dropped.
func (r *identityRegistry) release(h EntityHandle) bool {
	idx := h.Index()
	if int(idx) >= len(r.slots) {
		return false
	}
	slot := &r.slots[idx]
	if !slot.alive || slot.generation != h.Generation() {
		return false
	}
	r.byStable.Del(slot.stableId.fold())
	slot.alive = false
	slot.generation++
	slot.stableId = NilStableId
	r.free = append(r.free, idx)
	return true
}

func (r *identityRegistry) isAlive(h EntityHandle) bool {
	idx := h.Index()
	if int(idx) >= len(r.slots) {
		return false
	}
	slot := &r.slots[idx]
	return slot.alive && slot.generation == h.Generation()
}

// count returns the number of currently live entities.
func (r *identityRegistry) count() int {
	return len(r.slots) - len(r.free)
}
