package pecs

// SpawnBundle1 spawns a new entity carrying exactly the one given
// component, in a single archetype write.
func SpawnBundle1[A any](w *World, a A) EntityHandle {
	b, err := newBundle1(w, a)
	if err != nil {
		panic(err)
	}
	return spawnFromBundle(w, b)
}

// SpawnBundle2 spawns a new entity carrying both given components, in a
// single archetype write. It panics if A and B are the same type —
// callers that need to tolerate that should build and check a bundle by
// hand.
func SpawnBundle2[A, B any](w *World, a A, b B) EntityHandle {
	bd, err := newBundle2(w, a, b)
	if err != nil {
		panic(err)
	}
	return spawnFromBundle(w, bd)
}

// SpawnBundle3 spawns a new entity carrying all three given components in
// a single archetype write.
func SpawnBundle3[A, B, C any](w *World, a A, b B, c C) EntityHandle {
	bd, err := newBundle3(w, a, b, c)
	if err != nil {
		panic(err)
	}
	return spawnFromBundle(w, bd)
}

// SpawnBundle4 spawns a new entity carrying all four given components in
// a single archetype write.
func SpawnBundle4[A, B, C, D any](w *World, a A, b B, c C, d D) EntityHandle {
	bd, err := newBundle4(w, a, b, c, d)
	if err != nil {
		panic(err)
	}
	return spawnFromBundle(w, bd)
}

// InsertBundle2 adds both given components to an already-live entity.
// Any type the entity already carries is overwritten in place (its
// destructor, if any, runs on the old value first); any type it doesn't
// yet carry is added via a single shared migration.
func InsertBundle2[A, B any](w *World, h EntityHandle, a A, b B) error {
	bd, err := newBundle2(w, a, b)
	if err != nil {
		return err
	}
	return insertFromBundle(w, h, bd)
}

// InsertBundle3 adds all three given components to an already-live
// entity, overwriting any already-present type in place and batching
// the rest into one migration.
func InsertBundle3[A, B, C any](w *World, h EntityHandle, a A, b B, c C) error {
	bd, err := newBundle3(w, a, b, c)
	if err != nil {
		return err
	}
	return insertFromBundle(w, h, bd)
}

// InsertBundle4 adds all four given components to an already-live
// entity, overwriting any already-present type in place and batching
// the rest into one migration.
func InsertBundle4[A, B, C, D any](w *World, h EntityHandle, a A, b B, c C, d D) error {
	bd, err := newBundle4(w, a, b, c, d)
	if err != nil {
		return err
	}
	return insertFromBundle(w, h, bd)
}
