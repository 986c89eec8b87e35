// Package pecs implements a persistent entity component system: an
// in-process, archetype-based columnar store for game-like simulations,
// plus a framed binary codec that serializes the whole store (or a single
// entity) to a self-describing byte stream.
//
// Entities are addressed two ways. An EntityHandle is an ephemeral 64-bit
// value (index + generation) valid only for the lifetime of the World that
// issued it. A StableId is a 128-bit random identifier that survives a
// save/load round trip. Components are plain Go values of any registered
// type, stored in per-archetype byte columns rather than behind an
// interface or a reflect-backed map, so that entities sharing a component
// set stay contiguous in memory.
//
// A minimal example:
//
//	w := pecs.NewWorld(pecs.WorldConfig{})
//	pecs.RegisterComponent[Position](w)
//	pecs.RegisterComponent[Velocity](w)
//
//	pecs.SpawnBundle2(w, Position{X: 1, Y: 2}, Velocity{X: 3, Y: 4})
//	q, err := pecs.NewQuery2[Position, Velocity](w)
//	if err != nil {
//	    return err
//	}
//	for q.Next() {
//	    pos, vel := q.Get()
//	    pos.X += vel.X
//	    pos.Y += vel.Y
//	}
//
// The core runtime is single-threaded-owner with shared-reader discipline:
// one goroutine may hold a World mutably, any number may hold it for
// concurrent queries, enforced by World's internal sync.RWMutex rather than
// the compiler (Go has no borrow checker). Structural changes during
// iteration are a programmer error; stage them through a command buffer
// collaborator instead, which is out of scope for this package.
package pecs
