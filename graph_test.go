package pecs

import "testing"

type tagA struct{ V int }
type tagB struct{ V int }
type tagC struct{ V int }

// Property 9: after k interleaved inserts/removes on a single entity, the
// number of distinct archetypes created stays bounded by the number of
// distinct shapes visited (O(k)), not by the number of operations — the
// transition cache in archetypeGraph must be hit on repeat transitions.
func TestMigrationCachingBoundsArchetypeCount(t *testing.T) {
	w := NewWorld(WorldConfig{})
	h := w.Spawn()

	for i := 0; i < 50; i++ {
		if err := Insert(w, h, tagA{i}); err != nil {
			t.Fatalf("insert tagA: %v", err)
		}
		if err := Insert(w, h, tagB{i}); err != nil {
			t.Fatalf("insert tagB: %v", err)
		}
		if _, _, err := Remove[tagA](w, h); err != nil {
			t.Fatalf("remove tagA: %v", err)
		}
		if _, _, err := Remove[tagB](w, h); err != nil {
			t.Fatalf("remove tagB: %v", err)
		}
	}

	// Only 4 distinct shapes are ever visited: {}, {tagA}, {tagA,tagB},
	// {tagB}.
	if got := len(w.graph.all); got > 4 {
		t.Fatalf("expected at most 4 archetypes from repeated transitions, got %d", got)
	}
}

func TestTransitionEdgeIsCached(t *testing.T) {
	w := NewWorld(WorldConfig{})
	MustRegisterComponent[tagA](w)
	from := w.graph.empty
	addMask := maskOf(0)

	e1 := w.graph.transitionAdd(from, addMask)
	e2 := w.graph.transitionAdd(from, addMask)
	if e1 != e2 {
		t.Fatalf("expected the same cached transitionEdge pointer on repeat calls")
	}
}

func TestMigratePreservesRetainedComponentBytes(t *testing.T) {
	w := NewWorld(WorldConfig{})
	h := SpawnBundle2(w, tagA{V: 7}, tagB{V: 9})
	removed, ok, err := Remove[tagB](w, h)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !ok || removed.V != 9 {
		t.Fatalf("removed = %+v, ok = %v, want V=9, ok=true", removed, ok)
	}
	got, err := Get[tagA](w, h)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.V != 7 {
		t.Fatalf("tagA.V = %d, want 7", got.V)
	}
}

func TestDespawnRunsDestructor(t *testing.T) {
	w := NewWorld(WorldConfig{})
	flag := new(bool)
	h := SpawnBundle1(w, &droppable{flag: flag})
	if !w.Despawn(h) {
		t.Fatalf("despawn: expected true for a live handle")
	}
	if !*flag {
		t.Fatalf("expected Drop to run on despawn")
	}
}

func TestRemoveRunsDestructorOnDroppedColumnOnly(t *testing.T) {
	w := NewWorld(WorldConfig{})
	flagA := new(bool)
	h := SpawnBundle2(w, &droppable{flag: flagA}, tagB{V: 1})
	if _, ok, err := Remove[*droppable](w, h); err != nil || !ok {
		t.Fatalf("remove: ok=%v err=%v", ok, err)
	}
	if !*flagA {
		t.Fatalf("expected Drop to run when the component is removed")
	}
	if !Has[tagB](w, h) {
		t.Fatalf("tagB should be retained")
	}
}

type droppable struct{ flag *bool }

func (d *droppable) Drop() { *d.flag = true }
