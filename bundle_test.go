package pecs

import "testing"

func TestBundleRejectsDuplicateComponentType(t *testing.T) {
	_, err := newBundle2(NewWorld(WorldConfig{}), tagA{V: 1}, tagA{V: 2})
	if err != ErrDuplicateComponentInBundle {
		t.Fatalf("expected ErrDuplicateComponentInBundle, got %v", err)
	}
}

func TestInsertBundleOverwritesAlreadyPresentType(t *testing.T) {
	w := NewWorld(WorldConfig{})
	h := SpawnBundle1(w, tagA{V: 1})
	archBefore := len(w.graph.all)

	if err := InsertBundle2(w, h, tagA{V: 2}, tagB{V: 3}); err != nil {
		t.Fatalf("insert bundle: %v", err)
	}

	if got := len(w.graph.all) - archBefore; got != 1 {
		t.Fatalf("expected exactly 1 new archetype (the {tagA,tagB} shape), got %d", got)
	}

	a, err := Get[tagA](w, h)
	if err != nil || a.V != 2 {
		t.Fatalf("tagA = %+v, err = %v, want V=2", a, err)
	}
	b, err := Get[tagB](w, h)
	if err != nil || b.V != 3 {
		t.Fatalf("tagB = %+v, err = %v, want V=3", b, err)
	}
}

func TestInsertBundleOverwriteRunsDestructor(t *testing.T) {
	w := NewWorld(WorldConfig{})
	flag := new(bool)
	h := SpawnBundle1(w, &droppable{flag: flag})

	if err := InsertBundle2(w, h, &droppable{flag: flag}, tagB{V: 1}); err != nil {
		t.Fatalf("insert bundle: %v", err)
	}
	if !*flag {
		t.Fatalf("expected Drop to run on the overwritten value")
	}
	if !Has[tagB](w, h) {
		t.Fatalf("tagB should have been added via migration")
	}
}

func TestInsertBundleBatchesIntoSingleMigration(t *testing.T) {
	w := NewWorld(WorldConfig{})
	h := w.Spawn()
	archBefore := len(w.graph.all)

	if err := InsertBundle3(w, h, tagA{1}, tagB{2}, tagC{3}); err != nil {
		t.Fatalf("insert bundle: %v", err)
	}

	// Exactly one new archetype (the {tagA,tagB,tagC} shape) should have
	// been created, not one per intermediate hop.
	if got := len(w.graph.all) - archBefore; got != 1 {
		t.Fatalf("expected exactly 1 new archetype from a batched insert, got %d", got)
	}

	a, err := Get[tagA](w, h)
	if err != nil || a.V != 1 {
		t.Fatalf("tagA = %+v, err = %v", a, err)
	}
	b, err := Get[tagB](w, h)
	if err != nil || b.V != 2 {
		t.Fatalf("tagB = %+v, err = %v", b, err)
	}
	c, err := Get[tagC](w, h)
	if err != nil || c.V != 3 {
		t.Fatalf("tagC = %+v, err = %v", c, err)
	}
}
