package pecs

import "testing"

func TestEntityHandlePacking(t *testing.T) {
	h := NewEntityHandle(42, 7)
	if h.Index() != 42 {
		t.Fatalf("Index() = %d, want 42", h.Index())
	}
	if h.Generation() != 7 {
		t.Fatalf("Generation() = %d, want 7", h.Generation())
	}
}

func TestStableIdRoundTripsThroughBytes(t *testing.T) {
	id := NewStableId()
	back := stableIdFromBytes(id.Bytes())
	if back != id {
		t.Fatalf("stableIdFromBytes(id.Bytes()) = %v, want %v", back, id)
	}
}

// S8 handle recycling: a despawned index is reused with a bumped
// generation, and the old handle becomes permanently invalid.
func TestHandleRecyclingBumpsGeneration(t *testing.T) {
	w := NewWorld(WorldConfig{})
	h1 := w.Spawn()
	if !w.Despawn(h1) {
		t.Fatalf("despawn h1: expected true for a live handle")
	}
	h2 := w.Spawn()

	if h2.Index() != h1.Index() {
		t.Fatalf("expected index reuse: h1.Index()=%d h2.Index()=%d", h1.Index(), h2.Index())
	}
	if h2.Generation() <= h1.Generation() {
		t.Fatalf("expected h2 generation > h1 generation, got %d <= %d", h2.Generation(), h1.Generation())
	}
	if w.IsAlive(h1) {
		t.Fatalf("h1 should be stale after recycling")
	}
	if !w.IsAlive(h2) {
		t.Fatalf("h2 should be alive")
	}
}
