package pecs

import "testing"

func TestComponentTypeIdIsStablePerType(t *testing.T) {
	w := NewWorld(WorldConfig{})
	m1, err := RegisterComponent[tagA](w)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	m2, _ := componentIdOf[tagA](w)
	if m1.TypeId != m2.TypeId {
		t.Fatalf("expected stable ComponentTypeId across lookups")
	}

	w2 := NewWorld(WorldConfig{})
	m3 := MustRegisterComponent[tagA](w2)
	if m1.TypeId != m3.TypeId {
		t.Fatalf("expected the same ComponentTypeId for tagA across independent worlds")
	}
}

func TestComponentTypeIdDiffersAcrossTypes(t *testing.T) {
	w := NewWorld(WorldConfig{})
	a := MustRegisterComponent[tagA](w)
	b := MustRegisterComponent[tagB](w)
	if a.TypeId == b.TypeId {
		t.Fatalf("expected distinct ComponentTypeIds for distinct types")
	}
}

func TestRegisterComponentIsIdempotent(t *testing.T) {
	w := NewWorld(WorldConfig{})
	m1 := MustRegisterComponent[tagA](w)
	m2 := MustRegisterComponent[tagA](w)
	if m1.Slot != m2.Slot {
		t.Fatalf("expected the same slot on repeat registration")
	}
}
