package pecs

import (
	"reflect"
	"unsafe"
)

// bundle is the internal, type-erased form every typed SpawnBundleN /
// InsertBundleN call reduces to before it reaches the World: a parallel
// list of component metas and pointers to their staged values. Building
// this once per call, rather than duplicating the migration call site per
// arity, is what lets a multi-component insert batch an arbitrary number
// of added types into a single archetype transition instead of one hop
// per type.
type bundle struct {
	metas []*ComponentMeta
	ptrs  []unsafe.Pointer
}

func (b *bundle) mask() componentMask {
	m := componentMask{}
	for _, meta := range b.metas {
		m = m.with(meta.Slot)
	}
	return m
}

// add appends one component's (meta, pointer-to-value) pair to the
// bundle, reporting ErrDuplicateComponentInBundle if the type is already
// present: a bundle can carry at most one value per component type.
func (b *bundle) add(meta *ComponentMeta, ptr unsafe.Pointer) error {
	for _, existing := range b.metas {
		if existing.Slot == meta.Slot {
			return ErrDuplicateComponentInBundle
		}
	}
	b.metas = append(b.metas, meta)
	b.ptrs = append(b.ptrs, ptr)
	return nil
}

// writeInto copies every staged component's bytes into row of archetype a.
func (b *bundle) writeInto(a *archetype, row int) {
	for i, meta := range b.metas {
		col := a.columnIndex(meta.Slot)
		size := int(meta.Size)
		dst := a.columns[col][row*size : row*size+size]
		src := unsafe.Slice((*byte)(b.ptrs[i]), size)
		copy(dst, src)
	}
}

func registerAndBox[T any](w *World, v *T) (*ComponentMeta, unsafe.Pointer, error) {
	meta, ok := componentIdOf[T](w)
	if !ok {
		var err error
		meta, err = RegisterComponent[T](w)
		if err != nil {
			return nil, nil, err
		}
	}
	return meta, unsafe.Pointer(v), nil
}

// newBundle1..4 build a type-erased bundle from up to four statically
// typed component values, registering any type seen for the first time.
// Capped at four to keep each function concrete instead of
// reflect-driven, matching the performance intent of a byte-column ECS.

func newBundle1[A any](w *World, a A) (*bundle, error) {
	b := &bundle{metas: make([]*ComponentMeta, 0, 1), ptrs: make([]unsafe.Pointer, 0, 1)}
	ma, pa, err := registerAndBox(w, &a)
	if err != nil {
		return nil, err
	}
	if err := b.add(ma, pa); err != nil {
		return nil, err
	}
	return b, nil
}

func newBundle2[A, B any](w *World, a A, bb B) (*bundle, error) {
	b := &bundle{metas: make([]*ComponentMeta, 0, 2), ptrs: make([]unsafe.Pointer, 0, 2)}
	ma, pa, err := registerAndBox(w, &a)
	if err != nil {
		return nil, err
	}
	if err := b.add(ma, pa); err != nil {
		return nil, err
	}
	mb, pb, err := registerAndBox(w, &bb)
	if err != nil {
		return nil, err
	}
	if err := b.add(mb, pb); err != nil {
		return nil, err
	}
	return b, nil
}

func newBundle3[A, B, C any](w *World, a A, bb B, c C) (*bundle, error) {
	b := &bundle{metas: make([]*ComponentMeta, 0, 3), ptrs: make([]unsafe.Pointer, 0, 3)}
	ma, pa, err := registerAndBox(w, &a)
	if err != nil {
		return nil, err
	}
	if err := b.add(ma, pa); err != nil {
		return nil, err
	}
	mb, pb, err := registerAndBox(w, &bb)
	if err != nil {
		return nil, err
	}
	if err := b.add(mb, pb); err != nil {
		return nil, err
	}
	mc, pc, err := registerAndBox(w, &c)
	if err != nil {
		return nil, err
	}
	if err := b.add(mc, pc); err != nil {
		return nil, err
	}
	return b, nil
}

func newBundle4[A, B, C, D any](w *World, a A, bb B, c C, d D) (*bundle, error) {
	b3, err := newBundle3(w, a, bb, c)
	if err != nil {
		return nil, err
	}
	md, pd, err := registerAndBox(w, &d)
	if err != nil {
		return nil, err
	}
	if err := b3.add(md, pd); err != nil {
		return nil, err
	}
	return b3, nil
}

// componentGoType returns the reflect.Type a ComponentMeta was registered
// for.
func componentGoType(m *ComponentMeta) reflect.Type { return m.goType }
