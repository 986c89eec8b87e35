package pecs

// QueryFilter narrows a query beyond its read parameters: With[T] and
// Without[T] name a component type a query requires present or absent on
// shape alone, without handing out a pointer to it. Both are resolved
// against the World at query-construction time since Go generics give no
// other place to carry the type parameter into a variadic, type-erased
// filter list.
type QueryFilter interface {
	apply(w *World, include, exclude *componentMask)
}

// With requires the queried entity carry T, without reserving a read
// parameter slot for it.
type With[T any] struct{}

func (With[T]) apply(w *World, include, exclude *componentMask) {
	*include = include.with(slotFor[T](w))
}

// Without requires the queried entity not carry T.
type Without[T any] struct{}

func (Without[T]) apply(w *World, include, exclude *componentMask) {
	*exclude = exclude.with(slotFor[T](w))
}

// slotFor registers T if unseen and returns its dense slot. Filters may
// name a type that no component has been stored in yet, so this
// registers rather than merely looking up.
func slotFor[T any](w *World) uint16 {
	meta, ok := componentIdOf[T](w)
	if !ok {
		meta = MustRegisterComponent[T](w)
	}
	return meta.Slot
}

// filterMasks resolves a variadic filter list into the extra include bits
// (from With[T]) and the exclude bits (from Without[T]) a query should
// apply on top of its read parameters.
func filterMasks(w *World, filters []QueryFilter) (include, exclude componentMask) {
	for _, f := range filters {
		f.apply(w, &include, &exclude)
	}
	return include, exclude
}
