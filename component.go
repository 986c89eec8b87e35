package pecs

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"unsafe"
)

// ComponentTypeId is a 128-bit identifier for a component type, stable
// across runs for the same declared Go type. reflect exposes no stable
// per-build ABI id in Go, so the id is two independent FNV-1a-64 folds
// over the type's package-qualified name instead.
type ComponentTypeId struct {
	Hi uint64
	Lo uint64
}

func (id ComponentTypeId) String() string {
	return fmt.Sprintf("%016x%016x", id.Hi, id.Lo)
}

// fold compresses the 128-bit id into a 64-bit key for use in fast-path
// integer-keyed caches. Collisions are possible and must be verified
// against the full id before being trusted.
func (id ComponentTypeId) fold() uint64 {
	return id.Hi ^ (id.Lo * 0x9E3779B97F4A7C15)
}

func componentTypeIdFor(t reflect.Type) ComponentTypeId {
	name := t.PkgPath() + "." + t.Name()
	if name == "." {
		name = t.String()
	}
	h1 := fnv.New64a()
	h1.Write([]byte("pecs.component.hi\x00"))
	h1.Write([]byte(name))
	h2 := fnv.New64a()
	h2.Write([]byte("pecs.component.lo\x00"))
	h2.Write([]byte(name))
	return ComponentTypeId{Hi: h1.Sum64(), Lo: h2.Sum64()}
}

// Dropper is implemented by component types that hold resources needing
// explicit release when a component instance is destroyed (on despawn, on
// remove, or when an archetype's remaining rows are dropped). Components
// without state needing release do not need to implement it; the default
// destructor is a no-op, and the drop callback is always optional.
type Dropper interface {
	Drop()
}

// Encoder and Decoder are implemented by component types that should be
// persisted by the binary codec. A type that implements neither is
// non-persistent: SaveBinary silently excludes its columns rather than
// failing.
type Encoder interface {
	EncodePECS() ([]byte, error)
}
type Decoder interface {
	DecodePECS([]byte) error
}

// ComponentMeta carries everything the runtime needs to treat a
// component's bytes opaquely: size, alignment, an optional destructor, and
// optional encode/decode callbacks bound to the registered type.
type ComponentMeta struct {
	TypeId      ComponentTypeId
	Name        string
	Size        uintptr
	Align       uintptr
	Slot        uint16
	TypeVersion uint32
	goType      reflect.Type
	hasDrop     bool
	hasCodec    bool
}

// defaultTypeVersion is the schema version recorded for every registered
// component type; this build has no mechanism for a type to declare a
// newer schema generation, so every type is written and expected at
// version 1.
const defaultTypeVersion = uint32(1)

// maxComponentTypes bounds how many distinct component types a single
// World can register: it keeps the archetype signature a fixed-width
// bitmask value type (maskWords * bitsPerWord) instead of a growable set.
const (
	bitsPerWord       = 64
	maskWords         = 4
	maxComponentTypes = maskWords * bitsPerWord
)

// componentRegistry is a world-local registry of component types.
// World-local (rather than process-wide) avoids cross-world coupling.
// Registration is idempotent per Go type.
type componentRegistry struct {
	byType   map[reflect.Type]*ComponentMeta
	byTypeId map[ComponentTypeId]*ComponentMeta
	bySlot   []*ComponentMeta
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		byType:   make(map[reflect.Type]*ComponentMeta, 32),
		byTypeId: make(map[ComponentTypeId]*ComponentMeta, 32),
		bySlot:   make([]*ComponentMeta, 0, 32),
	}
}

// register returns the ComponentMeta for T, creating it on first use: a
// permanent (never-freed) type→meta map plus a dense slot slice, since
// component *type* registration lives for the World's whole lifetime.
func (r *componentRegistry) register(t reflect.Type) (*ComponentMeta, error) {
	if meta, ok := r.byType[t]; ok {
		return meta, nil
	}
	if len(r.bySlot) >= maxComponentTypes {
		return nil, fmt.Errorf("pecs: cannot register %s: maximum of %d component types reached", t, maxComponentTypes)
	}
	meta := &ComponentMeta{
		TypeId:      componentTypeIdFor(t),
		Name:        t.String(),
		Size:        t.Size(),
		Align:       uintptr(t.Align()),
		Slot:        uint16(len(r.bySlot)),
		TypeVersion: defaultTypeVersion,
		goType:      t,
	}
	if t.Implements(dropperType) || reflect.PointerTo(t).Implements(dropperType) {
		meta.hasDrop = true
	}
	if (t.Implements(encoderType) || reflect.PointerTo(t).Implements(encoderType)) &&
		(reflect.PointerTo(t).Implements(decoderType)) {
		meta.hasCodec = true
	}
	r.byType[t] = meta
	r.byTypeId[meta.TypeId] = meta
	r.bySlot = append(r.bySlot, meta)
	return meta, nil
}

func (r *componentRegistry) lookup(t reflect.Type) (*ComponentMeta, bool) {
	m, ok := r.byType[t]
	return m, ok
}

func (r *componentRegistry) lookupByTypeId(id ComponentTypeId) (*ComponentMeta, bool) {
	m, ok := r.byTypeId[id]
	return m, ok
}

var (
	dropperType  = reflect.TypeOf((*Dropper)(nil)).Elem()
	encoderType  = reflect.TypeOf((*Encoder)(nil)).Elem()
	decoderType  = reflect.TypeOf((*Decoder)(nil)).Elem()
)

// RegisterComponent registers component type T against the World's
// component registry, returning its metadata. Registration is idempotent:
// calling it twice for the same T returns the same ComponentMeta.
func RegisterComponent[T any](w *World) (*ComponentMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("pecs: cannot register interface or untyped nil as a component")
	}
	return w.components.register(t)
}

// MustRegisterComponent is RegisterComponent but panics on error, for call
// sites (tests, program setup) where a registration failure is a bug.
func MustRegisterComponent[T any](w *World) *ComponentMeta {
	meta, err := RegisterComponent[T](w)
	if err != nil {
		panic(err)
	}
	return meta
}

func componentIdOf[T any](w *World) (*ComponentMeta, bool) {
	return w.components.lookup(reflect.TypeFor[T]())
}

// le is the shared byte order for the binary persistence format:
// little-endian throughout.
var le = binary.LittleEndian

func unsafePointerAt(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}

func reflectNewAt(m *ComponentMeta, ptr unsafe.Pointer) reflect.Value {
	return reflect.NewAt(m.goType, ptr)
}

// encodeComponent calls a persistable component's EncodePECS through
// reflect.NewAt over its raw bytes, the same reconstitution trick
// invokeDrop uses for Dropper.
func encodeComponent(m *ComponentMeta, b []byte) ([]byte, error) {
	ptr := unsafePointerAt(b)
	val := reflectNewAt(m, ptr)
	enc, ok := val.Interface().(Encoder)
	if !ok {
		return nil, fmt.Errorf("pecs: component %s registered as persistable but does not implement Encoder", m.Name)
	}
	return enc.EncodePECS()
}

// decodeComponent calls a persistable component's DecodePECS in place
// over row's raw bytes.
func decodeComponent(m *ComponentMeta, b []byte, wire []byte) error {
	ptr := unsafePointerAt(b)
	val := reflectNewAt(m, ptr)
	dec, ok := val.Interface().(Decoder)
	if !ok {
		return fmt.Errorf("pecs: component %s registered as persistable but does not implement Decoder", m.Name)
	}
	return dec.DecodePECS(wire)
}
