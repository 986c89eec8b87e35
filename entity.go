package pecs

import (
	"github.com/google/uuid"
)

// EntityHandle is an ephemeral 64-bit entity identity: an index and a
// recycling generation packed into one comparable value, valid only
// within the World that issued it. Index and generation are packed into
// one uint64 so EntityHandle can be used directly as a map key and
// compared with ==.
type EntityHandle uint64

// NewEntityHandle packs an index and generation into an EntityHandle.
func NewEntityHandle(index, generation uint32) EntityHandle {
	return EntityHandle(uint64(generation)<<32 | uint64(index))
}

// Index returns the slot index this handle refers to.
func (h EntityHandle) Index() uint32 { return uint32(h) }

// Generation returns the recycling generation this handle was issued at.
func (h EntityHandle) Generation() uint32 { return uint32(h >> 32) }

func (h EntityHandle) String() string {
	return "EntityHandle(" + uitoa(uint64(h.Index())) + "#" + uitoa(uint64(h.Generation())) + ")"
}

// StableId is a 128-bit persistent entity identifier, assigned at spawn
// and preserved across save/load. It is literally a uuid.UUID (v4,
// random): a 128-bit random identifier is exactly what google/uuid
// already produces, so StableId is a thin wrapper rather than a
// hand-rolled random-bytes type.
type StableId uuid.UUID

// NilStableId is the zero value; no live entity is ever assigned it.
var NilStableId StableId

// NewStableId returns a fresh random StableId.
func NewStableId() StableId {
	return StableId(uuid.New())
}

func (id StableId) String() string {
	return uuid.UUID(id).String()
}

// Bytes returns the id's raw 16 bytes, used by the binary codec.
func (id StableId) Bytes() [16]byte {
	return [16]byte(id)
}

// stableIdFromBytes reconstructs a StableId from its raw 16 bytes.
func stableIdFromBytes(b [16]byte) StableId {
	return StableId(b)
}

// fold compresses the 128-bit id into a 64-bit key for the identity
// registry's fast-path cache (see identity.go); collisions are resolved
// by verifying the full id before the cache is trusted.
func (id StableId) fold() uint64 {
	u := uuid.UUID(id)
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(u[i])
		lo = lo<<8 | uint64(u[i+8])
	}
	return hi ^ (lo * 0x9E3779B97F4A7C15)
}

// EntityLocation names where an entity's row currently lives: which
// archetype and which row within it.
type EntityLocation struct {
	Archetype int
	Row       int
}

// entitySlot is the identity registry's per-index record: either a live
// entity's (generation, location, StableId), or a freed slot carrying
// just the generation to hand out on the next allocate() from this index.
type entitySlot struct {
	generation uint32
	location   EntityLocation
	stableId   StableId
	alive      bool
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
