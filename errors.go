package pecs

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the World facade and the persistence codec.
// Callers compare with errors.Is; the wrapped variants below carry the
// offending value for inspection via errors.As.
var (
	// ErrInvalidHandle is returned when an EntityHandle's generation is
	// stale or its index is out of range.
	ErrInvalidHandle = errors.New("pecs: invalid entity handle")

	// ErrDuplicateStableId is returned by SpawnWithStableId when the
	// StableId is already mapped to a live entity.
	ErrDuplicateStableId = errors.New("pecs: stable id already in use")

	// ErrDuplicateComponentInBundle is returned when a bundle names the
	// same component type more than once.
	ErrDuplicateComponentInBundle = errors.New("pecs: duplicate component type in bundle")

	// ErrConflictingAccess is returned by query construction when a query
	// names the same component type twice among its read parameters, or
	// names a type both as a read parameter or With filter and as a
	// Without filter.
	ErrConflictingAccess = errors.New("pecs: conflicting mutable/immutable access in query")

	// ErrInvalidMagic is returned when a decoded stream's header magic
	// does not read "PECS".
	ErrInvalidMagic = errors.New("pecs: invalid stream magic")

	// ErrChecksumMismatch is returned when the footer's CRC64 does not
	// match the bytes preceding it.
	ErrChecksumMismatch = errors.New("pecs: checksum mismatch")

	// ErrUnknownComponentType is returned when an entity record names a
	// ComponentTypeId absent from the reader's component registry, and by
	// Get when T is unregistered or the entity does not carry T.
	ErrUnknownComponentType = errors.New("pecs: unknown component type")

	// ErrInvariantViolation signals an internal consistency failure. It
	// is never expected in correct use of the public API; encountering it
	// is a bug in this package.
	ErrInvariantViolation = errors.New("pecs: invariant violation")
)

// UnsupportedVersionError is returned when a decoded header's format
// version, or a reserved flag bit, is not supported by this build.
type UnsupportedVersionError struct {
	Found    uint32
	Expected uint32
	Reason   string
}

func (e *UnsupportedVersionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("pecs: unsupported format version/flags: %s (found %d, expected %d)", e.Reason, e.Found, e.Expected)
	}
	return fmt.Sprintf("pecs: unsupported format version: found %d, expected %d", e.Found, e.Expected)
}

// InvalidHandleError wraps ErrInvalidHandle with the offending handle.
type InvalidHandleError struct {
	Handle EntityHandle
}

func (e *InvalidHandleError) Error() string {
	return fmt.Sprintf("pecs: invalid entity handle %v", e.Handle)
}

func (e *InvalidHandleError) Unwrap() error { return ErrInvalidHandle }

// DuplicateStableIdError wraps ErrDuplicateStableId with the offending id.
type DuplicateStableIdError struct {
	StableId StableId
}

func (e *DuplicateStableIdError) Error() string {
	return fmt.Sprintf("pecs: stable id %s already in use", e.StableId)
}

func (e *DuplicateStableIdError) Unwrap() error { return ErrDuplicateStableId }

// UnknownComponentTypeError wraps ErrUnknownComponentType with the type id
// that could not be resolved: a wire type id missing from the reader's
// registry, or the id of the component type Get could not find.
type UnknownComponentTypeError struct {
	TypeId ComponentTypeId
}

func (e *UnknownComponentTypeError) Error() string {
	return fmt.Sprintf("pecs: unknown component type %s", e.TypeId)
}

func (e *UnknownComponentTypeError) Unwrap() error { return ErrUnknownComponentType }
