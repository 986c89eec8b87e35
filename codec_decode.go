package pecs

import (
	"bytes"
	"hash/crc64"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LoadBinary reads a stream written by SaveBinary and repopulates w.
// Component types referenced in the stream must already be registered
// against w (via RegisterComponent) with a matching ComponentTypeId;
// a type present in the stream but unknown to w fails with
// UnknownComponentTypeError rather than being silently skipped, since a
// silently dropped component would desynchronize the loaded world from
// what was saved.
func (w *World) LoadBinary(in io.Reader) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	raw, err := io.ReadAll(in)
	if err != nil {
		return errors.Wrap(err, "pecs: read stream")
	}
	if len(raw) < headerSize+footerSize {
		return ErrInvalidMagic
	}

	header := raw[:headerSize]
	footer := raw[len(raw)-footerSize:]
	body := raw[headerSize : len(raw)-footerSize]

	if string(header[0:4]) != magicBytes {
		return ErrInvalidMagic
	}
	version := le.Uint32(header[4:8])
	flags := le.Uint32(header[8:12])
	entityCount := le.Uint64(header[12:20])
	typeCount := le.Uint32(header[20:24])

	if version != formatVersion {
		return &UnsupportedVersionError{Found: version, Expected: formatVersion}
	}
	if flags&^flagZstd != 0 {
		return &UnsupportedVersionError{Found: flags, Expected: 0, Reason: "reserved flag bit set"}
	}

	wantChecksum := le.Uint64(footer)
	gotChecksum := crc64.Checksum(header, crcTable)
	gotChecksum = crc64Update(gotChecksum, body)
	if wantChecksum != gotChecksum {
		return ErrChecksumMismatch
	}

	if flags&flagZstd != 0 {
		decompressed, err := zstdDecompress(body)
		if err != nil {
			return errors.Wrap(err, "pecs: zstd decompress")
		}
		body = decompressed
	}

	w.logger.Debug("pecs: codec stage", zap.String("stage", stageTypeRegistry.String()))
	r := bytes.NewReader(body)
	wireTypes := make([]ComponentTypeId, 0, typeCount)
	for i := uint32(0); i < typeCount; i++ {
		var idBuf [16]byte
		if _, err := io.ReadFull(r, idBuf[:]); err != nil {
			return errors.Wrap(err, "pecs: read type registry entry")
		}
		id := ComponentTypeId{Hi: le.Uint64(idBuf[0:8]), Lo: le.Uint64(idBuf[8:16])}
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return errors.Wrap(err, "pecs: read type name length")
		}
		nameLen := le.Uint32(lenBuf[:])
		nameBuf := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return errors.Wrap(err, "pecs: read type name")
		}
		var versionBuf [4]byte
		if _, err := io.ReadFull(r, versionBuf[:]); err != nil {
			return errors.Wrap(err, "pecs: read type version")
		}
		wireTypes = append(wireTypes, id)
	}
	for _, id := range wireTypes {
		if _, ok := w.components.lookupByTypeId(id); !ok {
			return &UnknownComponentTypeError{TypeId: id}
		}
	}

	w.logger.Debug("pecs: codec stage", zap.String("stage", stageEntities.String()))
	for i := uint64(0); i < entityCount; i++ {
		if _, err := readEntityRecord(r, w); err != nil {
			return errors.Wrap(err, "pecs: read entity record")
		}
	}
	return nil
}

// readEntityRecord decodes one entity record from r, spawning a new
// entity bound to the record's StableId and inserting each persisted
// component in place. It returns the freshly spawned handle.
func readEntityRecord(r *bytes.Reader, w *World) (EntityHandle, error) {
	var idBuf [16]byte
	if _, err := io.ReadFull(r, idBuf[:]); err != nil {
		return 0, err
	}
	stableId := stableIdFromBytes(idBuf)

	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return 0, err
	}
	count := le.Uint32(countBuf[:])

	if _, ok := w.identity.lookupStable(stableId); ok {
		return 0, &DuplicateStableIdError{StableId: stableId}
	}
	row := w.graph.empty.push(0)
	h, _ := w.identity.allocateWith(EntityLocation{Archetype: w.graph.empty.index, Row: row}, stableId)
	w.graph.empty.entities[row] = h

	for i := uint32(0); i < count; i++ {
		var typeIdBuf [16]byte
		if _, err := io.ReadFull(r, typeIdBuf[:]); err != nil {
			return 0, err
		}
		typeId := ComponentTypeId{Hi: le.Uint64(typeIdBuf[0:8]), Lo: le.Uint64(typeIdBuf[8:16])}
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return 0, err
		}
		n := le.Uint32(lenBuf[:])
		wire := make([]byte, n)
		if _, err := io.ReadFull(r, wire); err != nil {
			return 0, err
		}

		meta, ok := w.components.lookupByTypeId(typeId)
		if !ok {
			return 0, &UnknownComponentTypeError{TypeId: typeId}
		}
		if err := insertDecodedComponent(w, h, meta, wire); err != nil {
			return 0, err
		}
	}
	return h, nil
}

// insertDecodedComponent migrates h into the archetype with meta's
// component added, zero-valued, then decodes wire into it in place.
func insertDecodedComponent(w *World, h EntityHandle, meta *ComponentMeta, wire []byte) error {
	loc, ok := w.identity.resolve(h)
	if !ok {
		return &InvalidHandleError{Handle: h}
	}
	src := w.graph.all[loc.Archetype]
	edge := w.graph.transitionAdd(src, maskOf(meta.Slot))
	newRow, moved, didMove := migrate(src, loc.Row, edge)
	if didMove {
		w.identity.updateLocation(moved, loc)
	}
	w.identity.updateLocation(h, EntityLocation{Archetype: edge.target.index, Row: newRow})
	b := edge.target.bytesOf(newRow, meta.Slot)
	return decodeComponent(meta, b, wire)
}
