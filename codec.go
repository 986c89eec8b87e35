package pecs

import (
	"bytes"
	"hash/crc64"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Format constants for the binary persistence codec.
const (
	magicBytes    = "PECS"
	formatVersion = uint32(1)

	// flagZstd marks the type-registry+entities payload as zstd-compressed.
	// The other three reserved bits (lz4, delta, extended metadata) have no
	// wired implementation in this build; decoding a stream that sets any
	// of them fails with UnsupportedVersionError rather than silently
	// misreading the payload.
	flagZstd uint32 = 1 << 0

	headerSize = 24
	footerSize = 8
)

var crcTable = crc64.MakeTable(crc64.ECMA)

// codecStage names the write/read pipeline's state: every SaveBinary
// call walks Idle -> WritingHeader -> WritingTypeRegistry ->
// WritingEntities -> WritingFooter -> Idle, and every LoadBinary call
// walks the mirror image. The stages exist primarily as structured log
// breadcrumbs (via World.logger) and as documentation of the wire
// format's framing, since a single buffered write/read pass has no
// actual opportunity to pause between stages.
type codecStage int

const (
	stageIdle codecStage = iota
	stageHeader
	stageTypeRegistry
	stageEntities
	stageFooter
)

func (s codecStage) String() string {
	switch s {
	case stageHeader:
		return "writing_header"
	case stageTypeRegistry:
		return "writing_type_registry"
	case stageEntities:
		return "writing_entities"
	case stageFooter:
		return "writing_footer"
	default:
		return "idle"
	}
}

// persistable reports whether a component type should be written to a
// saved stream: a type with no codec callbacks is non-persistent, so
// SaveBinary silently drops its columns rather than failing.
func persistable(m *ComponentMeta) bool { return m.hasCodec }

// SaveBinary writes the entire contents of w — every live entity and the
// persistable columns of every registered component type it carries — to
// out as one self-describing, checksummed stream. compress enables the
// flagZstd wire flag.
func (w *World) SaveBinary(out io.Writer, compress bool) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	w.logger.Debug("pecs: codec stage", zap.String("stage", stageHeader.String()))

	var persistentMetas []*ComponentMeta
	for _, m := range w.components.bySlot {
		if persistable(m) {
			persistentMetas = append(persistentMetas, m)
		}
	}

	var payload bytes.Buffer
	w.logger.Debug("pecs: codec stage", zap.String("stage", stageTypeRegistry.String()))
	if err := writeTypeRegistry(&payload, persistentMetas); err != nil {
		return errors.Wrap(err, "pecs: encode type registry")
	}

	w.logger.Debug("pecs: codec stage", zap.String("stage", stageEntities.String()))
	entityCount := 0
	for _, a := range w.graph.all {
		for row := range a.entities {
			entityCount++
			if err := writeEntityRecord(&payload, w, a, row, persistentMetas); err != nil {
				return errors.Wrap(err, "pecs: encode entity record")
			}
		}
	}

	flags := uint32(0)
	body := payload.Bytes()
	if compress {
		flags |= flagZstd
		compressed, err := zstdCompress(body)
		if err != nil {
			return errors.Wrap(err, "pecs: zstd compress")
		}
		body = compressed
	}

	header := make([]byte, headerSize)
	copy(header[0:4], magicBytes)
	le.PutUint32(header[4:8], formatVersion)
	le.PutUint32(header[8:12], flags)
	le.PutUint64(header[12:20], uint64(entityCount))
	le.PutUint32(header[20:24], uint32(len(persistentMetas)))

	if _, err := out.Write(header); err != nil {
		return errors.Wrap(err, "pecs: write header")
	}
	if _, err := out.Write(body); err != nil {
		return errors.Wrap(err, "pecs: write body")
	}

	w.logger.Debug("pecs: codec stage", zap.String("stage", stageFooter.String()))
	checksum := crc64.Checksum(header, crcTable)
	checksum = crc64Update(checksum, body)
	footer := make([]byte, footerSize)
	le.PutUint64(footer, checksum)
	if _, err := out.Write(footer); err != nil {
		return errors.Wrap(err, "pecs: write footer")
	}
	return nil
}

// crc64Update folds additional bytes into a running ECMA CRC64, matching
// the incremental use of hash/crc64.Checksum across header and body.
func crc64Update(running uint64, b []byte) uint64 {
	return crc64.Update(running, crcTable, b)
}

func zstdCompress(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(b, nil), nil
}

func zstdDecompress(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(b, nil)
}

func writeTypeRegistry(buf *bytes.Buffer, metas []*ComponentMeta) error {
	for _, m := range metas {
		var idBuf [16]byte
		le.PutUint64(idBuf[0:8], m.TypeId.Hi)
		le.PutUint64(idBuf[8:16], m.TypeId.Lo)
		buf.Write(idBuf[:])
		name := m.Name
		var lenBuf [4]byte
		le.PutUint32(lenBuf[:], uint32(len(name)))
		buf.Write(lenBuf[:])
		buf.WriteString(name)
		var versionBuf [4]byte
		le.PutUint32(versionBuf[:], m.TypeVersion)
		buf.Write(versionBuf[:])
	}
	return nil
}

func writeEntityRecord(buf *bytes.Buffer, w *World, a *archetype, row int, metas []*ComponentMeta) error {
	h := a.entities[row]
	id, ok := w.identity.stableOf(h)
	if !ok {
		return ErrInvariantViolation
	}
	u := id.Bytes()
	buf.Write(u[:])

	var present []*ComponentMeta
	for _, m := range metas {
		if a.mask.has(m.Slot) {
			present = append(present, m)
		}
	}
	var countBuf [4]byte
	le.PutUint32(countBuf[:], uint32(len(present)))
	buf.Write(countBuf[:])

	for _, m := range present {
		var idBuf [16]byte
		le.PutUint64(idBuf[0:8], m.TypeId.Hi)
		le.PutUint64(idBuf[8:16], m.TypeId.Lo)
		buf.Write(idBuf[:])

		enc, err := encodeComponent(m, a.bytesOf(row, m.Slot))
		if err != nil {
			return err
		}
		var lenBuf [4]byte
		le.PutUint32(lenBuf[:], uint32(len(enc)))
		buf.Write(lenBuf[:])
		buf.Write(enc)
	}
	return nil
}
