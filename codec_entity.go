package pecs

import (
	"bytes"
	"hash/crc64"

	"github.com/pkg/errors"
)

// EncodeEntity serializes a single live entity using the same framing as
// SaveBinary (header, an empty type registry, one entity record in place
// of the full entity section, footer): an entity-granular round trip at
// the same wire format as the whole-world codec.
func (w *World) EncodeEntity(h EntityHandle) ([]byte, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	loc, ok := w.identity.resolve(h)
	if !ok {
		return nil, &InvalidHandleError{Handle: h}
	}
	a := w.graph.all[loc.Archetype]

	var persistentMetas []*ComponentMeta
	for _, m := range w.components.bySlot {
		if persistable(m) {
			persistentMetas = append(persistentMetas, m)
		}
	}

	var body bytes.Buffer
	if err := writeEntityRecord(&body, w, a, loc.Row, persistentMetas); err != nil {
		return nil, errors.Wrap(err, "pecs: encode entity")
	}

	header := make([]byte, headerSize)
	copy(header[0:4], magicBytes)
	le.PutUint32(header[4:8], formatVersion)
	le.PutUint32(header[8:12], 0)
	le.PutUint64(header[12:20], 1)
	le.PutUint32(header[20:24], 0)

	var out bytes.Buffer
	out.Write(header)
	out.Write(body.Bytes())

	checksum := crc64.Checksum(header, crcTable)
	checksum = crc64Update(checksum, body.Bytes())
	footer := make([]byte, footerSize)
	le.PutUint64(footer, checksum)
	out.Write(footer)
	return out.Bytes(), nil
}

// DecodeEntity reads a stream produced by EncodeEntity and spawns the
// entity it describes into w, returning its new handle. As with
// LoadBinary, every component type named in the stream must already be
// registered against w.
func (w *World) DecodeEntity(data []byte) (EntityHandle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(data) < headerSize+footerSize {
		return 0, ErrInvalidMagic
	}
	header := data[:headerSize]
	footer := data[len(data)-footerSize:]
	body := data[headerSize : len(data)-footerSize]

	if string(header[0:4]) != magicBytes {
		return 0, ErrInvalidMagic
	}
	version := le.Uint32(header[4:8])
	if version != formatVersion {
		return 0, &UnsupportedVersionError{Found: version, Expected: formatVersion}
	}

	wantChecksum := le.Uint64(footer)
	gotChecksum := crc64.Checksum(header, crcTable)
	gotChecksum = crc64Update(gotChecksum, body)
	if wantChecksum != gotChecksum {
		return 0, ErrChecksumMismatch
	}

	r := bytes.NewReader(body)
	h, err := readEntityRecord(r, w)
	if err != nil {
		return 0, errors.Wrap(err, "pecs: decode entity")
	}
	return h, nil
}
