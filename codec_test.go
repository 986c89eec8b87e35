package pecs_test

import (
	"bytes"
	"encoding/binary"
	"hash/crc64"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veltrix-labs/pecs"
)

var testCRCTable = crc64.MakeTable(crc64.ECMA)

// PersistentPosition is a component with explicit codec callbacks, the
// only kind of component the binary persistence format round-trips: a
// type with no codec callbacks is non-persistent.
type PersistentPosition struct {
	X, Y int64
}

func (p PersistentPosition) EncodePECS() ([]byte, error) {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[0:8], uint64(p.X))
	binary.LittleEndian.PutUint64(b[8:16], uint64(p.Y))
	return b, nil
}

func (p *PersistentPosition) DecodePECS(b []byte) error {
	p.X = int64(binary.LittleEndian.Uint64(b[0:8]))
	p.Y = int64(binary.LittleEndian.Uint64(b[8:16]))
	return nil
}

// S6 persistence roundtrip.
func TestSaveLoadRoundTrip(t *testing.T) {
	w := pecs.NewWorld(pecs.WorldConfig{})
	pecs.MustRegisterComponent[PersistentPosition](w)

	type handleStable struct {
		stable pecs.StableId
		pos    PersistentPosition
	}
	var want []handleStable

	for a := 0; a < 4; a++ {
		for i := 0; i < 25; i++ {
			h := pecs.SpawnBundle1(w, PersistentPosition{X: int64(a), Y: int64(i)})
			if a%2 == 1 {
				assert.NoError(t, pecs.Insert(w, h, Velocity{1, 1}))
			}
			sid, err := w.StableIdOf(h)
			assert.NoError(t, err)
			want = append(want, handleStable{stable: sid, pos: PersistentPosition{X: int64(a), Y: int64(i)}})
		}
	}

	var buf bytes.Buffer
	assert.NoError(t, w.SaveBinary(&buf, false))

	w2 := pecs.NewWorld(pecs.WorldConfig{})
	pecs.MustRegisterComponent[PersistentPosition](w2)
	assert.NoError(t, w2.LoadBinary(bytes.NewReader(buf.Bytes())))

	assert.Equal(t, w.Len(), w2.Len())
	for _, ws := range want {
		h2, ok := w2.Resolve(ws.stable)
		assert.True(t, ok)
		got, err := pecs.Get[PersistentPosition](w2, h2)
		assert.NoError(t, err)
		assert.Equal(t, ws.pos, *got)
	}
}

func TestSaveLoadRoundTripCompressed(t *testing.T) {
	w := pecs.NewWorld(pecs.WorldConfig{})
	pecs.MustRegisterComponent[PersistentPosition](w)
	h := pecs.SpawnBundle1(w, PersistentPosition{X: 5, Y: 6})
	sid, _ := w.StableIdOf(h)

	var buf bytes.Buffer
	assert.NoError(t, w.SaveBinary(&buf, true))

	w2 := pecs.NewWorld(pecs.WorldConfig{})
	pecs.MustRegisterComponent[PersistentPosition](w2)
	assert.NoError(t, w2.LoadBinary(bytes.NewReader(buf.Bytes())))

	h2, ok := w2.Resolve(sid)
	assert.True(t, ok)
	got, err := pecs.Get[PersistentPosition](w2, h2)
	assert.NoError(t, err)
	assert.Equal(t, PersistentPosition{X: 5, Y: 6}, *got)
}

// S6 (continued): corrupting one byte fails with ChecksumMismatch.
func TestLoadRejectsCorruptedStream(t *testing.T) {
	w := pecs.NewWorld(pecs.WorldConfig{})
	pecs.MustRegisterComponent[PersistentPosition](w)
	pecs.SpawnBundle1(w, PersistentPosition{X: 1, Y: 2})

	var buf bytes.Buffer
	assert.NoError(t, w.SaveBinary(&buf, false))
	corrupted := append([]byte(nil), buf.Bytes()...)
	corrupted[len(corrupted)-1] ^= 0xFF

	w2 := pecs.NewWorld(pecs.WorldConfig{})
	pecs.MustRegisterComponent[PersistentPosition](w2)
	err := w2.LoadBinary(bytes.NewReader(corrupted))
	assert.ErrorIs(t, err, pecs.ErrChecksumMismatch)
}

// S7 version rejection.
func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	w := pecs.NewWorld(pecs.WorldConfig{})
	pecs.MustRegisterComponent[PersistentPosition](w)
	pecs.SpawnBundle1(w, PersistentPosition{X: 1, Y: 2})

	var buf bytes.Buffer
	assert.NoError(t, w.SaveBinary(&buf, false))
	raw := buf.Bytes()
	binary.LittleEndian.PutUint32(raw[4:8], 999)
	checksum := recomputeChecksumForTest(raw)
	binary.LittleEndian.PutUint64(raw[len(raw)-8:], checksum)

	w2 := pecs.NewWorld(pecs.WorldConfig{})
	pecs.MustRegisterComponent[PersistentPosition](w2)
	err := w2.LoadBinary(bytes.NewReader(raw))

	var unsupported *pecs.UnsupportedVersionError
	assert.ErrorAs(t, err, &unsupported)
	assert.Equal(t, uint32(999), unsupported.Found)
}

// recomputeChecksumForTest keeps TestLoadRejectsUnsupportedVersion focused
// on the version field: only checksum is out of a test file's reach,
// since it isn't exported, so this recomputes it the same way the stream
// does (ECMA CRC64 over every byte before the footer) to isolate the
// version check from an incidental checksum failure.
func recomputeChecksumForTest(raw []byte) uint64 {
	return crc64.Checksum(raw[:len(raw)-8], testCRCTable)
}
