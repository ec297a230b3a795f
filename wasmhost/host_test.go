package wasmhost

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/hail/bridge"
	"github.com/wippyai/hail/compare"
	"github.com/wippyai/hail/errors"
)

// sliceMemory is a fixed-size little-endian memory.
type sliceMemory []byte

func (m sliceMemory) check(offset uint32, n int) error {
	if uint64(offset)+uint64(n) > uint64(len(m)) {
		return errors.InvalidInput(errors.PhaseHost, "out of bounds")
	}
	return nil
}

func (m sliceMemory) Read(offset, length uint32) ([]byte, error) {
	if err := m.check(offset, int(length)); err != nil {
		return nil, err
	}
	return m[offset : offset+length], nil
}

func (m sliceMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, len(data)); err != nil {
		return err
	}
	copy(m[offset:], data)
	return nil
}

func (m sliceMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m[offset:]), nil
}

func (m sliceMemory) ReadU64(offset uint32) (uint64, error) {
	if err := m.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m[offset:]), nil
}

func (m sliceMemory) WriteU32(offset uint32, v uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m[offset:], v)
	return nil
}

func (m sliceMemory) WriteU64(offset uint32, v uint64) error {
	if err := m.check(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m[offset:], v)
	return nil
}

func newTestHost(t *testing.T) (*Host, sliceMemory) {
	t.Helper()
	b := bridge.New()
	t.Cleanup(func() { _ = b.Close() })
	return New(b), make(sliceMemory, 256)
}

func TestHost_ResolveDecodeEncode(t *testing.T) {
	h, mem := newTestHost(t)

	spec := "struct{id: int32, tags: array<str>}"
	require.NoError(t, mem.Write(0, []byte(spec)))
	require.NoError(t, h.resolveType(mem, 0, uint32(len(spec)), 200))
	typ, _ := mem.ReadU64(200)
	require.NotZero(t, typ)

	wire := []byte{0x01, 0x07, 0, 0, 0, 0x02, 0x01, 'a', 0x02, 'b', 'b'}
	require.NoError(t, mem.Write(64, wire))
	require.NoError(t, h.decode(mem, bridge.Handle(typ), 64, uint32(len(wire)), 208))
	v, _ := mem.ReadU64(208)

	require.NoError(t, h.encode(mem, bridge.Handle(v), 100, 32, 216))
	n, _ := mem.ReadU32(216)
	assert.Equal(t, uint32(len(wire)), n)
	out, _ := mem.Read(100, n)
	assert.Equal(t, wire, out)

	require.NoError(t, h.hash(mem, bridge.Handle(v), 224))
	sum, _ := mem.ReadU64(224)
	want, err := h.Bridge().Hash(bridge.Handle(v))
	require.NoError(t, err)
	assert.Equal(t, want, sum)
}

func TestHost_EncodeBufferTooSmall(t *testing.T) {
	h, mem := newTestHost(t)

	typ, err := h.Bridge().ResolveType("str")
	require.NoError(t, err)
	v, err := h.Bridge().BuildValue(typ, "hello")
	require.NoError(t, err)

	before := append([]byte(nil), mem[100:110]...)
	err = h.encode(mem, v, 100, 3, 0)
	assert.Equal(t, bridge.StatusBufferTooSmall, bridge.Code(err))

	n, _ := mem.ReadU32(0)
	assert.Equal(t, uint32(7), n)
	assert.Equal(t, before, []byte(mem[100:110]))

	require.NoError(t, h.encode(mem, v, 100, n, 0))
	assert.Equal(t, []byte{0x01, 0x05, 'h', 'e', 'l', 'l', 'o'}, []byte(mem[100:107]))
}

func TestHost_Compare(t *testing.T) {
	h, mem := newTestHost(t)
	b := h.Bridge()

	typ, err := b.ResolveType("nullable<int32>")
	require.NoError(t, err)
	absent, err := b.BuildValue(typ, nil)
	require.NoError(t, err)
	one, err := b.BuildValue(typ, 1)
	require.NoError(t, err)

	require.NoError(t, h.compare(mem, absent, one, 0, 0))
	ord, _ := mem.ReadU32(0)
	assert.Equal(t, compare.LT, compare.Ordering(int32(ord)))

	require.NoError(t, h.compare(mem, absent, one, FlagNullsLast, 0))
	ord, _ = mem.ReadU32(0)
	assert.Equal(t, compare.GT, compare.Ordering(int32(ord)))

	err = h.compare(mem, absent, one, 0x4, 0)
	assert.Equal(t, bridge.StatusInvalidInput, bridge.Code(err))

	other, err := b.ResolveType("int32")
	require.NoError(t, err)
	n, err := b.BuildValue(other, 1)
	require.NoError(t, err)
	err = h.compare(mem, one, n, 0, 0)
	assert.Equal(t, bridge.StatusTypeMismatch, bridge.Code(err))
}

func TestHost_Errors(t *testing.T) {
	h, mem := newTestHost(t)

	require.NoError(t, mem.Write(0, []byte("array<")))
	err := h.resolveType(mem, 0, 6, 200)
	assert.Equal(t, bridge.StatusMalformedTypeSpec, bridge.Code(err))

	err = h.resolveType(mem, 250, 20, 200)
	assert.Equal(t, bridge.StatusInvalidInput, bridge.Code(err))

	err = h.decode(mem, 0, 0, 1, 200)
	assert.Equal(t, bridge.StatusInvalidHandle, bridge.Code(err))

	typ, err := h.Bridge().ResolveType("int64")
	require.NoError(t, err)
	require.NoError(t, mem.Write(0, []byte{0x01, 0x01}))
	err = h.decode(mem, typ, 0, 2, 200)
	assert.Equal(t, bridge.StatusTruncatedBuffer, bridge.Code(err))

	require.NoError(t, mem.Write(0, []byte{0x02}))
	err = h.decode(mem, typ, 0, 9, 200)
	assert.Equal(t, bridge.StatusUnsupportedVersion, bridge.Code(err))
}

func TestHost_UnwritableOutputReleasesHandle(t *testing.T) {
	h, mem := newTestHost(t)

	require.NoError(t, mem.Write(0, []byte("bool")))
	err := h.resolveType(mem, 0, 4, 252)
	assert.Equal(t, bridge.StatusInvalidInput, bridge.Code(err))
	assert.Equal(t, 0, h.Bridge().Live())
}
