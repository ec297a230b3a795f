package compare

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/wippyai/hail/types"
	"github.com/wippyai/hail/value"
)

// Canonical NaN bit patterns fed to the hash.
const (
	canonicalNaN64 = 0x7ff8000000000001
	canonicalNaN32 = 0x7fc00001
)

type hasher struct {
	d       *xxhash.Digest
	scratch [8]byte
}

var hasherPool = sync.Pool{
	New: func() any {
		return &hasher{d: xxhash.New()}
	},
}

// Hash returns a 64-bit hash of v consistent with Compare: values that
// compare EQ hash equal. Hashes are stable within a process only.
func Hash(v *value.Value) uint64 {
	if v == nil {
		return 0
	}
	h := hasherPool.Get().(*hasher)
	h.d.Reset()
	h.value(v)
	sum := h.d.Sum64()
	hasherPool.Put(h)
	return sum
}

func (h *hasher) u8(b byte) {
	h.scratch[0] = b
	_, _ = h.d.Write(h.scratch[:1])
}

func (h *hasher) u32(n uint32) {
	binary.LittleEndian.PutUint32(h.scratch[:4], n)
	_, _ = h.d.Write(h.scratch[:4])
}

func (h *hasher) u64(n uint64) {
	binary.LittleEndian.PutUint64(h.scratch[:8], n)
	_, _ = h.d.Write(h.scratch[:8])
}

// value streams a framed encoding of v. Lengths and presence bytes keep
// adjacent children from aliasing.
func (h *hasher) value(v *value.Value) {
	switch v.Kind() {
	case types.KindVoid:
	case types.KindBool:
		if v.Bool() {
			h.u8(1)
		} else {
			h.u8(0)
		}
	case types.KindInt32:
		h.u32(uint32(v.Int32()))
	case types.KindInt64:
		h.u64(uint64(v.Int64()))
	case types.KindCall:
		h.u32(uint32(v.Call()))
	case types.KindFloat32:
		h.u32(float32Key(v.Float32()))
	case types.KindFloat64:
		h.u64(float64Key(v.Float64()))
	case types.KindString:
		s := v.Str()
		h.u64(uint64(len(s)))
		_, _ = h.d.WriteString(s)

	case types.KindNullable:
		if !v.Present() {
			h.u8(0)
			return
		}
		h.u8(1)
		h.value(v.Inner())

	case types.KindArray:
		h.u64(uint64(v.Len()))
		fallthrough
	case types.KindTuple, types.KindStruct:
		for i := 0; i < v.Len(); i++ {
			h.value(v.Elem(i))
		}
	}
}

func float32Key(f float32) uint32 {
	switch {
	case f != f:
		return canonicalNaN32
	case f == 0:
		return 0
	}
	return math.Float32bits(f)
}

func float64Key(f float64) uint64 {
	switch {
	case math.IsNaN(f):
		return canonicalNaN64
	case f == 0:
		return 0
	}
	return math.Float64bits(f)
}
