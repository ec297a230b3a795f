package codec

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/wippyai/hail/types"
	"github.com/wippyai/hail/value"
)

// FormatVersion is the wire format version written as the first byte of
// every buffer. Decoders accept versions 1 through FormatVersion.
const FormatVersion byte = 1

// Encode returns the versioned encoding of v. It allocates exactly once.
func Encode(v *value.Value) []byte {
	return AppendEncode(make([]byte, 0, Size(v)), v)
}

// AppendEncode appends the versioned encoding of v to dst.
func AppendEncode(dst []byte, v *value.Value) []byte {
	dst = append(dst, FormatVersion)
	return appendValue(dst, v)
}

// Size returns the length of Encode(v), version byte included.
func Size(v *value.Value) int {
	return 1 + payloadSize(v)
}

// WriteTo encodes v through a pooled scratch buffer.
func WriteTo(w io.Writer, v *value.Value) (int, error) {
	buf := getBuf()
	defer putBuf(buf)
	*buf = AppendEncode(*buf, v)
	return w.Write(*buf)
}

// Encoder encodes values into a reusable scratch buffer. The slice returned
// by Encode is valid until the next call to Encode or Release. An Encoder
// is not safe for concurrent use.
type Encoder struct {
	buf *[]byte
}

func NewEncoder() *Encoder {
	return &Encoder{buf: getBuf()}
}

func (e *Encoder) Encode(v *value.Value) []byte {
	if e.buf == nil {
		e.buf = getBuf()
	}
	*e.buf = AppendEncode((*e.buf)[:0], v)
	return *e.buf
}

// Release returns the scratch buffer to the pool.
func (e *Encoder) Release() {
	putBuf(e.buf)
	e.buf = nil
}

func appendValue(dst []byte, v *value.Value) []byte {
	switch v.Kind() {
	case types.KindVoid:
		return dst

	case types.KindBool:
		if v.Bool() {
			return append(dst, 1)
		}
		return append(dst, 0)

	case types.KindInt32:
		return binary.LittleEndian.AppendUint32(dst, uint32(v.Int32()))

	case types.KindInt64:
		return binary.LittleEndian.AppendUint64(dst, uint64(v.Int64()))

	case types.KindFloat32:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v.Float32()))

	case types.KindFloat64:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.Float64()))

	case types.KindCall:
		return binary.LittleEndian.AppendUint32(dst, uint32(v.Call()))

	case types.KindString:
		s := v.Str()
		dst = AppendUvarint(dst, uint64(len(s)))
		return append(dst, s...)

	case types.KindArray:
		dst = AppendUvarint(dst, uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			dst = appendValue(dst, v.Elem(i))
		}
		return dst

	case types.KindTuple, types.KindStruct:
		for i := 0; i < v.Len(); i++ {
			dst = appendValue(dst, v.Elem(i))
		}
		return dst

	case types.KindNullable:
		if !v.Present() {
			return append(dst, 0)
		}
		dst = append(dst, 1)
		return appendValue(dst, v.Inner())
	}
	return dst
}

func payloadSize(v *value.Value) int {
	k := v.Kind()
	if w := k.Width(); w >= 0 {
		return w
	}

	switch k {
	case types.KindString:
		n := len(v.Str())
		return UvarintLen(uint64(n)) + n

	case types.KindArray:
		n := UvarintLen(uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			n += payloadSize(v.Elem(i))
		}
		return n

	case types.KindTuple, types.KindStruct:
		n := 0
		for i := 0; i < v.Len(); i++ {
			n += payloadSize(v.Elem(i))
		}
		return n

	case types.KindNullable:
		if !v.Present() {
			return 1
		}
		return 1 + payloadSize(v.Inner())
	}
	return 0
}
