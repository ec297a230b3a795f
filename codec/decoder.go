package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wippyai/hail/errors"
	"github.com/wippyai/hail/types"
	"github.com/wippyai/hail/value"
)

// Decoder decodes buffers under a fixed set of options. It holds no
// mutable state and is safe for concurrent use.
type Decoder struct {
	cfg config
}

func NewDecoder(opts ...Option) *Decoder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Decoder{cfg: cfg}
}

var defaultDecoder = NewDecoder()

// Decode decodes buf as a value of type d with default options.
func Decode(buf []byte, d *types.Descriptor, opts ...Option) (*value.Value, error) {
	if len(opts) == 0 {
		return defaultDecoder.Decode(buf, d)
	}
	return NewDecoder(opts...).Decode(buf, d)
}

// Decode decodes buf as a value of type d. The descriptor is authoritative
// for layout. On failure no value is returned and buf is not modified.
func (dec *Decoder) Decode(buf []byte, d *types.Descriptor) (*value.Value, error) {
	if d == nil {
		return nil, errors.InvalidInput(errors.PhaseDecode, "nil descriptor")
	}
	if !d.Interned() {
		d = types.Default().Intern(d)
	}

	if len(buf) == 0 {
		return nil, errors.TruncatedBuffer(nil, 0, 1, 0)
	}
	if version := buf[0]; version == 0 || version > FormatVersion {
		return nil, errors.UnsupportedVersion(version, FormatVersion)
	}

	r := &reader{buf: buf, off: 1, cfg: &dec.cfg}
	v, err := r.value(d, 0)
	if err != nil {
		return nil, err
	}
	if r.off != len(buf) && !dec.cfg.allowTrailing {
		return nil, errors.InvalidData(errors.PhaseDecode, nil,
			fmt.Sprintf("%d trailing bytes at offset %d", len(buf)-r.off, r.off))
	}
	return v, nil
}

// zeroWidthChunk is the initial capacity for arrays of zero-width elements.
const zeroWidthChunk = 1024

type reader struct {
	buf []byte
	off int
	cfg *config
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

// take returns the next n bytes.
func (r *reader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, errors.TruncatedBuffer(nil, r.off, n, r.remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) uvarint() (uint64, error) {
	n, size, err := ReadUvarint(r.buf[r.off:])
	switch err {
	case nil:
		r.off += size
		return n, nil
	case ErrTruncated:
		return 0, errors.TruncatedBuffer(nil, r.off, r.remaining()+1, r.remaining())
	default:
		return 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Cause(err).
			Detail("length prefix at offset %d", r.off).
			Build()
	}
}

// length reads a length prefix for n items of at least unit bytes each and
// checks it against what remains.
func (r *reader) length(unit int) (int, error) {
	start := r.off
	n, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	rem := uint64(r.remaining())
	if unit > 0 && n > rem/uint64(unit) {
		need := math.MaxInt
		if n <= uint64(math.MaxInt/unit) {
			need = int(n) * unit
		}
		return 0, errors.TruncatedBuffer(nil, r.off, need, int(rem))
	}
	if unit == 0 && n > r.cfg.maxElements {
		return 0, errors.InvalidData(errors.PhaseDecode, nil,
			fmt.Sprintf("length %d at offset %d exceeds limit %d", n, start, r.cfg.maxElements))
	}
	return int(n), nil
}

func (r *reader) value(d *types.Descriptor, depth int) (*value.Value, error) {
	if r.cfg.maxDepth > 0 && depth > r.cfg.maxDepth {
		return nil, errors.InvalidData(errors.PhaseDecode, nil,
			fmt.Sprintf("type nesting exceeds depth %d", r.cfg.maxDepth))
	}

	switch d.Kind() {
	case types.KindVoid:
		return value.New(d, nil)

	case types.KindBool:
		off := r.off
		b, err := r.take(1)
		if err != nil {
			return nil, err
		}
		if b[0] > 1 {
			return nil, errors.InvalidDiscriminant(nil, off, b[0])
		}
		return value.New(d, b[0] == 1)

	case types.KindInt32:
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return value.New(d, int32(binary.LittleEndian.Uint32(b)))

	case types.KindInt64:
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return value.New(d, int64(binary.LittleEndian.Uint64(b)))

	case types.KindFloat32:
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return value.New(d, math.Float32frombits(binary.LittleEndian.Uint32(b)))

	case types.KindFloat64:
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return value.New(d, math.Float64frombits(binary.LittleEndian.Uint64(b)))

	case types.KindCall:
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return value.New(d, value.Call(binary.LittleEndian.Uint32(b)))

	case types.KindString:
		n, err := r.length(1)
		if err != nil {
			return nil, err
		}
		b, err := r.take(n)
		if err != nil {
			return nil, err
		}
		return value.New(d, string(b))

	case types.KindArray:
		elem := d.ElemType()
		n, err := r.length(elem.MinEncodedSize())
		if err != nil {
			return nil, err
		}
		// zero-width lengths are not backed by input bytes
		capacity := n
		if elem.MinEncodedSize() == 0 {
			capacity = min(n, zeroWidthChunk)
		}
		elems := make([]*value.Value, 0, capacity)
		for i := 0; i < n; i++ {
			e, err := r.value(elem, depth+1)
			if err != nil {
				return nil, withSegment(err, fmt.Sprintf("[%d]", i))
			}
			elems = append(elems, e)
		}
		return value.New(d, elems)

	case types.KindTuple, types.KindStruct:
		elems := make([]*value.Value, d.Len())
		for i := range elems {
			e, err := r.value(d.Elem(i), depth+1)
			if err != nil {
				return nil, withSegment(err, segmentName(d, i))
			}
			elems[i] = e
		}
		return value.New(d, elems)

	case types.KindNullable:
		off := r.off
		b, err := r.take(1)
		if err != nil {
			return nil, err
		}
		switch b[0] {
		case 0:
			return value.New(d, nil)
		case 1:
			inner, err := r.value(d.ElemType(), depth+1)
			if err != nil {
				return nil, err
			}
			return value.New(d, inner)
		default:
			return nil, errors.InvalidDiscriminant(nil, off, b[0])
		}
	}

	return nil, errors.InvalidData(errors.PhaseDecode, nil, "unknown kind "+d.Kind().String())
}

func segmentName(d *types.Descriptor, i int) string {
	if d.Kind() == types.KindStruct {
		return d.FieldName(i)
	}
	return fmt.Sprintf("[%d]", i)
}

// withSegment prepends a path segment to a structured error.
func withSegment(err error, seg string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append([]string{seg}, e.Path...)
	}
	return err
}
