package codec

import "errors"

// LEB128 helpers for length prefixes.

var (
	// ErrOverflow is returned when a LEB128 value exceeds 64 bits.
	ErrOverflow = errors.New("leb128: overflow")

	// ErrTruncated is returned when the buffer ends inside a LEB128 value.
	ErrTruncated = errors.New("leb128: truncated")
)

// maxUvarintLen is the longest encoding of a uint64.
const maxUvarintLen = 10

// AppendUvarint appends the unsigned LEB128 encoding of v.
func AppendUvarint(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// UvarintLen returns the encoded size of v.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// ReadUvarint decodes an unsigned LEB128 value from the start of buf and
// returns it with the number of bytes consumed.
func ReadUvarint(buf []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if i == maxUvarintLen-1 && b > 1 {
			return 0, 0, ErrOverflow
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrTruncated
}
