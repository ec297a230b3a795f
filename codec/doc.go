// Package codec implements the hail binary wire format.
//
// A buffer is one format version byte followed by the payload of a single
// value. The payload layout is driven entirely by the descriptor, which is
// supplied out of band at decode time:
//
//	void               nothing
//	bool               1 byte, 0 or 1
//	int32, call        4 bytes little-endian
//	int64              8 bytes little-endian
//	float32, float64   IEEE 754 bits, little-endian
//	str                unsigned LEB128 length, then the bytes
//	array<T>           unsigned LEB128 count, then each element
//	struct, tuple      children in declared order, no tags
//	nullable<T>        presence byte (0 absent, 1 present), then T if present
//
// Decoding with a descriptor other than the one used to encode is undefined
// and usually fails fast with TruncatedBuffer or InvalidData.
//
// Example: struct{id: int32, tags: array<str>} holding {id: 7, tags: ["a", "bb"]}
//
//	01 07 00 00 00 02 01 61 02 62 62
package codec
