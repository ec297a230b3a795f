// Package hail provides a runtime type system and a compact binary codec
// for structured values.
//
// Types are described by interned descriptors built from a small text
// syntax; values are immutable trees checked against their descriptor at
// construction. The codec serializes a value into a versioned,
// self-delimiting byte string and decodes it back under a descriptor,
// rejecting malformed input with a structured error instead of panicking.
//
// # Architecture Overview
//
//	hail/              Root package with the guest Memory interface
//	├── types/         Descriptors, the intern registry, type specs, schemas
//	├── value/         Immutable values, construction, projection
//	├── codec/         Binary encoder and decoder
//	├── compare/       Total ordering and order-consistent hashing
//	├── bridge/        Handle table and host data marshaling
//	├── wasmhost/      wazero host module exposing the bridge to guests
//	├── errors/        Structured error types
//	└── cmd/hail/      Command line tool
//
// # Quick Start
//
//	reg := types.Default()
//	d, err := reg.Resolve("struct{id: int32, tags: array<str>}")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v, err := value.New(d, []*value.Value{
//	    value.Int32(7),
//	    value.MustNew(reg.Array(reg.Str()), []*value.Value{value.String("a"), value.String("bb")}),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	buf := codec.Encode(v) // 01 07 00 00 00 02 01 61 02 62 62
//
//	back, err := codec.Decode(buf, d)
//
// # Type Syntax
//
//   - Primitives: void, bool, int32, int64, float32, float64, str (alias string, bytes), call
//   - Composite: array<T>, nullable<T>, tuple(T, ...), struct{name: T, ...}
//
// Structurally equal types resolve to the same descriptor, so descriptor
// identity is type equality.
//
// # Thread Safety
//
// Descriptors and values are immutable and safe to share. The registry
// supports concurrent resolution. A bridge guards its handle table with
// its own lock.
package hail
