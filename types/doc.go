// Package types defines hail type descriptors and the registry that interns them.
//
// A Descriptor describes the shape of a value: one of the primitive kinds
// (void, bool, int32, int64, float32, float64, str, call) or a composite
// (array, struct, tuple, nullable) with an ordered list of children.
// Descriptors are immutable and acyclic.
//
// # Interning
//
// Every descriptor obtained from a Registry is canonical: two structurally
// equal descriptors are the same pointer, so identity can be used as an
// equality and dispatch key.
//
//	reg := types.NewRegistry()
//	a := reg.MustResolve("array<int32>")
//	b := reg.Array(reg.Int32())
//	// a == b
//
// Descriptors built with ArrayOf, TupleOf, StructOf and NullableOf are
// unregistered until passed to Registry.Intern.
//
// # Type Expressions
//
//	int32
//	array<str>
//	tuple(int32, float64)
//	struct{id: int32, tags: array<str>, "first name": nullable<str>}
//
// Named definitions live in a Schema (usually YAML) and may reference each
// other; cycles are rejected at resolution time.
//
// WIT types can be imported with Registry.FromWIT.
//
// # Thread Safety
//
// Registry is safe for concurrent use. Descriptors are read-only.
package types
