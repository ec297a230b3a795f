// Package value holds typed, immutable hail values.
//
// A Value always conforms to exactly one interned descriptor. Construction
// checks the raw payload against the descriptor and fails with a
// TypeMismatch error on any disagreement, so every Value in circulation is
// well formed and can be encoded without further checks.
package value

import (
	"fmt"
	"math"

	"github.com/wippyai/hail/errors"
	"github.com/wippyai/hail/types"
)

// Call is a packed genotype call.
type Call uint32

// Value is an immutable typed payload. Scalars are stored inline in bits or
// str; composites own their children.
type Value struct {
	typ   *types.Descriptor
	elems []*Value
	str   string
	bits  uint64
}

// New builds a value of type d from raw host data.
//
//	void              nil or struct{}{}
//	bool              bool
//	int32, int64      int32, int64
//	float32, float64  float32, float64
//	str               string or []byte
//	call              Call
//	array, tuple      []*Value
//	struct            []*Value in field order
//	nullable          nil (absent) or *Value (present)
//
// Children must carry exactly the descriptor d declares for their position.
// Descriptors outside any registry are interned into types.Default.
func New(d *types.Descriptor, raw any) (*Value, error) {
	if d == nil {
		return nil, errors.InvalidInput(errors.PhaseConstruct, "nil descriptor")
	}
	if !d.Interned() {
		d = types.Default().Intern(d)
	}

	switch d.Kind() {
	case types.KindVoid:
		switch raw.(type) {
		case nil, struct{}:
			return &Value{typ: d}, nil
		}

	case types.KindBool:
		if b, ok := raw.(bool); ok {
			v := &Value{typ: d}
			if b {
				v.bits = 1
			}
			return v, nil
		}

	case types.KindInt32:
		if n, ok := raw.(int32); ok {
			return &Value{typ: d, bits: uint64(uint32(n))}, nil
		}

	case types.KindInt64:
		if n, ok := raw.(int64); ok {
			return &Value{typ: d, bits: uint64(n)}, nil
		}

	case types.KindFloat32:
		if f, ok := raw.(float32); ok {
			return &Value{typ: d, bits: uint64(math.Float32bits(f))}, nil
		}

	case types.KindFloat64:
		if f, ok := raw.(float64); ok {
			return &Value{typ: d, bits: math.Float64bits(f)}, nil
		}

	case types.KindString:
		switch s := raw.(type) {
		case string:
			return &Value{typ: d, str: s}, nil
		case []byte:
			return &Value{typ: d, str: string(s)}, nil
		}

	case types.KindCall:
		if c, ok := raw.(Call); ok {
			return &Value{typ: d, bits: uint64(c)}, nil
		}

	case types.KindNullable:
		switch inner := raw.(type) {
		case nil:
			return &Value{typ: d}, nil
		case *Value:
			if inner == nil {
				return &Value{typ: d}, nil
			}
			if inner.typ != d.ElemType() {
				return nil, childMismatch(nil, inner, d.ElemType())
			}
			return &Value{typ: d, elems: []*Value{inner}}, nil
		}

	case types.KindArray, types.KindTuple, types.KindStruct:
		if elems, ok := raw.([]*Value); ok {
			return newComposite(d, elems)
		}
	}

	return nil, errors.TypeMismatch(errors.PhaseConstruct, nil, fmt.Sprintf("%T", raw), d.String())
}

// MustNew is like New but panics on error.
func MustNew(d *types.Descriptor, raw any) *Value {
	v, err := New(d, raw)
	if err != nil {
		panic(err)
	}
	return v
}

func newComposite(d *types.Descriptor, elems []*Value) (*Value, error) {
	if d.Kind() == types.KindArray {
		want := d.ElemType()
		for i, e := range elems {
			if e == nil || e.typ != want {
				return nil, childMismatch([]string{fmt.Sprintf("[%d]", i)}, e, want)
			}
		}
	} else {
		if len(elems) != d.Len() {
			return nil, errors.New(errors.PhaseConstruct, errors.KindTypeMismatch).
				TypeName(d.String()).
				Detail("got %d children, want %d", len(elems), d.Len()).
				Build()
		}
		for i, e := range elems {
			want := d.Elem(i)
			if e == nil || e.typ != want {
				return nil, childMismatch([]string{positionName(d, i)}, e, want)
			}
		}
	}

	owned := make([]*Value, len(elems))
	copy(owned, elems)
	return &Value{typ: d, elems: owned}, nil
}

func childMismatch(path []string, got *Value, want *types.Descriptor) *errors.Error {
	host := "nil"
	if got != nil {
		host = got.typ.String()
	}
	return errors.TypeMismatch(errors.PhaseConstruct, path, host, want.String())
}

func positionName(d *types.Descriptor, i int) string {
	if d.Kind() == types.KindStruct {
		return d.FieldName(i)
	}
	return fmt.Sprintf("[%d]", i)
}

// Convenience constructors over types.Default().

func Bool(b bool) *Value       { return MustNew(types.Default().Bool(), b) }
func Int32(n int32) *Value     { return MustNew(types.Default().Int32(), n) }
func Int64(n int64) *Value     { return MustNew(types.Default().Int64(), n) }
func Float32(f float32) *Value { return MustNew(types.Default().Float32(), f) }
func Float64(f float64) *Value { return MustNew(types.Default().Float64(), f) }
func String(s string) *Value   { return MustNew(types.Default().Str(), s) }
func Bytes(b []byte) *Value    { return MustNew(types.Default().Str(), b) }
func CallOf(c Call) *Value     { return MustNew(types.Default().Call(), c) }
func Void() *Value             { return MustNew(types.Default().Void(), nil) }

// Null returns the absent value of nullable type d.
func Null(d *types.Descriptor) (*Value, error) {
	if d == nil || d.Kind() != types.KindNullable {
		return nil, notNullable(d)
	}
	return New(d, nil)
}

// Some wraps inner as the present value of nullable type d.
func Some(d *types.Descriptor, inner *Value) (*Value, error) {
	if d == nil || d.Kind() != types.KindNullable {
		return nil, notNullable(d)
	}
	if inner == nil {
		return nil, errors.TypeMismatch(errors.PhaseConstruct, nil, "nil", d.ElemType().String())
	}
	return New(d, inner)
}

func notNullable(d *types.Descriptor) *errors.Error {
	name := "nil"
	if d != nil {
		name = d.String()
	}
	return errors.New(errors.PhaseConstruct, errors.KindTypeMismatch).
		TypeName(name).
		Detail("not a nullable type").
		Build()
}

// Type returns the value's descriptor.
func (v *Value) Type() *types.Descriptor { return v.typ }

func (v *Value) Kind() types.Kind { return v.typ.Kind() }

// Scalar accessors. Calling one on a value of another kind returns the zero
// interpretation of the stored bits.

func (v *Value) Bool() bool         { return v.bits != 0 }
func (v *Value) Int32() int32       { return int32(uint32(v.bits)) }
func (v *Value) Int64() int64       { return int64(v.bits) }
func (v *Value) Float32() float32   { return math.Float32frombits(uint32(v.bits)) }
func (v *Value) Float64() float64   { return math.Float64frombits(v.bits) }
func (v *Value) Str() string        { return v.str }
func (v *Value) Call() Call         { return Call(uint32(v.bits)) }
func (v *Value) BytesValue() []byte { return []byte(v.str) }

// Len returns the number of children: array length, tuple or struct
// arity, 0 or 1 for a nullable.
func (v *Value) Len() int { return len(v.elems) }

// Elem returns the i-th child.
func (v *Value) Elem(i int) *Value { return v.elems[i] }

// Elems returns a copy of the child list.
func (v *Value) Elems() []*Value {
	out := make([]*Value, len(v.elems))
	copy(out, v.elems)
	return out
}

// Present reports whether a nullable value holds a child.
func (v *Value) Present() bool {
	return v.typ.Kind() == types.KindNullable && len(v.elems) == 1
}

// Inner returns the child of a present nullable, or nil.
func (v *Value) Inner() *Value {
	if v.Present() {
		return v.elems[0]
	}
	return nil
}

// IsNull reports whether a nullable value is absent. Non-nullable values
// are a TypeMismatch.
func IsNull(v *Value) (bool, error) {
	if v == nil {
		return false, errors.InvalidInput(errors.PhaseProject, "nil value")
	}
	if v.typ.Kind() != types.KindNullable {
		return false, errors.New(errors.PhaseProject, errors.KindTypeMismatch).
			TypeName(v.typ.String()).
			Detail("isNull is only defined for nullable values").
			Build()
	}
	return len(v.elems) == 0, nil
}

// Equal reports structural equality. Values of different descriptors are
// never equal. Floats compare numerically with NaN equal to NaN.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	if a.typ != b.typ {
		return false
	}

	switch a.typ.Kind() {
	case types.KindVoid:
		return true
	case types.KindBool, types.KindInt32, types.KindInt64, types.KindCall:
		return a.bits == b.bits
	case types.KindFloat32:
		x, y := a.Float32(), b.Float32()
		return x == y || (x != x && y != y)
	case types.KindFloat64:
		x, y := a.Float64(), b.Float64()
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case types.KindString:
		return a.str == b.str
	}

	if len(a.elems) != len(b.elems) {
		return false
	}
	for i := range a.elems {
		if !Equal(a.elems[i], b.elems[i]) {
			return false
		}
	}
	return true
}

// Equal is shorthand for Equal(v, other).
func (v *Value) Equal(other *Value) bool { return Equal(v, other) }
