// Package compare defines the total order and hash over hail values.
//
// Values are only comparable when they share a descriptor. The order is
// natural for scalars (bytewise for strings, false before true), totally
// ordered for floats (-0 equals +0, NaN sorts after every number and equals
// NaN), lexicographic for arrays with shorter-is-less on a common prefix,
// lexicographic in declared order for structs and tuples, and places absent
// nullables before present ones unless NullsLast is set.
//
// Hash is consistent with the order: values that compare EQ hash equal.
package compare

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/wippyai/hail/errors"
	"github.com/wippyai/hail/types"
	"github.com/wippyai/hail/value"
)

// Ordering is the result of a comparison.
type Ordering int8

const (
	LT Ordering = -1
	EQ Ordering = 0
	GT Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case LT:
		return "LT"
	case EQ:
		return "EQ"
	case GT:
		return "GT"
	}
	return "invalid"
}

// Comparator orders values. The zero value sorts nulls first.
type Comparator struct {
	NullsLast bool
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithNullsLast sorts absent nullables after every present value.
func WithNullsLast() Option {
	return func(c *Comparator) { c.NullsLast = true }
}

func New(opts ...Option) *Comparator {
	c := &Comparator{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare orders a and b with the given options.
func Compare(a, b *value.Value, opts ...Option) (Ordering, error) {
	return New(opts...).Compare(a, b)
}

// Equal reports whether a and b compare EQ. Values of different types are
// never equal.
func Equal(a, b *value.Value) bool {
	o, err := Compare(a, b)
	return err == nil && o == EQ
}

// Less reports whether a sorts before b under the default order.
func Less(a, b *value.Value) bool {
	o, err := Compare(a, b)
	return err == nil && o == LT
}

// Sort stably sorts values under the default order.
func Sort(values []*value.Value, opts ...Option) error {
	return New(opts...).Sort(values)
}

// Compare returns the order of a relative to b. Both must share a
// descriptor.
func (c *Comparator) Compare(a, b *value.Value) (Ordering, error) {
	if a == nil || b == nil {
		return EQ, errors.InvalidInput(errors.PhaseCompare, "nil value")
	}
	if a.Type() != b.Type() {
		return EQ, errors.TypeMismatch(errors.PhaseCompare, nil, a.Type().String(), b.Type().String())
	}
	return c.compare(a, b), nil
}

// Sort stably sorts values, which must all share a descriptor. On error
// the slice is left untouched.
func (c *Comparator) Sort(values []*value.Value) error {
	if len(values) == 0 {
		return nil
	}
	for _, v := range values {
		if v == nil {
			return errors.InvalidInput(errors.PhaseCompare, "nil value")
		}
		if v.Type() != values[0].Type() {
			return errors.TypeMismatch(errors.PhaseCompare, nil, v.Type().String(), values[0].Type().String())
		}
	}
	slices.SortStableFunc(values, func(a, b *value.Value) int {
		return int(c.compare(a, b))
	})
	return nil
}

// compare assumes a and b share a descriptor.
func (c *Comparator) compare(a, b *value.Value) Ordering {
	switch a.Kind() {
	case types.KindVoid:
		return EQ
	case types.KindBool:
		return boolOrder(a.Bool(), b.Bool())
	case types.KindInt32:
		return Ordering(cmp.Compare(a.Int32(), b.Int32()))
	case types.KindInt64:
		return Ordering(cmp.Compare(a.Int64(), b.Int64()))
	case types.KindCall:
		return Ordering(cmp.Compare(a.Call(), b.Call()))
	case types.KindFloat32:
		return floatOrder(float64(a.Float32()), float64(b.Float32()))
	case types.KindFloat64:
		return floatOrder(a.Float64(), b.Float64())
	case types.KindString:
		return Ordering(strings.Compare(a.Str(), b.Str()))

	case types.KindNullable:
		ap, bp := a.Present(), b.Present()
		switch {
		case ap && bp:
			return c.compare(a.Inner(), b.Inner())
		case !ap && !bp:
			return EQ
		case !ap:
			return c.absentFirst()
		default:
			return -c.absentFirst()
		}

	case types.KindArray, types.KindTuple, types.KindStruct:
		n := min(a.Len(), b.Len())
		for i := 0; i < n; i++ {
			if o := c.compare(a.Elem(i), b.Elem(i)); o != EQ {
				return o
			}
		}
		return Ordering(cmp.Compare(a.Len(), b.Len()))
	}
	return EQ
}

// absentFirst is the order of an absent value relative to a present one.
func (c *Comparator) absentFirst() Ordering {
	if c.NullsLast {
		return GT
	}
	return LT
}

func boolOrder(a, b bool) Ordering {
	switch {
	case a == b:
		return EQ
	case !a:
		return LT
	default:
		return GT
	}
}

// floatOrder is a total order: -0 == +0, NaN == NaN, NaN above +Inf.
func floatOrder(a, b float64) Ordering {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return EQ
	case an:
		return GT
	case bn:
		return LT
	case a < b:
		return LT
	case a > b:
		return GT
	}
	return EQ
}
