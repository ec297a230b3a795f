// Package valuegen generates random descriptors and values for property
// tests.
package valuegen

import (
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/wippyai/hail/types"
	"github.com/wippyai/hail/value"
)

// Generator produces deterministic random types and values from a seed.
type Generator struct {
	rng *rand.Rand
	reg *types.Registry
}

func New(seed uint64, reg *types.Registry) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		reg: reg,
	}
}

var primitives = []types.Kind{
	types.KindVoid,
	types.KindBool,
	types.KindInt32,
	types.KindInt64,
	types.KindFloat32,
	types.KindFloat64,
	types.KindString,
	types.KindCall,
}

// Type returns a random descriptor nested at most depth levels.
func (g *Generator) Type(depth int) *types.Descriptor {
	if depth <= 0 || g.rng.IntN(3) == 0 {
		d, _ := g.reg.Primitive(primitives[g.rng.IntN(len(primitives))])
		return d
	}

	switch g.rng.IntN(4) {
	case 0:
		return g.reg.Array(g.Type(depth - 1))
	case 1:
		return g.reg.Nullable(g.Type(depth - 1))
	case 2:
		elems := make([]*types.Descriptor, g.rng.IntN(4))
		for i := range elems {
			elems[i] = g.Type(depth - 1)
		}
		return g.reg.Tuple(elems...)
	default:
		fields := make([]types.Field, 1+g.rng.IntN(3))
		for i := range fields {
			fields[i] = types.Field{Name: "f" + strconv.Itoa(i), Type: g.Type(depth - 1)}
		}
		d, err := g.reg.Struct(fields...)
		if err != nil {
			panic(err)
		}
		return d
	}
}

// Value returns a random value of type d. Scalars are drawn from small
// pools so that equal values occur often.
func (g *Generator) Value(d *types.Descriptor) *value.Value {
	var raw any
	switch d.Kind() {
	case types.KindVoid:
		raw = nil
	case types.KindBool:
		raw = g.rng.IntN(2) == 1
	case types.KindInt32:
		raw = []int32{math.MinInt32, -1, 0, 1, 7, math.MaxInt32}[g.rng.IntN(6)]
	case types.KindInt64:
		raw = []int64{math.MinInt64, -300, 0, 2, 1 << 40, math.MaxInt64}[g.rng.IntN(6)]
	case types.KindFloat32:
		raw = []float32{float32(math.Inf(-1)), -1.5, float32(math.Copysign(0, -1)), 0, 0.25, float32(math.NaN())}[g.rng.IntN(6)]
	case types.KindFloat64:
		raw = []float64{math.Inf(-1), -2, math.Copysign(0, -1), 0, 1e300, math.Inf(1), math.NaN()}[g.rng.IntN(7)]
	case types.KindString:
		raw = []string{"", "a", "ab", "b", "héllo", string(make([]byte, 200))}[g.rng.IntN(6)]
	case types.KindCall:
		raw = value.Call([]uint32{0, 1, 0xffffffff}[g.rng.IntN(3)])
	case types.KindArray:
		elems := make([]*value.Value, g.rng.IntN(4))
		for i := range elems {
			elems[i] = g.Value(d.ElemType())
		}
		raw = elems
	case types.KindTuple, types.KindStruct:
		elems := make([]*value.Value, d.Len())
		for i := range elems {
			elems[i] = g.Value(d.Elem(i))
		}
		raw = elems
	case types.KindNullable:
		if g.rng.IntN(3) == 0 {
			raw = nil
		} else {
			raw = g.Value(d.ElemType())
		}
	}
	return value.MustNew(d, raw)
}

// Values returns n random values of type d.
func (g *Generator) Values(d *types.Descriptor, n int) []*value.Value {
	out := make([]*value.Value, n)
	for i := range out {
		out[i] = g.Value(d)
	}
	return out
}
