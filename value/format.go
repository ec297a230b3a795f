package value

import (
	"strconv"
	"strings"

	"github.com/wippyai/hail/types"
)

// String renders v as a literal, e.g. {id: 7, tags: ["a", "bb"]}.
func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	var b strings.Builder
	v.format(&b)
	return b.String()
}

func (v *Value) format(b *strings.Builder) {
	switch v.typ.Kind() {
	case types.KindVoid:
		b.WriteString("void")
	case types.KindBool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case types.KindInt32:
		b.WriteString(strconv.FormatInt(int64(v.Int32()), 10))
	case types.KindInt64:
		b.WriteString(strconv.FormatInt(v.Int64(), 10))
	case types.KindFloat32:
		b.WriteString(strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32))
	case types.KindFloat64:
		b.WriteString(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case types.KindString:
		b.WriteString(strconv.Quote(v.str))
	case types.KindCall:
		b.WriteString("call(")
		b.WriteString(strconv.FormatUint(uint64(v.Call()), 10))
		b.WriteByte(')')

	case types.KindNullable:
		if len(v.elems) == 0 {
			b.WriteString("null")
			return
		}
		v.elems[0].format(b)

	case types.KindArray:
		b.WriteByte('[')
		v.formatElems(b)
		b.WriteByte(']')

	case types.KindTuple:
		b.WriteByte('(')
		v.formatElems(b)
		b.WriteByte(')')

	case types.KindStruct:
		b.WriteByte('{')
		for i, e := range v.elems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(types.QuoteFieldName(v.typ.FieldName(i)))
			b.WriteString(": ")
			e.format(b)
		}
		b.WriteByte('}')
	}
}

func (v *Value) formatElems(b *strings.Builder) {
	for i, e := range v.elems {
		if i > 0 {
			b.WriteString(", ")
		}
		e.format(b)
	}
}
