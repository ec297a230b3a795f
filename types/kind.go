package types

type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindCall
	KindArray
	KindStruct
	KindTuple
	KindNullable

	kindCount
)

var kindNames = [...]string{
	KindVoid:     "void",
	KindBool:     "bool",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindFloat32:  "float32",
	KindFloat64:  "float64",
	KindString:   "str",
	KindCall:     "call",
	KindArray:    "array",
	KindStruct:   "struct",
	KindTuple:    "tuple",
	KindNullable: "nullable",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) IsPrimitive() bool {
	return k <= KindCall
}

// Width is the fixed encoded size of a primitive, or -1 for
// variable-width and composite kinds.
func (k Kind) Width() int {
	switch k {
	case KindVoid:
		return 0
	case KindBool:
		return 1
	case KindInt32, KindFloat32, KindCall:
		return 4
	case KindInt64, KindFloat64:
		return 8
	default:
		return -1
	}
}

// primitiveNames maps every accepted primitive spelling to its kind.
var primitiveNames = map[string]Kind{
	"void":    KindVoid,
	"bool":    KindBool,
	"int32":   KindInt32,
	"int64":   KindInt64,
	"float32": KindFloat32,
	"float64": KindFloat64,
	"str":     KindString,
	"string":  KindString,
	"bytes":   KindString,
	"call":    KindCall,
}

// IsKeyword reports whether name is reserved by the type grammar.
func IsKeyword(name string) bool {
	if _, ok := primitiveNames[name]; ok {
		return true
	}
	switch name {
	case "array", "struct", "tuple", "nullable":
		return true
	}
	return false
}
