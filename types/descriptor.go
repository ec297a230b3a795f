package types

import (
	"strconv"
	"strings"
)

// ID is a descriptor's index in its registry's arena.
type ID uint32

// Descriptor is an immutable type node. Descriptors returned by a Registry
// are interned: two structurally equal descriptors from the same registry
// are the same pointer.
type Descriptor struct {
	reg     *Registry
	elems   []*Descriptor
	names   []string
	key     string
	text    string
	minSize int
	id      ID
	kind    Kind
}

// Field is a named struct member used when building struct descriptors.
type Field struct {
	Type *Descriptor
	Name string
}

func (d *Descriptor) Kind() Kind { return d.kind }

// ID returns the arena index. Only meaningful for interned descriptors.
func (d *Descriptor) ID() ID { return d.id }

// Interned reports whether d belongs to a registry.
func (d *Descriptor) Interned() bool { return d.reg != nil }

// Registry returns the owning registry, or nil for unregistered descriptors.
func (d *Descriptor) Registry() *Registry { return d.reg }

// Len returns the number of children: 1 for arrays and nullables, the
// element/field count for tuples and structs, 0 for primitives.
func (d *Descriptor) Len() int { return len(d.elems) }

// Elem returns the i-th child descriptor.
func (d *Descriptor) Elem(i int) *Descriptor { return d.elems[i] }

// Elems returns a copy of the child list.
func (d *Descriptor) Elems() []*Descriptor {
	out := make([]*Descriptor, len(d.elems))
	copy(out, d.elems)
	return out
}

// FieldName returns the i-th struct field name.
func (d *Descriptor) FieldName(i int) string { return d.names[i] }

// Field returns the i-th struct field.
func (d *Descriptor) Field(i int) Field {
	return Field{Name: d.names[i], Type: d.elems[i]}
}

// FieldIndex returns the position of a struct field, or -1.
func (d *Descriptor) FieldIndex(name string) int {
	for i, n := range d.names {
		if n == name {
			return i
		}
	}
	return -1
}

// ElemType returns the element type of an array or the wrapped type of a nullable.
func (d *Descriptor) ElemType() *Descriptor {
	if (d.kind == KindArray || d.kind == KindNullable) && len(d.elems) == 1 {
		return d.elems[0]
	}
	return nil
}

// MinEncodedSize is the smallest number of payload bytes any value of this
// type occupies on the wire (excluding the version byte).
func (d *Descriptor) MinEncodedSize() int { return d.minSize }

// String returns the canonical text form, e.g. "array<tuple(int32, str)>".
func (d *Descriptor) String() string {
	if d.text != "" {
		return d.text
	}
	return d.render()
}

// GoString returns the dtype repr, e.g. dtype('array<int32>').
func (d *Descriptor) GoString() string {
	return "dtype('" + strings.ReplaceAll(d.String(), "'", `\'`) + "')"
}

func (d *Descriptor) render() string {
	var b strings.Builder
	d.writeText(&b)
	return b.String()
}

func (d *Descriptor) writeText(b *strings.Builder) {
	switch d.kind {
	case KindArray:
		b.WriteString("array<")
		b.WriteString(d.elems[0].String())
		b.WriteByte('>')
	case KindNullable:
		b.WriteString("nullable<")
		b.WriteString(d.elems[0].String())
		b.WriteByte('>')
	case KindTuple:
		b.WriteString("tuple(")
		for i, e := range d.elems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.String())
		}
		b.WriteByte(')')
	case KindStruct:
		b.WriteString("struct{")
		for i, e := range d.elems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(QuoteFieldName(d.names[i]))
			b.WriteString(": ")
			b.WriteString(e.String())
		}
		b.WriteByte('}')
	default:
		b.WriteString(d.kind.String())
	}
}

// QuoteFieldName renders a struct field name as it appears in canonical text:
// bare when it is an identifier, quoted otherwise.
func QuoteFieldName(name string) string {
	if isIdent(name) {
		return name
	}
	return strconv.Quote(name)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && ((c >= '0' && c <= '9') || c == '-'):
		default:
			return false
		}
	}
	return true
}

// minSizeOf computes the wire minimum from already-sized children.
func minSizeOf(kind Kind, elems []*Descriptor) int {
	switch kind {
	case KindString, KindArray, KindNullable:
		// length prefix or presence byte
		return 1
	case KindTuple, KindStruct:
		n := 0
		for _, e := range elems {
			n += e.minSize
		}
		return n
	default:
		return kind.Width()
	}
}

// Unregistered builders. Pass the result to Registry.Intern to obtain the
// canonical instance.

// PrimitiveOf returns an unregistered primitive descriptor. ok is false for
// composite kinds.
func PrimitiveOf(kind Kind) (d *Descriptor, ok bool) {
	if !kind.IsPrimitive() {
		return nil, false
	}
	return newDescriptor(kind, nil, nil), true
}

// ArrayOf returns an unregistered array descriptor.
func ArrayOf(elem *Descriptor) *Descriptor {
	mustChild(elem)
	return newDescriptor(KindArray, []*Descriptor{elem}, nil)
}

// NullableOf returns an unregistered nullable descriptor.
func NullableOf(inner *Descriptor) *Descriptor {
	mustChild(inner)
	return newDescriptor(KindNullable, []*Descriptor{inner}, nil)
}

// TupleOf returns an unregistered tuple descriptor.
func TupleOf(elems ...*Descriptor) *Descriptor {
	for _, e := range elems {
		mustChild(e)
	}
	return newDescriptor(KindTuple, append([]*Descriptor(nil), elems...), nil)
}

// StructOf returns an unregistered struct descriptor. Field names must be
// non-empty and unique.
func StructOf(fields ...Field) (*Descriptor, error) {
	elems, names, err := splitFields(fields)
	if err != nil {
		return nil, err
	}
	return newDescriptor(KindStruct, elems, names), nil
}

func newDescriptor(kind Kind, elems []*Descriptor, names []string) *Descriptor {
	d := &Descriptor{kind: kind, elems: elems, names: names}
	d.minSize = minSizeOf(kind, elems)
	return d
}

func mustChild(d *Descriptor) {
	if d == nil {
		panic("types: nil child descriptor")
	}
}
