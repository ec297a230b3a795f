package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/wippyai/hail/errors"
	"github.com/wippyai/hail/types"
	"github.com/wippyai/hail/value"
)

var (
	valuePtrType   = reflect.TypeOf((*value.Value)(nil))
	jsonNumberType = reflect.TypeOf(json.Number(""))
)

// fieldCache maps a (Go struct type, struct descriptor) pair to Go field
// indices in descriptor order; -1 marks a descriptor field with no Go field.
var fieldCache sync.Map

type fieldCacheKey struct {
	goType reflect.Type
	desc   *types.Descriptor
}

// FromHost converts Go data into a value of type d.
//
//	bool                       bool
//	int32, int64, call         any Go integer (range checked), json.Number,
//	                           integral floats
//	float32, float64           any Go number, json.Number, "NaN", "+Inf",
//	                           "-Inf"
//	str                        string, []byte
//	array                      slice or array
//	tuple                      slice or array of matching length
//	struct                     map with string keys, or Go struct (fields
//	                           matched by `hail` tag, case-insensitive name,
//	                           or kebab-case name)
//	nullable                   nil or nil pointer (absent), otherwise the
//	                           inner conversion
//	void                       nil or struct{}{}
//
// A *value.Value of exactly type d is used as is.
func FromHost(d *types.Descriptor, host any) (*value.Value, error) {
	if d == nil {
		return nil, errors.InvalidInput(errors.PhaseBridge, "nil descriptor")
	}
	return fromHost(d, reflect.ValueOf(host), nil)
}

func fromHost(d *types.Descriptor, rv reflect.Value, path []string) (*value.Value, error) {
	// Unwrap interfaces and pointers; nil is absent
	for rv.IsValid() && (rv.Kind() == reflect.Interface || (rv.Kind() == reflect.Pointer && rv.Type() != valuePtrType)) {
		if rv.IsNil() {
			rv = reflect.Value{}
			break
		}
		rv = rv.Elem()
	}

	if rv.IsValid() && rv.Type() == valuePtrType {
		v := rv.Interface().(*value.Value)
		if v == nil {
			rv = reflect.Value{}
		} else if v.Type() == d {
			return v, nil
		} else if d.Kind() != types.KindNullable {
			return nil, errors.TypeMismatch(errors.PhaseBridge, path, v.Type().String(), d.String())
		}
	}

	switch d.Kind() {
	case types.KindNullable:
		if !rv.IsValid() {
			return value.New(d, nil)
		}
		inner, err := fromHost(d.ElemType(), rv, path)
		if err != nil {
			return nil, err
		}
		return value.New(d, inner)

	case types.KindVoid:
		if !rv.IsValid() || (rv.Kind() == reflect.Struct && rv.NumField() == 0) {
			return value.New(d, nil)
		}

	case types.KindBool:
		if rv.IsValid() && rv.Kind() == reflect.Bool {
			return value.New(d, rv.Bool())
		}

	case types.KindInt32:
		if n, ok, err := hostInt(rv, math.MinInt32, math.MaxInt32, d, path); ok || err != nil {
			if err != nil {
				return nil, err
			}
			return value.New(d, int32(n))
		}

	case types.KindInt64:
		if n, ok, err := hostInt(rv, math.MinInt64, math.MaxInt64, d, path); ok || err != nil {
			if err != nil {
				return nil, err
			}
			return value.New(d, n)
		}

	case types.KindCall:
		if n, ok, err := hostInt(rv, 0, math.MaxUint32, d, path); ok || err != nil {
			if err != nil {
				return nil, err
			}
			return value.New(d, value.Call(n))
		}

	case types.KindFloat32:
		if f, ok := hostFloat(rv); ok {
			return value.New(d, float32(f))
		}

	case types.KindFloat64:
		if f, ok := hostFloat(rv); ok {
			return value.New(d, f)
		}

	case types.KindString:
		if rv.IsValid() {
			if rv.Kind() == reflect.String && rv.Type() != jsonNumberType {
				return value.New(d, rv.String())
			}
			if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
				return value.New(d, rv.Bytes())
			}
		}

	case types.KindArray:
		if !rv.IsValid() {
			break
		}
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			elems, err := hostElems(rv, func(int) *types.Descriptor { return d.ElemType() }, path)
			if err != nil {
				return nil, err
			}
			return value.New(d, elems)
		}

	case types.KindTuple:
		if !rv.IsValid() {
			break
		}
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			if rv.Len() != d.Len() {
				return nil, errors.New(errors.PhaseBridge, errors.KindTypeMismatch).
					Path(path...).
					HostType(rv.Type().String()).
					TypeName(d.String()).
					Detail("got %d elements, want %d", rv.Len(), d.Len()).
					Build()
			}
			elems, err := hostElems(rv, d.Elem, path)
			if err != nil {
				return nil, err
			}
			return value.New(d, elems)
		}

	case types.KindStruct:
		if !rv.IsValid() {
			break
		}
		switch rv.Kind() {
		case reflect.Map:
			if rv.Type().Key().Kind() == reflect.String {
				return structFromMap(d, rv, path)
			}
		case reflect.Struct:
			return structFromGo(d, rv, path)
		}
	}

	return nil, errors.TypeMismatch(errors.PhaseBridge, path, hostTypeName(rv), d.String())
}

func hostTypeName(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}
	return rv.Type().String()
}

func childPath(path []string, seg string) []string {
	return append(append(make([]string, 0, len(path)+1), path...), seg)
}

func hostElems(rv reflect.Value, elemType func(int) *types.Descriptor, path []string) ([]*value.Value, error) {
	elems := make([]*value.Value, rv.Len())
	for i := range elems {
		e, err := fromHost(elemType(i), rv.Index(i), childPath(path, "["+strconv.Itoa(i)+"]"))
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	return elems, nil
}

// hostInt extracts an integer in [lo, hi]. ok is false when rv is not a
// numeric kind at all.
func hostInt(rv reflect.Value, lo, hi int64, d *types.Descriptor, path []string) (int64, bool, error) {
	if !rv.IsValid() {
		return 0, false, nil
	}

	outOfRange := func(v any) error {
		return errors.New(errors.PhaseBridge, errors.KindTypeMismatch).
			Path(path...).
			HostType(rv.Type().String()).
			TypeName(d.String()).
			Value(v).
			Detail("value %v out of range [%d, %d]", v, lo, hi).
			Build()
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < lo || n > hi {
			return 0, true, outOfRange(n)
		}
		return n, true, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		if n > uint64(hi) {
			return 0, true, outOfRange(n)
		}
		return int64(n), true, nil

	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < float64(lo) || f >= float64(hi)+1 {
			return 0, true, outOfRange(f)
		}
		return int64(f), true, nil

	case reflect.String:
		if rv.Type() != jsonNumberType {
			return 0, false, nil
		}
		n, err := strconv.ParseInt(rv.String(), 10, 64)
		if err != nil || n < lo || n > hi {
			return 0, true, outOfRange(rv.String())
		}
		return n, true, nil
	}
	return 0, false, nil
}

func hostFloat(rv reflect.Value) (float64, bool) {
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.String:
		if rv.Type() == jsonNumberType {
			f, err := strconv.ParseFloat(rv.String(), 64)
			return f, err == nil
		}
		return nonFiniteFloat(rv.String())
	}
	return 0, false
}

const quietNaN = 0x7ff8000000000000

// nonFiniteFloat parses the string spellings of floats JSON cannot carry.
func nonFiniteFloat(s string) (float64, bool) {
	switch s {
	case "NaN":
		return math.Float64frombits(quietNaN), true
	case "+Inf":
		return math.Inf(1), true
	case "-Inf":
		return math.Inf(-1), true
	}
	return 0, false
}

func structFromMap(d *types.Descriptor, rv reflect.Value, path []string) (*value.Value, error) {
	for _, k := range rv.MapKeys() {
		if d.FieldIndex(k.String()) < 0 {
			return nil, errors.UnknownField(errors.PhaseBridge, path, k.String())
		}
	}

	elems := make([]*value.Value, d.Len())
	for i := range elems {
		f := d.Field(i)
		fv := rv.MapIndex(reflect.ValueOf(f.Name).Convert(rv.Type().Key()))
		if !fv.IsValid() && f.Type.Kind() != types.KindNullable {
			return nil, missingField(d, f.Name, path)
		}
		e, err := fromHost(f.Type, fv, childPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	return value.New(d, elems)
}

func structFromGo(d *types.Descriptor, rv reflect.Value, path []string) (*value.Value, error) {
	indices := structFields(rv.Type(), d)
	elems := make([]*value.Value, d.Len())
	for i := range elems {
		f := d.Field(i)
		var fv reflect.Value
		if indices[i] >= 0 {
			fv = rv.Field(indices[i])
		} else if f.Type.Kind() != types.KindNullable {
			return nil, missingField(d, f.Name, path)
		}
		e, err := fromHost(f.Type, fv, childPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	return value.New(d, elems)
}

func missingField(d *types.Descriptor, name string, path []string) error {
	return errors.New(errors.PhaseBridge, errors.KindTypeMismatch).
		Path(path...).
		TypeName(d.String()).
		Detail("missing field %q", name).
		Build()
}

func structFields(goType reflect.Type, d *types.Descriptor) []int {
	key := fieldCacheKey{goType: goType, desc: d}
	if cached, ok := fieldCache.Load(key); ok {
		return cached.([]int)
	}

	indices := make([]int, d.Len())
	for i := range indices {
		indices[i] = findGoField(goType, d.FieldName(i))
	}
	fieldCache.Store(key, indices)
	return indices
}

// findGoField matches by: 1) hail:"name" tag, 2) case-insensitive, 3) kebab-case.
func findGoField(goType reflect.Type, name string) int {
	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if !field.IsExported() {
			continue
		}

		if tag := field.Tag.Get("hail"); tag != "" {
			if tag == "-" {
				continue
			}
			if tag == name {
				return i
			}
		}

		if strings.EqualFold(field.Name, name) {
			return i
		}

		if toKebabCase(field.Name) == name {
			return i
		}
	}
	return -1
}

func toKebabCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				result.WriteByte('-')
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ToHost converts a value into plain Go data: nil (void and absent), bool,
// int32, int64, float32, float64, string, value.Call, []any for arrays and
// tuples, map[string]any for structs.
func ToHost(v *value.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind() {
	case types.KindVoid:
		return nil
	case types.KindBool:
		return v.Bool()
	case types.KindInt32:
		return v.Int32()
	case types.KindInt64:
		return v.Int64()
	case types.KindFloat32:
		return v.Float32()
	case types.KindFloat64:
		return v.Float64()
	case types.KindString:
		return v.Str()
	case types.KindCall:
		return v.Call()
	case types.KindNullable:
		return ToHost(v.Inner())
	case types.KindArray, types.KindTuple:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = ToHost(v.Elem(i))
		}
		return out
	case types.KindStruct:
		out := make(map[string]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[v.Type().FieldName(i)] = ToHost(v.Elem(i))
		}
		return out
	}
	panic(fmt.Sprintf("bridge: unknown kind %s", v.Kind()))
}
