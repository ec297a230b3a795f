package types

import (
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/hail/errors"
)

// FromWIT converts a WIT type into an interned descriptor. Supported: bool,
// s32, s64, f32, f64, string, list, tuple, record and option. Aliases are
// followed; anything else is a malformed spec.
func (r *Registry) FromWIT(t wit.Type) (*Descriptor, error) {
	return r.fromWIT(t, make(map[*wit.TypeDef]bool), nil)
}

func (r *Registry) fromWIT(t wit.Type, visiting map[*wit.TypeDef]bool, path []string) (*Descriptor, error) {
	switch t := t.(type) {
	case wit.Bool:
		return r.Bool(), nil
	case wit.S32:
		return r.Int32(), nil
	case wit.S64:
		return r.Int64(), nil
	case wit.F32:
		return r.Float32(), nil
	case wit.F64:
		return r.Float64(), nil
	case wit.String:
		return r.Str(), nil
	case *wit.TypeDef:
		if visiting[t] {
			return nil, witError(path, "cyclic type definition")
		}
		visiting[t] = true
		defer delete(visiting, t)
		return r.fromWITDef(t, visiting, path)
	case nil:
		return nil, witError(path, "missing type")
	default:
		return nil, witError(path, fmt.Sprintf("unsupported WIT type %T", t))
	}
}

func (r *Registry) fromWITDef(t *wit.TypeDef, visiting map[*wit.TypeDef]bool, path []string) (*Descriptor, error) {
	switch kind := t.Kind.(type) {
	case *wit.Record:
		fields := make([]Field, 0, len(kind.Fields))
		for _, f := range kind.Fields {
			fd, err := r.fromWIT(f.Type, visiting, append(append([]string{}, path...), f.Name))
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: f.Name, Type: fd})
		}
		return r.Struct(fields...)

	case *wit.List:
		elem, err := r.fromWIT(kind.Type, visiting, append(append([]string{}, path...), "[elem]"))
		if err != nil {
			return nil, err
		}
		return r.Array(elem), nil

	case *wit.Option:
		inner, err := r.fromWIT(kind.Type, visiting, append(append([]string{}, path...), "[some]"))
		if err != nil {
			return nil, err
		}
		return r.Nullable(inner), nil

	case *wit.Tuple:
		elems := make([]*Descriptor, len(kind.Types))
		for i, et := range kind.Types {
			d, err := r.fromWIT(et, visiting, append(append([]string{}, path...), fmt.Sprintf("[%d]", i)))
			if err != nil {
				return nil, err
			}
			elems[i] = d
		}
		return r.Tuple(elems...), nil

	case wit.Type:
		return r.fromWIT(kind, visiting, path)

	default:
		return nil, witError(path, fmt.Sprintf("unsupported WIT type definition %T", kind))
	}
}

func witError(path []string, detail string) *errors.Error {
	return errors.New(errors.PhaseResolve, errors.KindMalformedTypeSpec).
		Path(path...).
		Detail("%s", detail).
		Build()
}
