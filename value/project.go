package value

import (
	"strconv"
	"strings"

	"github.com/wippyai/hail/errors"
	"github.com/wippyai/hail/types"
)

// Step is one projection step: a struct field name or a positional index.
type Step struct {
	Name    string
	Index   int
	IsIndex bool
}

// Field returns a step selecting a struct field by name.
func Field(name string) Step { return Step{Name: name} }

// Index returns a step selecting an array element, tuple element or struct
// field by position.
func Index(i int) Step { return Step{Index: i, IsIndex: true} }

func (s Step) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// ParsePath parses a dotted path with bracketed indices, e.g. "tags[1].name".
// Field names may be quoted: `"first name".x`.
func ParsePath(path string) ([]Step, error) {
	var steps []Step
	i := 0
	expectName := true

	for i < len(path) {
		c := path[i]
		switch {
		case c == '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, pathError(path, i, "unterminated index")
			}
			n, err := strconv.Atoi(path[i+1 : i+end])
			if err != nil || n < 0 {
				return nil, pathError(path, i, "invalid index "+strconv.Quote(path[i+1:i+end]))
			}
			steps = append(steps, Index(n))
			i += end + 1
			expectName = false

		case c == '.':
			if expectName {
				return nil, pathError(path, i, "empty field name")
			}
			i++
			expectName = true
			if i == len(path) {
				return nil, pathError(path, i, "trailing dot")
			}

		case c == '"':
			if !expectName {
				return nil, pathError(path, i, "missing dot before field name")
			}
			end := i + 1
			for end < len(path) && path[end] != '"' {
				if path[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(path) {
				return nil, pathError(path, i, "unterminated quoted name")
			}
			name, err := strconv.Unquote(path[i : end+1])
			if err != nil {
				return nil, pathError(path, i, err.Error())
			}
			steps = append(steps, Field(name))
			i = end + 1
			expectName = false

		default:
			if !expectName {
				return nil, pathError(path, i, "missing dot before field name")
			}
			end := i
			for end < len(path) && path[end] != '.' && path[end] != '[' {
				end++
			}
			steps = append(steps, Field(path[i:end]))
			i = end
			expectName = false
		}
	}
	return steps, nil
}

func pathError(path string, offset int, detail string) *errors.Error {
	return errors.New(errors.PhaseProject, errors.KindInvalidInput).
		Value(path).
		Detail("path %q at offset %d: %s", path, offset, detail).
		Build()
}

// Project walks path from v. Present nullables along the way are unwrapped;
// stepping into an absent nullable or a scalar is a TypeMismatch.
func Project(v *Value, path ...Step) (*Value, error) {
	if v == nil {
		return nil, errors.InvalidInput(errors.PhaseProject, "nil value")
	}

	cur := v
	walked := make([]string, 0, len(path))
	for _, step := range path {
		for cur.typ.Kind() == types.KindNullable {
			if len(cur.elems) == 0 {
				return nil, errors.New(errors.PhaseProject, errors.KindTypeMismatch).
					Path(walked...).
					TypeName(cur.typ.String()).
					Detail("cannot step %s into an absent value", step).
					Build()
			}
			cur = cur.elems[0]
		}

		next, err := stepInto(cur, step, walked)
		if err != nil {
			return nil, err
		}
		walked = append(walked, step.String())
		cur = next
	}
	return cur, nil
}

// ProjectPath parses path and projects v through it.
func ProjectPath(v *Value, path string) (*Value, error) {
	steps, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return Project(v, steps...)
}

func stepInto(v *Value, step Step, walked []string) (*Value, error) {
	d := v.typ
	switch d.Kind() {
	case types.KindStruct:
		i := step.Index
		if !step.IsIndex {
			i = d.FieldIndex(step.Name)
			if i < 0 {
				return nil, errors.UnknownField(errors.PhaseProject, walked, step.Name)
			}
		}
		if i < 0 || i >= len(v.elems) {
			return nil, errors.IndexOutOfRange(errors.PhaseProject, walked, i, len(v.elems))
		}
		return v.elems[i], nil

	case types.KindArray, types.KindTuple:
		if !step.IsIndex {
			return nil, errors.New(errors.PhaseProject, errors.KindTypeMismatch).
				Path(walked...).
				TypeName(d.String()).
				Detail("field %q on a positional type", step.Name).
				Build()
		}
		if step.Index < 0 || step.Index >= len(v.elems) {
			return nil, errors.IndexOutOfRange(errors.PhaseProject, walked, step.Index, len(v.elems))
		}
		return v.elems[step.Index], nil
	}

	return nil, errors.New(errors.PhaseProject, errors.KindTypeMismatch).
		Path(walked...).
		TypeName(d.String()).
		Detail("cannot step %s into a scalar", step).
		Build()
}
