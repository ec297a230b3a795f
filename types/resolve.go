package types

import (
	"strings"

	"github.com/wippyai/hail/errors"
)

// Resolve parses a type expression and returns its interned descriptor.
// Bare identifiers other than the built-in kinds are unknown kind tags.
func (r *Registry) Resolve(spec string) (*Descriptor, error) {
	if cached, ok := r.specs.Load(spec); ok {
		return cached.(*Descriptor), nil
	}

	n, err := parseSpec(spec)
	if err != nil {
		return nil, err
	}

	rs := &resolver{reg: r, spec: spec}
	d, err := rs.resolve(n)
	if err != nil {
		return nil, err
	}

	r.specs.Store(spec, d)
	return d, nil
}

// MustResolve is like Resolve but panics on error. Intended for
// package-level descriptor variables and tests.
func (r *Registry) MustResolve(spec string) *Descriptor {
	d, err := r.Resolve(spec)
	if err != nil {
		panic(err)
	}
	return d
}

// ResolveSchema resolves the named definition of schema. Identifiers in
// definition bodies refer to other definitions; self-reference, direct or
// transitive, is rejected.
func (r *Registry) ResolveSchema(schema *Schema, name string) (*Descriptor, error) {
	if schema == nil {
		return nil, errors.MalformedTypeSpec(name, "no schema to resolve %q against", name)
	}
	rs := &resolver{
		reg:      r,
		spec:     name,
		schema:   schema,
		resolved: make(map[string]*Descriptor),
		visiting: make(map[string]bool),
	}
	return rs.lookup(name)
}

// ResolveIn resolves an anonymous type expression whose identifiers refer
// to definitions of schema (which may be nil).
func (r *Registry) ResolveIn(schema *Schema, spec string) (*Descriptor, error) {
	if schema == nil {
		return r.Resolve(spec)
	}
	n, err := parseSpec(spec)
	if err != nil {
		return nil, err
	}
	rs := &resolver{
		reg:      r,
		spec:     spec,
		schema:   schema,
		resolved: make(map[string]*Descriptor),
		visiting: make(map[string]bool),
	}
	return rs.resolve(n)
}

type resolver struct {
	reg      *Registry
	schema   *Schema
	resolved map[string]*Descriptor
	visiting map[string]bool
	spec     string
	stack    []string
}

func (rs *resolver) resolve(n *node) (*Descriptor, error) {
	if n.isRef {
		return rs.lookup(n.ref)
	}

	if n.kind.IsPrimitive() {
		d, _ := rs.reg.Primitive(n.kind)
		return d, nil
	}

	elems := make([]*Descriptor, len(n.elems))
	for i, e := range n.elems {
		d, err := rs.resolve(e)
		if err != nil {
			return nil, err
		}
		elems[i] = d
	}

	switch n.kind {
	case KindArray:
		return rs.reg.Array(elems[0]), nil
	case KindNullable:
		return rs.reg.Nullable(elems[0]), nil
	case KindTuple:
		return rs.reg.Tuple(elems...), nil
	default:
		fields := make([]Field, len(elems))
		for i := range elems {
			fields[i] = Field{Name: n.names[i], Type: elems[i]}
		}
		d, err := rs.reg.Struct(fields...)
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.Value = rs.spec
			}
			return nil, err
		}
		return d, nil
	}
}

// lookup resolves a named definition with a visited-set walk.
func (rs *resolver) lookup(name string) (*Descriptor, error) {
	if rs.schema == nil {
		return nil, errors.MalformedTypeSpec(rs.spec, "unknown kind tag %q", name)
	}
	if d, ok := rs.resolved[name]; ok {
		return d, nil
	}
	if rs.visiting[name] {
		cycle := append(append([]string{}, rs.stack[rs.indexOf(name):]...), name)
		return nil, errors.MalformedTypeSpec(rs.spec, "cyclic reference: %s", strings.Join(cycle, " -> "))
	}

	text, ok := rs.schema.Types[name]
	if !ok {
		return nil, errors.MalformedTypeSpec(rs.spec, "unknown kind tag %q", name)
	}

	n, err := parseSpec(text)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.Path = append([]string{name}, e.Path...)
		}
		return nil, err
	}

	rs.visiting[name] = true
	rs.stack = append(rs.stack, name)
	d, err := rs.resolve(n)
	rs.stack = rs.stack[:len(rs.stack)-1]
	delete(rs.visiting, name)
	if err != nil {
		return nil, err
	}

	rs.resolved[name] = d
	return d, nil
}

func (rs *resolver) indexOf(name string) int {
	for i, s := range rs.stack {
		if s == name {
			return i
		}
	}
	return 0
}
