package types

import (
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/hail/errors"
)

// Registry interns descriptors. It is safe for concurrent use: lookups take
// a read lock and insertion is insert-if-absent under the write lock, so
// concurrent resolution of the same shape always yields one instance.
type Registry struct {
	byKey map[string]*Descriptor
	specs sync.Map // spec text -> *Descriptor
	arena []*Descriptor
	prims [kindCount]*Descriptor
	mu    sync.RWMutex
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry pre-populated with the primitive kinds.
func NewRegistry() *Registry {
	r := &Registry{
		byKey: make(map[string]*Descriptor, 64),
		arena: make([]*Descriptor, 0, 64),
	}
	for k := KindVoid; k <= KindCall; k++ {
		r.prims[k] = r.intern(k, nil, nil)
	}
	return r
}

func (r *Registry) Void() *Descriptor    { return r.prims[KindVoid] }
func (r *Registry) Bool() *Descriptor    { return r.prims[KindBool] }
func (r *Registry) Int32() *Descriptor   { return r.prims[KindInt32] }
func (r *Registry) Int64() *Descriptor   { return r.prims[KindInt64] }
func (r *Registry) Float32() *Descriptor { return r.prims[KindFloat32] }
func (r *Registry) Float64() *Descriptor { return r.prims[KindFloat64] }
func (r *Registry) Str() *Descriptor     { return r.prims[KindString] }
func (r *Registry) Call() *Descriptor    { return r.prims[KindCall] }

// Primitive returns the interned primitive for kind; ok is false for composites.
func (r *Registry) Primitive(kind Kind) (*Descriptor, bool) {
	if !kind.IsPrimitive() {
		return nil, false
	}
	return r.prims[kind], true
}

// Array returns the interned array<elem>.
func (r *Registry) Array(elem *Descriptor) *Descriptor {
	mustChild(elem)
	return r.intern(KindArray, []*Descriptor{r.Intern(elem)}, nil)
}

// Nullable returns the interned nullable<inner>.
func (r *Registry) Nullable(inner *Descriptor) *Descriptor {
	mustChild(inner)
	return r.intern(KindNullable, []*Descriptor{r.Intern(inner)}, nil)
}

// Tuple returns the interned tuple of elems.
func (r *Registry) Tuple(elems ...*Descriptor) *Descriptor {
	children := make([]*Descriptor, len(elems))
	for i, e := range elems {
		mustChild(e)
		children[i] = r.Intern(e)
	}
	return r.intern(KindTuple, children, nil)
}

// Struct returns the interned struct of fields.
func (r *Registry) Struct(fields ...Field) (*Descriptor, error) {
	elems, names, err := splitFields(fields)
	if err != nil {
		return nil, err
	}
	for i, e := range elems {
		elems[i] = r.Intern(e)
	}
	return r.intern(KindStruct, elems, names), nil
}

// Intern returns the canonical instance for a structurally equal descriptor.
// Descriptors from other registries are re-interned by shape.
func (r *Registry) Intern(d *Descriptor) *Descriptor {
	if d == nil {
		return nil
	}
	if d.reg == r {
		return d
	}
	var children []*Descriptor
	if len(d.elems) > 0 {
		children = make([]*Descriptor, len(d.elems))
		for i, e := range d.elems {
			children[i] = r.Intern(e)
		}
	}
	return r.intern(d.kind, children, d.names)
}

// Lookup returns the descriptor with the given arena index.
func (r *Registry) Lookup(id ID) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.arena) {
		return nil, false
	}
	return r.arena[id], true
}

// Len returns the number of interned descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.arena)
}

// intern requires children already interned in r.
func (r *Registry) intern(kind Kind, elems []*Descriptor, names []string) *Descriptor {
	key := shapeKey(kind, elems, names)

	r.mu.RLock()
	d, ok := r.byKey[key]
	r.mu.RUnlock()
	if ok {
		return d
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock
	if d, ok := r.byKey[key]; ok {
		return d
	}

	d = newDescriptor(kind, elems, append([]string(nil), names...))
	d.reg = r
	d.key = key
	d.id = ID(len(r.arena))
	d.text = d.render()
	r.arena = append(r.arena, d)
	r.byKey[key] = d

	Logger().Debug("interned descriptor",
		zap.Uint32("id", uint32(d.id)),
		zap.String("type", d.text))
	return d
}

// shapeKey identifies a shape by kind, child IDs and field names.
func shapeKey(kind Kind, elems []*Descriptor, names []string) string {
	if kind.IsPrimitive() {
		return kind.String()
	}
	var b strings.Builder
	b.WriteString(kind.String())
	b.WriteByte('(')
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(',')
		}
		if names != nil {
			b.WriteString(strconv.Quote(names[i]))
			b.WriteByte(':')
		}
		b.WriteString(strconv.FormatUint(uint64(e.id), 10))
	}
	b.WriteByte(')')
	return b.String()
}

func splitFields(fields []Field) ([]*Descriptor, []string, error) {
	elems := make([]*Descriptor, len(fields))
	names := make([]string, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, nil, errors.New(errors.PhaseResolve, errors.KindMalformedTypeSpec).
				Detail("struct field %d has an empty name", i).
				Build()
		}
		if _, dup := seen[f.Name]; dup {
			return nil, nil, errors.New(errors.PhaseResolve, errors.KindMalformedTypeSpec).
				Detail("duplicate struct field %q", f.Name).
				Build()
		}
		mustChild(f.Type)
		seen[f.Name] = struct{}{}
		elems[i] = f.Type
		names[i] = f.Name
	}
	return elems, names, nil
}
