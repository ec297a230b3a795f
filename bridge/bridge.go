// Package bridge is the host embedding surface of hail.
//
// A Bridge hands out opaque handles for descriptors and values, marshals
// host data into values and back, and translates errors into stable status
// codes. Nothing a bridge owns outlives the handles that reference it:
// every handle carries a reference count and is freed by Release, by Scope
// on every exit path, or by Close.
//
//	b := bridge.New()
//	defer b.Close()
//
//	err := b.Scope(func(s *bridge.Scope) error {
//	    t, err := s.ResolveType("struct{id: int32, tags: array<str>}")
//	    if err != nil {
//	        return err
//	    }
//	    v, err := s.BuildValue(t, map[string]any{"id": 7, "tags": []string{"a", "bb"}})
//	    if err != nil {
//	        return err
//	    }
//	    buf, err := b.Encode(v)
//	    ...
//	})
//
// Handles are generation-checked: a released handle stays invalid even
// after its slot is reused.
package bridge

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/hail/codec"
	"github.com/wippyai/hail/compare"
	"github.com/wippyai/hail/errors"
	"github.com/wippyai/hail/types"
	"github.com/wippyai/hail/value"
)

// Bridge owns a handle table over one type registry. It is safe for
// concurrent use.
type Bridge struct {
	reg       *types.Registry
	schema    *types.Schema
	table     *handleTable
	dec       *codec.Decoder
	decOpts   []codec.Option
	observers []Observer
	obsMu     sync.RWMutex
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithRegistry resolves types in reg instead of types.Default().
func WithRegistry(reg *types.Registry) Option {
	return func(b *Bridge) { b.reg = reg }
}

// WithSchema lets type expressions passed to ResolveType name schema
// definitions.
func WithSchema(s *types.Schema) Option {
	return func(b *Bridge) { b.schema = s }
}

// WithDecodeOptions applies codec options to every Decode.
func WithDecodeOptions(opts ...codec.Option) Option {
	return func(b *Bridge) { b.decOpts = append(b.decOpts, opts...) }
}

// WithObserver subscribes o to handle lifecycle events.
func WithObserver(o Observer) Option {
	return func(b *Bridge) { b.observers = append(b.observers, o) }
}

func New(opts ...Option) *Bridge {
	b := &Bridge{
		reg:   types.Default(),
		table: newHandleTable(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.dec = codec.NewDecoder(b.decOpts...)
	return b
}

// Registry returns the registry types are resolved in.
func (b *Bridge) Registry() *types.Registry { return b.reg }

// Schema returns the schema set with WithSchema, or nil.
func (b *Bridge) Schema() *types.Schema { return b.schema }

// Subscribe adds an observer for lifecycle events.
func (b *Bridge) Subscribe(o Observer) {
	b.obsMu.Lock()
	defer b.obsMu.Unlock()
	b.observers = append(b.observers, o)
}

func (b *Bridge) notify(e Event) {
	b.obsMu.RLock()
	defer b.obsMu.RUnlock()
	for _, o := range b.observers {
		o.OnHandleEvent(e)
	}
}

func (b *Bridge) acquire(kind EntryKind, obj any) (Handle, error) {
	h, err := b.table.insert(kind, obj)
	if err != nil {
		return 0, err
	}
	b.notify(Event{Handle: h, Refs: 1, Kind: kind, Type: EventCreated})
	return h, nil
}

// ResolveType resolves a type expression and returns a new type handle.
func (b *Bridge) ResolveType(spec string) (Handle, error) {
	d, err := b.reg.ResolveIn(b.schema, spec)
	if err != nil {
		return 0, err
	}
	return b.acquire(EntryType, d)
}

// ResolveSchemaType resolves a named schema definition.
func (b *Bridge) ResolveSchemaType(schema *types.Schema, name string) (Handle, error) {
	d, err := b.reg.ResolveSchema(schema, name)
	if err != nil {
		return 0, err
	}
	return b.acquire(EntryType, d)
}

// WrapType returns a new type handle for d, interning it into the
// bridge's registry.
func (b *Bridge) WrapType(d *types.Descriptor) (Handle, error) {
	if d == nil {
		return 0, errors.InvalidInput(errors.PhaseBridge, "nil descriptor")
	}
	return b.acquire(EntryType, b.reg.Intern(d))
}

// WrapValue returns a new value handle for v.
func (b *Bridge) WrapValue(v *value.Value) (Handle, error) {
	if v == nil {
		return 0, errors.InvalidInput(errors.PhaseBridge, "nil value")
	}
	return b.acquire(EntryValue, v)
}

// HandleKind reports whether h refers to a type or a value.
func (b *Bridge) HandleKind(h Handle) (EntryKind, error) {
	return b.table.kindOf(h)
}

// Descriptor returns the descriptor behind a type handle.
func (b *Bridge) Descriptor(h Handle) (*types.Descriptor, error) {
	obj, err := b.table.get(h, EntryType)
	if err != nil {
		return nil, err
	}
	return obj.(*types.Descriptor), nil
}

// Value returns the value behind a value handle.
func (b *Bridge) Value(h Handle) (*value.Value, error) {
	obj, err := b.table.get(h, EntryValue)
	if err != nil {
		return nil, err
	}
	return obj.(*value.Value), nil
}

// TypeOf returns a new type handle for a value's descriptor.
func (b *Bridge) TypeOf(h Handle) (Handle, error) {
	v, err := b.Value(h)
	if err != nil {
		return 0, err
	}
	return b.acquire(EntryType, v.Type())
}

// BuildValue marshals host data into a value of the handle's type.
// See FromHost for the accepted Go shapes.
func (b *Bridge) BuildValue(typ Handle, host any) (Handle, error) {
	d, err := b.Descriptor(typ)
	if err != nil {
		return 0, err
	}
	v, err := FromHost(d, host)
	if err != nil {
		return 0, err
	}
	return b.acquire(EntryValue, v)
}

// Encode returns the wire encoding of a value.
func (b *Bridge) Encode(h Handle) ([]byte, error) {
	v, err := b.Value(h)
	if err != nil {
		return nil, err
	}
	return codec.Encode(v), nil
}

// Decode decodes buf as a value of the handle's type.
func (b *Bridge) Decode(buf []byte, typ Handle) (Handle, error) {
	d, err := b.Descriptor(typ)
	if err != nil {
		return 0, err
	}
	v, err := b.dec.Decode(buf, d)
	if err != nil {
		return 0, err
	}
	return b.acquire(EntryValue, v)
}

// Compare orders two values of the same type.
func (b *Bridge) Compare(x, y Handle, opts ...compare.Option) (compare.Ordering, error) {
	a, err := b.Value(x)
	if err != nil {
		return compare.EQ, err
	}
	c, err := b.Value(y)
	if err != nil {
		return compare.EQ, err
	}
	return compare.Compare(a, c, opts...)
}

// Hash returns the order-consistent hash of a value.
func (b *Bridge) Hash(h Handle) (uint64, error) {
	v, err := b.Value(h)
	if err != nil {
		return 0, err
	}
	return compare.Hash(v), nil
}

// Project returns a new value handle for the child at path, e.g. "tags[1]".
func (b *Bridge) Project(h Handle, path string) (Handle, error) {
	v, err := b.Value(h)
	if err != nil {
		return 0, err
	}
	child, err := value.ProjectPath(v, path)
	if err != nil {
		return 0, err
	}
	return b.acquire(EntryValue, child)
}

// IsNull reports whether a nullable value is absent.
func (b *Bridge) IsNull(h Handle) (bool, error) {
	v, err := b.Value(h)
	if err != nil {
		return false, err
	}
	return value.IsNull(v)
}

// ToHost converts a value into plain Go data.
func (b *Bridge) ToHost(h Handle) (any, error) {
	v, err := b.Value(h)
	if err != nil {
		return nil, err
	}
	return ToHost(v), nil
}

// Retain adds a reference to h.
func (b *Bridge) Retain(h Handle) error {
	ev, err := b.table.retain(h)
	if err != nil {
		return err
	}
	b.notify(ev)
	return nil
}

// Release drops a reference to h; the handle is freed when none remain.
func (b *Bridge) Release(h Handle) error {
	ev, err := b.table.release(h)
	if err != nil {
		return err
	}
	if ev.Type == EventDropped {
		Logger().Debug("handle freed",
			zap.Stringer("handle", h),
			zap.Stringer("kind", ev.Kind))
	}
	b.notify(ev)
	return nil
}

// Live returns the number of live handles.
func (b *Bridge) Live() int {
	return b.table.count()
}

// Close invalidates every handle. Handles still live at close are logged
// as leaks.
func (b *Bridge) Close() error {
	leaked := b.table.close()
	if len(leaked) > 0 {
		Logger().Warn("handles leaked at close", zap.Int("count", len(leaked)))
	}
	for _, ev := range leaked {
		Logger().Debug("leaked handle",
			zap.Stringer("handle", ev.Handle),
			zap.Stringer("kind", ev.Kind),
			zap.Uint32("refs", ev.Refs))
		b.notify(ev)
	}
	return nil
}
