package bridge

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/hail/codec"
	"github.com/wippyai/hail/compare"
	"github.com/wippyai/hail/errors"
	"github.com/wippyai/hail/types"
	"github.com/wippyai/hail/value"
)

const recordSpec = "struct{id: int32, tags: array<str>}"

func TestBridge_EncodeRecord(t *testing.T) {
	b := New(WithRegistry(types.NewRegistry()))
	defer b.Close()

	typ, err := b.ResolveType(recordSpec)
	require.NoError(t, err)
	v, err := b.BuildValue(typ, map[string]any{"id": 7, "tags": []string{"a", "bb"}})
	require.NoError(t, err)

	buf, err := b.Encode(v)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x07, 0, 0, 0, 0x02, 0x01, 'a', 0x02, 'b', 'b'}, buf)

	back, err := b.Decode(buf, typ)
	require.NoError(t, err)
	ord, err := b.Compare(v, back)
	require.NoError(t, err)
	assert.Equal(t, compare.EQ, ord)

	h1, err := b.Hash(v)
	require.NoError(t, err)
	h2, err := b.Hash(back)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	require.NoError(t, b.Release(v))
	require.NoError(t, b.Release(back))
	require.NoError(t, b.Release(typ))
	assert.Equal(t, 0, b.Live())
}

func TestBridge_ProjectAndToHost(t *testing.T) {
	b := New()
	defer b.Close()

	typ, err := b.ResolveType(recordSpec)
	require.NoError(t, err)
	v, err := b.BuildValue(typ, map[string]any{"id": 7, "tags": []string{"a", "bb"}})
	require.NoError(t, err)

	tag, err := b.Project(v, "tags[1]")
	require.NoError(t, err)
	host, err := b.ToHost(tag)
	require.NoError(t, err)
	assert.Equal(t, "bb", host)

	_, err = b.Project(v, "tags[2]")
	assert.Equal(t, errors.KindIndexOutOfRange, errors.KindOf(err))
	assert.Equal(t, StatusIndexOutOfRange, Code(err))

	_, err = b.Project(v, "name")
	assert.Equal(t, errors.KindUnknownField, errors.KindOf(err))

	all, err := b.ToHost(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int32(7), "tags": []any{"a", "bb"}}, all)

	tt, err := b.TypeOf(tag)
	require.NoError(t, err)
	d, err := b.Descriptor(tt)
	require.NoError(t, err)
	assert.Equal(t, types.KindString, d.Kind())
}

func TestBridge_IsNull(t *testing.T) {
	b := New()
	defer b.Close()

	typ, err := b.ResolveType("nullable<int32>")
	require.NoError(t, err)

	absent, err := b.BuildValue(typ, nil)
	require.NoError(t, err)
	null, err := b.IsNull(absent)
	require.NoError(t, err)
	assert.True(t, null)

	present, err := b.BuildValue(typ, 3)
	require.NoError(t, err)
	null, err = b.IsNull(present)
	require.NoError(t, err)
	assert.False(t, null)

	it, err := b.ResolveType("int32")
	require.NoError(t, err)
	n, err := b.BuildValue(it, 3)
	require.NoError(t, err)
	_, err = b.IsNull(n)
	assert.Equal(t, errors.KindTypeMismatch, errors.KindOf(err))
}

func TestBridge_InvalidHandles(t *testing.T) {
	b := New()
	defer b.Close()

	_, err := b.Value(0)
	assert.Equal(t, errors.KindInvalidHandle, errors.KindOf(err))

	_, err = b.Value(Handle(1 << 40))
	assert.Equal(t, errors.KindInvalidHandle, errors.KindOf(err))

	typ, err := b.ResolveType("int32")
	require.NoError(t, err)

	_, err = b.Value(typ)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type handle used as value handle")

	k, err := b.HandleKind(typ)
	require.NoError(t, err)
	assert.Equal(t, EntryType, k)

	require.NoError(t, b.Release(typ))
	err = b.Release(typ)
	assert.Equal(t, errors.KindInvalidHandle, errors.KindOf(err))
}

func TestBridge_StaleHandleAfterReuse(t *testing.T) {
	b := New()
	defer b.Close()

	first, err := b.ResolveType("int32")
	require.NoError(t, err)
	require.NoError(t, b.Release(first))

	second, err := b.ResolveType("int64")
	require.NoError(t, err)
	assert.Equal(t, first.slot(), second.slot())
	assert.NotEqual(t, first, second)

	_, err = b.Descriptor(first)
	assert.Equal(t, errors.KindInvalidHandle, errors.KindOf(err))

	d, err := b.Descriptor(second)
	require.NoError(t, err)
	assert.Equal(t, types.KindInt64, d.Kind())
}

func TestBridge_RetainRelease(t *testing.T) {
	b := New()
	defer b.Close()

	typ, err := b.ResolveType("str")
	require.NoError(t, err)
	require.NoError(t, b.Retain(typ))

	require.NoError(t, b.Release(typ))
	_, err = b.Descriptor(typ)
	require.NoError(t, err, "one reference remains")

	require.NoError(t, b.Release(typ))
	_, err = b.Descriptor(typ)
	assert.Equal(t, errors.KindInvalidHandle, errors.KindOf(err))
}

func TestBridge_Close(t *testing.T) {
	var mu sync.Mutex
	var dropped []Event
	b := New(WithObserver(ObserverFunc(func(e Event) {
		if e.Type == EventDropped {
			mu.Lock()
			dropped = append(dropped, e)
			mu.Unlock()
		}
	})))

	typ, err := b.ResolveType("bool")
	require.NoError(t, err)
	_, err = b.BuildValue(typ, true)
	require.NoError(t, err)

	require.NoError(t, b.Close())
	assert.Len(t, dropped, 2)
	assert.Equal(t, 0, b.Live())

	_, err = b.ResolveType("bool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge closed")

	_, err = b.Descriptor(typ)
	assert.Equal(t, errors.KindInvalidHandle, errors.KindOf(err))

	require.NoError(t, b.Close())
}

func TestBridge_Observer(t *testing.T) {
	var events []EventType
	b := New()
	defer b.Close()
	b.Subscribe(ObserverFunc(func(e Event) { events = append(events, e.Type) }))

	typ, err := b.ResolveType("int32")
	require.NoError(t, err)
	require.NoError(t, b.Retain(typ))
	require.NoError(t, b.Release(typ))
	require.NoError(t, b.Release(typ))

	assert.Equal(t, []EventType{EventCreated, EventRetained, EventReleased, EventDropped}, events)
}

func TestBridge_DecodeOptions(t *testing.T) {
	b := New(WithDecodeOptions(codec.WithAllowTrailing()))
	defer b.Close()

	typ, err := b.ResolveType("bool")
	require.NoError(t, err)

	v, err := b.Decode([]byte{0x01, 0x01, 0xff}, typ)
	require.NoError(t, err)
	host, err := b.ToHost(v)
	require.NoError(t, err)
	assert.Equal(t, true, host)

	strict := New()
	defer strict.Close()
	st, err := strict.ResolveType("bool")
	require.NoError(t, err)
	_, err = strict.Decode([]byte{0x01, 0x01, 0xff}, st)
	assert.Equal(t, StatusInvalidData, Code(err))
}

func TestBridge_Wrap(t *testing.T) {
	b := New()
	defer b.Close()

	h, err := b.WrapValue(value.Int64(-5))
	require.NoError(t, err)
	host, err := b.ToHost(h)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), host)

	_, err = b.WrapValue(nil)
	assert.Equal(t, StatusInvalidInput, Code(err))

	th, err := b.WrapType(types.ArrayOf(types.Default().Bool()))
	require.NoError(t, err)
	d, err := b.Descriptor(th)
	require.NoError(t, err)
	assert.True(t, d.Interned())
	assert.Equal(t, "array<bool>", d.String())
}

func TestBridge_Concurrent(t *testing.T) {
	b := New()
	defer b.Close()

	typ, err := b.ResolveType(recordSpec)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v, err := b.BuildValue(typ, map[string]any{"id": i*1000 + j, "tags": []string{}})
				if !assert.NoError(t, err) {
					return
				}
				_, err = b.Encode(v)
				assert.NoError(t, err)
				assert.NoError(t, b.Release(v))
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, b.Live())
}

func TestBridge_WithSchema(t *testing.T) {
	schema, err := types.ParseSchema([]byte("types:\n  point: {x: float64, y: float64}\n"))
	require.NoError(t, err)

	b := New(WithRegistry(types.NewRegistry()), WithSchema(schema))
	defer b.Close()

	typ, err := b.ResolveType("array<point>")
	require.NoError(t, err)
	d, err := b.Descriptor(typ)
	require.NoError(t, err)
	assert.Equal(t, "array<struct{x: float64, y: float64}>", d.String())

	named, err := b.ResolveSchemaType(schema, "point")
	require.NoError(t, err)
	nd, err := b.Descriptor(named)
	require.NoError(t, err)
	assert.Same(t, d.ElemType(), nd)

	_, err = b.ResolveType("array<circle>")
	assert.Equal(t, StatusMalformedTypeSpec, Code(err))
}
