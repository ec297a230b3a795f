package bridge

import (
	"fmt"
	"sync"

	"github.com/wippyai/hail/errors"
)

// Handle is an opaque reference to a descriptor or value owned by a Bridge.
// The low 32 bits hold the slot index plus one, the high 32 bits the slot
// generation. Handle 0 is reserved and always invalid.
type Handle uint64

func makeHandle(slot, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot+1))
}

func (h Handle) slot() uint32 { return uint32(h) - 1 }
func (h Handle) gen() uint32  { return uint32(h >> 32) }

func (h Handle) String() string {
	if h == 0 {
		return "handle(nil)"
	}
	return fmt.Sprintf("handle(%d@%d)", h.slot(), h.gen())
}

// EntryKind distinguishes type handles from value handles.
type EntryKind uint8

const (
	EntryType EntryKind = iota + 1
	EntryValue
)

func (k EntryKind) String() string {
	switch k {
	case EntryType:
		return "type"
	case EntryValue:
		return "value"
	}
	return "unknown"
}

// Event types for handle lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventRetained
	EventReleased
	EventDropped
)

// Event represents a handle lifecycle event. Refs is the reference count
// after the operation.
type Event struct {
	Handle Handle
	Refs   uint32
	Kind   EntryKind
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }

// handleTable is a generation-checked slot table with a free list and
// per-entry reference counts.
type handleTable struct {
	entries  []entry
	freeList []uint32
	live     int
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	obj   any
	refs  uint32
	gen   uint32
	kind  EntryKind
	valid bool
}

func newHandleTable() *handleTable {
	return &handleTable{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

func (t *handleTable) insert(kind EntryKind, obj any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, errClosed()
	}

	t.live++
	if n := len(t.freeList); n > 0 {
		slot := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		e := &t.entries[slot]
		e.obj, e.kind, e.refs, e.valid = obj, kind, 1, true
		return makeHandle(slot, e.gen), nil
	}

	t.entries = append(t.entries, entry{obj: obj, kind: kind, refs: 1, gen: 1, valid: true})
	return makeHandle(uint32(len(t.entries)-1), 1), nil
}

// lookup requires t.mu held.
func (t *handleTable) lookup(h Handle) (*entry, error) {
	if t.closed {
		return nil, errClosed()
	}
	if h == 0 || uint32(h) == 0 {
		return nil, errors.InvalidHandle(uint64(h), "null handle")
	}
	slot := h.slot()
	if int(slot) >= len(t.entries) {
		return nil, errors.InvalidHandle(uint64(h), "unknown handle")
	}
	e := &t.entries[slot]
	if !e.valid || e.gen != h.gen() {
		return nil, errors.InvalidHandle(uint64(h), "released or stale handle")
	}
	return e, nil
}

func (t *handleTable) get(h Handle, kind EntryKind) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookup(h)
	if err != nil {
		return nil, err
	}
	if e.kind != kind {
		return nil, errors.InvalidHandle(uint64(h), fmt.Sprintf("%s handle used as %s handle", e.kind, kind))
	}
	return e.obj, nil
}

func (t *handleTable) kindOf(h Handle) (EntryKind, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookup(h)
	if err != nil {
		return 0, err
	}
	return e.kind, nil
}

func (t *handleTable) retain(h Handle) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.lookup(h)
	if err != nil {
		return Event{}, err
	}
	e.refs++
	return Event{Handle: h, Refs: e.refs, Kind: e.kind, Type: EventRetained}, nil
}

// release drops one reference and frees the slot when none remain.
func (t *handleTable) release(h Handle) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.lookup(h)
	if err != nil {
		return Event{}, err
	}

	e.refs--
	ev := Event{Handle: h, Refs: e.refs, Kind: e.kind, Type: EventReleased}
	if e.refs > 0 {
		return ev, nil
	}

	ev.Type = EventDropped
	e.obj = nil
	e.valid = false
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	t.freeList = append(t.freeList, h.slot())
	t.live--
	return ev, nil
}

func (t *handleTable) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// close invalidates every handle and returns the live ones.
func (t *handleTable) close() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	var leaked []Event
	for i := range t.entries {
		e := &t.entries[i]
		if e.valid {
			leaked = append(leaked, Event{
				Handle: makeHandle(uint32(i), e.gen),
				Refs:   e.refs,
				Kind:   e.kind,
				Type:   EventDropped,
			})
		}
	}

	t.entries = nil
	t.freeList = nil
	t.live = 0
	return leaked
}

func errClosed() *errors.Error {
	return errors.New(errors.PhaseBridge, errors.KindInvalidHandle).
		Detail("bridge closed").
		Build()
}
