package wasmhost

import (
	"reflect"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/hail"
	"github.com/wippyai/hail/errors"
)

// WrapMemory adapts wazero memory to hail.Memory. It returns nil when mem
// is nil, including the typed nil wazero returns for a module without
// memory.
func WrapMemory(mem api.Memory) hail.Memory {
	if mem == nil || reflect.ValueOf(mem).IsNil() {
		return nil
	}
	return &guestMemory{mem: mem}
}

type guestMemory struct {
	mem api.Memory
}

func outOfBounds(op string, offset uint32, length int) *errors.Error {
	return errors.New(errors.PhaseHost, errors.KindInvalidInput).
		Detail("memory %s out of bounds: offset=%d, length=%d", op, offset, length).
		Build()
}

func (m *guestMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, outOfBounds("read", offset, int(length))
	}
	return data, nil
}

func (m *guestMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return outOfBounds("write", offset, len(data))
	}
	return nil
}

func (m *guestMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 4)
	}
	return v, nil
}

func (m *guestMemory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 8)
	}
	return v, nil
}

func (m *guestMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return outOfBounds("write", offset, 4)
	}
	return nil
}

func (m *guestMemory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return outOfBounds("write", offset, 8)
	}
	return nil
}

func (m *guestMemory) Size() uint32 {
	return m.mem.Size()
}

var (
	_ hail.Memory      = (*guestMemory)(nil)
	_ hail.MemorySizer = (*guestMemory)(nil)
)
