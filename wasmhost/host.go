// Package wasmhost serves a bridge to WebAssembly guests as the wazero host
// module "hail".
//
// Every function returns an i32 status: 0 on success or a negative
// bridge status code. Results are written through guest pointers, so a
// failing call leaves guest memory and the handle table untouched.
//
//	resolve_type(spec_ptr, spec_len, out_ptr i32) -> i32        out: u64 type handle
//	decode(type i64, ptr, len, out_ptr i32) -> i32              out: u64 value handle
//	encode(value i64, buf_ptr, buf_cap, len_ptr i32) -> i32     out: u32 length, bytes
//	compare(a, b i64, flags, out_ptr i32) -> i32                out: i32 ordering
//	hash(value i64, out_ptr i32) -> i32                         out: u64 hash
//	release(handle i64) -> i32
//
// encode always writes the encoded length; when it exceeds buf_cap the
// bytes are not written and the status is BufferTooSmall, so the guest
// can grow its buffer and retry. Bit 0 of compare's flags orders absent
// nullables last.
package wasmhost

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/hail"
	"github.com/wippyai/hail/bridge"
	"github.com/wippyai/hail/compare"
	"github.com/wippyai/hail/errors"
)

// ModuleName is the import module name guests use.
const ModuleName = "hail"

// FlagNullsLast is bit 0 of compare's flags.
const FlagNullsLast uint32 = 1

const (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// Host exposes one bridge to guests.
type Host struct {
	b *bridge.Bridge
}

func New(b *bridge.Bridge) *Host {
	return &Host{b: b}
}

// Bridge returns the bridge guests operate on.
func (h *Host) Bridge() *bridge.Bridge { return h.b }

type hostFunc struct {
	call       func(mem hail.Memory, stack []uint64) error
	name       string
	params     []api.ValueType
	paramNames []string
	noMemory   bool
}

func (h *Host) functions() []hostFunc {
	return []hostFunc{
		{
			name:       "resolve_type",
			params:     []api.ValueType{i32, i32, i32},
			paramNames: []string{"spec_ptr", "spec_len", "out_ptr"},
			call: func(mem hail.Memory, s []uint64) error {
				return h.resolveType(mem, api.DecodeU32(s[0]), api.DecodeU32(s[1]), api.DecodeU32(s[2]))
			},
		},
		{
			name:       "decode",
			params:     []api.ValueType{i64, i32, i32, i32},
			paramNames: []string{"type", "ptr", "len", "out_ptr"},
			call: func(mem hail.Memory, s []uint64) error {
				return h.decode(mem, bridge.Handle(s[0]), api.DecodeU32(s[1]), api.DecodeU32(s[2]), api.DecodeU32(s[3]))
			},
		},
		{
			name:       "encode",
			params:     []api.ValueType{i64, i32, i32, i32},
			paramNames: []string{"value", "buf_ptr", "buf_cap", "len_ptr"},
			call: func(mem hail.Memory, s []uint64) error {
				return h.encode(mem, bridge.Handle(s[0]), api.DecodeU32(s[1]), api.DecodeU32(s[2]), api.DecodeU32(s[3]))
			},
		},
		{
			name:       "compare",
			params:     []api.ValueType{i64, i64, i32, i32},
			paramNames: []string{"a", "b", "flags", "out_ptr"},
			call: func(mem hail.Memory, s []uint64) error {
				return h.compare(mem, bridge.Handle(s[0]), bridge.Handle(s[1]), api.DecodeU32(s[2]), api.DecodeU32(s[3]))
			},
		},
		{
			name:       "hash",
			params:     []api.ValueType{i64, i32},
			paramNames: []string{"value", "out_ptr"},
			call: func(mem hail.Memory, s []uint64) error {
				return h.hash(mem, bridge.Handle(s[0]), api.DecodeU32(s[1]))
			},
		},
		{
			name:       "release",
			params:     []api.ValueType{i64},
			paramNames: []string{"handle"},
			noMemory:   true,
			call: func(_ hail.Memory, s []uint64) error {
				return h.b.Release(bridge.Handle(s[0]))
			},
		},
	}
}

// Instantiate registers the host module in rt. Guests importing from
// ModuleName must be instantiated afterwards.
func (h *Host) Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	builder := rt.NewHostModuleBuilder(ModuleName)
	for _, fn := range h.functions() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(h.wrap(fn), fn.params, []api.ValueType{i32}).
			WithParameterNames(fn.paramNames...).
			WithResultNames("status").
			Export(fn.name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "instantiate host module")
	}
	return mod, nil
}

func (h *Host) wrap(fn hostFunc) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		var mem hail.Memory
		if !fn.noMemory {
			mem = WrapMemory(mod.Memory())
		}

		var err error
		if mem == nil && !fn.noMemory {
			err = errors.InvalidInput(errors.PhaseHost, "guest exports no memory")
		} else {
			err = fn.call(mem, stack)
		}

		status := bridge.Code(err)
		if err != nil {
			Logger().Debug("guest call failed",
				zap.String("func", fn.name),
				zap.Int32("status", status),
				zap.Error(err))
		}
		stack[0] = api.EncodeI32(status)
	}
}

func (h *Host) resolveType(mem hail.Memory, specPtr, specLen, outPtr uint32) error {
	spec, err := mem.Read(specPtr, specLen)
	if err != nil {
		return err
	}
	th, err := h.b.ResolveType(string(spec))
	if err != nil {
		return err
	}
	return h.writeHandle(mem, outPtr, th)
}

func (h *Host) decode(mem hail.Memory, typ bridge.Handle, ptr, length, outPtr uint32) error {
	buf, err := mem.Read(ptr, length)
	if err != nil {
		return err
	}
	vh, err := h.b.Decode(buf, typ)
	if err != nil {
		return err
	}
	return h.writeHandle(mem, outPtr, vh)
}

func (h *Host) encode(mem hail.Memory, v bridge.Handle, bufPtr, bufCap, lenPtr uint32) error {
	buf, err := h.b.Encode(v)
	if err != nil {
		return err
	}
	if err := mem.WriteU32(lenPtr, uint32(len(buf))); err != nil {
		return err
	}
	if uint64(len(buf)) > uint64(bufCap) {
		return errors.New(errors.PhaseHost, errors.KindBufferTooSmall).
			Detail("need %d bytes, have %d", len(buf), bufCap).
			Build()
	}
	return mem.Write(bufPtr, buf)
}

func (h *Host) compare(mem hail.Memory, a, b bridge.Handle, flags, outPtr uint32) error {
	if flags&^FlagNullsLast != 0 {
		return errors.InvalidInput(errors.PhaseHost, "unknown compare flags")
	}
	var opts []compare.Option
	if flags&FlagNullsLast != 0 {
		opts = append(opts, compare.WithNullsLast())
	}
	ord, err := h.b.Compare(a, b, opts...)
	if err != nil {
		return err
	}
	return mem.WriteU32(outPtr, uint32(int32(ord)))
}

func (h *Host) hash(mem hail.Memory, v bridge.Handle, outPtr uint32) error {
	sum, err := h.b.Hash(v)
	if err != nil {
		return err
	}
	return mem.WriteU64(outPtr, sum)
}

// writeHandle hands a new handle to the guest, releasing it if the guest
// pointer is unwritable.
func (h *Host) writeHandle(mem hail.Memory, outPtr uint32, handle bridge.Handle) error {
	if err := mem.WriteU64(outPtr, uint64(handle)); err != nil {
		_ = h.b.Release(handle)
		return err
	}
	return nil
}
