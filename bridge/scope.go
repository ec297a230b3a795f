package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/hail/types"
)

// Scope tracks handles acquired during one Bridge.Scope call. Every
// tracked handle not passed to Keep is released when the scope ends,
// whether fn returns normally, returns an error, or panics.
type Scope struct {
	b        *Bridge
	acquired []Handle
	kept     map[Handle]int
}

// Scope runs fn with a fresh scope and releases its handles afterwards.
// A panic in fn is re-raised after the release.
func (b *Bridge) Scope(fn func(*Scope) error) error {
	s := &Scope{b: b}
	defer s.end()
	return fn(s)
}

func (s *Scope) end() {
	for i := len(s.acquired) - 1; i >= 0; i-- {
		h := s.acquired[i]
		if s.kept[h] > 0 {
			s.kept[h]--
			continue
		}
		if err := s.b.Release(h); err != nil {
			Logger().Debug("scope release failed", zap.Stringer("handle", h), zap.Error(err))
		}
	}
	s.acquired = nil
}

// Bridge returns the bridge the scope belongs to.
func (s *Scope) Bridge() *Bridge { return s.b }

// Track adopts h: it is released when the scope ends.
func (s *Scope) Track(h Handle) Handle {
	s.acquired = append(s.acquired, h)
	return h
}

// Keep exempts one tracked reference to h from release at scope end,
// transferring it to the caller.
func (s *Scope) Keep(h Handle) {
	if s.kept == nil {
		s.kept = make(map[Handle]int)
	}
	s.kept[h]++
}

func (s *Scope) track(h Handle, err error) (Handle, error) {
	if err != nil {
		return 0, err
	}
	return s.Track(h), nil
}

func (s *Scope) ResolveType(spec string) (Handle, error) {
	return s.track(s.b.ResolveType(spec))
}

func (s *Scope) ResolveSchemaType(schema *types.Schema, name string) (Handle, error) {
	return s.track(s.b.ResolveSchemaType(schema, name))
}

func (s *Scope) TypeOf(h Handle) (Handle, error) {
	return s.track(s.b.TypeOf(h))
}

func (s *Scope) BuildValue(typ Handle, host any) (Handle, error) {
	return s.track(s.b.BuildValue(typ, host))
}

func (s *Scope) Decode(buf []byte, typ Handle) (Handle, error) {
	return s.track(s.b.Decode(buf, typ))
}

func (s *Scope) Project(h Handle, path string) (Handle, error) {
	return s.track(s.b.Project(h, path))
}

// Retain adds a reference to h that the scope releases at its end.
func (s *Scope) Retain(h Handle) error {
	if err := s.b.Retain(h); err != nil {
		return err
	}
	s.Track(h)
	return nil
}
