package bridge

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_ReleasesOnReturn(t *testing.T) {
	b := New()
	defer b.Close()

	err := b.Scope(func(s *Scope) error {
		typ, err := s.ResolveType(recordSpec)
		if err != nil {
			return err
		}
		v, err := s.BuildValue(typ, map[string]any{"id": 1, "tags": []string{"x"}})
		if err != nil {
			return err
		}
		if _, err := s.Project(v, "tags[0]"); err != nil {
			return err
		}
		_, err = s.TypeOf(v)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, b.Live())
}

func TestScope_ReleasesOnError(t *testing.T) {
	b := New()
	defer b.Close()

	err := b.Scope(func(s *Scope) error {
		typ, err := s.ResolveType("int32")
		if err != nil {
			return err
		}
		_, err = s.BuildValue(typ, "not a number")
		return err
	})
	require.Error(t, err)
	assert.Equal(t, StatusTypeMismatch, Code(err))
	assert.Equal(t, 0, b.Live())
}

func TestScope_ReleasesOnPanic(t *testing.T) {
	b := New()
	defer b.Close()

	assert.PanicsWithValue(t, "boom", func() {
		_ = b.Scope(func(s *Scope) error {
			if _, err := s.ResolveType("int32"); err != nil {
				return err
			}
			panic("boom")
		})
	})
	assert.Equal(t, 0, b.Live())
}

func TestScope_Keep(t *testing.T) {
	b := New()
	defer b.Close()

	var kept Handle
	err := b.Scope(func(s *Scope) error {
		typ, err := s.ResolveType("str")
		if err != nil {
			return err
		}
		v, err := s.BuildValue(typ, "hello")
		if err != nil {
			return err
		}
		s.Keep(v)
		kept = v
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Live())

	host, err := b.ToHost(kept)
	require.NoError(t, err)
	assert.Equal(t, "hello", host)
	require.NoError(t, b.Release(kept))
}

func TestScope_TrackAndRetain(t *testing.T) {
	b := New()
	defer b.Close()

	outer, err := b.ResolveType("bool")
	require.NoError(t, err)

	sentinel := stderrors.New("stop")
	err = b.Scope(func(s *Scope) error {
		require.NoError(t, s.Retain(outer))
		inner, err := b.ResolveType("int64")
		require.NoError(t, err)
		s.Track(inner)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, b.Live())

	_, err = b.Descriptor(outer)
	require.NoError(t, err)
	require.NoError(t, b.Release(outer))
}
