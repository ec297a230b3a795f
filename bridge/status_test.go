package bridge

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wippyai/hail/errors"
)

func TestCode(t *testing.T) {
	assert.Equal(t, StatusOK, Code(nil))
	assert.Equal(t, StatusInternal, Code(stderrors.New("plain")))
	assert.Equal(t, StatusTruncatedBuffer, Code(errors.TruncatedBuffer(nil, 1, 4, 2)))
	assert.Equal(t, StatusUnsupportedVersion, Code(errors.UnsupportedVersion(9, 1)))
	assert.Equal(t, StatusInvalidHandle, Code(errors.InvalidHandle(3, "stale")))
}

func TestCodes_RoundTrip(t *testing.T) {
	seen := map[int32]bool{}
	for kind, code := range kindCodes {
		assert.Less(t, code, StatusOK)
		assert.False(t, seen[code], "duplicate code %d", code)
		seen[code] = true

		back, ok := Kind(code)
		assert.True(t, ok)
		assert.Equal(t, kind, back)

		err := FromCode(errors.PhaseHost, code)
		assert.Equal(t, kind, errors.KindOf(err))
		assert.Equal(t, code, Code(err))
	}
}

func TestFromCode(t *testing.T) {
	assert.NoError(t, FromCode(errors.PhaseHost, StatusOK))

	_, ok := Kind(StatusInternal)
	assert.False(t, ok)

	err := FromCode(errors.PhaseHost, -99)
	assert.Equal(t, errors.KindInvalidData, errors.KindOf(err))
	assert.Contains(t, err.Error(), "status -99")
}
