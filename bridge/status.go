package bridge

import (
	"github.com/wippyai/hail/errors"
)

// Status codes returned across the wasm boundary. Zero is success; every
// error kind maps to a stable negative code.
const (
	StatusOK                  int32 = 0
	StatusMalformedTypeSpec   int32 = -1
	StatusTypeMismatch        int32 = -2
	StatusIndexOutOfRange     int32 = -3
	StatusUnknownField        int32 = -4
	StatusTruncatedBuffer     int32 = -5
	StatusInvalidDiscriminant int32 = -6
	StatusUnsupportedVersion  int32 = -7
	StatusInvalidData         int32 = -8
	StatusInvalidHandle       int32 = -9
	StatusInvalidInput        int32 = -10
	StatusBufferTooSmall      int32 = -11
	StatusInternal            int32 = -127
)

var kindCodes = map[errors.Kind]int32{
	errors.KindMalformedTypeSpec:   StatusMalformedTypeSpec,
	errors.KindTypeMismatch:        StatusTypeMismatch,
	errors.KindIndexOutOfRange:     StatusIndexOutOfRange,
	errors.KindUnknownField:        StatusUnknownField,
	errors.KindTruncatedBuffer:     StatusTruncatedBuffer,
	errors.KindInvalidDiscriminant: StatusInvalidDiscriminant,
	errors.KindUnsupportedVersion:  StatusUnsupportedVersion,
	errors.KindInvalidData:         StatusInvalidData,
	errors.KindInvalidHandle:       StatusInvalidHandle,
	errors.KindInvalidInput:        StatusInvalidInput,
	errors.KindBufferTooSmall:      StatusBufferTooSmall,
}

var codeKinds = func() map[int32]errors.Kind {
	m := make(map[int32]errors.Kind, len(kindCodes))
	for k, c := range kindCodes {
		m[c] = k
	}
	return m
}()

// Code maps err to its status code. Errors outside the hail error kinds
// map to StatusInternal.
func Code(err error) int32 {
	if err == nil {
		return StatusOK
	}
	if c, ok := kindCodes[errors.KindOf(err)]; ok {
		return c
	}
	return StatusInternal
}

// Kind maps a status code back to its error kind; ok is false for
// StatusOK, StatusInternal and unknown codes.
func Kind(code int32) (errors.Kind, bool) {
	k, ok := codeKinds[code]
	return k, ok
}

// FromCode rebuilds an error from a status code received across the
// boundary. StatusOK yields nil.
func FromCode(phase errors.Phase, code int32) error {
	if code == StatusOK {
		return nil
	}
	k, ok := Kind(code)
	if !ok {
		return errors.New(phase, errors.KindInvalidData).
			Detail("status %d", code).
			Build()
	}
	return errors.New(phase, k).
		Detail("status %d", code).
		Build()
}
