package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseConstruct,
				Kind:     KindTypeMismatch,
				Path:     []string{"user", "tags", "[2]"},
				HostType: "string",
				TypeName: "int32",
				Detail:   "cannot convert",
			},
			contains: []string{"[construct]", "type_mismatch", "user.tags[2]", "string", "int32", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindTruncatedBuffer,
			},
			contains: []string{"[decode]", "truncated_buffer"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseResolve,
				Kind:   KindMalformedTypeSpec,
				Detail: "bad schema",
				Cause:  stderrors.New("yaml: line 3"),
			},
			contains: []string{"[resolve]", "malformed_type_spec", "bad schema", "caused by", "yaml: line 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !stderrors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindTruncatedBuffer,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindTruncatedBuffer}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindTruncatedBuffer}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindInvalidData}) {
		t.Error("Is should not match different kind")
	}
	if !Is(err, ErrTruncatedBuffer) {
		t.Error("sentinel without phase should match on kind")
	}
	if Is(err, ErrInvalidDiscriminant) {
		t.Error("sentinel of another kind should not match")
	}

	wrapped := fmt.Errorf("decode row 3: %w", err)
	if !Is(wrapped, ErrTruncatedBuffer) {
		t.Error("sentinel should match through fmt wrapping")
	}
	if KindOf(wrapped) != KindTruncatedBuffer {
		t.Errorf("KindOf = %q", KindOf(wrapped))
	}
	if KindOf(stderrors.New("plain")) != "" {
		t.Error("KindOf of plain error should be empty")
	}
}

func TestBuilder(t *testing.T) {
	cause := stderrors.New("root")
	err := New(PhaseConstruct, KindTypeMismatch).
		Path("user", "name").
		HostType("int").
		TypeName("str").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "string", "int").
		Build()

	if err.Phase != PhaseConstruct {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseConstruct)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "user" || err.Path[1] != "name" {
		t.Errorf("Path = %v", err.Path)
	}
	if err.HostType != "int" || err.TypeName != "str" {
		t.Errorf("types = %q/%q", err.HostType, err.TypeName)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v", err.Value)
	}
	if err.Detail != "expected string, got int" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Cause != cause {
		t.Error("Cause not set")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		kind   Kind
		phase  Phase
		detail string
	}{
		{"malformed", MalformedTypeSpec("array<", "unbalanced %q", "<"), KindMalformedTypeSpec, PhaseResolve, `unbalanced "<"`},
		{"index", IndexOutOfRange(PhaseProject, nil, 5, 3), KindIndexOutOfRange, PhaseProject, "index 5 out of range for length 3"},
		{"field", UnknownField(PhaseProject, nil, "zip"), KindUnknownField, PhaseProject, `unknown field "zip"`},
		{"truncated", TruncatedBuffer(nil, 9, 4, 1), KindTruncatedBuffer, PhaseDecode, "need 4 bytes at offset 9, have 1"},
		{"discriminant", InvalidDiscriminant(nil, 2, 7), KindInvalidDiscriminant, PhaseDecode, "discriminant 7 at offset 2 out of range (max 1)"},
		{"version", UnsupportedVersion(9, 1), KindUnsupportedVersion, PhaseDecode, "format version 9 not supported (max 1)"},
		{"handle", InvalidHandle(0x10, "released"), KindInvalidHandle, PhaseBridge, "handle 0x10: released"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if tt.err.Detail != tt.detail {
				t.Errorf("Detail = %q, want %q", tt.err.Detail, tt.detail)
			}
		})
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b"}, "a.b"},
		{[]string{"tags", "[1]", "name"}, "tags[1].name"},
		{[]string{"[0]", "[1]"}, "[0][1]"},
	}
	for _, tt := range tests {
		if got := JoinPath(tt.path); got != tt.want {
			t.Errorf("JoinPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
