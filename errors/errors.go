package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve   Phase = "resolve"   // type spec parsing and interning
	PhaseConstruct Phase = "construct" // value construction
	PhaseProject   Phase = "project"   // value projection
	PhaseEncode    Phase = "encode"    // value to bytes
	PhaseDecode    Phase = "decode"    // bytes to value
	PhaseCompare   Phase = "compare"   // ordering and hashing
	PhaseBridge    Phase = "bridge"    // handle table and host marshaling
	PhaseHost      Phase = "host"      // wasm host functions
)

// Kind categorizes the error
type Kind string

const (
	KindMalformedTypeSpec   Kind = "malformed_type_spec"
	KindTypeMismatch        Kind = "type_mismatch"
	KindIndexOutOfRange     Kind = "index_out_of_range"
	KindUnknownField        Kind = "unknown_field"
	KindTruncatedBuffer     Kind = "truncated_buffer"
	KindInvalidDiscriminant Kind = "invalid_discriminant"
	KindUnsupportedVersion  Kind = "unsupported_version"
	KindInvalidData         Kind = "invalid_data"
	KindInvalidHandle       Kind = "invalid_handle"
	KindInvalidInput        Kind = "invalid_input"
	KindBufferTooSmall      Kind = "buffer_too_small"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrMalformedTypeSpec   = &Error{Kind: KindMalformedTypeSpec}
	ErrTypeMismatch        = &Error{Kind: KindTypeMismatch}
	ErrIndexOutOfRange     = &Error{Kind: KindIndexOutOfRange}
	ErrUnknownField        = &Error{Kind: KindUnknownField}
	ErrTruncatedBuffer     = &Error{Kind: KindTruncatedBuffer}
	ErrInvalidDiscriminant = &Error{Kind: KindInvalidDiscriminant}
	ErrUnsupportedVersion  = &Error{Kind: KindUnsupportedVersion}
	ErrInvalidData         = &Error{Kind: KindInvalidData}
	ErrInvalidHandle       = &Error{Kind: KindInvalidHandle}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
	ErrBufferTooSmall      = &Error{Kind: KindBufferTooSmall}
)

// Error is the structured error type used throughout hail
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	HostType string
	TypeName string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(JoinPath(e.Path))
	}

	if e.HostType != "" || e.TypeName != "" {
		b.WriteString(": ")
		if e.HostType != "" && e.TypeName != "" {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
			b.WriteString(", hail type ")
			b.WriteString(e.TypeName)
		} else if e.HostType != "" {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
		} else {
			b.WriteString("hail type ")
			b.WriteString(e.TypeName)
		}
	}

	if e.Detail != "" {
		if e.HostType != "" || e.TypeName != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// JoinPath renders a path, attaching index segments ("[3]") without a dot.
func JoinPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// HostType sets the host-side type name
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
	return b
}

// TypeName sets the hail type name
func (b *Builder) TypeName(t string) *Builder {
	b.err.TypeName = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// MalformedTypeSpec creates a type spec parse or validation error
func MalformedTypeSpec(spec string, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindMalformedTypeSpec,
		Value:  spec,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, hostType, typeName string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		HostType: hostType,
		TypeName: typeName,
	}
}

// IndexOutOfRange creates an index error for tuples and arrays
func IndexOutOfRange(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIndexOutOfRange,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of range for length %d", index, length),
		Value:  index,
	}
}

// UnknownField creates an unknown struct field error
func UnknownField(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownField,
		Path:   path,
		Detail: fmt.Sprintf("unknown field %q", fieldName),
		Value:  fieldName,
	}
}

// TruncatedBuffer creates an error for input that ends before the type does
func TruncatedBuffer(path []string, offset, need, have int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncatedBuffer,
		Path:   path,
		Detail: fmt.Sprintf("need %d bytes at offset %d, have %d", need, offset, have),
		Value:  offset,
	}
}

// InvalidDiscriminant creates an error for a presence or bool byte outside {0,1}
func InvalidDiscriminant(path []string, offset int, disc byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidDiscriminant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d at offset %d out of range (max 1)", disc, offset),
		Value:  disc,
	}
}

// UnsupportedVersion creates an error for an unknown format version byte
func UnsupportedVersion(got, max byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnsupportedVersion,
		Detail: fmt.Sprintf("format version %d not supported (max %d)", got, max),
		Value:  got,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// InvalidHandle creates an error for released, stale, or wrong-kind handles
func InvalidHandle(handle uint64, detail string) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("handle %#x: %s", handle, detail),
		Value:  handle,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is forwards to the standard library so callers need only this package.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As forwards to the standard library so callers need only this package.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
