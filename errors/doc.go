// Package errors provides structured error types for hail.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: value path, host and hail type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTruncatedBuffer).
//		Path("tags", "[1]").
//		Detail("need 2 bytes at offset 9, have 1").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseConstruct, path, "string", "int32")
//	err := errors.IndexOutOfRange(errors.PhaseProject, path, 10, 5)
//
// Every Kind has a sentinel for errors.Is, which matches regardless of phase:
//
//	if errors.Is(err, errors.ErrTruncatedBuffer) { ... }
package errors
