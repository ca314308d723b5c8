// Package errors provides structured error types for the interop module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/ABI type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindVariantMismatch).
//		ABIType("enum Shape").
//		Detail("requested variant %s, live variant is %s", "B", "C").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseDecode, path, 10, 5)
//	err := errors.Moved(errors.PhaseTransfer, "Vec[uint32]", "get")
//
// Ownership violations, variant mismatches and native faults have kind-only
// sentinels (ErrMoved, ErrVariantMismatch, ErrNativePanic, ...) so callers can
// match them with errors.Is regardless of phase.
package errors
