// Package errors provides structured error types for safe-url-paths.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a fragment path such as "dynamics.1", a detail message,
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
//		Path("statics", "0").
//		Detail("descriptor points past end of memory").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidInput(errors.PhaseInterpolate, "statics must contain at least one fragment")
//	err := errors.OutOfBounds(errors.PhaseDecode, path, offset, length)
//
// All errors implement the standard error interface and support errors.Is/As.
// Two *Error values match under errors.Is when Phase and Kind are equal.
package errors
