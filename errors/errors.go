package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseInterpolate Phase = "interpolate" // fragment concatenation
	PhaseDecode      Phase = "decode"      // reading descriptors from linear memory
	PhaseEncode      Phase = "encode"      // writing descriptors to linear memory
	PhaseAlloc       Phase = "alloc"       // alloc / dealloc protocol
	PhaseLoad        Phase = "load"        // module compilation and instantiation
	PhaseRuntime     Phase = "runtime"     // guest calls from the host
	PhaseConfig      Phase = "config"      // host-side configuration
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidUTF8    Kind = "invalid_utf8"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindOverflow       Kind = "overflow"
	KindAllocation     Kind = "allocation"
	KindMemoryMisuse   Kind = "memory_misuse"
	KindInvalidData    Kind = "invalid_data"
	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindGuestFailure   Kind = "guest_failure"
	KindInstantiation  Kind = "instantiation"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
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

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
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

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
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

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// OutOfBounds creates a linear memory bounds error
func OutOfBounds(phase Phase, path []string, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("offset %d length %d out of bounds", offset, length),
		Value:  offset,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Value:  size,
		Cause:  cause,
	}
}

// AllocationFailedOnce is AllocationFailed unless cause already reports an
// allocation failure, in which case cause is returned as is.
func AllocationFailedOnce(phase Phase, size uint32, cause error) error {
	if HasKind(cause, KindAllocation) {
		return cause
	}
	return AllocationFailed(phase, size, cause)
}

// HasKind reports whether any *Error in err's chain has the given kind.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// MemoryMisuse creates an error for a dealloc that does not match a live allocation
func MemoryMisuse(ptr, size uint32, detail string) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindMemoryMisuse,
		Detail: fmt.Sprintf("dealloc(%d, %d): %s", ptr, size, detail),
		Value:  ptr,
	}
}

// GuestFailure wraps an error message reported by the guest module
func GuestFailure(export, message string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindGuestFailure,
		Path:   []string{export},
		Detail: message,
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

// NotInitialized creates a not-initialized error for a missing or closed resource
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	e := InvalidData(PhaseLoad, nil, detail)
	e.Cause = cause
	return e
}

// Call wraps a failed guest export invocation
func Call(export string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindGuestFailure,
		Path:   []string{export},
		Detail: "call failed",
		Cause:  cause,
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

// MissingExportsError is returned when a guest module lacks part of the ABI
type MissingExportsError struct {
	Module  string
	Exports []string
}

// NewMissingExportsError creates an error for the given absent export names
func NewMissingExportsError(module string, exports []string) *MissingExportsError {
	sorted := append([]string(nil), exports...)
	sort.Strings(sorted)
	return &MissingExportsError{Module: module, Exports: sorted}
}

func (e *MissingExportsError) Error() string {
	if len(e.Exports) == 0 {
		return "[load] not_found: no exports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("module %q is missing %d export(s):", e.Module, len(e.Exports)))
	for _, name := range e.Exports {
		b.WriteString("\n  - ")
		b.WriteString(name)
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *MissingExportsError) Is(target error) bool {
	_, ok := target.(*MissingExportsError)
	return ok
}
