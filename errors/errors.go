package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLayout   Phase = "layout"   // codec construction
	PhaseEncode   Phase = "encode"   // host to unmanaged
	PhaseDecode   Phase = "decode"   // unmanaged to host
	PhaseTransfer Phase = "transfer" // ownership handoff
	PhaseCallback Phase = "callback" // function-pointer bridging
	PhaseWire     Phase = "wire"     // Wire message codec
	PhaseNative   Phase = "native"   // native domain operations
	PhaseConfig   Phase = "config"   // configuration validation
	PhaseRuntime  Phase = "runtime"  // engine runtime operations
	PhaseLoad     Phase = "load"     // module loading
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch    Kind = "type_mismatch"
	KindVariantMismatch Kind = "variant_mismatch"
	KindInvalidVariant  Kind = "invalid_variant"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindLengthMismatch  Kind = "length_mismatch"
	KindSizeMismatch    Kind = "size_mismatch"
	KindTruncated       Kind = "truncated"
	KindInvalidData     Kind = "invalid_data"
	KindInvalidUTF8     Kind = "invalid_utf8"
	KindUnsupported     Kind = "unsupported"
	KindAllocation      Kind = "allocation"
	KindOverflow        Kind = "overflow"
	KindNilPointer      Kind = "nil_pointer"
	KindMoved           Kind = "moved"
	KindDestroyed       Kind = "destroyed"
	KindReleased        Kind = "released"
	KindOwnership       Kind = "ownership"
	KindCallbackPanic   Kind = "callback_panic"
	KindNativePanic     Kind = "native_panic"
	KindNativeNull      Kind = "native_null"
	KindNotFound        Kind = "not_found"
	KindNotInitialized  Kind = "not_initialized"
	KindInvalidInput    Kind = "invalid_input"
	KindInstantiation   Kind = "instantiation"
	KindAPIMismatch     Kind = "api_mismatch"
)

// Sentinels for errors.Is. They carry no phase and match any error of the same kind.
var (
	ErrVariantMismatch = &Error{Kind: KindVariantMismatch}
	ErrInvalidVariant  = &Error{Kind: KindInvalidVariant}
	ErrOutOfBounds     = &Error{Kind: KindOutOfBounds}
	ErrLengthMismatch  = &Error{Kind: KindLengthMismatch}
	ErrSizeMismatch    = &Error{Kind: KindSizeMismatch}
	ErrTruncated       = &Error{Kind: KindTruncated}
	ErrInvalidUTF8     = &Error{Kind: KindInvalidUTF8}
	ErrMoved           = &Error{Kind: KindMoved}
	ErrDestroyed       = &Error{Kind: KindDestroyed}
	ErrReleased        = &Error{Kind: KindReleased}
	ErrOwnership       = &Error{Kind: KindOwnership}
	ErrCallbackPanic   = &Error{Kind: KindCallbackPanic}
	ErrNativePanic     = &Error{Kind: KindNativePanic}
	ErrNativeNull      = &Error{Kind: KindNativeNull}
	ErrAPIMismatch     = &Error{Kind: KindAPIMismatch}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	ABIType string
	Detail  string
	Path    []string
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

	if e.GoType != "" || e.ABIType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.ABIType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", ABI type ")
			b.WriteString(e.ABIType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("ABI type ")
			b.WriteString(e.ABIType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.ABIType != "" {
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
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
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

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// ABIType sets the unmanaged type name
func (b *Builder) ABIType(t string) *Builder {
	b.err.ABIType = t
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

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, abiType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		GoType:  goType,
		ABIType: abiType,
	}
}

// VariantMismatch creates an error for reading a tagged union under the wrong variant
func VariantMismatch(phase Phase, abiType, want, live string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindVariantMismatch,
		ABIType: abiType,
		Detail:  fmt.Sprintf("requested variant %s, live variant is %s", want, live),
		Value:   want,
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

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// InvalidDiscriminant creates an invalid discriminant error for variants/enums
func InvalidDiscriminant(phase Phase, path []string, disc uint32, maxValid uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidVariant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d out of range (max %d)", disc, maxValid),
		Value:  disc,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// LengthMismatch creates an error for a fixed-length value built from the wrong count
func LengthMismatch(phase Phase, abiType string, want, got int) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindLengthMismatch,
		ABIType: abiType,
		Detail:  fmt.Sprintf("expected %d elements, got %d", want, got),
		Value:   got,
	}
}

// SizeMismatch creates an error for a size prediction that disagrees with the bytes written
func SizeMismatch(phase Phase, abiType string, predicted, written int) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindSizeMismatch,
		ABIType: abiType,
		Detail:  fmt.Sprintf("predicted %d bytes, wrote %d", predicted, written),
		Value:   written,
	}
}

// Truncated creates an error for input that ends before a value is complete
func Truncated(phase Phase, path []string, need, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Path:   path,
		Detail: fmt.Sprintf("need %d bytes, %d remaining", need, have),
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindOverflow,
		Path:    path,
		ABIType: targetType,
		Detail:  fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:   value,
	}
}

// Moved creates a use-after-transfer error
func Moved(phase Phase, goType, op string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMoved,
		GoType: goType,
		Detail: fmt.Sprintf("%s after ownership was transferred", op),
	}
}

// Destroyed creates a use-after-destroy error
func Destroyed(phase Phase, goType, op string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDestroyed,
		GoType: goType,
		Detail: fmt.Sprintf("%s after destroy", op),
	}
}

// Released creates a use-after-release error
func Released(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReleased,
		Detail: fmt.Sprintf("%s already released", what),
	}
}

// CallbackPanic creates an error carrying a panic recovered inside a callback
func CallbackPanic(value any) *Error {
	return &Error{
		Phase:  PhaseCallback,
		Kind:   KindCallbackPanic,
		Detail: fmt.Sprintf("host callback panicked: %v", value),
		Value:  value,
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

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error
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

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// APIMismatch reports a library whose API hash differs from the one its
// bindings were generated against.
func APIMismatch(want, got uint64) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindAPIMismatch,
		Value:  got,
		Detail: fmt.Sprintf("library reports API %016x, bindings expect %016x", got, want),
	}
}
