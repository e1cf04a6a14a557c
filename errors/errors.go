package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDispatch Phase = "dispatch" // library loading and backend selection
	PhaseContext  Phase = "context"  // context operations
	PhaseSocket   Phase = "socket"   // socket operations
	PhaseOption   Phase = "option"   // option value packing and typing
	PhaseTeardown Phase = "teardown" // resource release
)

// Kind categorizes the error
type Kind string

const (
	KindUnresolvableBackend  Kind = "unresolvable_backend"
	KindUnsupportedOperation Kind = "unsupported_operation"
	KindInvalidSocketType    Kind = "invalid_socket_type"
	KindAddress              Kind = "address"
	KindTypeMismatch         Kind = "type_mismatch"
	KindNativeCall           Kind = "native_call"
	KindCrossThreadTeardown  Kind = "cross_thread_teardown"
	KindClosed               Kind = "closed"
	KindInvalidInput         Kind = "invalid_input"
)

// Error is the structured error type used throughout the binding
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Op       string // native entry point or public operation name
	Endpoint string
	Errno    int    // native errno when the failure crossed the ABI
	Want     string // expected option value type
	Got      string // provided option value type
	Detail   string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.Endpoint != "" {
		b.WriteString(" at ")
		b.WriteString(e.Endpoint)
	}

	if e.Want != "" || e.Got != "" {
		b.WriteString(": ")
		if e.Want != "" && e.Got != "" {
			b.WriteString("want ")
			b.WriteString(e.Want)
			b.WriteString(", got ")
			b.WriteString(e.Got)
		} else if e.Want != "" {
			b.WriteString("want ")
			b.WriteString(e.Want)
		} else {
			b.WriteString("got ")
			b.WriteString(e.Got)
		}
	}

	if e.Detail != "" {
		if e.Want != "" || e.Got != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Errno != 0 {
		b.WriteString(fmt.Sprintf(" (errno %d)", e.Errno))
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

// Is reports whether target matches this error. A target with an empty
// Phase matches any phase of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
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

// Op sets the operation or native entry point name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Endpoint sets the endpoint the operation addressed
func (b *Builder) Endpoint(ep string) *Builder {
	b.err.Endpoint = ep
	return b
}

// Errno sets the native errno
func (b *Builder) Errno(code int) *Builder {
	b.err.Errno = code
	return b
}

// Want sets the expected value type name
func (b *Builder) Want(t string) *Builder {
	b.err.Want = t
	return b
}

// Got sets the provided value type name
func (b *Builder) Got(t string) *Builder {
	b.err.Got = t
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

// Unresolvable creates a backend resolution error: no loadable library, or a
// loaded library whose version has no matching backend.
func Unresolvable(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindUnresolvableBackend,
		Detail: detail,
		Cause:  cause,
	}
}

// Unsupported creates an error for an operation the resolved backend
// revision does not provide.
func Unsupported(phase Phase, op, requires string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedOperation,
		Op:     op,
		Detail: fmt.Sprintf("requires libzmq %s", requires),
	}
}

// InvalidSocketType creates an error for a socket type the backend rejected.
func InvalidSocketType(value any, detail string) *Error {
	return &Error{
		Phase:  PhaseContext,
		Kind:   KindInvalidSocketType,
		Op:     "socket",
		Detail: detail,
		Value:  value,
	}
}

// Address creates an endpoint error for bind, connect, unbind or disconnect.
func Address(op, endpoint string, errno int, text string) *Error {
	return &Error{
		Phase:    PhaseSocket,
		Kind:     KindAddress,
		Op:       op,
		Endpoint: endpoint,
		Errno:    errno,
		Detail:   text,
	}
}

// TypeMismatch creates an option typing error. The option argument is the
// rendered option identity, e.g. "linger (17)".
func TypeMismatch(op, option, want, got string) *Error {
	return &Error{
		Phase:  PhaseOption,
		Kind:   KindTypeMismatch,
		Op:     op,
		Want:   want,
		Got:    got,
		Detail: option,
	}
}

// Native creates an error for a native call that returned failure.
func Native(phase Phase, op string, errno int, text string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNativeCall,
		Op:     op,
		Errno:  errno,
		Detail: text,
	}
}

// CrossThreadTeardown creates an error describing a teardown attempt from a
// non-creator identity. The lifecycle layer logs these rather than returning
// them; the constructor exists so the condition has one canonical rendering.
func CrossThreadTeardown(resource string, creator, caller string) *Error {
	return &Error{
		Phase:  PhaseTeardown,
		Kind:   KindCrossThreadTeardown,
		Detail: fmt.Sprintf("%s created by %s, teardown attempted by %s", resource, creator, caller),
	}
}

// Closed creates an error for an operation on an already-released resource.
func Closed(phase Phase, op, resource string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Op:     op,
		Detail: fmt.Sprintf("%s is closed", resource),
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

// ErrnoOf extracts the native errno carried by an error chain, if any.
func ErrnoOf(err error) (int, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Errno != 0 {
				return e.Errno, true
			}
			err = e.Cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0, false
		}
		err = u.Unwrap()
	}
	return 0, false
}

// IsKind reports whether the error chain contains an Error of the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// LoadAttempt records one library name tried during engine loading.
type LoadAttempt struct {
	Soname string // e.g. "libzmq.so.5"
	Reason string // loader's failure message
}

// LoadFailedError is returned when no candidate engine library could be
// loaded.
type LoadFailedError struct {
	Attempts []LoadAttempt
}

// NewLoadFailedError creates an error from the tried sonames and their
// failure reasons, paired positionally.
func NewLoadFailedError(sonames, reasons []string) *LoadFailedError {
	result := &LoadFailedError{
		Attempts: make([]LoadAttempt, 0, len(sonames)),
	}
	for i, name := range sonames {
		reason := ""
		if i < len(reasons) {
			reason = reasons[i]
		}
		result.Attempts = append(result.Attempts, LoadAttempt{
			Soname: name,
			Reason: reason,
		})
	}
	return result
}

func (e *LoadFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return "[dispatch] unresolvable_backend: no candidate libraries"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("no loadable engine library, tried %d candidate(s):\n", len(e.Attempts)))

	for _, a := range e.Attempts {
		b.WriteString("  - ")
		b.WriteString(a.Soname)
		if a.Reason != "" {
			b.WriteString(": ")
			b.WriteString(a.Reason)
		}
		b.WriteByte('\n')
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *LoadFailedError) Is(target error) bool {
	_, ok := target.(*LoadFailedError)
	return ok
}
