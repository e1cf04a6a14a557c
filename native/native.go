package native

import "fmt"

// Ctx is an opaque native context handle. Valid handles are non-zero.
type Ctx uintptr

// Sock is an opaque native socket handle. Valid handles are non-zero.
type Sock uintptr

// Error is the failure of one native call: the errno observed at the call
// boundary and its message text.
type Error struct {
	Fn    string // native entry point, e.g. "zmq_bind"
	Errno int
	Text  string
}

func (e *Error) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("%s: errno %d", e.Fn, e.Errno)
	}
	return fmt.Sprintf("%s: %s (errno %d)", e.Fn, e.Text, e.Errno)
}

// Errf builds a native error with a formatted message text.
func Errf(fn string, errno int, format string, args ...any) *Error {
	return &Error{Fn: fn, Errno: errno, Text: fmt.Sprintf(format, args...)}
}

// Funcs is the typed entry-point table of one loaded engine revision.
//
// An entry is nil when the revision does not provide the call. The backend
// capability tables decide which entries a caller may rely on; nil checks
// here are a driver correctness contract, not a dispatch mechanism.
//
// Send and Recv work at whole-buffer granularity: drivers hide the engine's
// message-object calling convention (2.x) or direct buffer convention (3.x+)
// behind the same signature. GetOpt receives the caller's buffer size and
// returns the bytes the engine wrote.
type Funcs struct {
	// Always present.
	Version func() (major, minor, patch int)

	// Context lifecycle. Init/Term are the 2.x convention, CtxNew/CtxDestroy
	// the 3.x+ one; a driver fills exactly one pair.
	Init       func(ioThreads int) (Ctx, *Error)
	Term       func(c Ctx) *Error
	CtxNew     func() (Ctx, *Error)
	CtxDestroy func(c Ctx) *Error

	// Context options, 3.x+.
	CtxGet func(c Ctx, option int) (int, *Error)
	CtxSet func(c Ctx, option, value int) *Error

	// Socket lifecycle and wiring.
	Socket     func(c Ctx, socketType int) (Sock, *Error)
	Close      func(s Sock) *Error
	Bind       func(s Sock, endpoint string) *Error
	Connect    func(s Sock, endpoint string) *Error
	Unbind     func(s Sock, endpoint string) *Error // 3.2+
	Disconnect func(s Sock, endpoint string) *Error // 3.2+

	// Option plumbing. Values are raw bytes; the codec package owns typing.
	SetOpt func(s Sock, option int, value []byte) *Error
	GetOpt func(s Sock, option int, size int) ([]byte, *Error)

	// Data plane.
	Send func(s Sock, data []byte, flags int) *Error
	Recv func(s Sock, flags int) ([]byte, *Error)

	// Forwarding. Proxy is 3.2+; Device is the 2.x ancestor.
	Proxy  func(frontend, backend, capture Sock) *Error
	Device func(deviceType int, frontend, backend Sock) *Error
}

// Driver supplies a loaded engine revision.
//
// Close releases whatever backs the table: a dlclose for FFI drivers, a
// teardown of in-process state for emulations. After Close the Funcs table
// must not be called.
type Driver interface {
	// Version reports the engine's revision triple.
	Version() (major, minor, patch int)

	// Funcs returns the entry-point table. The table is immutable and safe
	// for concurrent use; the calls themselves carry the engine's own
	// threading rules.
	Funcs() *Funcs

	Close() error
}
