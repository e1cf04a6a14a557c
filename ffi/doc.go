// Package ffi loads an installed zeromq shared library and adapts it to the
// native call table.
//
// Loading is cgo-free: the library is opened with dlopen and its entry
// points are registered as typed Go functions through purego. Resolution
// probes well-known sonames, newest line first, unless the caller supplies
// an explicit name or the ZMQ_FFI_SONAME environment variable names one.
//
// The adapter hides the calling-convention drift between revisions: 2.x
// owns context setup via zmq_init and sends through message objects, while
// 3.x and later use the zmq_ctx calls and direct send buffers. Receives go
// through message objects on every revision, so a part is never truncated
// to a caller-sized buffer. Callers see the one native.Funcs shape either
// way; which entries are present follows the loaded revision.
//
// Errno is thread-local on the C side, so every call runs with its
// goroutine locked to an OS thread for the span of the call and the
// follow-up zmq_errno/zmq_strerror reads.
package ffi
