// Package native defines the boundary between the version-aware binding and
// a loaded messaging engine.
//
// A Driver owns one loaded engine revision and exposes it as a Funcs value:
// a table of typed Go functions, one per native entry point, with nil entries
// for calls the revision does not provide. Everything above this package
// works purely in terms of Funcs; whether the entries are FFI trampolines
// into a shared library (the ffi package) or an in-process emulation (the
// memengine package) is invisible to callers.
//
// Handles are opaque. A Ctx or Sock is only meaningful to the driver that
// issued it, and the zero value is never a valid handle.
//
// Failures at this boundary are reported as *Error values carrying the
// native errno and its message text, captured immediately after the failing
// call. Drivers never translate errno into Go error taxonomy; that is the
// caller's job.
package native
