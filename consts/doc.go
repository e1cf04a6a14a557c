// Package consts supplies the numeric identifiers of the native messaging
// engine's public ABI: socket types, option ids, flag bits, readiness bits,
// device types, and errno values.
//
// The numbers are part of the engine's stable C ABI and are identical across
// the supported major revisions except where noted. Which identifiers are
// *valid* for a given revision, and how option values are typed, is not
// decided here; that is the backend package's capability tables. This package
// only names integers.
//
// Errno values come from two spaces: platform errnos (EAGAIN, EINVAL, ...)
// sourced from the syscall package, and engine-defined codes placed above
// Hausnumero, the engine's reserved errno base.
package consts
