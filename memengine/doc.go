// Package memengine is a process-local messaging engine that satisfies the
// native.Driver contract without loading a shared library.
//
// It exists for two callers: the binding's own test suites, which need every
// backend revision's observable behavior without four libzmq installs, and
// applications that want in-process wiring with the exact API they use
// against the real engine.
//
// # Scope
//
// Only the inproc transport is implemented. Endpoints use the form
// "inproc://name"; any other scheme fails with EPROTONOSUPPORT. Names are
// engine-wide: bind claims a name (EADDRINUSE when taken), connect resolves
// it immediately (ECONNREFUSED when nobody has bound it, there is no
// transport-style background reconnect).
//
// # Delivery model
//
// A connection is a pair of bounded single-producer single-consumer queues,
// one per direction. A multipart message travels as one queue element, so
// partial multiparts are never observed. Queue capacity follows the engine's
// inproc rule: the sender's sndhwm plus the receiver's rcvhwm at connect
// time, with zero on either side meaning effectively unbounded.
//
// Messaging patterns behave per socket type: push round-robins, pull and
// dealer fair-queue, pub fans out and drops for slow subscribers, sub
// filters by prefix at the sender, req/rep enforce their lockstep with EFSM,
// and router routes by peer identity frame, failing with EHOSTUNREACH for
// unknown identities.
//
// Closing a socket honors linger for queued but unconsumed output: zero
// discards, a positive value waits up to that many milliseconds for the
// peers to drain, negative waits while the peers live. Destroying a context
// interrupts blocked operations on its sockets with ETERM.
//
// # Versions
//
// The engine advertises a configurable revision triple and shapes its entry
// point table accordingly: a 2.x engine exposes init/term and device with
// the legacy 64-bit option encodings, while 3.x+ engines expose the ctx
// calls, unbind/disconnect and proxy. This is what lets one test binary
// exercise every dispatch path.
//
// # Threading
//
// Sockets follow the native engine's rule: one socket, one goroutine.
// Readiness queries (the events option) are the exception and may come from
// anywhere. Contexts and the engine itself are safe for concurrent use.
package memengine
