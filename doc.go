// Package zmqffi is a version-transparent client library for the zeromq
// messaging engine.
//
// The engine ships in several mutually incompatible ABI revisions, and which
// one a host carries is not known until runtime. This library presents one
// stable object model, contexts and sockets, over whichever revision
// resolution finds: the matching backend is selected exactly once when a
// context is constructed, and every operation the context and its sockets
// perform dispatches through that selection. Callers never branch on engine
// versions.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	zmqffi/              Root package with the Context and Socket interfaces,
//	                     their per-revision variants, and New
//	├── backend/         Immutable per-revision capability tables
//	├── codec/           Typed option value encoding against those tables
//	├── consts/          Socket types, option ids, flag bits, errno values
//	├── errors/          Structured error types for debugging
//	├── lifecycle/       Creator-identity tags, guarded idempotent teardown,
//	│                    parent/child ordering, GC-driven cleanup
//	├── native/          The typed native call table and driver boundary
//	├── memengine/       Pure-Go in-memory engine behind that boundary
//	└── ffi/             Production driver loading an installed libzmq
//
// # Quick Start
//
// Create a context against the installed engine and move a message:
//
//	ctx, err := zmqffi.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Destroy()
//
//	pull, err := ctx.Socket(consts.Pull)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pull.Close()
//	pull.Bind("tcp://127.0.0.1:5555")
//
//	push, err := ctx.Socket(consts.Push)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer push.Close()
//	push.Connect("tcp://127.0.0.1:5555")
//
//	push.Send([]byte("work"), 0)
//	data, _ := pull.Recv(0)
//
// Tests and pure-Go embedders run the same code over the in-memory engine:
//
//	ctx, err := zmqffi.New(zmqffi.WithDriver(memengine.New()))
//
// # Resource Lifecycle
//
// Native contexts and sockets are not garbage-collected resources. Close and
// Destroy with defer are the primary discipline; every resource additionally
// registers a GC cleanup routed through the same guarded teardown, so an
// unreachable unclosed socket is still reclaimed. Teardown is idempotent,
// closes a context's sockets in creation order before the context itself,
// and is refused when invoked from a process that did not create the
// resource, which keeps forked children from closing handles they share
// with the parent.
//
// # Thread Safety
//
// A Context may be shared across goroutines for socket creation and destroy,
// serialized by the caller. A Socket is NOT thread-safe and should be used
// by a single goroutine, or access must be synchronized; this mirrors the
// engine's own threading rules.
package zmqffi
