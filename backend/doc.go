// Package backend holds the capability descriptors of the supported engine
// revisions.
//
// A Descriptor answers, for one major revision line, three questions: which
// operations exist, how each option value is typed, and which socket types
// the revision accepts. Version-dependent behavior in the binding is driven
// by these tables, resolved once at context construction, never by version
// checks scattered through call sites.
//
// Four descriptors cover the supported engines:
//
//	zmq2    the 2.x line: init/term contexts, device forwarding, 64-bit
//	        legacy option types, no unbind/disconnect
//	zmq3    the 3.x line: ctx_new/ctx_destroy, context options, proxy,
//	        unbind/disconnect, int-typed options
//	zmq4    the 4.0 line: zmq3 plus security mechanism options and the
//	        stream socket type
//	zmq4.1  4.1 and later: zmq4 plus the extended option set
//
// Select maps a reported version triple to its descriptor and fails for
// major revisions outside the known set.
package backend
