// Package errors provides structured error types for the zmq-ffi library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: operation name, endpoint,
// native errno, expected/provided option types, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseSocket, errors.KindAddress).
//		Op("zmq_bind").
//		Endpoint("tcp://0.0.0.0:5555").
//		Errno(98).
//		Detail("Address already in use").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Native(errors.PhaseSocket, "zmq_send", errno, text)
//	err := errors.TypeMismatch("setsockopt", "linger (17)", "int", "string")
//
// All errors implement the standard error interface and support errors.Is/As.
// Kinds split into two families: structural kinds (unresolvable_backend,
// unsupported_operation, invalid_socket_type, type_mismatch) are always
// returned to the caller, while native_call and address failures additionally
// flow through the socket's die-on-error policy and sticky error state.
package errors
