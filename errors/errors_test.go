package errors

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseOption,
				Kind:   KindTypeMismatch,
				Op:     "setsockopt",
				Want:   "int",
				Got:    "string",
				Detail: "linger (17)",
			},
			contains: []string{"[option]", "type_mismatch", "setsockopt", "want int", "got string", "linger (17)"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseSocket,
				Kind:  KindNativeCall,
			},
			contains: []string{"[socket]", "native_call"},
		},
		{
			name: "error with errno and endpoint",
			err: &Error{
				Phase:    PhaseSocket,
				Kind:     KindAddress,
				Op:       "zmq_bind",
				Endpoint: "inproc://market",
				Errno:    98,
				Detail:   "Address already in use",
			},
			contains: []string{"[socket]", "address", "zmq_bind", "inproc://market", "errno 98", "Address already in use"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseDispatch,
				Kind:   KindUnresolvableBackend,
				Detail: "no usable library",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[dispatch]", "unresolvable_backend", "no usable library", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseDispatch,
		Kind:  KindUnresolvableBackend,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	// Test with errors.Unwrap
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseSocket,
		Kind:  KindNativeCall,
		Op:    "zmq_send",
	}

	// Same phase and kind
	if !err.Is(&Error{Phase: PhaseSocket, Kind: KindNativeCall}) {
		t.Error("Is should match same phase and kind")
	}

	// Wildcard phase
	if !err.Is(&Error{Kind: KindNativeCall}) {
		t.Error("Is should match kind with empty target phase")
	}

	// Different phase
	if err.Is(&Error{Phase: PhaseContext, Kind: KindNativeCall}) {
		t.Error("Is should not match different phase")
	}

	// Different kind
	if err.Is(&Error{Phase: PhaseSocket, Kind: KindAddress}) {
		t.Error("Is should not match different kind")
	}

	// Test with errors.Is
	target := &Error{Phase: PhaseSocket, Kind: KindNativeCall}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseSocket, KindAddress).
		Op("zmq_connect").
		Endpoint("tcp://10.0.0.1:5555").
		Errno(111).
		Value("tcp://10.0.0.1:5555").
		Cause(cause).
		Detail("refused after %d attempts", 3).
		Build()

	if err.Phase != PhaseSocket {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseSocket)
	}
	if err.Kind != KindAddress {
		t.Errorf("Kind = %v, want %v", err.Kind, KindAddress)
	}
	if err.Op != "zmq_connect" {
		t.Errorf("Op = %v, want zmq_connect", err.Op)
	}
	if err.Endpoint != "tcp://10.0.0.1:5555" {
		t.Errorf("Endpoint = %v", err.Endpoint)
	}
	if err.Errno != 111 {
		t.Errorf("Errno = %v, want 111", err.Errno)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "refused after 3 attempts" {
		t.Errorf("Detail = %v, want 'refused after 3 attempts'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Unresolvable", func(t *testing.T) {
		err := Unresolvable("library reports version 1.0.0", nil)
		if err.Kind != KindUnresolvableBackend {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnresolvableBackend)
		}
		if err.Phase != PhaseDispatch {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseDispatch)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseSocket, "unbind", ">= 3.2")
		if err.Kind != KindUnsupportedOperation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupportedOperation)
		}
		if !containsSubstring(err.Detail, ">= 3.2") {
			t.Errorf("Detail = %v, should name the required revision", err.Detail)
		}
	})

	t.Run("InvalidSocketType", func(t *testing.T) {
		err := InvalidSocketType(99, "engine rejected type")
		if err.Kind != KindInvalidSocketType {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidSocketType)
		}
		if err.Value != 99 {
			t.Errorf("Value = %v, want 99", err.Value)
		}
	})

	t.Run("Address", func(t *testing.T) {
		err := Address("zmq_bind", "inproc://a", 98, "Address already in use")
		if err.Kind != KindAddress {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAddress)
		}
		if err.Errno != 98 {
			t.Errorf("Errno = %v, want 98", err.Errno)
		}
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch("getsockopt", "rcvmore (13)", "int64", "string")
		if err.Kind != KindTypeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
		}
		if err.Want != "int64" || err.Got != "string" {
			t.Errorf("Want=%v Got=%v", err.Want, err.Got)
		}
	})

	t.Run("Native", func(t *testing.T) {
		err := Native(PhaseSocket, "zmq_send", 11, "Resource temporarily unavailable")
		if err.Kind != KindNativeCall {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNativeCall)
		}
		if err.Errno != 11 {
			t.Errorf("Errno = %v, want 11", err.Errno)
		}
	})

	t.Run("CrossThreadTeardown", func(t *testing.T) {
		err := CrossThreadTeardown("socket", "pid 100", "pid 200")
		if err.Kind != KindCrossThreadTeardown {
			t.Errorf("Kind = %v, want %v", err.Kind, KindCrossThreadTeardown)
		}
		if !containsSubstring(err.Detail, "pid 100") || !containsSubstring(err.Detail, "pid 200") {
			t.Errorf("Detail = %v, should name both identities", err.Detail)
		}
	})

	t.Run("Closed", func(t *testing.T) {
		err := Closed(PhaseSocket, "send", "socket")
		if err.Kind != KindClosed {
			t.Errorf("Kind = %v, want %v", err.Kind, KindClosed)
		}
	})
}

func TestErrnoOf(t *testing.T) {
	inner := Native(PhaseSocket, "zmq_bind", 98, "in use")
	outer := Wrap(PhaseContext, KindNativeCall, inner, "while starting")

	code, ok := ErrnoOf(outer)
	if !ok || code != 98 {
		t.Fatalf("ErrnoOf = %d, %v; want 98, true", code, ok)
	}

	if _, ok := ErrnoOf(errors.New("plain")); ok {
		t.Fatal("ErrnoOf matched a plain error")
	}
}

func TestIsKind(t *testing.T) {
	err := Wrap(PhaseContext, KindNativeCall, Address("zmq_bind", "inproc://x", 98, "in use"), "start failed")
	if !IsKind(err, KindAddress) {
		t.Error("IsKind should find the nested kind")
	}
	if IsKind(err, KindTypeMismatch) {
		t.Error("IsKind matched an absent kind")
	}
}

func TestLoadFailedError(t *testing.T) {
	t.Run("single candidate", func(t *testing.T) {
		err := NewLoadFailedError([]string{"libzmq.so.5"}, []string{"not found"})
		if len(err.Attempts) != 1 {
			t.Errorf("expected 1 attempt, got %d", len(err.Attempts))
		}
		if err.Attempts[0].Soname != "libzmq.so.5" {
			t.Errorf("soname = %q, want libzmq.so.5", err.Attempts[0].Soname)
		}
		if err.Attempts[0].Reason != "not found" {
			t.Errorf("reason = %q, want not found", err.Attempts[0].Reason)
		}
	})

	t.Run("multiple candidates", func(t *testing.T) {
		err := NewLoadFailedError(
			[]string{"libzmq.so.5", "libzmq.so.4", "libzmq.so"},
			[]string{"no such file", "no such file", "wrong ELF class"},
		)
		msg := err.Error()
		if !containsSubstring(msg, "3 candidate(s)") {
			t.Errorf("error should contain count, got: %s", msg)
		}
		if !containsSubstring(msg, "libzmq.so.4") {
			t.Errorf("error should list every candidate, got: %s", msg)
		}
		if !containsSubstring(msg, "wrong ELF class") {
			t.Errorf("error should carry loader reasons, got: %s", msg)
		}
	})

	t.Run("empty candidates", func(t *testing.T) {
		err := NewLoadFailedError(nil, nil)
		msg := err.Error()
		if !containsSubstring(msg, "no candidate libraries") {
			t.Errorf("empty error should have specific message, got: %s", msg)
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := NewLoadFailedError([]string{"libzmq.so"}, []string{"nope"})
		if !errors.Is(err, &LoadFailedError{}) {
			t.Error("errors.Is should match LoadFailedError")
		}
	})
}

func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && containsSubstringHelper(s, substr)))
}

func containsSubstringHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
