package zmqffi

import (
	"runtime"
	"sync"
	"testing"

	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/errors"
	"github.com/semifor/zmq-ffi/lifecycle"
)

// eventLog collects lifecycle events for teardown-order assertions.
type eventLog struct {
	mu     sync.Mutex
	events []lifecycle.Event
}

func (l *eventLog) OnLifecycleEvent(ev lifecycle.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) snapshot() []lifecycle.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]lifecycle.Event, len(l.events))
	copy(out, l.events)
	return out
}

// released returns the labels of released resources in event order.
func (l *eventLog) released() []string {
	var out []string
	for _, ev := range l.snapshot() {
		if ev.Type == lifecycle.EventReleased {
			out = append(out, ev.Label)
		}
	}
	return out
}

func TestContextOptionsUnsupportedBefore3x(t *testing.T) {
	ctx := newTestContext(t, 2, 1, 11)

	if _, err := ctx.Get(consts.CtxIOThreads); !errors.IsKind(err, errors.KindUnsupportedOperation) {
		t.Errorf("Get on 2.x: %v, want unsupported_operation", err)
	}
	if err := ctx.Set(consts.CtxMaxSockets, 10); !errors.IsKind(err, errors.KindUnsupportedOperation) {
		t.Errorf("Set on 2.x: %v, want unsupported_operation", err)
	}
}

func TestContextOptionRoundTrip(t *testing.T) {
	ctx := newTestContext(t, 4, 3, 5)

	if err := ctx.Set(consts.CtxMaxSockets, 512); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := ctx.Get(consts.CtxMaxSockets)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != 512 {
		t.Errorf("max_sockets = %d, want 512", got)
	}

	// Unknown options pass through and surface the engine's rejection.
	if _, err := ctx.Get(987654); !errors.IsKind(err, errors.KindNativeCall) {
		t.Errorf("Get unknown option: %v, want native_call", err)
	}
}

func TestSocketFactoryRejectsInvalidType(t *testing.T) {
	tests := []struct {
		name  string
		major int
		typ   consts.SocketType
	}{
		{"xpub before 3.x", 2, consts.XPub},
		{"stream before 4.x", 3, consts.Stream},
		{"unknown code", 4, consts.SocketType(99)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext(t, tt.major, 3, 0)
			if _, err := ctx.Socket(tt.typ); !errors.IsKind(err, errors.KindInvalidSocketType) {
				t.Errorf("Socket(%d) = %v, want invalid_socket_type", tt.typ, err)
			}
		})
	}
}

func TestDestroyIdempotent(t *testing.T) {
	ctx := newTestContext(t, 4, 3, 5)

	if err := ctx.Destroy(); err != nil {
		t.Fatalf("first Destroy: %v", err)
	}
	if err := ctx.Destroy(); err != nil {
		t.Fatalf("second Destroy: %v", err)
	}
	if _, err := ctx.Socket(consts.Pair); !errors.IsKind(err, errors.KindClosed) {
		t.Errorf("Socket after Destroy: %v, want closed", err)
	}
}

func TestDestroyClosesSocketsInCreationOrder(t *testing.T) {
	log := &eventLog{}
	ctx := newTestContext(t, 4, 3, 5, WithObserver(log))

	a, err := ctx.Socket(consts.Push)
	if err != nil {
		t.Fatalf("socket a: %v", err)
	}
	b, err := ctx.Socket(consts.Pull)
	if err != nil {
		t.Fatalf("socket b: %v", err)
	}

	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)

	want := []string{"push-1", "pull-2", "context"}
	got := log.released()
	if len(got) != len(want) {
		t.Fatalf("released %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("released %v, want %v", got, want)
		}
	}
}

func TestDestroySkipsAlreadyClosedSockets(t *testing.T) {
	log := &eventLog{}
	ctx := newTestContext(t, 4, 3, 5, WithObserver(log))

	s, err := ctx.Socket(consts.Pair)
	if err != nil {
		t.Fatalf("socket: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	got := log.released()
	want := []string{"pair-1", "context"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("released %v, want %v", got, want)
	}
}

func TestForeignIdentityTeardownAbandoned(t *testing.T) {
	var mu sync.Mutex
	ident := lifecycle.Identity{PID: 1000}
	src := func() lifecycle.Identity {
		mu.Lock()
		defer mu.Unlock()
		return ident
	}
	setIdent := func(id lifecycle.Identity) {
		mu.Lock()
		defer mu.Unlock()
		ident = id
	}

	log := &eventLog{}
	ctx := newTestContext(t, 4, 3, 5, WithIdentity(src), WithObserver(log))

	s, err := ctx.Socket(consts.Pair)
	if err != nil {
		t.Fatalf("socket: %v", err)
	}

	// A different process must not be able to tear anything down.
	setIdent(lifecycle.Identity{PID: 2000})
	if err := s.Close(); err != nil {
		t.Fatalf("foreign Close: %v", err)
	}
	if err := ctx.Destroy(); err != nil {
		t.Fatalf("foreign Destroy: %v", err)
	}
	if got := log.released(); len(got) != 0 {
		t.Fatalf("foreign teardown released %v", got)
	}

	var abandoned int
	for _, ev := range log.snapshot() {
		if ev.Type == lifecycle.EventAbandoned {
			abandoned++
		}
	}
	if abandoned != 2 {
		t.Errorf("abandoned events = %d, want 2", abandoned)
	}

	// The socket is still live for its creator.
	if err := s.Bind("inproc://still-here"); err != nil {
		t.Errorf("socket dead after abandoned teardown: %v", err)
	}

	setIdent(lifecycle.Identity{PID: 1000})
	if err := ctx.Destroy(); err != nil {
		t.Fatalf("creator Destroy: %v", err)
	}
	if got := log.released(); len(got) != 2 {
		t.Fatalf("creator teardown released %v, want socket and context", got)
	}
	runtime.KeepAlive(s)
}

func TestProxyUnsupportedShapes(t *testing.T) {
	ctx := newTestContext(t, 4, 3, 5)

	if err := ctx.Device(consts.Streamer, nil, nil); !errors.IsKind(err, errors.KindUnsupportedOperation) {
		t.Errorf("Device on 4.x: %v, want unsupported_operation", err)
	}

	old := newTestContext(t, 2, 1, 11)
	front, err := old.Socket(consts.Pull)
	if err != nil {
		t.Fatalf("front: %v", err)
	}
	if err := front.Unbind("inproc://x"); !errors.IsKind(err, errors.KindUnsupportedOperation) {
		t.Errorf("Unbind on 2.x: %v, want unsupported_operation", err)
	}
}

func TestProxyRejectsClosedParticipant(t *testing.T) {
	ctx := newTestContext(t, 4, 3, 5)

	front, err := ctx.Socket(consts.Pull)
	if err != nil {
		t.Fatalf("front: %v", err)
	}
	back, err := ctx.Socket(consts.Push)
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if err := front.Close(); err != nil {
		t.Fatalf("close front: %v", err)
	}
	if err := ctx.Proxy(front, back, nil); !errors.IsKind(err, errors.KindClosed) {
		t.Errorf("Proxy with closed frontend: %v, want closed", err)
	}
}
