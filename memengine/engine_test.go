package memengine

import (
	"testing"
	"time"

	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/native"
)

var _ native.Driver = (*Engine)(nil)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *native.Funcs) {
	t.Helper()
	e := New(opts...)
	t.Cleanup(func() { _ = e.Close() })
	return e, e.Funcs()
}

func mkCtx(t *testing.T, f *native.Funcs) native.Ctx {
	t.Helper()
	var (
		c    native.Ctx
		nerr *native.Error
	)
	if f.CtxNew != nil {
		c, nerr = f.CtxNew()
	} else {
		c, nerr = f.Init(1)
	}
	if nerr != nil {
		t.Fatalf("context create: %v", nerr)
	}
	return c
}

func mkSock(t *testing.T, f *native.Funcs, c native.Ctx, typ consts.SocketType) native.Sock {
	t.Helper()
	s, nerr := f.Socket(c, int(typ))
	if nerr != nil {
		t.Fatalf("socket %v: %v", typ, nerr)
	}
	return s
}

func mustBind(t *testing.T, f *native.Funcs, s native.Sock, ep string) {
	t.Helper()
	if nerr := f.Bind(s, ep); nerr != nil {
		t.Fatalf("bind %s: %v", ep, nerr)
	}
}

func mustConnect(t *testing.T, f *native.Funcs, s native.Sock, ep string) {
	t.Helper()
	if nerr := f.Connect(s, ep); nerr != nil {
		t.Fatalf("connect %s: %v", ep, nerr)
	}
}

func mustSend(t *testing.T, f *native.Funcs, s native.Sock, data string, flags int) {
	t.Helper()
	if nerr := f.Send(s, []byte(data), flags); nerr != nil {
		t.Fatalf("send %q: %v", data, nerr)
	}
}

func mustRecv(t *testing.T, f *native.Funcs, s native.Sock, flags int) string {
	t.Helper()
	b, nerr := f.Recv(s, flags)
	if nerr != nil {
		t.Fatalf("recv: %v", nerr)
	}
	return string(b)
}

func setIntOpt(t *testing.T, f *native.Funcs, s native.Sock, option, v int) {
	t.Helper()
	if nerr := f.SetOpt(s, option, encInt(v)); nerr != nil {
		t.Fatalf("setsockopt %s: %v", consts.OptionName(option), nerr)
	}
}

func getIntOpt(t *testing.T, f *native.Funcs, s native.Sock, option int) int {
	t.Helper()
	b, nerr := f.GetOpt(s, option, 8)
	if nerr != nil {
		t.Fatalf("getsockopt %s: %v", consts.OptionName(option), nerr)
	}
	switch len(b) {
	case 4:
		return int(int32(hostOrder.Uint32(b)))
	case 8:
		return int(int64(hostOrder.Uint64(b)))
	}
	t.Fatalf("option %s came back as %d bytes", consts.OptionName(option), len(b))
	return 0
}

func TestFuncsShapeModern(t *testing.T) {
	_, f := newTestEngine(t, WithVersion(4, 3, 5))
	if f.Init != nil || f.Term != nil || f.Device != nil {
		t.Error("modern engine exposes 2.x entry points")
	}
	for name, fn := range map[string]bool{
		"CtxNew":     f.CtxNew != nil,
		"CtxDestroy": f.CtxDestroy != nil,
		"CtxGet":     f.CtxGet != nil,
		"CtxSet":     f.CtxSet != nil,
		"Unbind":     f.Unbind != nil,
		"Disconnect": f.Disconnect != nil,
		"Proxy":      f.Proxy != nil,
	} {
		if !fn {
			t.Errorf("modern engine missing %s", name)
		}
	}
}

func TestFuncsShapeLegacy(t *testing.T) {
	_, f := newTestEngine(t, WithVersion(2, 2, 0))
	if f.CtxNew != nil || f.CtxDestroy != nil || f.CtxGet != nil || f.CtxSet != nil {
		t.Error("legacy engine exposes ctx entry points")
	}
	if f.Unbind != nil || f.Disconnect != nil || f.Proxy != nil {
		t.Error("legacy engine exposes 3.x wiring entry points")
	}
	if f.Init == nil || f.Term == nil || f.Device == nil {
		t.Error("legacy engine missing 2.x entry points")
	}
}

func TestVersionAdvertised(t *testing.T) {
	_, f := newTestEngine(t, WithVersion(3, 2, 5))
	major, minor, patch := f.Version()
	if major != 3 || minor != 2 || patch != 5 {
		t.Fatalf("version = %d.%d.%d, want 3.2.5", major, minor, patch)
	}
}

func TestSocketTypeRangePerRevision(t *testing.T) {
	tests := []struct {
		name    string
		version [3]int
		typ     consts.SocketType
		ok      bool
	}{
		{"v2 push", [3]int{2, 2, 0}, consts.Push, true},
		{"v2 xpub", [3]int{2, 2, 0}, consts.XPub, false},
		{"v3 xsub", [3]int{3, 2, 5}, consts.XSub, true},
		{"v3 stream", [3]int{3, 2, 5}, consts.Stream, false},
		{"v4 stream", [3]int{4, 0, 5}, consts.Stream, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, f := newTestEngine(t, WithVersion(tt.version[0], tt.version[1], tt.version[2]))
			c := mkCtx(t, f)
			_, nerr := f.Socket(c, int(tt.typ))
			if tt.ok && nerr != nil {
				t.Fatalf("socket %v: %v", tt.typ, nerr)
			}
			if !tt.ok {
				if nerr == nil {
					t.Fatalf("socket %v accepted", tt.typ)
				}
				if nerr.Errno != consts.EInval {
					t.Fatalf("errno = %d, want EINVAL", nerr.Errno)
				}
			}
		})
	}
}

func TestEndpointValidation(t *testing.T) {
	_, f := newTestEngine(t)
	c := mkCtx(t, f)
	s := mkSock(t, f, c, consts.Push)

	if nerr := f.Bind(s, "nonsense"); nerr == nil || nerr.Errno != consts.EInval {
		t.Fatalf("bind nonsense: %v, want EINVAL", nerr)
	}
	if nerr := f.Bind(s, "tcp://127.0.0.1:5555"); nerr == nil || nerr.Errno != consts.EProtoNoSupport {
		t.Fatalf("bind tcp: %v, want EPROTONOSUPPORT", nerr)
	}
}

func TestBindConflictAndUnbind(t *testing.T) {
	_, f := newTestEngine(t)
	c := mkCtx(t, f)
	a := mkSock(t, f, c, consts.Push)
	b := mkSock(t, f, c, consts.Push)

	mustBind(t, f, a, "inproc://claim")
	if nerr := f.Bind(b, "inproc://claim"); nerr == nil || nerr.Errno != consts.EAddrInUse {
		t.Fatalf("second bind: %v, want EADDRINUSE", nerr)
	}
	if nerr := f.Unbind(b, "inproc://claim"); nerr == nil || nerr.Errno != consts.ENoEnt {
		t.Fatalf("unbind by non-owner: %v, want ENOENT", nerr)
	}
	if nerr := f.Unbind(a, "inproc://claim"); nerr != nil {
		t.Fatalf("unbind: %v", nerr)
	}
	mustBind(t, f, b, "inproc://claim")
}

func TestConnectRefusedWithoutBinder(t *testing.T) {
	_, f := newTestEngine(t)
	c := mkCtx(t, f)
	s := mkSock(t, f, c, consts.Push)
	if nerr := f.Connect(s, "inproc://nobody"); nerr == nil || nerr.Errno != consts.EConnRefused {
		t.Fatalf("connect: %v, want ECONNREFUSED", nerr)
	}
}

func TestCloseReleasesEndpoint(t *testing.T) {
	_, f := newTestEngine(t)
	c := mkCtx(t, f)
	a := mkSock(t, f, c, consts.Push)
	mustBind(t, f, a, "inproc://held")
	if nerr := f.Close(a); nerr != nil {
		t.Fatalf("close: %v", nerr)
	}
	if nerr := f.Close(a); nerr == nil || nerr.Errno != consts.ENotSock {
		t.Fatalf("double close: %v, want ENOTSOCK", nerr)
	}
	b := mkSock(t, f, c, consts.Push)
	mustBind(t, f, b, "inproc://held")
}

func TestCtxOptions(t *testing.T) {
	_, f := newTestEngine(t)
	c := mkCtx(t, f)

	if v, nerr := f.CtxGet(c, consts.CtxIOThreads); nerr != nil || v != defaultIOThreads {
		t.Fatalf("io_threads = %d, %v", v, nerr)
	}
	if nerr := f.CtxSet(c, consts.CtxMaxSockets, 42); nerr != nil {
		t.Fatalf("set max_sockets: %v", nerr)
	}
	if v, _ := f.CtxGet(c, consts.CtxMaxSockets); v != 42 {
		t.Fatalf("max_sockets = %d, want 42", v)
	}
	if v, _ := f.CtxGet(c, consts.CtxSocketLimit); v != socketLimit {
		t.Fatalf("socket_limit = %d, want %d", v, socketLimit)
	}
	if nerr := f.CtxSet(c, consts.CtxSocketLimit, 1); nerr == nil || nerr.Errno != consts.EInval {
		t.Fatalf("set socket_limit: %v, want EINVAL", nerr)
	}
	if _, nerr := f.CtxGet(c, 9999); nerr == nil || nerr.Errno != consts.EInval {
		t.Fatalf("get unknown option: %v, want EINVAL", nerr)
	}
}

func TestMaxSocketsEnforced(t *testing.T) {
	_, f := newTestEngine(t)
	c := mkCtx(t, f)
	if nerr := f.CtxSet(c, consts.CtxMaxSockets, 2); nerr != nil {
		t.Fatalf("set max_sockets: %v", nerr)
	}
	mkSock(t, f, c, consts.Push)
	mkSock(t, f, c, consts.Push)
	if _, nerr := f.Socket(c, int(consts.Push)); nerr == nil || nerr.Errno != consts.EMFile {
		t.Fatalf("third socket: %v, want EMFILE", nerr)
	}
}

func TestDestroyInterruptsBlockedRecv(t *testing.T) {
	_, f := newTestEngine(t)
	c := mkCtx(t, f)
	pull := mkSock(t, f, c, consts.Pull)
	mustBind(t, f, pull, "inproc://blocked")

	got := make(chan *native.Error, 1)
	go func() {
		_, nerr := f.Recv(pull, 0)
		got <- nerr
	}()

	// Give the receiver a moment to enter its wait loop.
	time.Sleep(20 * time.Millisecond)
	if nerr := f.CtxDestroy(c); nerr != nil {
		t.Fatalf("destroy: %v", nerr)
	}

	select {
	case nerr := <-got:
		if nerr == nil || nerr.Errno != consts.ETerm {
			t.Fatalf("blocked recv returned %v, want ETERM", nerr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked recv not interrupted by destroy")
	}

	if nerr := f.CtxDestroy(c); nerr == nil || nerr.Errno != consts.EFault {
		t.Fatalf("second destroy: %v, want EFAULT", nerr)
	}
}

func TestStatsCounts(t *testing.T) {
	e, f := newTestEngine(t)
	c := mkCtx(t, f)
	s := mkSock(t, f, c, consts.Push)
	mustBind(t, f, s, "inproc://stats")

	st := e.Stats()
	if st.Contexts != 1 || st.Sockets != 1 || st.Endpoints != 1 {
		t.Fatalf("stats = %+v, want 1/1/1", st)
	}

	if nerr := f.Close(s); nerr != nil {
		t.Fatalf("close: %v", nerr)
	}
	st = e.Stats()
	if st.Sockets != 0 || st.Endpoints != 0 {
		t.Fatalf("stats after close = %+v", st)
	}
}

func TestEngineCloseInvalidatesHandles(t *testing.T) {
	e := New()
	f := e.Funcs()
	c := mkCtx(t, f)
	s := mkSock(t, f, c, consts.Push)

	if err := e.Close(); err != nil {
		t.Fatalf("engine close: %v", err)
	}
	if nerr := f.Send(s, []byte("x"), consts.FlagDontWait); nerr == nil || nerr.Errno != consts.ENotSock {
		t.Fatalf("send after engine close: %v, want ENOTSOCK", nerr)
	}
	if _, nerr := f.CtxGet(c, consts.CtxIOThreads); nerr == nil || nerr.Errno != consts.EFault {
		t.Fatalf("ctx_get after engine close: %v, want EFAULT", nerr)
	}
}
