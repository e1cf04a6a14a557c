//go:build darwin || freebsd || linux

package ffi

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/semifor/zmq-ffi/errors"
	"github.com/semifor/zmq-ffi/native"
)

// msgLen is the allocation for one native message object. The struct grew
// across revisions, 32 bytes through 4.0 and 64 from 4.1; allocating the
// largest satisfies every revision, which only requires its own size.
const msgLen = 64

// engine adapts one dlopen'd library to native.Driver. The registered
// function fields carry the Go-side signatures purego marshals from; which
// set is registered depends on the revision the library reports.
type engine struct {
	handle uintptr
	ver    [3]int
	funcs  *native.Funcs
	closed atomic.Bool

	// zmq_ctx_term on 4.x, zmq_ctx_destroy on 3.x; kept for error text.
	ctxTermName string

	versionF func(major, minor, patch unsafe.Pointer)
	errnoF   func() int32
	strerror func(errnum int32) string

	initF   func(ioThreads int32) uintptr
	termF   func(ctx uintptr) int32
	ctxNew  func() uintptr
	ctxTerm func(ctx uintptr) int32
	ctxGet  func(ctx uintptr, option int32) int32
	ctxSet  func(ctx uintptr, option, value int32) int32

	socketF    func(ctx uintptr, typ int32) uintptr
	closeF     func(s uintptr) int32
	bindF      func(s uintptr, endpoint string) int32
	connectF   func(s uintptr, endpoint string) int32
	unbindF    func(s uintptr, endpoint string) int32
	disconnF   func(s uintptr, endpoint string) int32
	setsockopt func(s uintptr, option int32, val unsafe.Pointer, size uintptr) int32
	getsockopt func(s uintptr, option int32, val, size unsafe.Pointer) int32

	// Direct-buffer send, 3.x and later.
	sendBuf func(s uintptr, buf unsafe.Pointer, size uintptr, flags int32) int32

	// Message-object plumbing. Receive always goes through the message
	// path so parts arrive whole; the 3.x direct-buffer receive truncates.
	msgInit     func(msg unsafe.Pointer) int32
	msgInitSize func(msg unsafe.Pointer, size uintptr) int32
	msgClose    func(msg unsafe.Pointer) int32
	msgSize     func(msg unsafe.Pointer) uintptr
	msgData     func(msg unsafe.Pointer) unsafe.Pointer
	msgSend     func(msg unsafe.Pointer, s uintptr, flags int32) int32
	msgRecv     func(msg unsafe.Pointer, s uintptr, flags int32) int32

	// 2.x data plane: zmq_send/zmq_recv take message objects.
	sendMsg func(s uintptr, msg unsafe.Pointer, flags int32) int32
	recvMsg func(s uintptr, msg unsafe.Pointer, flags int32) int32

	proxyF  func(front, back, capture uintptr) int32
	deviceF func(device int32, front, back uintptr) int32
}

// Load opens an engine library and returns it as a driver. With an empty
// soname it probes the platform's well-known names, honoring ZMQ_FFI_SONAME;
// otherwise only the given name or path is tried.
func Load(soname string) (native.Driver, error) {
	names := candidates(soname)
	reasons := make([]string, 0, len(names))
	for _, name := range names {
		handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			Logger().Debug("candidate library not loadable",
				zap.String("soname", name),
				zap.Error(err),
			)
			reasons = append(reasons, err.Error())
			continue
		}
		eng, err := wrap(handle)
		if err != nil {
			_ = purego.Dlclose(handle)
			return nil, err
		}
		Logger().Debug("engine library loaded",
			zap.String("soname", name),
			zap.Int("major", eng.ver[0]),
			zap.Int("minor", eng.ver[1]),
			zap.Int("patch", eng.ver[2]),
		)
		return eng, nil
	}
	return nil, errors.NewLoadFailedError(names, reasons)
}

// Installed resolves the installed engine's revision triple without keeping
// anything loaded. The hint has the same meaning as in Load.
func Installed(hint string) (major, minor, patch int, err error) {
	drv, err := Load(hint)
	if err != nil {
		return 0, 0, 0, err
	}
	major, minor, patch = drv.Version()
	_ = drv.Close()
	return major, minor, patch, nil
}

func hasSym(handle uintptr, name string) bool {
	sym, err := purego.Dlsym(handle, name)
	return err == nil && sym != 0
}

// wrap reads the library's version and registers the entry points that
// revision provides.
func wrap(handle uintptr) (*engine, error) {
	e := &engine{handle: handle}
	purego.RegisterLibFunc(&e.versionF, handle, "zmq_version")

	var major, minor, patch int32
	e.versionF(unsafe.Pointer(&major), unsafe.Pointer(&minor), unsafe.Pointer(&patch))
	e.ver = [3]int{int(major), int(minor), int(patch)}

	legacy := major == 2
	if !legacy && !hasSym(handle, "zmq_ctx_new") {
		return nil, errors.Unresolvable(
			fmt.Sprintf("engine %d.%d.%d predates the context API; 3.2 or newer required of the 3.x line",
				major, minor, patch), nil)
	}

	purego.RegisterLibFunc(&e.errnoF, handle, "zmq_errno")
	purego.RegisterLibFunc(&e.strerror, handle, "zmq_strerror")
	purego.RegisterLibFunc(&e.socketF, handle, "zmq_socket")
	purego.RegisterLibFunc(&e.closeF, handle, "zmq_close")
	purego.RegisterLibFunc(&e.bindF, handle, "zmq_bind")
	purego.RegisterLibFunc(&e.connectF, handle, "zmq_connect")
	purego.RegisterLibFunc(&e.setsockopt, handle, "zmq_setsockopt")
	purego.RegisterLibFunc(&e.getsockopt, handle, "zmq_getsockopt")
	purego.RegisterLibFunc(&e.msgInit, handle, "zmq_msg_init")
	purego.RegisterLibFunc(&e.msgInitSize, handle, "zmq_msg_init_size")
	purego.RegisterLibFunc(&e.msgClose, handle, "zmq_msg_close")
	purego.RegisterLibFunc(&e.msgSize, handle, "zmq_msg_size")
	purego.RegisterLibFunc(&e.msgData, handle, "zmq_msg_data")

	if legacy {
		purego.RegisterLibFunc(&e.initF, handle, "zmq_init")
		purego.RegisterLibFunc(&e.termF, handle, "zmq_term")
		purego.RegisterLibFunc(&e.sendMsg, handle, "zmq_send")
		purego.RegisterLibFunc(&e.recvMsg, handle, "zmq_recv")
		purego.RegisterLibFunc(&e.deviceF, handle, "zmq_device")
	} else {
		purego.RegisterLibFunc(&e.ctxNew, handle, "zmq_ctx_new")
		e.ctxTermName = "zmq_ctx_term"
		if !hasSym(handle, e.ctxTermName) {
			e.ctxTermName = "zmq_ctx_destroy"
		}
		purego.RegisterLibFunc(&e.ctxTerm, handle, e.ctxTermName)
		purego.RegisterLibFunc(&e.ctxGet, handle, "zmq_ctx_get")
		purego.RegisterLibFunc(&e.ctxSet, handle, "zmq_ctx_set")
		purego.RegisterLibFunc(&e.unbindF, handle, "zmq_unbind")
		purego.RegisterLibFunc(&e.disconnF, handle, "zmq_disconnect")
		purego.RegisterLibFunc(&e.sendBuf, handle, "zmq_send")
		purego.RegisterLibFunc(&e.msgSend, handle, "zmq_msg_send")
		purego.RegisterLibFunc(&e.msgRecv, handle, "zmq_msg_recv")
		purego.RegisterLibFunc(&e.proxyF, handle, "zmq_proxy")
	}

	e.funcs = e.buildFuncs(legacy)
	return e, nil
}

func (e *engine) Version() (major, minor, patch int) {
	return e.ver[0], e.ver[1], e.ver[2]
}

func (e *engine) Funcs() *native.Funcs {
	return e.funcs
}

func (e *engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	return purego.Dlclose(e.handle)
}

// lastError reads the thread-local errno and its text. The caller must
// still hold the OS thread the failing call ran on.
func (e *engine) lastError(fn string) *native.Error {
	code := e.errnoF()
	return &native.Error{Fn: fn, Errno: int(code), Text: e.strerror(code)}
}

func (e *engine) buildFuncs(legacy bool) *native.Funcs {
	f := &native.Funcs{
		Version: e.Version,

		Socket: func(c native.Ctx, socketType int) (native.Sock, *native.Error) {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			s := e.socketF(uintptr(c), int32(socketType))
			if s == 0 {
				return 0, e.lastError("zmq_socket")
			}
			return native.Sock(s), nil
		},

		Close: func(s native.Sock) *native.Error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if rc := e.closeF(uintptr(s)); rc != 0 {
				return e.lastError("zmq_close")
			}
			return nil
		},

		Bind: func(s native.Sock, endpoint string) *native.Error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if rc := e.bindF(uintptr(s), endpoint); rc != 0 {
				return e.lastError("zmq_bind")
			}
			return nil
		},

		Connect: func(s native.Sock, endpoint string) *native.Error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if rc := e.connectF(uintptr(s), endpoint); rc != 0 {
				return e.lastError("zmq_connect")
			}
			return nil
		},

		SetOpt: func(s native.Sock, option int, value []byte) *native.Error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			var p unsafe.Pointer
			if len(value) > 0 {
				p = unsafe.Pointer(&value[0])
			}
			if rc := e.setsockopt(uintptr(s), int32(option), p, uintptr(len(value))); rc != 0 {
				return e.lastError("zmq_setsockopt")
			}
			return nil
		},

		GetOpt: func(s native.Sock, option int, size int) ([]byte, *native.Error) {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			buf := make([]byte, size)
			sz := uintptr(size)
			var p unsafe.Pointer
			if size > 0 {
				p = unsafe.Pointer(&buf[0])
			}
			if rc := e.getsockopt(uintptr(s), int32(option), p, unsafe.Pointer(&sz)); rc != 0 {
				return nil, e.lastError("zmq_getsockopt")
			}
			return buf[:sz], nil
		},

		Recv: e.recvPart,
	}

	if legacy {
		f.Init = func(ioThreads int) (native.Ctx, *native.Error) {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			c := e.initF(int32(ioThreads))
			if c == 0 {
				return 0, e.lastError("zmq_init")
			}
			return native.Ctx(c), nil
		}
		f.Term = func(c native.Ctx) *native.Error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if rc := e.termF(uintptr(c)); rc != 0 {
				return e.lastError("zmq_term")
			}
			return nil
		}
		f.Send = e.sendLegacy
		f.Device = func(deviceType int, frontend, backend native.Sock) *native.Error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if rc := e.deviceF(int32(deviceType), uintptr(frontend), uintptr(backend)); rc != 0 {
				return e.lastError("zmq_device")
			}
			return nil
		}
		return f
	}

	f.CtxNew = func() (native.Ctx, *native.Error) {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		c := e.ctxNew()
		if c == 0 {
			return 0, e.lastError("zmq_ctx_new")
		}
		return native.Ctx(c), nil
	}
	f.CtxDestroy = func(c native.Ctx) *native.Error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if rc := e.ctxTerm(uintptr(c)); rc != 0 {
			return e.lastError(e.ctxTermName)
		}
		return nil
	}
	f.CtxGet = func(c native.Ctx, option int) (int, *native.Error) {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		rc := e.ctxGet(uintptr(c), int32(option))
		if rc < 0 {
			return 0, e.lastError("zmq_ctx_get")
		}
		return int(rc), nil
	}
	f.CtxSet = func(c native.Ctx, option, value int) *native.Error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if rc := e.ctxSet(uintptr(c), int32(option), int32(value)); rc != 0 {
			return e.lastError("zmq_ctx_set")
		}
		return nil
	}
	f.Unbind = func(s native.Sock, endpoint string) *native.Error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if rc := e.unbindF(uintptr(s), endpoint); rc != 0 {
			return e.lastError("zmq_unbind")
		}
		return nil
	}
	f.Disconnect = func(s native.Sock, endpoint string) *native.Error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if rc := e.disconnF(uintptr(s), endpoint); rc != 0 {
			return e.lastError("zmq_disconnect")
		}
		return nil
	}
	f.Send = func(s native.Sock, data []byte, flags int) *native.Error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		var p unsafe.Pointer
		if len(data) > 0 {
			p = unsafe.Pointer(&data[0])
		}
		if rc := e.sendBuf(uintptr(s), p, uintptr(len(data)), int32(flags)); rc < 0 {
			return e.lastError("zmq_send")
		}
		return nil
	}
	f.Proxy = func(frontend, backend, capture native.Sock) *native.Error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if rc := e.proxyF(uintptr(frontend), uintptr(backend), uintptr(capture)); rc != 0 {
			return e.lastError("zmq_proxy")
		}
		return nil
	}
	return f
}

// recvPart receives one part through the message-object path, which hands
// back the part at its full size on every revision.
func (e *engine) recvPart(s native.Sock, flags int) ([]byte, *native.Error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	msg := make([]byte, msgLen)
	mp := unsafe.Pointer(&msg[0])
	if rc := e.msgInit(mp); rc != 0 {
		return nil, e.lastError("zmq_msg_init")
	}
	defer e.msgClose(mp)

	var rc int32
	var fn string
	if e.msgRecv != nil {
		fn = "zmq_msg_recv"
		rc = e.msgRecv(mp, uintptr(s), int32(flags))
	} else {
		fn = "zmq_recv"
		rc = e.recvMsg(uintptr(s), mp, int32(flags))
	}
	if rc < 0 {
		return nil, e.lastError(fn)
	}

	n := e.msgSize(mp)
	out := make([]byte, n)
	if n > 0 {
		copy(out, unsafe.Slice((*byte)(e.msgData(mp)), n))
	}
	return out, nil
}

// sendLegacy moves one part through a 2.x message object; the engine takes
// the content over on success and closing the shell afterwards is the
// documented discipline either way.
func (e *engine) sendLegacy(s native.Sock, data []byte, flags int) *native.Error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	msg := make([]byte, msgLen)
	mp := unsafe.Pointer(&msg[0])
	if rc := e.msgInitSize(mp, uintptr(len(data))); rc != 0 {
		return e.lastError("zmq_msg_init_size")
	}
	defer e.msgClose(mp)

	if len(data) > 0 {
		copy(unsafe.Slice((*byte)(e.msgData(mp)), len(data)), data)
	}
	if rc := e.sendMsg(uintptr(s), mp, int32(flags)); rc != 0 {
		return e.lastError("zmq_send")
	}
	return nil
}
