package zmqffi

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/semifor/zmq-ffi/backend"
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/errors"
	"github.com/semifor/zmq-ffi/lifecycle"
	"github.com/semifor/zmq-ffi/native"
)

// Context is one native messaging context bound to the backend selected at
// construction. A Context owns the engine's I/O threads and is the socket
// factory; sockets it creates must be closed before (or by) Destroy.
//
// The interface is sealed: the closed set of revision variants in this
// package are its only implementations.
type Context interface {
	// Version reports the revision triple of the engine behind the context.
	Version() Version

	// Backend names the selected capability table, e.g. "zmq4.1".
	Backend() string

	// Get reads a context option. Unsupported before 3.x.
	Get(option int) (int, error)

	// Set writes a context option. Unsupported before 3.x.
	Set(option, value int) error

	// Socket creates a socket of the given pattern type, registered as a
	// child of this context for teardown ordering.
	Socket(typ consts.SocketType) (Socket, error)

	// Proxy relays messages between frontend and backend until the context
	// is destroyed or a participant closes, blocking the calling goroutine.
	// A non-nil capture receives a copy of every relayed message on 3.x+
	// backends; pre-3.x backends run the streamer device emulation and
	// ignore capture.
	Proxy(frontend, backend, capture Socket) error

	// Device runs the built-in 2.x device. Unsupported from 3.x on, where
	// Proxy replaces it.
	Device(device consts.DeviceType, frontend, backend Socket) error

	// Destroy closes any still-open child sockets in creation order, then
	// releases the native context. Idempotent; ignored when called from a
	// process or scope that did not create the context.
	Destroy() error
}

// contextCore carries the state every revision variant shares. Variants hold
// it by pointer so the wrapper the caller retains stays collectable
// independently of the core's own references.
type contextCore struct {
	desc   *backend.Descriptor
	drv    native.Driver
	funcs  *native.Funcs
	handle native.Ctx
	ver    Version

	tracker *lifecycle.Tracker
	rec     *lifecycle.Record

	ownsDriver bool
	sockSeq    atomic.Uint64
}

func newContextCore(desc *backend.Descriptor, drv native.Driver, ver Version, cfg *config, ownsDriver bool) (*contextCore, error) {
	funcs := drv.Funcs()

	var (
		handle native.Ctx
		nerr   *native.Error
	)
	if funcs.Init != nil {
		handle, nerr = funcs.Init(cfg.threads)
	} else {
		handle, nerr = funcs.CtxNew()
	}
	if nerr != nil {
		return nil, errors.Native(errors.PhaseContext, nerr.Fn, nerr.Errno, nerr.Text)
	}

	c := &contextCore{
		desc:       desc,
		drv:        drv,
		funcs:      funcs,
		handle:     handle,
		ver:        ver,
		tracker:    lifecycle.NewTracker(cfg.identity),
		ownsDriver: ownsDriver,
	}
	for _, o := range cfg.observers {
		c.tracker.Subscribe(o)
	}

	if err := c.applyConfig(cfg); err != nil {
		// The driver stays open; the caller owns that decision.
		if funcs.CtxDestroy != nil {
			_ = funcs.CtxDestroy(handle)
		} else {
			_ = funcs.Term(handle)
		}
		return nil, err
	}

	c.rec = c.tracker.Register(lifecycle.KindContext, "context", nil, c.releaseNative)
	return c, nil
}

// applyConfig pushes construction-time hints into the fresh native context.
// The 2.x line takes its thread count through init and has no socket cap;
// a requested cap is ignored there, as the original binding does.
func (c *contextCore) applyConfig(cfg *config) error {
	if c.funcs.CtxSet == nil {
		if cfg.maxSet {
			Logger().Debug("max sockets not available on this engine revision, ignored",
				zap.String("backend", c.desc.Name),
				zap.Int("max_sockets", cfg.maxSockets),
			)
		}
		return nil
	}
	if cfg.threadsSet {
		if nerr := c.funcs.CtxSet(c.handle, consts.CtxIOThreads, cfg.threads); nerr != nil {
			return errors.Native(errors.PhaseContext, nerr.Fn, nerr.Errno, nerr.Text)
		}
	}
	if cfg.maxSet {
		if nerr := c.funcs.CtxSet(c.handle, consts.CtxMaxSockets, cfg.maxSockets); nerr != nil {
			return errors.Native(errors.PhaseContext, nerr.Fn, nerr.Errno, nerr.Text)
		}
	}
	return nil
}

// releaseNative is the lifecycle release hook: destroy the native context
// and, when resolution loaded the engine for this context, unload it.
func (c *contextCore) releaseNative() error {
	var nerr *native.Error
	if c.funcs.CtxDestroy != nil {
		nerr = c.funcs.CtxDestroy(c.handle)
	} else {
		nerr = c.funcs.Term(c.handle)
	}
	Logger().Debug("context destroyed",
		zap.String("backend", c.desc.Name),
		zap.Bool("native_error", nerr != nil),
	)

	var drvErr error
	if c.ownsDriver {
		drvErr = c.drv.Close()
	}
	if nerr != nil {
		return errors.Native(errors.PhaseTeardown, nerr.Fn, nerr.Errno, nerr.Text)
	}
	return drvErr
}

func (c *contextCore) Version() Version {
	return c.ver
}

func (c *contextCore) Backend() string {
	return c.desc.Name
}

func (c *contextCore) Destroy() error {
	return c.rec.Teardown()
}

func (c *contextCore) live(op string) error {
	if !c.rec.Live() {
		return errors.Closed(errors.PhaseContext, op, "context")
	}
	return nil
}

// openSocket performs the shared part of socket construction. The owner is
// the revision wrapper the caller holds; storing it on the socket keeps the
// context reachable for as long as any of its sockets are.
func (c *contextCore) openSocket(owner Context, typ consts.SocketType) (*socketCore, error) {
	if err := c.live("socket"); err != nil {
		return nil, err
	}
	if !c.desc.ValidSocketType(typ) {
		return nil, errors.InvalidSocketType(int(typ),
			fmt.Sprintf("%s not provided by %s engines", typ, c.desc.Revision))
	}

	handle, nerr := c.funcs.Socket(c.handle, int(typ))
	if nerr != nil {
		if nerr.Errno == consts.EInval {
			return nil, errors.InvalidSocketType(int(typ), nerr.Text)
		}
		return nil, errors.Native(errors.PhaseContext, nerr.Fn, nerr.Errno, nerr.Text)
	}

	s := &socketCore{
		desc:       c.desc,
		funcs:      c.funcs,
		handle:     handle,
		typ:        typ,
		owner:      owner,
		dieOnError: true,
	}
	label := fmt.Sprintf("%s-%d", typ, c.sockSeq.Add(1))
	s.rec = c.tracker.Register(lifecycle.KindSocket, label, c.rec, s.releaseNative)

	Logger().Debug("socket opened",
		zap.String("socket", label),
		zap.String("backend", c.desc.Name),
	)
	return s, nil
}

// socketHandles validates proxy/device participants and unwraps their native
// handles. A nil optional yields handle zero.
func socketHandles(op string, socks ...Socket) ([]native.Sock, error) {
	out := make([]native.Sock, len(socks))
	for i, s := range socks {
		if s == nil {
			continue
		}
		core := s.core()
		if !core.rec.Live() {
			return nil, errors.Closed(errors.PhaseContext, op, core.rec.Label())
		}
		out[i] = core.handle
	}
	return out, nil
}
