package memengine

import (
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/native"
)

func (e *Engine) lookupCtx(fn string, c native.Ctx) (*engCtx, *native.Error) {
	ctx, ok := e.tbl.ctx(uint32(c))
	if !ok {
		return nil, native.Errf(fn, consts.EFault, "invalid context handle %#x", uintptr(c))
	}
	return ctx, nil
}

func (e *Engine) lookupSock(fn string, s native.Sock) (*engSocket, *native.Error) {
	sock, ok := e.tbl.sock(uint32(s))
	if !ok {
		return nil, errNotSock(fn)
	}
	return sock, nil
}

// buildFuncs shapes the entry-point table for the advertised revision: a 2.x
// engine fills init/term and device, newer ones fill the ctx pair, the ctx
// option calls, unbind/disconnect and proxy. The common calls are shared.
func (e *Engine) buildFuncs() *native.Funcs {
	f := &native.Funcs{
		Version: e.Version,

		Socket: func(c native.Ctx, socketType int) (native.Sock, *native.Error) {
			ctx, nerr := e.lookupCtx("zmq_socket", c)
			if nerr != nil {
				return 0, nerr
			}
			if ctx.isClosed() {
				return 0, errTerm("zmq_socket")
			}
			s, nerr := e.newSocket(ctx, socketType)
			if nerr != nil {
				return 0, nerr
			}
			return native.Sock(s.handle), nil
		},

		Close: func(h native.Sock) *native.Error {
			s, nerr := e.lookupSock("zmq_close", h)
			if nerr != nil {
				return nerr
			}
			s.close()
			return nil
		},

		Bind: func(h native.Sock, endpoint string) *native.Error {
			s, nerr := e.lookupSock("zmq_bind", h)
			if nerr != nil {
				return nerr
			}
			return s.bind("zmq_bind", endpoint)
		},

		Connect: func(h native.Sock, endpoint string) *native.Error {
			s, nerr := e.lookupSock("zmq_connect", h)
			if nerr != nil {
				return nerr
			}
			return s.connect("zmq_connect", endpoint)
		},

		SetOpt: func(h native.Sock, option int, value []byte) *native.Error {
			s, nerr := e.lookupSock("zmq_setsockopt", h)
			if nerr != nil {
				return nerr
			}
			return s.setOpt("zmq_setsockopt", option, value)
		},

		GetOpt: func(h native.Sock, option int, size int) ([]byte, *native.Error) {
			s, nerr := e.lookupSock("zmq_getsockopt", h)
			if nerr != nil {
				return nil, nerr
			}
			return s.getOpt("zmq_getsockopt", option, size)
		},

		Send: func(h native.Sock, data []byte, flags int) *native.Error {
			s, nerr := e.lookupSock("zmq_send", h)
			if nerr != nil {
				return nerr
			}
			return s.sendPart("zmq_send", data, flags)
		},

		Recv: func(h native.Sock, flags int) ([]byte, *native.Error) {
			s, nerr := e.lookupSock("zmq_recv", h)
			if nerr != nil {
				return nil, nerr
			}
			return s.recvPart("zmq_recv", flags)
		},
	}

	if e.legacy() {
		f.Init = func(ioThreads int) (native.Ctx, *native.Error) {
			if ioThreads < 0 {
				return 0, native.Errf("zmq_init", consts.EInval, "io_threads %d out of range", ioThreads)
			}
			c := e.newCtx(ioThreads)
			return native.Ctx(c.handle), nil
		}
		f.Term = func(c native.Ctx) *native.Error {
			ctx, nerr := e.lookupCtx("zmq_term", c)
			if nerr != nil {
				return nerr
			}
			return ctx.destroy("zmq_term")
		}
		f.Device = func(deviceType int, frontend, backend native.Sock) *native.Error {
			if deviceType < int(consts.Streamer) || deviceType > int(consts.Queue) {
				return native.Errf("zmq_device", consts.EInval, "unknown device type %d", deviceType)
			}
			fs, nerr := e.lookupSock("zmq_device", frontend)
			if nerr != nil {
				return nerr
			}
			bs, nerr := e.lookupSock("zmq_device", backend)
			if nerr != nil {
				return nerr
			}
			return e.relay("zmq_device", fs, bs, nil)
		}
		return f
	}

	f.CtxNew = func() (native.Ctx, *native.Error) {
		c := e.newCtx(defaultIOThreads)
		return native.Ctx(c.handle), nil
	}
	f.CtxDestroy = func(c native.Ctx) *native.Error {
		ctx, nerr := e.lookupCtx("zmq_ctx_destroy", c)
		if nerr != nil {
			return nerr
		}
		return ctx.destroy("zmq_ctx_destroy")
	}
	f.CtxGet = func(c native.Ctx, option int) (int, *native.Error) {
		ctx, nerr := e.lookupCtx("zmq_ctx_get", c)
		if nerr != nil {
			return 0, nerr
		}
		return ctx.get("zmq_ctx_get", option)
	}
	f.CtxSet = func(c native.Ctx, option, value int) *native.Error {
		ctx, nerr := e.lookupCtx("zmq_ctx_set", c)
		if nerr != nil {
			return nerr
		}
		return ctx.set("zmq_ctx_set", option, value)
	}
	f.Unbind = func(h native.Sock, endpoint string) *native.Error {
		s, nerr := e.lookupSock("zmq_unbind", h)
		if nerr != nil {
			return nerr
		}
		return s.unbind("zmq_unbind", endpoint)
	}
	f.Disconnect = func(h native.Sock, endpoint string) *native.Error {
		s, nerr := e.lookupSock("zmq_disconnect", h)
		if nerr != nil {
			return nerr
		}
		return s.disconnect("zmq_disconnect", endpoint)
	}
	f.Proxy = func(frontend, backend, capture native.Sock) *native.Error {
		fs, nerr := e.lookupSock("zmq_proxy", frontend)
		if nerr != nil {
			return nerr
		}
		bs, nerr := e.lookupSock("zmq_proxy", backend)
		if nerr != nil {
			return nerr
		}
		var cs *engSocket
		if capture != 0 {
			if cs, nerr = e.lookupSock("zmq_proxy", capture); nerr != nil {
				return nerr
			}
		}
		return e.relay("zmq_proxy", fs, bs, cs)
	}
	return f
}
