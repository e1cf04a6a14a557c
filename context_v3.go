package zmqffi

import (
	"github.com/semifor/zmq-ffi/backend"
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/errors"
	"github.com/semifor/zmq-ffi/lifecycle"
)

// contextV3 is the 3.x variant: native context options, unbind/disconnect
// and proxy exist from this line on. The 4.x variants embed it and differ
// only in descriptor and the socket variant they construct.
type contextV3 struct {
	*contextCore
}

func (c *contextV3) Get(option int) (int, error) {
	if err := c.live("ctx_get"); err != nil {
		return 0, err
	}
	v, nerr := c.funcs.CtxGet(c.handle, option)
	if nerr != nil {
		return 0, errors.Native(errors.PhaseContext, nerr.Fn, nerr.Errno, nerr.Text)
	}
	return v, nil
}

func (c *contextV3) Set(option, value int) error {
	if err := c.live("ctx_set"); err != nil {
		return err
	}
	if nerr := c.funcs.CtxSet(c.handle, option, value); nerr != nil {
		return errors.Native(errors.PhaseContext, nerr.Fn, nerr.Errno, nerr.Text)
	}
	return nil
}

func (c *contextV3) Socket(typ consts.SocketType) (Socket, error) {
	core, err := c.openSocket(c, typ)
	if err != nil {
		return nil, err
	}
	w := &socketV3{core}
	lifecycle.Arm(w, core.rec)
	return w, nil
}

// Proxy blocks the calling goroutine until the context is destroyed or a
// participant closes; the engine reports that interruption as an error,
// typically ETERM, which callers treat as shutdown.
func (c *contextV3) Proxy(front, back, capture Socket) error {
	const op = "proxy"
	if err := c.live(op); err != nil {
		return err
	}
	handles, err := socketHandles(op, front, back, capture)
	if err != nil {
		return err
	}
	if nerr := c.funcs.Proxy(handles[0], handles[1], handles[2]); nerr != nil {
		return errors.Native(errors.PhaseContext, nerr.Fn, nerr.Errno, nerr.Text)
	}
	return nil
}

func (c *contextV3) Device(device consts.DeviceType, front, back Socket) error {
	return errors.Unsupported(errors.PhaseContext, "device", backend.Requires(backend.OpDevice))
}
