package zmqffi

import (
	"go.uber.org/zap"

	"github.com/semifor/zmq-ffi/backend"
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/errors"
	"github.com/semifor/zmq-ffi/lifecycle"
)

// contextV2 is the 2.x variant. The line has no context options, no unbind
// or disconnect, and no native proxy; its forwarding primitive is the
// device call, which Proxy delegates to.
type contextV2 struct {
	*contextCore
}

func (c *contextV2) Get(option int) (int, error) {
	return 0, errors.Unsupported(errors.PhaseContext, "ctx_get", backend.Requires(backend.OpCtxGet))
}

func (c *contextV2) Set(option, value int) error {
	return errors.Unsupported(errors.PhaseContext, "ctx_set", backend.Requires(backend.OpCtxSet))
}

func (c *contextV2) Socket(typ consts.SocketType) (Socket, error) {
	core, err := c.openSocket(c, typ)
	if err != nil {
		return nil, err
	}
	w := &socketV2{core}
	lifecycle.Arm(w, core.rec)
	return w, nil
}

// Proxy on a 2.x engine is the streamer device. A capture socket has no
// native counterpart here and is ignored, matching the historical behavior
// of bindings that papered over the gap.
func (c *contextV2) Proxy(front, back, capture Socket) error {
	if capture != nil {
		Logger().Debug("capture socket ignored: pre-3.2 proxy runs as a streamer device",
			zap.String("backend", c.desc.Name),
		)
	}
	return c.Device(consts.Streamer, front, back)
}

func (c *contextV2) Device(device consts.DeviceType, front, back Socket) error {
	const op = "device"
	if err := c.live(op); err != nil {
		return err
	}
	handles, err := socketHandles(op, front, back)
	if err != nil {
		return err
	}
	if nerr := c.funcs.Device(int(device), handles[0], handles[1]); nerr != nil {
		return errors.Native(errors.PhaseContext, nerr.Fn, nerr.Errno, nerr.Text)
	}
	return nil
}
