package zmqffi

import (
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/lifecycle"
)

// contextV4 is the 4.0 variant and contextV41 the 4.1+ one. Both inherit
// the 3.x operation set; what separates them is the option table their
// descriptor carries and the socket variant they hand out.
type contextV4 struct {
	contextV3
}

func (c *contextV4) Socket(typ consts.SocketType) (Socket, error) {
	core, err := c.openSocket(c, typ)
	if err != nil {
		return nil, err
	}
	w := &socketV4{socketV3{core}}
	lifecycle.Arm(w, core.rec)
	return w, nil
}

type contextV41 struct {
	contextV4
}

func (c *contextV41) Socket(typ consts.SocketType) (Socket, error) {
	core, err := c.openSocket(c, typ)
	if err != nil {
		return nil, err
	}
	w := &socketV41{socketV4{socketV3{core}}}
	lifecycle.Arm(w, core.rec)
	return w, nil
}
