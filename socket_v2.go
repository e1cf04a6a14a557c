package zmqffi

import (
	"github.com/semifor/zmq-ffi/backend"
	"github.com/semifor/zmq-ffi/errors"
)

// socketV2 is the 2.x variant. Endpoint detachment does not exist on this
// line, so unbind and disconnect are refused before reaching the engine.
type socketV2 struct {
	*socketCore
}

func (s *socketV2) Unbind(endpoint string) error {
	return errors.Unsupported(errors.PhaseSocket, "unbind", backend.Requires(backend.OpUnbind))
}

func (s *socketV2) Disconnect(endpoint string) error {
	return errors.Unsupported(errors.PhaseSocket, "disconnect", backend.Requires(backend.OpDisconnect))
}
