package memengine

import (
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/native"
)

// relay shuttles whole messages between two sockets in both directions until
// the owning context is destroyed, which is the only way out: that is how
// both zmq_device and zmq_proxy behave, never returning success.
//
// Sockets that cannot receive in their current state, whether by pattern,
// req/rep lockstep, or because teardown closed them ahead of the context,
// simply contribute no traffic this round. An idle relay backs off
// exponentially so a quiet proxy does not spin a core.
func (e *Engine) relay(fn string, front, back, capture *engSocket) *native.Error {
	idle := backoff.NewExponentialBackOff()
	idle.InitialInterval = 50 * time.Microsecond
	idle.MaxInterval = 2 * time.Millisecond

	pairs := [2][2]*engSocket{{front, back}, {back, front}}
	for {
		if front.ctx.isClosed() || back.ctx.isClosed() {
			return errTerm(fn)
		}
		moved := false
		for _, p := range pairs {
			src, dst := p[0], p[1]
			msg, nerr := src.nextMessage(fn, consts.FlagDontWait)
			if nerr != nil {
				if transient(nerr.Errno) {
					continue
				}
				return nerr
			}
			if capture != nil {
				// Capture is an observer; it must never stall the relay.
				capture.routeMessage(fn, cloneMessage(msg), consts.FlagDontWait)
			}
			if nerr := dst.routeMessage(fn, msg, 0); nerr != nil {
				if transient(nerr.Errno) {
					continue
				}
				return nerr
			}
			moved = true
		}
		if moved {
			idle.Reset()
			continue
		}
		d := idle.NextBackOff()
		if d == backoff.Stop {
			d = idle.MaxInterval
		}
		time.Sleep(d)
	}
}

// transient classifies relay-loop errors that mean "nothing to move right
// now" rather than "the relay is over". A closed socket is transient too:
// context teardown closes sockets before the context itself, and the loop's
// context check turns that into ETERM.
func transient(errno int) bool {
	switch errno {
	case consts.EAgain, consts.ENotSup, consts.EFSM, consts.ENotSock:
		return true
	}
	return false
}
