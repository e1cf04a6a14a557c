package memengine

import "github.com/semifor/zmq-ffi/consts"

// eventsLocked computes the readiness bitmask behind the events option.
// Caller holds s.mu.
func (s *engSocket) eventsLocked() int {
	ev := 0
	if s.readableLocked() {
		ev |= consts.PollIn
	}
	if s.writableLocked() {
		ev |= consts.PollOut
	}
	return ev
}

func (s *engSocket) readableLocked() bool {
	switch s.typ {
	case consts.Pub, consts.Push:
		return false
	case consts.Req:
		// Only the reply to the outstanding request counts.
		if !s.awaitingReply || s.reqWire == nil {
			return false
		}
		return !s.reqWire.discard.isSet() && !s.reqWire.inPipe(s).empty()
	case consts.Rep:
		if s.repWire != nil {
			return false
		}
	}
	if len(s.current) > 0 {
		return true
	}
	for _, w := range s.wires {
		if w.discard.isSet() {
			continue
		}
		if !w.inPipe(s).empty() {
			return true
		}
	}
	return false
}

func (s *engSocket) writableLocked() bool {
	switch s.typ {
	case consts.Sub, consts.Pull:
		return false
	case consts.Pub, consts.XPub:
		// Pub never blocks; slow subscribers are dropped instead.
		return true
	case consts.Req:
		if s.awaitingReply {
			return false
		}
	case consts.Rep:
		// Writable exactly while a reply is owed. A vanished requester
		// still accepts the reply, it just goes nowhere.
		return s.repWire != nil
	case consts.Router:
		if !s.mandatory {
			return true
		}
	}
	for _, w := range s.wires {
		if w.closed.isSet() || w.peerOf(s).closed.isSet() {
			continue
		}
		if !w.outPipe(s).full() {
			return true
		}
	}
	return false
}
