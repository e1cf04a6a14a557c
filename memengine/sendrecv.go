package memengine

import (
	"bytes"
	"time"

	"code.hybscloud.com/iox"

	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/native"
)

func errNotSock(fn string) *native.Error {
	return native.Errf(fn, consts.ENotSock, "%s", consts.Strerror(consts.ENotSock))
}

func errTerm(fn string) *native.Error {
	return native.Errf(fn, consts.ETerm, "%s", consts.Strerror(consts.ETerm))
}

func errAgain(fn string) *native.Error {
	return native.Errf(fn, consts.EAgain, "%s", consts.Strerror(consts.EAgain))
}

func errFSM(fn string) *native.Error {
	return native.Errf(fn, consts.EFSM, "%s", consts.Strerror(consts.EFSM))
}

// deadlineFor translates a timeout option value into a wait deadline: a zero
// time means wait forever.
func deadlineFor(timeoutMS int) time.Time {
	if timeoutMS < 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
}

// sendPart is the part-level entry behind the send call. Parts flagged with
// "more" accumulate; the final part completes the message, which is then
// routed as one atomic unit per the socket's messaging pattern.
func (s *engSocket) sendPart(fn string, data []byte, flags int) *native.Error {
	if s.isClosed() {
		return errNotSock(fn)
	}
	if s.ctx.isClosed() {
		return errTerm(fn)
	}

	switch s.typ {
	case consts.Sub, consts.Pull:
		return native.Errf(fn, consts.ENotSup, "%s socket cannot send", s.typ)
	}

	s.mu.Lock()
	if s.typ == consts.Req && s.awaitingReply {
		s.mu.Unlock()
		return errFSM(fn)
	}
	if s.typ == consts.Rep && s.repWire == nil {
		s.mu.Unlock()
		return errFSM(fn)
	}
	max := s.maxMsgSize
	s.mu.Unlock()

	if max >= 0 && int64(len(data)) > max {
		return native.Errf(fn, consts.EMsgSize, "%s", consts.Strerror(consts.EMsgSize))
	}

	part := append([]byte(nil), data...)
	if flags&consts.FlagSndMore != 0 {
		s.mu.Lock()
		s.pending = append(s.pending, part)
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	msg := append(s.pending, part)
	s.pending = nil
	s.mu.Unlock()
	return s.routeMessage(fn, msg, flags)
}

// routeMessage delivers one complete message per the socket's pattern.
func (s *engSocket) routeMessage(fn string, msg message, flags int) *native.Error {
	switch s.typ {
	case consts.Pub, consts.XPub:
		return s.fanOut(msg)
	case consts.Req:
		return s.reqSend(fn, msg, flags)
	case consts.Rep:
		return s.repSend(fn, msg, flags)
	case consts.Router:
		return s.routerSend(fn, msg, flags)
	}
	// push, dealer, pair, xsub, stream: pick one writable peer.
	_, nerr := s.pickAndPush(fn, msg, flags)
	return nerr
}

// wireLive reports whether w can still carry traffic away from s.
func wireLive(s *engSocket, w *wire) bool {
	return !w.isClosed() && !w.peerOf(s).isClosed()
}

// fanOut is pub-side distribution: every matching subscriber gets a copy,
// slow subscribers are dropped, and having no subscribers is success. Topic
// filtering happens here, on the sending side, so inbound pipes only ever
// hold deliverable messages. Xsub peers are unfiltered; subscription
// forwarding is not modeled, and an intermediary that missed messages would
// break the forwarder pattern.
func (s *engSocket) fanOut(msg message) *native.Error {
	topic := []byte{}
	if len(msg) > 0 {
		topic = msg[0]
	}
	for _, w := range s.snapshotWires() {
		if !wireLive(s, w) {
			continue
		}
		peer := w.peerOf(s)
		if peer.typ == consts.Sub && !peer.matchSub(topic) {
			continue
		}
		w.outPipe(s).tryPush(cloneMessage(msg))
	}
	return nil
}

// pickAndPush round-robins over writable wires, blocking per the socket's
// send timeout when every pipe is full or no peer is connected. It returns
// the wire that accepted the message.
func (s *engSocket) pickAndPush(fn string, msg message, flags int) (*wire, *native.Error) {
	deadline := deadlineFor(s.sndTimeoLocked())
	var bo iox.Backoff
	for {
		if s.ctx.isClosed() {
			return nil, errTerm(fn)
		}
		if s.isClosed() {
			return nil, errNotSock(fn)
		}

		wires := s.snapshotWires()
		if n := len(wires); n > 0 {
			s.mu.Lock()
			start := s.lastOut
			s.mu.Unlock()
			for i := range wires {
				w := wires[(start+1+i)%n]
				if !wireLive(s, w) {
					continue
				}
				if w.outPipe(s).tryPush(msg) {
					s.mu.Lock()
					s.lastOut = (start + 1 + i) % n
					s.mu.Unlock()
					return w, nil
				}
			}
		}

		if flags&consts.FlagDontWait != 0 {
			return nil, errAgain(fn)
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return nil, errAgain(fn)
		}
		bo.Wait()
	}
}

func (s *engSocket) sndTimeoLocked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sndTimeo
}

func (s *engSocket) rcvTimeoLocked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rcvTimeo
}

// reqSend prepends the empty delimiter frame and enters the awaiting-reply
// state, remembering the wire the request left on so the reply is read from
// the same peer.
func (s *engSocket) reqSend(fn string, msg message, flags int) *native.Error {
	enveloped := append(message{[]byte{}}, msg...)
	w, nerr := s.pickAndPush(fn, enveloped, flags)
	if nerr != nil {
		return nerr
	}
	s.mu.Lock()
	s.awaitingReply = true
	s.reqWire = w
	s.mu.Unlock()
	return nil
}

// repSend prepends the stored request envelope and sends the reply back on
// the wire the request arrived on. A vanished requester consumes the reply
// silently, exactly like a torn-down pipe in the native engine.
func (s *engSocket) repSend(fn string, msg message, flags int) *native.Error {
	s.mu.Lock()
	w := s.repWire
	envelope := s.repEnvelope
	s.repWire = nil
	s.repEnvelope = nil
	s.mu.Unlock()

	if w == nil {
		return errFSM(fn)
	}
	if !wireLive(s, w) {
		return nil
	}

	full := make(message, 0, len(envelope)+len(msg))
	full = append(full, envelope...)
	full = append(full, msg...)

	deadline := deadlineFor(s.sndTimeoLocked())
	var bo iox.Backoff
	for {
		if s.ctx.isClosed() {
			return errTerm(fn)
		}
		if !wireLive(s, w) {
			return nil
		}
		if w.outPipe(s).tryPush(full) {
			return nil
		}
		if flags&consts.FlagDontWait != 0 {
			return errAgain(fn)
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return errAgain(fn)
		}
		bo.Wait()
	}
}

// routerSend consumes the leading identity frame and routes the remainder to
// the matching peer. Unknown identities and full pipes are silently dropped
// unless router_mandatory is set.
func (s *engSocket) routerSend(fn string, msg message, flags int) *native.Error {
	if len(msg) == 0 {
		return native.Errf(fn, consts.EInval, "router message needs an identity frame")
	}
	dest := msg[0]
	rest := msg[1:]

	s.mu.Lock()
	mandatory := s.mandatory
	s.mu.Unlock()

	if len(rest) == 0 {
		return nil
	}

	for _, w := range s.snapshotWires() {
		if !bytes.Equal(w.peerID(s), dest) {
			continue
		}
		if !wireLive(s, w) {
			break
		}
		if w.outPipe(s).tryPush(rest) {
			return nil
		}
		if mandatory {
			return errAgain(fn)
		}
		return nil
	}
	if mandatory {
		return native.Errf(fn, consts.EHostUnreach, "%s", consts.Strerror(consts.EHostUnreach))
	}
	return nil
}

// recvPart is the part-level entry behind the recv call. Parts of a
// partially consumed message are served first; only when the previous
// message is fully consumed is the next one dequeued.
func (s *engSocket) recvPart(fn string, flags int) ([]byte, *native.Error) {
	if s.isClosed() {
		return nil, errNotSock(fn)
	}
	if s.ctx.isClosed() {
		return nil, errTerm(fn)
	}

	s.mu.Lock()
	if len(s.current) > 0 {
		part := s.current[0]
		s.current = s.current[1:]
		s.rcvMore = len(s.current) > 0
		s.mu.Unlock()
		return part, nil
	}
	s.mu.Unlock()

	msg, nerr := s.nextMessage(fn, flags)
	if nerr != nil {
		return nil, nerr
	}

	s.mu.Lock()
	part := msg[0]
	s.current = msg[1:]
	s.rcvMore = len(s.current) > 0
	s.mu.Unlock()
	return part, nil
}

// nextMessage dequeues one complete message per the socket's pattern,
// waiting per the receive timeout unless the dontwait flag is set. The
// returned message is never empty.
func (s *engSocket) nextMessage(fn string, flags int) (message, *native.Error) {
	switch s.typ {
	case consts.Pub, consts.Push:
		return nil, native.Errf(fn, consts.ENotSup, "%s socket cannot receive", s.typ)
	case consts.Req:
		return s.reqRecv(fn, flags)
	case consts.Rep:
		return s.repRecv(fn, flags)
	case consts.Router:
		msg, w, nerr := s.fairRecv(fn, flags)
		if nerr != nil {
			return nil, nerr
		}
		id := append([]byte(nil), w.peerID(s)...)
		return append(message{id}, msg...), nil
	}
	msg, _, nerr := s.fairRecv(fn, flags)
	return msg, nerr
}

// fairRecv rotates over the socket's wires, delivering from the first
// non-empty inbound pipe. Messages on a discarding wire are dropped unseen.
func (s *engSocket) fairRecv(fn string, flags int) (message, *wire, *native.Error) {
	deadline := deadlineFor(s.rcvTimeoLocked())
	var bo iox.Backoff
	for {
		if s.ctx.isClosed() {
			return nil, nil, errTerm(fn)
		}
		if s.isClosed() {
			return nil, nil, errNotSock(fn)
		}

		wires := s.snapshotWires()
		if n := len(wires); n > 0 {
			s.mu.Lock()
			start := s.lastIn
			s.mu.Unlock()
			for i := range wires {
				idx := (start + 1 + i) % n
				w := wires[idx]
				msg, ok := w.inPipe(s).tryPop()
				if !ok {
					continue
				}
				if w.discard.isSet() {
					continue
				}
				s.mu.Lock()
				s.lastIn = idx
				s.mu.Unlock()
				return msg, w, nil
			}
		}

		if flags&consts.FlagDontWait != 0 {
			return nil, nil, errAgain(fn)
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return nil, nil, errAgain(fn)
		}
		s.gcWires()
		bo.Wait()
	}
}

// reqRecv reads the reply from the wire the request left on and strips the
// empty delimiter frame.
func (s *engSocket) reqRecv(fn string, flags int) (message, *native.Error) {
	s.mu.Lock()
	awaiting := s.awaitingReply
	w := s.reqWire
	s.mu.Unlock()
	if !awaiting || w == nil {
		return nil, errFSM(fn)
	}

	deadline := deadlineFor(s.rcvTimeoLocked())
	var bo iox.Backoff
	for {
		if s.ctx.isClosed() {
			return nil, errTerm(fn)
		}
		if s.isClosed() {
			return nil, errNotSock(fn)
		}

		msg, ok := w.inPipe(s).tryPop()
		if ok && !w.discard.isSet() {
			if len(msg) > 0 && len(msg[0]) == 0 {
				msg = msg[1:]
			}
			if len(msg) == 0 {
				msg = message{[]byte{}}
			}
			s.mu.Lock()
			s.awaitingReply = false
			s.reqWire = nil
			s.mu.Unlock()
			return msg, nil
		}

		if flags&consts.FlagDontWait != 0 {
			return nil, errAgain(fn)
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return nil, errAgain(fn)
		}
		bo.Wait()
	}
}

// repRecv reads the next request, splitting it at the empty delimiter frame
// into the routing envelope, held for the reply, and the body handed to the
// caller. Requests without a delimiter are malformed and dropped.
func (s *engSocket) repRecv(fn string, flags int) (message, *native.Error) {
	s.mu.Lock()
	pending := s.repWire != nil
	s.mu.Unlock()
	if pending {
		return nil, errFSM(fn)
	}

	for {
		msg, w, nerr := s.fairRecv(fn, flags)
		if nerr != nil {
			return nil, nerr
		}

		split := -1
		for i, part := range msg {
			if len(part) == 0 {
				split = i
				break
			}
		}
		if split < 0 {
			continue
		}
		body := msg[split+1:]
		if len(body) == 0 {
			body = message{[]byte{}}
		}

		s.mu.Lock()
		s.repWire = w
		s.repEnvelope = msg[:split+1]
		s.mu.Unlock()
		return body, nil
	}
}
