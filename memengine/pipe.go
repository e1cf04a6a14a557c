package memengine

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// message is one complete transfer unit: every part of a multipart message.
// Messages travel through pipes as single elements, which is what makes
// multipart delivery atomic.
type message [][]byte

func cloneMessage(m message) message {
	out := make(message, len(m))
	for i, part := range m {
		cp := make([]byte, len(part))
		copy(cp, part)
		out[i] = cp
	}
	return out
}

// flag is a set-once marker shared across goroutines, in the counter idiom:
// raised by Add(1), observed by Add(0).
type flag struct {
	c atomix.Uint32
}

// raise sets the flag and reports whether this call was the first to do so.
func (f *flag) raise() bool {
	return f.c.Add(1) == 1
}

func (f *flag) isSet() bool {
	return f.c.Add(0) != 0
}

// unboundedCap stands in for a zero high-water mark. The engine's contract
// for hwm 0 is "no limit"; the queue still needs a ring size.
const unboundedCap = 65536

// pipe is one direction of a wire: a bounded SPSC message queue. The writer
// side enqueues, the reader side dequeues; everyone else may only look at
// the occupancy counter.
type pipe struct {
	q    lfq.SPSC[message]
	size atomix.Uint32
	cap  int
}

func newPipe(capacity int) *pipe {
	if capacity <= 0 {
		capacity = unboundedCap
	}
	p := &pipe{cap: capacity}
	p.q.Init(capacity)
	return p
}

func (p *pipe) tryPush(m message) bool {
	if int(p.size.Add(0)) >= p.cap {
		return false
	}
	if err := p.q.Enqueue(&m); err != nil {
		return false
	}
	p.size.Add(1)
	return true
}

func (p *pipe) tryPop() (message, bool) {
	m, err := p.q.Dequeue()
	if err != nil {
		return nil, false
	}
	p.size.Add(^uint32(0))
	return m, true
}

func (p *pipe) empty() bool {
	return p.size.Add(0) == 0
}

func (p *pipe) full() bool {
	return int(p.size.Add(0)) >= p.cap
}

// wire is one connection between two sockets: a queue per direction plus the
// routing identities each end advertises to the other. Both sockets hold the
// same wire; cli is the connecting end, srv the bound end.
type wire struct {
	cli, srv *engSocket
	c2s, s2c *pipe // cli→srv and srv→cli

	// idOfCli and idOfSrv are the routing identities under which each end is
	// known to its peer, fixed at attach time.
	idOfCli, idOfSrv []byte

	endpoint string
	closed   flag

	// discard marks queued messages abandoned by a closing writer; the
	// reader drops them on sight instead of delivering.
	discard flag
}

func (w *wire) close() {
	w.closed.raise()
}

func (w *wire) isClosed() bool {
	return w.closed.isSet()
}

// peerOf returns the socket on the other end.
func (w *wire) peerOf(s *engSocket) *engSocket {
	if s == w.cli {
		return w.srv
	}
	return w.cli
}

// outPipe returns the pipe s writes into.
func (w *wire) outPipe(s *engSocket) *pipe {
	if s == w.cli {
		return w.c2s
	}
	return w.s2c
}

// inPipe returns the pipe s reads from.
func (w *wire) inPipe(s *engSocket) *pipe {
	if s == w.cli {
		return w.s2c
	}
	return w.c2s
}

// peerID returns the routing identity of s's peer on this wire.
func (w *wire) peerID(s *engSocket) []byte {
	if s == w.cli {
		return w.idOfSrv
	}
	return w.idOfCli
}

// dead reports whether the wire can deliver nothing further to s: the peer
// side is gone and the inbound queue holds nothing deliverable.
func (w *wire) dead(s *engSocket) bool {
	if !w.isClosed() && !w.peerOf(s).isClosed() {
		return false
	}
	return w.inPipe(s).empty() || w.discard.isSet()
}
