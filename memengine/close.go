package memengine

import (
	"time"

	"code.hybscloud.com/iox"
)

// close tears the socket down after honoring its linger setting: zero skips
// straight to teardown, positive bounds the drain wait in milliseconds, and
// negative waits until every live peer has consumed the outbound queues.
func (s *engSocket) close() {
	s.mu.Lock()
	linger := s.linger
	s.mu.Unlock()

	if linger != 0 && !s.isClosed() {
		deadline := time.Time{}
		if linger > 0 {
			deadline = time.Now().Add(time.Duration(linger) * time.Millisecond)
		}
		var bo iox.Backoff
		for {
			if s.ctx.isClosed() {
				break
			}
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				break
			}
			if s.drained() {
				break
			}
			bo.Wait()
		}
	}
	s.finalize()
}

// drained reports whether no live peer still has outbound data to collect.
func (s *engSocket) drained() bool {
	for _, w := range s.snapshotWires() {
		if w.isClosed() || w.peerOf(s).isClosed() {
			continue
		}
		if !w.outPipe(s).empty() {
			return false
		}
	}
	return true
}

// finalize is the point of no return: undelivered outbound data is marked
// for discard, wires close, and the socket leaves every registry. Idempotent.
func (s *engSocket) finalize() {
	if !s.closed.raise() {
		return
	}
	for _, w := range s.snapshotWires() {
		if !w.outPipe(s).empty() {
			w.discard.raise()
		}
		w.close()
	}
	s.eng.dropNames(s)
	s.ctx.removeSocket(s)
	s.eng.tbl.remove(s.handle)
}

// forceClose is finalize without the linger wait, for context teardown.
func (s *engSocket) forceClose() {
	s.finalize()
}
