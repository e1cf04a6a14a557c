package memengine

import (
	"sync"

	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/native"
)

// engCtx is one emulated native context: an option set and a socket
// registry. The interesting lifecycle rules live in the callers; the engine
// only has to make destroy observable to blocked socket operations.
type engCtx struct {
	eng    *Engine
	handle uint32
	closed flag

	mu         sync.Mutex
	ioThreads  int
	maxSockets int
	ipv6       int
	sockets    []*engSocket
}

func (e *Engine) newCtx(ioThreads int) *engCtx {
	c := &engCtx{
		eng:        e,
		ioThreads:  ioThreads,
		maxSockets: defaultMaxSockets,
	}
	c.handle = e.tbl.insert(kindCtx, c)
	return c
}

func (c *engCtx) isClosed() bool {
	return c.closed.isSet()
}

func (c *engCtx) get(fn string, option int) (int, *native.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch option {
	case consts.CtxIOThreads:
		return c.ioThreads, nil
	case consts.CtxMaxSockets:
		return c.maxSockets, nil
	case consts.CtxSocketLimit:
		return socketLimit, nil
	case consts.CtxIPv6:
		return c.ipv6, nil
	}
	return 0, native.Errf(fn, consts.EInval, "unknown context option %d", option)
}

func (c *engCtx) set(fn string, option, value int) *native.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch option {
	case consts.CtxIOThreads:
		if value < 0 {
			return native.Errf(fn, consts.EInval, "io_threads %d out of range", value)
		}
		c.ioThreads = value
		return nil
	case consts.CtxMaxSockets:
		if value < 1 {
			return native.Errf(fn, consts.EInval, "max_sockets %d out of range", value)
		}
		c.maxSockets = value
		return nil
	case consts.CtxIPv6:
		if value != 0 && value != 1 {
			return native.Errf(fn, consts.EInval, "ipv6 %d out of range", value)
		}
		c.ipv6 = value
		return nil
	case consts.CtxSocketLimit:
		return native.Errf(fn, consts.EInval, "socket_limit is read-only")
	}
	return native.Errf(fn, consts.EInval, "unknown context option %d", option)
}

func (c *engCtx) addSocket(s *engSocket) *native.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sockets) >= c.maxSockets {
		return native.Errf("zmq_socket", consts.EMFile, "%s", consts.Strerror(consts.EMFile))
	}
	c.sockets = append(c.sockets, s)
	return nil
}

func (c *engCtx) removeSocket(s *engSocket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cur := range c.sockets {
		if cur == s {
			c.sockets = append(c.sockets[:i], c.sockets[i+1:]...)
			return
		}
	}
}

// destroy marks the context closed, which interrupts blocked operations on
// its sockets with ETERM, then force-closes whatever sockets remain and
// drops the context from the table. Callers that close sockets first, as
// the binding's lifecycle layer does, reach this with an empty registry.
func (c *engCtx) destroy(fn string) *native.Error {
	if !c.closed.raise() {
		return native.Errf(fn, consts.EFault, "context already destroyed")
	}

	c.mu.Lock()
	remaining := make([]*engSocket, len(c.sockets))
	copy(remaining, c.sockets)
	c.mu.Unlock()

	for _, s := range remaining {
		s.forceClose()
	}

	c.eng.tbl.remove(c.handle)
	return nil
}
