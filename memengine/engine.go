package memengine

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/native"
)

// Default limits, matching the native engine's documented defaults.
const (
	defaultIOThreads  = 1
	defaultMaxSockets = 1023
	socketLimit       = 65535
	defaultHWM        = 1000
)

// Engine is a process-local messaging engine. One engine is one endpoint
// namespace; it can serve any number of contexts and implements
// native.Driver, so it plugs in wherever a loaded library would.
type Engine struct {
	version [3]int
	funcs   *native.Funcs
	tbl     *handleTable

	epMu      sync.Mutex
	endpoints map[string]*engSocket

	fdMu   sync.Mutex
	nextFD int

	closed flag
}

// Option configures an Engine.
type Option func(*Engine)

// WithVersion sets the revision triple the engine advertises. The triple
// shapes the entry point table and the option encodings, which is how one
// process exercises 2.x through 4.x behavior.
func WithVersion(major, minor, patch int) Option {
	return func(e *Engine) {
		e.version = [3]int{major, minor, patch}
	}
}

// New creates an engine. By default it advertises a current 4.x revision.
func New(opts ...Option) *Engine {
	e := &Engine{
		version:   [3]int{4, 3, 5},
		tbl:       newHandleTable(),
		endpoints: make(map[string]*engSocket),
		nextFD:    1000,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.funcs = e.buildFuncs()
	Logger().Debug("engine created",
		zap.Int("major", e.version[0]),
		zap.Int("minor", e.version[1]),
		zap.Int("patch", e.version[2]),
	)
	return e
}

// Version reports the engine's revision triple.
func (e *Engine) Version() (major, minor, patch int) {
	return e.version[0], e.version[1], e.version[2]
}

// Funcs returns the entry-point table shaped for the advertised revision.
func (e *Engine) Funcs() *native.Funcs {
	return e.funcs
}

// legacy reports whether the engine emulates the 2.x line.
func (e *Engine) legacy() bool {
	return e.version[0] == 2
}

// Close force-releases everything the engine still holds: sockets without
// linger, then contexts, then the handle table. Live handles become invalid.
func (e *Engine) Close() error {
	if !e.closed.raise() {
		return nil
	}
	var socks []*engSocket
	var ctxs []*engCtx
	e.tbl.each(func(h uint32, v any) bool {
		switch x := v.(type) {
		case *engSocket:
			socks = append(socks, x)
		case *engCtx:
			ctxs = append(ctxs, x)
		}
		return true
	})
	for _, s := range socks {
		s.forceClose()
	}
	for _, c := range ctxs {
		c.closed.raise()
	}
	e.tbl.close()

	e.epMu.Lock()
	e.endpoints = make(map[string]*engSocket)
	e.epMu.Unlock()
	return nil
}

// Stats reports the engine's live object counts.
type Stats struct {
	Contexts  int
	Sockets   int
	Endpoints int
}

func (e *Engine) Stats() Stats {
	var st Stats
	e.tbl.each(func(h uint32, v any) bool {
		switch v.(type) {
		case *engCtx:
			st.Contexts++
		case *engSocket:
			st.Sockets++
		}
		return true
	})
	e.epMu.Lock()
	st.Endpoints = len(e.endpoints)
	e.epMu.Unlock()
	return st
}

func (e *Engine) allocFD() int {
	e.fdMu.Lock()
	defer e.fdMu.Unlock()
	e.nextFD++
	return e.nextFD
}

// parseEndpoint validates an endpoint and extracts the inproc name.
func parseEndpoint(fn, endpoint string) (string, *native.Error) {
	scheme, name, found := strings.Cut(endpoint, "://")
	if !found || name == "" {
		return "", native.Errf(fn, consts.EInval, "invalid endpoint %q", endpoint)
	}
	if scheme != "inproc" {
		return "", native.Errf(fn, consts.EProtoNoSupport, "transport %q not supported", scheme)
	}
	return name, nil
}

// bindName claims an inproc name for s. Names are engine-wide.
func (e *Engine) bindName(fn, endpoint string, s *engSocket) *native.Error {
	name, nerr := parseEndpoint(fn, endpoint)
	if nerr != nil {
		return nerr
	}
	e.epMu.Lock()
	defer e.epMu.Unlock()
	if _, taken := e.endpoints[name]; taken {
		return native.Errf(fn, consts.EAddrInUse, "%s", consts.Strerror(consts.EAddrInUse))
	}
	e.endpoints[name] = s
	return nil
}

// unbindName releases a name, failing with ENOENT unless s bound it.
func (e *Engine) unbindName(fn, endpoint string, s *engSocket) *native.Error {
	name, nerr := parseEndpoint(fn, endpoint)
	if nerr != nil {
		return nerr
	}
	e.epMu.Lock()
	defer e.epMu.Unlock()
	if owner, ok := e.endpoints[name]; !ok || owner != s {
		return native.Errf(fn, consts.ENoEnt, "endpoint %q not bound here", endpoint)
	}
	delete(e.endpoints, name)
	return nil
}

// dropNames releases every name s still holds, for socket close.
func (e *Engine) dropNames(s *engSocket) {
	e.epMu.Lock()
	defer e.epMu.Unlock()
	for name, owner := range e.endpoints {
		if owner == s {
			delete(e.endpoints, name)
		}
	}
}

// lookupName resolves a bound name to its socket.
func (e *Engine) lookupName(name string) (*engSocket, bool) {
	e.epMu.Lock()
	defer e.epMu.Unlock()
	s, ok := e.endpoints[name]
	return s, ok
}
