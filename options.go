package zmqffi

import (
	"github.com/semifor/zmq-ffi/lifecycle"
	"github.com/semifor/zmq-ffi/native"
)

type config struct {
	soname     string
	threads    int
	threadsSet bool
	maxSockets int
	maxSet     bool
	driver     native.Driver
	identity   lifecycle.Source
	observers  []lifecycle.Observer
}

// Option configures New.
type Option func(*config)

// WithSoname overrides library resolution with an explicit shared object
// name or path, e.g. "libzmq.so.5" or "/opt/zeromq/lib/libzmq.so".
func WithSoname(path string) Option {
	return func(c *config) {
		c.soname = path
	}
}

// WithThreads sets the size of the engine's I/O thread pool. The engine
// default is one thread, which inproc-only workloads may set to zero.
func WithThreads(n int) Option {
	return func(c *config) {
		c.threads = n
		c.threadsSet = true
	}
}

// WithMaxSockets caps the number of sockets the context will allow. The
// option has no native counterpart before 3.x and is ignored there.
func WithMaxSockets(n int) Option {
	return func(c *config) {
		c.maxSockets = n
		c.maxSet = true
	}
}

// WithDriver bypasses library resolution entirely and builds the context on
// an already-loaded engine, such as memengine.New(). The caller keeps
// ownership of the driver; Destroy will not close it.
func WithDriver(d native.Driver) Option {
	return func(c *config) {
		c.driver = d
	}
}

// WithIdentity installs the identity source consulted when resources are
// registered and torn down. The default is process-level identity; callers
// that pin goroutines to OS threads may install a token-bearing source.
func WithIdentity(src lifecycle.Source) Option {
	return func(c *config) {
		c.identity = src
	}
}

// WithObserver subscribes an observer to the context's lifecycle events:
// registration, release and abandoned teardown of the context and its
// sockets, in the order they happen.
func WithObserver(o lifecycle.Observer) Option {
	return func(c *config) {
		c.observers = append(c.observers, o)
	}
}
