package zmqffi

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/semifor/zmq-ffi/backend"
	"github.com/semifor/zmq-ffi/errors"
	"github.com/semifor/zmq-ffi/ffi"
	"github.com/semifor/zmq-ffi/lifecycle"
)

// Version is an engine revision triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// New resolves an engine, selects the backend matching its revision, and
// returns a live context bound to that backend. The selection happens once;
// every socket the context creates inherits it.
//
// Without options, resolution probes well-known library names, honoring the
// ZMQ_FFI_SONAME environment override. WithDriver skips resolution entirely
// and is how tests and pure-Go embedders run on memengine.
func New(opts ...Option) (Context, error) {
	cfg := config{threads: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	drv := cfg.driver
	ownsDriver := false
	if drv == nil {
		loaded, err := ffi.Load(cfg.soname)
		if err != nil {
			return nil, errors.Unresolvable("engine resolution failed", err)
		}
		drv = loaded
		ownsDriver = true
	}

	major, minor, patch := drv.Version()
	desc, err := backend.Select(major, minor)
	if err != nil {
		if ownsDriver {
			_ = drv.Close()
		}
		return nil, err
	}

	Logger().Debug("backend selected",
		zap.String("backend", desc.Name),
		zap.Int("major", major),
		zap.Int("minor", minor),
		zap.Int("patch", patch),
		zap.Bool("driver_injected", !ownsDriver),
	)

	core, err := newContextCore(desc, drv, Version{major, minor, patch}, &cfg, ownsDriver)
	if err != nil {
		if ownsDriver {
			_ = drv.Close()
		}
		return nil, err
	}

	// One wrapper type per revision line. The wrapper is what callers hold,
	// so the GC cleanup is armed on it, not on the shared core.
	switch {
	case major == 2:
		w := &contextV2{core}
		lifecycle.Arm(w, core.rec)
		return w, nil
	case major == 3:
		w := &contextV3{core}
		lifecycle.Arm(w, core.rec)
		return w, nil
	case minor == 0:
		w := &contextV4{contextV3{core}}
		lifecycle.Arm(w, core.rec)
		return w, nil
	default:
		w := &contextV41{contextV4{contextV3{core}}}
		lifecycle.Arm(w, core.rec)
		return w, nil
	}
}
