//go:build !(darwin || freebsd || linux)

package ffi

import (
	"runtime"

	"github.com/semifor/zmq-ffi/errors"
	"github.com/semifor/zmq-ffi/native"
)

// Load is unavailable on this platform; dynamic symbol loading needs a
// dlopen-style loader.
func Load(soname string) (native.Driver, error) {
	return nil, errors.Unresolvable("dynamic engine loading is not supported on "+runtime.GOOS, nil)
}

// Installed is unavailable on this platform.
func Installed(hint string) (major, minor, patch int, err error) {
	return 0, 0, 0, errors.Unresolvable("dynamic engine loading is not supported on "+runtime.GOOS, nil)
}
