package ffi

import (
	"os"
	"runtime"
)

// SonameEnv names the environment variable that overrides soname probing
// with one explicit library name or path.
const SonameEnv = "ZMQ_FFI_SONAME"

// sonames are the well-known library names per platform, newest ABI line
// first: .5 is 4.2+, .4 the 4.0/4.1 line, .3 the 3.2 line, .1 the 2.x line.
var sonames = map[string][]string{
	"darwin": {
		"libzmq.5.dylib",
		"libzmq.4.dylib",
		"libzmq.3.dylib",
		"libzmq.1.dylib",
		"libzmq.dylib",
	},
}

var sonamesDefault = []string{
	"libzmq.so.5",
	"libzmq.so.4",
	"libzmq.so.3",
	"libzmq.so.1",
	"libzmq.so",
}

// candidates returns the library names to try, in order. An explicit hint
// wins outright, then the environment override, then the platform list.
func candidates(hint string) []string {
	if hint != "" {
		return []string{hint}
	}
	if env := os.Getenv(SonameEnv); env != "" {
		return []string{env}
	}
	if names, ok := sonames[runtime.GOOS]; ok {
		return names
	}
	return sonamesDefault
}
