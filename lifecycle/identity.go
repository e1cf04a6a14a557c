package lifecycle

import (
	"fmt"
	"os"
)

// Identity names the execution scope that owns a native resource. PID is the
// owning process; Token distinguishes finer scopes when the caller's
// threading model needs it, and is zero under the default source.
type Identity struct {
	PID   int
	Token uint64
}

func (id Identity) String() string {
	if id.Token == 0 {
		return fmt.Sprintf("pid %d", id.PID)
	}
	return fmt.Sprintf("pid %d token %d", id.PID, id.Token)
}

// Source reports the identity of the calling scope. Sources are evaluated at
// registration to capture the creator and again at every teardown to check
// the caller.
type Source func() Identity

// ProcessIdentity is the default source: process-level ownership only. It
// makes fork protection exact and leaves goroutine-level ownership to
// callers that install a token-bearing source.
func ProcessIdentity() Identity {
	return Identity{PID: os.Getpid()}
}
