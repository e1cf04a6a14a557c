package lifecycle

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/semifor/zmq-ffi/errors"
)

// Kind labels the resource class a record guards.
type Kind uint8

const (
	KindContext Kind = iota + 1
	KindSocket
)

func (k Kind) String() string {
	switch k {
	case KindContext:
		return "context"
	case KindSocket:
		return "socket"
	}
	return "unknown"
}

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventReleased
	EventAbandoned
)

func (t EventType) String() string {
	switch t {
	case EventRegistered:
		return "registered"
	case EventReleased:
		return "released"
	case EventAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Event represents a resource lifecycle event.
type Event struct {
	Type  EventType
	Kind  Kind
	Label string
	Seq   uint64
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnLifecycleEvent(Event)
}

// Tracker issues guarded records for one family of native resources,
// typically a context and the sockets created under it.
type Tracker struct {
	src Source

	mu        sync.Mutex
	observers []Observer
	seq       uint64
}

// NewTracker creates a tracker using src to evaluate identities. A nil src
// installs the process-level default.
func NewTracker(src Source) *Tracker {
	if src == nil {
		src = ProcessIdentity
	}
	return &Tracker{src: src}
}

// Subscribe adds an observer for lifecycle events.
func (t *Tracker) Subscribe(o Observer) {
	if o == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Tracker) Unsubscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, cur := range t.observers {
		if cur == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// notify delivers under the tracker lock so observers see events in the
// exact order records produced them.
func (t *Tracker) notify(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	ev.Seq = t.seq
	for _, o := range t.observers {
		o.OnLifecycleEvent(ev)
	}
}

func (t *Tracker) identity() Identity {
	return t.src()
}

// Record states.
const (
	stateLive int32 = iota
	stateClosed
)

// Record guards one native resource. Records are created by Tracker.Register
// and released through Teardown.
type Record struct {
	tracker *Tracker
	kind    Kind
	label   string
	ident   Identity
	release func() error

	state atomic.Int32

	mu         sync.Mutex
	parent     *Record
	children   []*Record
	cleanup    runtime.Cleanup
	hasCleanup bool
}

// Register creates a guarded record. The release function runs exactly once,
// on the first teardown observed from the creator's identity. A non-nil
// parent adopts the record as a child to be torn down before the parent's
// own release.
func (t *Tracker) Register(kind Kind, label string, parent *Record, release func() error) *Record {
	r := &Record{
		tracker: t,
		kind:    kind,
		label:   label,
		ident:   t.identity(),
		release: release,
		parent:  parent,
	}
	if parent != nil {
		parent.adopt(r)
	}
	t.notify(Event{Type: EventRegistered, Kind: kind, Label: label})
	return r
}

func (r *Record) adopt(child *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.children = append(r.children, child)
}

func (r *Record) disown(child *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.children {
		if cur == child {
			r.children = append(r.children[:i], r.children[i+1:]...)
			return
		}
	}
}

// Live reports whether the record has not yet been released.
func (r *Record) Live() bool {
	return r.state.Load() == stateLive
}

// Label returns the label the record was registered under.
func (r *Record) Label() string {
	return r.label
}

// Identity returns the creator identity captured at registration.
func (r *Record) Identity() Identity {
	return r.ident
}

// LiveChildren counts children not yet released.
func (r *Record) LiveChildren() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.children {
		if c.Live() {
			n++
		}
	}
	return n
}

// Teardown releases the resource under the ownership rules. Calls from a
// non-creator identity are ignored, leaving the record live; repeated calls
// from the creator are no-ops after the first. Children are torn down in
// registration order before the record's own release runs. The error is the
// record's release error; child release failures are logged, not returned.
func (r *Record) Teardown() error {
	caller := r.tracker.identity()
	if caller != r.ident {
		r.tracker.notify(Event{Type: EventAbandoned, Kind: r.kind, Label: r.label})
		Logger().Debug("teardown ignored: caller is not the creator",
			zap.String("resource", r.kind.String()),
			zap.String("label", r.label),
			zap.String("creator", r.ident.String()),
			zap.String("caller", caller.String()),
			zap.Error(errors.CrossThreadTeardown(r.kind.String(), r.ident.String(), caller.String())),
		)
		return nil
	}

	if !r.state.CompareAndSwap(stateLive, stateClosed) {
		return nil
	}

	r.mu.Lock()
	kids := make([]*Record, len(r.children))
	copy(kids, r.children)
	r.mu.Unlock()

	for _, c := range kids {
		if err := c.Teardown(); err != nil {
			Logger().Debug("child release failed during parent teardown",
				zap.String("label", c.label),
				zap.Error(err),
			)
		}
	}

	var err error
	if r.release != nil {
		err = r.release()
	}

	if r.parent != nil {
		r.parent.disown(r)
	}
	r.stopCleanup()
	r.tracker.notify(Event{Type: EventReleased, Kind: r.kind, Label: r.label})
	return err
}

func (r *Record) setCleanup(c runtime.Cleanup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanup = c
	r.hasCleanup = true
}

// stopCleanup cancels the GC safety net once an explicit teardown has run.
// Stopping from inside the cleanup itself is a documented no-op.
func (r *Record) stopCleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasCleanup {
		r.cleanup.Stop()
	}
}

// Arm registers a garbage-collection cleanup on owner that funnels into the
// record's guarded teardown. The record must not be reachable from owner's
// cleanup argument, so the record itself is passed, never the owner.
func Arm[T any](owner *T, rec *Record) {
	c := runtime.AddCleanup(owner, func(r *Record) {
		_ = r.Teardown()
	}, rec)
	rec.setCleanup(c)
}
