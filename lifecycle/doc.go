// Package lifecycle guards the teardown of native resources.
//
// Native handles are owned by the process and thread that created them, are
// not duplicated across forks, and must be released exactly once, children
// before parents. This package centralizes that discipline so the context
// and socket wrappers do not each reimplement it.
//
// A Tracker issues one Record per native resource. The record captures the
// creator's Identity at registration and guards every teardown path with the
// same three rules:
//
//   - a teardown observed by a non-creator identity is ignored and the
//     resource is abandoned to the creator (never double-released after a
//     fork, never released from a foreign thread)
//   - teardown is idempotent; only the first call releases
//   - a parent's teardown first tears down its live children in
//     registration order, then releases the parent
//
// Records can be armed against a wrapper value with Arm, which registers a
// garbage-collection cleanup as a safety net for wrappers that become
// unreachable without an explicit close. The cleanup funnels into the same
// guarded teardown, so the rules above hold on that path too.
//
// Observers subscribe to a tracker to receive the ordered stream of
// registration, release and abandonment events. Observer callbacks run under
// the tracker's lock and must not call back into the tracker.
package lifecycle
