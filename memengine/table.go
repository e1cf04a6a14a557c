package memengine

import "sync"

type handleKind uint8

const (
	kindCtx handleKind = iota + 1
	kindSock
)

// handleTable maps opaque native handles to engine objects. Handle 0 is
// reserved and always invalid; freed slots are recycled.
type handleTable struct {
	mu      sync.RWMutex
	entries []tableEntry
	free    []uint32
	closed  bool
}

type tableEntry struct {
	value any
	kind  handleKind
	valid bool
}

func newHandleTable() *handleTable {
	return &handleTable{
		entries: make([]tableEntry, 0, 16),
		free:    make([]uint32, 0, 8),
	}
}

func (t *handleTable) insert(kind handleKind, value any) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0
	}

	e := tableEntry{value: value, kind: kind, valid: true}

	if n := len(t.free); n > 0 {
		h := t.free[n-1]
		t.free = t.free[:n-1]
		t.entries[h-1] = e
		return h
	}

	t.entries = append(t.entries, e)
	return uint32(len(t.entries))
}

func (t *handleTable) get(h uint32, kind handleKind) (any, bool) {
	if h == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := h - 1
	if int(idx) >= len(t.entries) {
		return nil, false
	}
	e := t.entries[idx]
	if !e.valid || e.kind != kind {
		return nil, false
	}
	return e.value, true
}

func (t *handleTable) ctx(h uint32) (*engCtx, bool) {
	v, ok := t.get(h, kindCtx)
	if !ok {
		return nil, false
	}
	return v.(*engCtx), true
}

func (t *handleTable) sock(h uint32) (*engSocket, bool) {
	v, ok := t.get(h, kindSock)
	if !ok {
		return nil, false
	}
	return v.(*engSocket), true
}

func (t *handleTable) remove(h uint32) (any, bool) {
	if h == 0 {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := h - 1
	if int(idx) >= len(t.entries) {
		return nil, false
	}
	e := &t.entries[idx]
	if !e.valid {
		return nil, false
	}

	value := e.value
	e.valid = false
	e.value = nil
	t.free = append(t.free, h)
	return value, true
}

func (t *handleTable) each(fn func(h uint32, value any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, e := range t.entries {
		if e.valid {
			if !fn(uint32(i+1), e.value) {
				break
			}
		}
	}
}

func (t *handleTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, e := range t.entries {
		if e.valid {
			count++
		}
	}
	return count
}

func (t *handleTable) close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.entries = nil
	t.free = nil
}
