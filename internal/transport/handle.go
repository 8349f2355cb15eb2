package transport

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is returned by every Execute call. It is the caller's only view of
// the call; there is no way to cancel through it.
type Handle struct {
	id    string
	inert bool
	done  chan struct{}
	once  sync.Once
}

func newHandle() *Handle {
	return &Handle{id: uuid.New().String(), done: make(chan struct{})}
}

// inertHandle is returned for requests rejected at setup. Its callback never
// fires and it counts as finished immediately.
func inertHandle() *Handle {
	h := newHandle()
	h.inert = true
	h.finish()
	return h
}

func (h *Handle) finish() {
	h.once.Do(func() { close(h.done) })
}

// ID identifies the call in logs.
func (h *Handle) ID() string { return h.id }

// Inert reports whether the request was rejected without issuing a call.
func (h *Handle) Inert() bool { return h.inert }

// Done is closed after the callback has returned, or immediately for inert handles.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until Done is closed. A nil handle returns at once.
func (h *Handle) Wait() {
	if h == nil {
		return
	}
	<-h.done
}
