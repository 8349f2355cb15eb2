package loop

import (
	"context"
	"sync"
)

// Loop runs posted callbacks one at a time on a single goroutine, in the
// order they were posted. It gives components the single logical thread of
// control they expect from transport callbacks.
type Loop struct {
	tasks chan func()
	// stop is closed by Stop. done is closed once no worker will read tasks
	// again, after the worker's final drain.
	stop chan struct{}
	done chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

// New creates a loop. bufferSize determines how many callbacks can be queued
// before Dispatch blocks.
func New(bufferSize int) *Loop {
	return &Loop{
		tasks: make(chan func(), bufferSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start launches the worker goroutine. The worker exits when ctx is done or
// Stop is called, running whatever was queued first.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.closed {
		return
	}
	l.started = true

	go l.run(ctx)
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			l.drain()
			return
		case <-l.stop:
			l.drain()
			return
		case task := <-l.tasks:
			task()
		}
	}
}

// drain runs whatever is queued without waiting for more.
func (l *Loop) drain() {
	for {
		select {
		case task := <-l.tasks:
			task()
		default:
			return
		}
	}
}

// Dispatch queues fn for execution on the loop goroutine. Once the loop is
// stopped or its worker has exited, fn runs on the calling goroutine instead.
func (l *Loop) Dispatch(fn func()) {
	select {
	case <-l.done:
		l.drain()
		fn()
		return
	default:
	}

	select {
	case l.tasks <- fn:
		// The worker may have exited between its last drain and the send.
		select {
		case <-l.done:
			l.drain()
		default:
		}
	case <-l.done:
		l.drain()
		fn()
	case <-l.stop:
		fn()
	}
}

// Stop closes the loop and waits, at most until ctx is done, for queued
// callbacks to finish.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.stop)
		if !l.started {
			close(l.done)
		}
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		l.drain()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
