// Package accesslogtest provides an in-memory capture backend for access
// events and helpers to assert on it from tests.
package accesslogtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"accesslogd/internal/accesslog"
)

var (
	// ErrTimeout is returned by Pop when no event arrives in time.
	ErrTimeout = errors.New("accesslogtest: timed out waiting for access event")
	// ErrClosed is returned by Pop once the queue is closed and drained.
	ErrClosed = errors.New("accesslogtest: queue closed")
)

// Queue is a FIFO hand-off of events. Push never blocks; Pop blocks until
// an event is available.
type Queue struct {
	name string

	mu     sync.Mutex
	events []*accesslog.Event
	ready  chan struct{} // closed and replaced on every push, reset or close
	closed bool

	// fixture serializes tests sharing the queue. See Capture.
	fixture sync.Mutex
}

var _ accesslog.Appender = (*Queue)(nil)
var _ accesslog.Backend = (*Queue)(nil)

// NewQueue creates an empty queue. name is used when the queue is attached
// to an accesslog.Context as an appender.
func NewQueue(name string) *Queue {
	return &Queue{
		name:  name,
		ready: make(chan struct{}),
	}
}

// Push appends e to the tail. Pushing to a closed queue drops e.
func (q *Queue) Push(e *accesslog.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.events = append(q.events, e)
	q.signalLocked()
}

// Pop removes and returns the oldest event, waiting at most timeout.
func (q *Queue) Pop(timeout time.Duration) (*accesslog.Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return q.PopContext(ctx)
}

// PopContext removes and returns the oldest event, waiting until ctx is
// done. An expired deadline yields ErrTimeout; other cancellations yield
// ctx.Err().
func (q *Queue) PopContext(ctx context.Context) (*accesslog.Event, error) {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			e := q.events[0]
			q.events[0] = nil
			q.events = q.events[1:]
			q.mu.Unlock()
			return e, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrClosed
		}
		ready := q.ready
		q.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Reset drops every queued event.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = nil
	q.signalLocked()
}

// Close wakes all waiters; subsequent pops drain what is left and then
// return ErrClosed.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.signalLocked()
	}
	return nil
}

// Name implements accesslog.Appender.
func (q *Queue) Name() string {
	return q.name
}

// Append implements accesslog.Appender.
func (q *Queue) Append(e *accesslog.Event) error {
	q.Push(e)
	return nil
}

// Emit implements accesslog.Backend so a Queue can stand in for a Context.
func (q *Queue) Emit(e *accesslog.Event) error {
	q.Push(e)
	return nil
}

func (q *Queue) signalLocked() {
	close(q.ready)
	q.ready = make(chan struct{})
}
