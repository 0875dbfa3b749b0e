package accesslogtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"accesslogd/internal/accesslog"
)

const (
	// DefaultWait bounds how long RequireEvent waits for an event.
	DefaultWait = 5 * time.Second
	// DefaultQuiet is how long RequireNoEvent watches for stray events.
	DefaultQuiet = 300 * time.Millisecond
)

// Capture gives the calling test exclusive use of q. The queue is drained
// now and again when the test ends, so no event crosses a test boundary.
func Capture(tb testing.TB, q *Queue) *Queue {
	tb.Helper()
	q.fixture.Lock()
	q.Reset()
	tb.Cleanup(func() {
		q.Reset()
		q.fixture.Unlock()
	})
	return q
}

// RequireEvent pops the next event and fails the test if none arrives
// within DefaultWait.
func RequireEvent(tb testing.TB, q *Queue) *accesslog.Event {
	tb.Helper()
	e, err := q.Pop(DefaultWait)
	require.NoError(tb, err, "expected an access event")
	require.NotNil(tb, e)
	return e
}

// RequireSingleEvent pops one event and then requires the queue to stay
// empty for DefaultQuiet.
func RequireSingleEvent(tb testing.TB, q *Queue) *accesslog.Event {
	tb.Helper()
	e := RequireEvent(tb, q)
	RequireNoEvent(tb, q, DefaultQuiet)
	return e
}

// RequireNoEvent fails the test if any event arrives within wait.
func RequireNoEvent(tb testing.TB, q *Queue, wait time.Duration) {
	tb.Helper()
	e, err := q.Pop(wait)
	if errors.Is(err, ErrTimeout) {
		return
	}
	require.NoError(tb, err)
	require.Nil(tb, e, "unexpected access event: %v", e)
}
