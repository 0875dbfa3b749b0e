package accesslogtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accesslogd/internal/accesslog"
)

func event(id string) *accesslog.Event {
	return &accesslog.Event{ID: id}
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue("q")
	for i := 0; i < 5; i++ {
		q.Push(event(fmt.Sprint(i)))
	}
	for i := 0; i < 5; i++ {
		e, err := q.Pop(time.Second)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint(i), e.ID)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PopTimeout(t *testing.T) {
	q := NewQueue("q")
	start := time.Now()
	e, err := q.Pop(30 * time.Millisecond)
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestQueue_PopWaitsForPush(t *testing.T) {
	q := NewQueue("q")
	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Push(event("late"))
	}()
	e, err := q.Pop(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "late", e.ID)
}

func TestQueue_CloseIsDistinctFromTimeout(t *testing.T) {
	q := NewQueue("q")
	q.Push(event("left"))

	done := make(chan error, 1)
	require.NoError(t, q.Close())

	e, err := q.Pop(time.Second)
	require.NoError(t, err, "queued events drain after close")
	assert.Equal(t, "left", e.ID)

	go func() {
		_, err := q.Pop(5 * time.Second)
		done <- err
	}()
	assert.ErrorIs(t, <-done, ErrClosed)

	q.Push(event("dropped"))
	assert.Equal(t, 0, q.Len())
}

func TestQueue_CloseWakesWaiters(t *testing.T) {
	q := NewQueue("q")
	done := make(chan error, 1)
	go func() {
		_, err := q.Pop(5 * time.Second)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Close")
	}
}

func TestQueue_PopContextCanceled(t *testing.T) {
	q := NewQueue("q")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.PopContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_ConcurrentPushes(t *testing.T) {
	const producers, perProducer = 8, 50
	q := NewQueue("q")

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(event(fmt.Sprintf("%d-%d", p, i)))
			}
		}(p)
	}

	seen := make(map[string]bool)
	last := make(map[int]int)
	for n := 0; n < producers*perProducer; n++ {
		e, err := q.Pop(5 * time.Second)
		require.NoError(t, err)
		require.False(t, seen[e.ID], "duplicate event %s", e.ID)
		seen[e.ID] = true

		var p, i int
		_, err = fmt.Sscanf(e.ID, "%d-%d", &p, &i)
		require.NoError(t, err)
		if prev, ok := last[p]; ok {
			assert.Greater(t, i, prev, "producer %d out of order", p)
		}
		last[p] = i
	}
	wg.Wait()

	assert.Len(t, seen, producers*perProducer)
	_, err := q.Pop(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestQueue_AppenderAndBackend(t *testing.T) {
	q := NewQueue("capture")
	assert.Equal(t, "capture", q.Name())
	require.NoError(t, q.Append(event("a")))
	require.NoError(t, q.Emit(event("b")))
	assert.Equal(t, 2, q.Len())
}

func TestCapture_ResetsAcrossTests(t *testing.T) {
	q := NewQueue("shared")

	t.Run("A", func(t *testing.T) {
		Capture(t, q)
		q.Push(event("from-A"))
	})
	t.Run("B", func(t *testing.T) {
		Capture(t, q)
		RequireNoEvent(t, q, 20*time.Millisecond)
	})

	q.Push(event("outside"))
	t.Run("C", func(t *testing.T) {
		Capture(t, q)
		assert.Equal(t, 0, q.Len(), "events pushed before the test are dropped")
		q.Push(event("from-C"))
		assert.Equal(t, "from-C", RequireSingleEvent(t, q).ID)
	})
}
