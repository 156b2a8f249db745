package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/animeval/internal/anim"
)

func TestUpdateQueue_FIFO(t *testing.T) {
	q := newUpdateQueue()
	for i := 1; i <= 3; i++ {
		require.True(t, q.Enqueue(Update{Time: float64(i)}))
	}

	for i := 1; i <= 3; i++ {
		u, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, float64(i), u.Time)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestUpdateQueue_Len(t *testing.T) {
	q := newUpdateQueue()
	assert.Equal(t, 0, q.Len())

	q.Enqueue(Update{Time: 1, Mask: anim.RecalcAnim})
	q.Enqueue(Update{Time: 2})
	assert.Equal(t, 2, q.Len())

	q.TryDequeue()
	assert.Equal(t, 1, q.Len())
	q.TryDequeue()
	assert.Equal(t, 0, q.Len())
}

func TestUpdateQueue_Close(t *testing.T) {
	q := newUpdateQueue()
	q.Enqueue(Update{Time: 1})
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(Update{Time: 2}), "enqueue after close should return false")
	u, ok := q.TryDequeue()
	require.True(t, ok, "queued updates survive close")
	assert.Equal(t, 1.0, u.Time)

	select {
	case <-q.Wait():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("closed queue should wake waiters")
	}
}

func TestUpdateQueue_SignalCoalesces(t *testing.T) {
	q := newUpdateQueue()
	q.Enqueue(Update{Time: 1})
	q.Enqueue(Update{Time: 2})

	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("two enqueues should leave a single signal")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestUpdateQueue_ThreadSafe(t *testing.T) {
	q := newUpdateQueue()
	const goroutines, per = 10, 100

	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range per {
				q.Enqueue(Update{Time: float64(g*per + i)})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, goroutines*per, q.Len())

	seen := make(map[float64]bool)
	for {
		u, ok := q.TryDequeue()
		if !ok {
			break
		}
		seen[u.Time] = true
	}
	assert.Len(t, seen, goroutines*per)
}
