package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueNeverOverlaps(t *testing.T) {
	q := NewQueue()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = q.Enqueue(context.Background(), func(ctx context.Context) (string, error) {
				n := atomic.AddInt32(&active, 1)
				if n > atomic.LoadInt32(&maxActive) {
					atomic.StoreInt32(&maxActive, n)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return "ok", nil
			})
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestQueueFailureDoesNotStall(t *testing.T) {
	q := NewQueue()

	var mu sync.Mutex
	var order []int
	record := func(n int) {
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
	}

	// three jobs submitted in order: succeed, fail fast, succeed
	results := make([]error, 3)
	var wg sync.WaitGroup
	start := make(chan struct{})

	wg.Add(3)
	go func() {
		defer wg.Done()
		_, results[0] = q.Enqueue(context.Background(), func(ctx context.Context) (string, error) {
			close(start)
			time.Sleep(10 * time.Millisecond)
			record(1)
			return "one", nil
		})
	}()
	<-start
	go func() {
		defer wg.Done()
		_, results[1] = q.Enqueue(context.Background(), func(ctx context.Context) (string, error) {
			time.Sleep(5 * time.Millisecond)
			record(2)
			return "", errors.New("boom")
		})
	}()
	time.Sleep(2 * time.Millisecond)
	go func() {
		defer wg.Done()
		_, results[2] = q.Enqueue(context.Background(), func(ctx context.Context) (string, error) {
			record(3)
			return "three", nil
		})
	}()
	wg.Wait()

	require.NoError(t, results[0])
	require.EqualError(t, results[1], "boom")
	require.NoError(t, results[2])
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestQueuePanicIsIsolated(t *testing.T) {
	q := NewQueue()

	_, err := q.Enqueue(context.Background(), func(ctx context.Context) (string, error) {
		panic("compiler exploded")
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "compiler exploded")

	svg, err := q.Enqueue(context.Background(), func(ctx context.Context) (string, error) {
		return "<svg/>", nil
	})
	require.NoError(t, err)
	require.Equal(t, "<svg/>", svg)
}

func TestQueueCancelledWaiterReleasesSlot(t *testing.T) {
	q := NewQueue()

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = q.Enqueue(context.Background(), func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "slow", nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Enqueue(ctx, func(ctx context.Context) (string, error) {
		t.Error("cancelled job must not run")
		return "", nil
	})
	require.ErrorIs(t, err, context.Canceled)

	// the queue must still drain past the abandoned slot
	done := make(chan string, 1)
	go func() {
		svg, _ := q.Enqueue(context.Background(), func(ctx context.Context) (string, error) {
			return "after", nil
		})
		done <- svg
	}()

	close(release)
	select {
	case svg := <-done:
		require.Equal(t, "after", svg)
	case <-time.After(time.Second):
		t.Fatal("queue stalled behind cancelled waiter")
	}
	wg.Wait()
}
