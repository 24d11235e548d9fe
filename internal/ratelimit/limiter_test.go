package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstAcquireDoesNotWait(t *testing.T) {
	l := New(12 * time.Second)

	var slept []time.Duration
	l.wait = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, l.AcquireSlot(context.Background()))
	assert.Empty(t, slept, "first grant must be immediate")
}

func TestSecondAcquireWaitsRemainder(t *testing.T) {
	l := New(12 * time.Second)

	var slept []time.Duration
	l.wait = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, l.AcquireSlot(context.Background()))
	require.NoError(t, l.AcquireSlot(context.Background()))

	if assert.Len(t, slept, 1) {
		assert.InDelta(t, float64(12*time.Second), float64(slept[0]), float64(time.Second))
	}
}

func TestElapsedTimeCountsTowardInterval(t *testing.T) {
	l := New(50 * time.Millisecond)

	require.NoError(t, l.AcquireSlot(context.Background()))
	time.Sleep(60 * time.Millisecond)

	start := time.Now()
	require.NoError(t, l.AcquireSlot(context.Background()))
	assert.Less(t, time.Since(start), 40*time.Millisecond, "interval already elapsed, no wait expected")
}

func TestZeroIntervalNeverBlocks(t *testing.T) {
	l := New(0)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = l.AcquireSlot(context.Background())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("zero-interval limiter blocked")
	}
}

func TestAcquireAbortsOnContextCancellation(t *testing.T) {
	l := New(time.Minute)

	require.NoError(t, l.AcquireSlot(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.AcquireSlot(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "cancelled waiter must not sit out the full interval")
}

func TestCancelledWaiterDoesNotConsumeSlot(t *testing.T) {
	l := New(30 * time.Millisecond)

	require.NoError(t, l.AcquireSlot(context.Background()))
	before := l.lastGrant

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, l.AcquireSlot(ctx))

	assert.Equal(t, before, l.lastGrant, "aborted acquire must not move the grant clock")
}

func TestConcurrentAcquirersAreSerialized(t *testing.T) {
	l := New(20 * time.Millisecond)

	var mu sync.Mutex
	var grants []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.AcquireSlot(context.Background()))
			mu.Lock()
			grants = append(grants, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, grants, 4)
	for i := 1; i < len(grants); i++ {
		gap := grants[i].Sub(grants[i-1])
		assert.GreaterOrEqual(t, gap, 15*time.Millisecond, "grants %d and %d too close", i-1, i)
	}
}
