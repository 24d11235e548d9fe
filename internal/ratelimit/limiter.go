// Package ratelimit provides a process-wide pacing gate for upstream API
// calls. The free Alpha Vantage tier allows 5 calls per minute, so callers
// share one limiter and block until their slot opens.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum interval between granted slots. All callers
// contend on one mutex, so concurrent acquirers are granted strictly one at
// a time, each at least interval after the previous grant.
type Limiter struct {
	mu        sync.Mutex
	interval  time.Duration
	lastGrant time.Time
	wait      func(context.Context, time.Duration) error // stubbed in tests
}

// New creates a limiter with the given minimum interval between grants.
// A non-positive interval disables pacing.
func New(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		wait:     sleepContext,
	}
}

// AcquireSlot blocks until at least the configured interval has elapsed since
// the previous grant, then records the grant time. The mutex is held across
// the wait so waiters are serialized rather than released in a thundering
// herd. A cancelled context aborts the wait without consuming the slot.
func (l *Limiter) AcquireSlot(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.interval <= 0 {
		l.lastGrant = time.Now()
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if !l.lastGrant.IsZero() {
		if wait := l.interval - time.Since(l.lastGrant); wait > 0 {
			if err := l.wait(ctx, wait); err != nil {
				return err
			}
		}
	}
	l.lastGrant = time.Now()
	return nil
}

// Interval returns the configured minimum spacing between grants.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// sleepContext sleeps for d or until the context is done, whichever comes
// first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
