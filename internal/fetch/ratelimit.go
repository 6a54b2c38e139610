package fetch

import (
	"context"
	"sync"
	"time"
)

// limiter enforces a minimum interval between requests to the same host.
//
// The check-and-update for a host is a single critical section: the caller's
// start time is recorded before the lock is released, so two concurrent
// fetches to one host cannot both observe a stale last-request time and
// proceed without waiting. The sleep itself happens outside the lock.
type limiter struct {
	minInterval time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// newLimiter creates a limiter allowing requestsPerSecond per host.
func newLimiter(requestsPerSecond float64) *limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &limiter{
		minInterval: time.Duration(float64(time.Second) / requestsPerSecond),
		last:        make(map[string]time.Time),
	}
}

// wait blocks until a request to host is allowed, or ctx is done.
func (l *limiter) wait(ctx context.Context, host string) error {
	l.mu.Lock()
	now := time.Now()
	delay := l.minInterval - now.Sub(l.last[host])
	if delay < 0 {
		delay = 0
	}
	l.last[host] = now.Add(delay)
	l.mu.Unlock()

	if delay == 0 {
		return ctx.Err()
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
