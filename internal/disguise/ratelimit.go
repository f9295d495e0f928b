package disguise

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultMinDelay = 2000 * time.Millisecond
	DefaultMaxDelay = 5000 * time.Millisecond
)

// RateLimiter spaces outbound requests by a random delay measured from the
// previous request. One instance is shared by every backend that should be
// paced together; it owns the last-request clock.
type RateLimiter struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	last time.Time

	MinDelay time.Duration
	MaxDelay time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRateLimiter(minDelay, maxDelay time.Duration, src rand.Source) *RateLimiter {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	if minDelay < 0 {
		minDelay = 0
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &RateLimiter{
		rnd:      rand.New(src),
		MinDelay: minDelay,
		MaxDelay: maxDelay,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Acquire blocks until the caller may send its request. Concurrent callers
// each reserve their own slot, so they leave in order, one delay apart.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	wait := r.reserve()
	if wait <= 0 {
		return ctx.Err()
	}
	return r.sleep(ctx, wait)
}

func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.last.IsZero() {
		r.last = now
		return 0
	}

	next := r.last.Add(r.delayLocked())
	if next.Before(now) {
		r.last = now
		return 0
	}
	r.last = next
	return next.Sub(now)
}

func (r *RateLimiter) delayLocked() time.Duration {
	span := r.MaxDelay - r.MinDelay
	if span <= 0 {
		return r.MinDelay
	}
	return r.MinDelay + time.Duration(r.rnd.Int63n(int64(span)+1))
}

// Last reports when the most recent slot was handed out.
func (r *RateLimiter) Last() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
