package ingest

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RateLimiter sleeps a uniform random amount in [minDelay, maxDelay]
// between consecutive requests against the same source, mirroring the
// Python RateLimiter.wait. Not shared across sources or runs.
type RateLimiter struct {
	minDelay time.Duration
	maxDelay time.Duration
	rnd      *rand.Rand

	mu   sync.Mutex
	last time.Time
}

// NewRateLimiter builds a limiter bounded by [minDelay, maxDelay]. If
// maxDelay <= minDelay, the gap enforced between consecutive requests
// is exactly minDelay.
func NewRateLimiter(minDelay, maxDelay time.Duration, seed int64) *RateLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &RateLimiter{minDelay: minDelay, maxDelay: maxDelay, rnd: rand.New(rand.NewSource(seed))}
}

// Wait blocks until the rate limit is satisfied or ctx is done. The
// first call for a fresh limiter never sleeps.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	if r.last.IsZero() {
		r.last = time.Now()
		r.mu.Unlock()
		return nil
	}

	delay := r.minDelay
	if r.maxDelay > r.minDelay {
		delay = r.minDelay + time.Duration(r.rnd.Int63n(int64(r.maxDelay-r.minDelay)))
	}
	elapsed := time.Since(r.last)
	sleepFor := delay - elapsed
	r.last = time.Now().Add(maxDuration(sleepFor, 0))
	r.mu.Unlock()

	if sleepFor <= 0 {
		return nil
	}

	t := time.NewTimer(sleepFor)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
