package source

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces requests to the RAD site evenly. Turns are reserved in
// call order, so concurrent downloads share the budget.
type RateLimiter struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{interval: time.Second / time.Duration(requestsPerSecond)}
}

// Wait blocks until the caller's turn or until ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	now := time.Now()
	turn := now
	if r.nextAllowedAt.After(now) {
		turn = r.nextAllowedAt
	}
	r.nextAllowedAt = turn.Add(r.interval)
	r.mu.Unlock()

	delay := time.Until(turn)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
