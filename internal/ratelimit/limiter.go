package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	initialBackoff = time.Second
	defaultMaxWait = 2 * time.Minute
)

// Limiter paces requests to one upstream: a fixed pause between requests,
// plus an exponential backoff after the upstream signals rate limiting
type Limiter struct {
	limiter *rate.Limiter
	name    string
	mu      sync.Mutex
	backoff time.Duration
	maxWait time.Duration
}

// NewLimiter creates a limiter that lets one request through per pause.
// A pause of zero or less disables pacing.
func NewLimiter(name string, pause time.Duration) *Limiter {
	limit := rate.Inf
	if pause > 0 {
		limit = rate.Every(pause)
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		name:    name,
		maxWait: defaultMaxWait,
	}
}

// Wait blocks for the current backoff, then for the next slot, or until
// ctx is cancelled
func (l *Limiter) Wait(ctx context.Context) error {
	if d := l.Backoff(); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may happen now
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SignalRateLimited should be called when a 429 response is received.
// It doubles the backoff, up to maxWait.
func (l *Limiter) SignalRateLimited() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backoff == 0 {
		l.backoff = initialBackoff
	} else {
		l.backoff *= 2
	}
	if l.backoff > l.maxWait {
		l.backoff = l.maxWait
	}
}

// ResetBackoff clears the backoff after a successful request
func (l *Limiter) ResetBackoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.backoff = 0
}

// Backoff returns the current extra wait
func (l *Limiter) Backoff() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backoff
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}
