// Package ratelimit implements fixed-window quotas keyed by (key, windowStart).
//
// The Limiter computes the window bucket and asks a Counter to atomically
// increment it. MemoryCounter serves single-instance deployments; RedisCounter
// shares the counters between instances.
package ratelimit

import (
	"context"
	"time"

	"github.com/folio-labs/portfolio-api/pkg/metrics"
)

// Counter atomically increments the hit count for key in the window starting
// at windowStart and returns the new value.
type Counter interface {
	Incr(ctx context.Context, key string, windowStart time.Time, window time.Duration) (int64, error)
	Name() string
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before the window resets.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.ResetAt.Before(now) {
		return 0
	}
	return d.ResetAt.Sub(now)
}

type Limiter struct {
	counter Counter
	quota   int
	window  time.Duration
	now     func() time.Time
}

// NewLimiter allows quota hits per key in every window.
func NewLimiter(c Counter, quota int, window time.Duration) *Limiter {
	if quota <= 0 {
		quota = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{counter: c, quota: quota, window: window, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func (l *Limiter) Quota() int            { return l.quota }
func (l *Limiter) Window() time.Duration { return l.window }
func (l *Limiter) Now() time.Time        { return l.now() }

// Allow records one hit for key and reports whether it fits in the quota.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if key == "" {
		key = "unknown"
	}
	start := l.now().UTC().Truncate(l.window)
	cnt, err := l.counter.Incr(ctx, key, start, l.window)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{
		Allowed:   cnt <= int64(l.quota),
		Limit:     l.quota,
		Remaining: l.quota - int(cnt),
		ResetAt:   start.Add(l.window),
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if d.Allowed {
		metrics.RateLimitAllowed.WithLabelValues(l.counter.Name()).Inc()
	} else {
		metrics.RateLimitRejected.WithLabelValues(l.counter.Name()).Inc()
	}
	return d, nil
}
