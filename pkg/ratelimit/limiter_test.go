package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/folio-labs/portfolio-api/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLimiter_QuotaPerWindow(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	lim := NewLimiter(NewMemoryCounter(), 10, 15*time.Minute).WithClock(clk.Now)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		d, err := lim.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		require.True(t, d.Allowed, "hit %d should be allowed", i)
		require.Equal(t, 10-i, d.Remaining)
	}

	d, err := lim.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)
	require.Equal(t, time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC), d.ResetAt)
	require.Equal(t, 15*time.Minute, d.RetryAfter(clk.Now()))

	// a different key has its own quota
	d, err = lim.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// next window starts fresh
	clk.Advance(15 * time.Minute)
	d, err = lim.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 9, d.Remaining)
}

func TestLimiter_EmptyKeyIsBucketed(t *testing.T) {
	lim := NewLimiter(NewMemoryCounter(), 1, time.Minute)
	d, err := lim.Allow(context.Background(), "")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	d, err = lim.Allow(context.Background(), "unknown")
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestLimiter_RecordsMetrics(t *testing.T) {
	allowedBefore := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	rejectedBefore := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory"))

	lim := NewLimiter(NewMemoryCounter(), 1, time.Minute)
	_, _ = lim.Allow(context.Background(), "k")
	_, _ = lim.Allow(context.Background(), "k")

	require.Equal(t, allowedBefore+1, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
	require.Equal(t, rejectedBefore+1, testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory")))
}

type failingCounter struct{}

func (failingCounter) Name() string { return "failing" }
func (failingCounter) Incr(context.Context, string, time.Time, time.Duration) (int64, error) {
	return 0, errors.New("counter down")
}

func TestLimiter_PropagatesCounterError(t *testing.T) {
	lim := NewLimiter(failingCounter{}, 10, time.Minute)
	_, err := lim.Allow(context.Background(), "k")
	require.Error(t, err)
}

func TestMemoryCounter_ConcurrentIncrementsAreNotLost(t *testing.T) {
	c := NewMemoryCounter()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Incr(context.Background(), "ip", start, time.Minute)
		}()
	}
	wg.Wait()
	n, err := c.Incr(context.Background(), "ip", start, time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(51), n)
}

func TestMemoryCounter_PrunesExpiredWindows(t *testing.T) {
	c := NewMemoryCounter()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for _, k := range []string{"a", "b", "c"} {
		_, err := c.Incr(context.Background(), k, start, time.Minute)
		require.NoError(t, err)
	}
	require.Equal(t, 3, c.Len())

	_, err := c.Incr(context.Background(), "a", start.Add(2*time.Minute), time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
}
