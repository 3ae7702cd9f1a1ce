package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/folio-labs/portfolio-api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Throttle is a per-instance token-bucket limiter keyed by client IP. It caps
// request bursts across the whole API; the contact quota is enforced by the
// submission service.
type Throttle struct {
	rps   rate.Limit
	burst int
	idle  time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewThrottle(rps float64, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    10 * time.Minute,
		buckets: make(map[string]*bucket),
	}
}

// getLimiter returns (and lazily creates) the bucket for key, dropping
// buckets that have been idle for longer than t.idle.
func (t *Throttle) getLimiter(key string, now time.Time) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastSweep) > t.idle {
		for k, b := range t.buckets {
			if now.Sub(b.seen) > t.idle {
				delete(t.buckets, k)
			}
		}
		t.lastSweep = now
	}
	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(t.rps, t.burst)}
		t.buckets[key] = b
	}
	b.seen = now
	return b.lim
}

// Middleware returns the Gin handler enforcing the throttle.
func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !t.getLimiter(ip, time.Now()).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("throttle").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many requests, please slow down."})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("throttle").Inc()
		c.Next()
	}
}
