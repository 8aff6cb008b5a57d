package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// IPRateLimiter throttles requests per client IP with a token bucket that
// refills continuously. State is process-local; a multi-replica deployment
// would move this to Redis.
type IPRateLimiter struct {
	perMinute float64
	burst     float64

	mu      sync.Mutex
	clients map[string]*clientBucket
	swept   time.Time
}

type clientBucket struct {
	tokens float64
	seen   time.Time
}

// NewIPRateLimiter allows perMinute sustained requests per IP, with the same
// value as the burst ceiling.
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &IPRateLimiter{
		perMinute: float64(perMinute),
		burst:     float64(perMinute),
		clients:   make(map[string]*clientBucket),
		swept:     time.Now(),
	}
}

// Handler returns the gin middleware enforcing the limit.
func (l *IPRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (l *IPRateLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > 10*time.Minute {
		l.sweep(now)
	}

	b, ok := l.clients[key]
	if !ok {
		l.clients[key] = &clientBucket{tokens: l.burst - 1, seen: now}
		return true
	}

	b.tokens += now.Sub(b.seen).Minutes() * l.perMinute
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.seen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle long enough to be full again. Caller holds mu.
func (l *IPRateLimiter) sweep(now time.Time) {
	for key, b := range l.clients {
		if now.Sub(b.seen) > 10*time.Minute {
			delete(l.clients, key)
		}
	}
	l.swept = now
}
