package http

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/docrelay/internal/server/metrics"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
)

// callerWindow is the sliding log of one caller address, oldest first.
type callerWindow struct {
	mu   sync.Mutex
	hits []time.Time
}

// RateLimiter admits at most max requests per caller address within any
// window. Stale timestamps are evicted lazily when the caller is next seen;
// the least recently seen callers are dropped once capacity is reached.
type RateLimiter struct {
	window time.Duration
	max    int

	mu      sync.Mutex
	callers *lru.Cache[string, *callerWindow]
	now     func() time.Time
}

func NewRateLimiter(window time.Duration, max, capacity int) (*RateLimiter, error) {
	if window <= 0 || max <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d per %s", max, window)
	}
	callers, err := lru.New[string, *callerWindow](capacity)
	if err != nil {
		return nil, fmt.Errorf("rate limit table: %w", err)
	}
	return &RateLimiter{window: window, max: max, callers: callers, now: time.Now}, nil
}

func (l *RateLimiter) windowFor(key string) *callerWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w, ok := l.callers.Get(key); ok {
		return w
	}
	w := &callerWindow{}
	l.callers.Add(key, w)
	return w
}

// Allow records a request from key and reports whether it is admitted.
// Rejected requests are not recorded.
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()
	start := now.Add(-l.window)

	w := l.windowFor(key)
	w.mu.Lock()
	defer w.mu.Unlock()

	i := 0
	for i < len(w.hits) && w.hits[i].Before(start) {
		i++
	}
	w.hits = w.hits[i:]

	if len(w.hits) >= l.max {
		return false
	}
	w.hits = append(w.hits, now)
	return true
}

// Middleware rejects over-limit callers with 429, keyed by client IP.
func (l *RateLimiter) Middleware(obs metrics.Observer) gin.HandlerFunc {
	if obs == nil {
		obs = metrics.Nop()
	}
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			obs.RecordRateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}
