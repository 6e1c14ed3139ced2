package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck-dev/taskdeck/internal/problem"
)

// RateLimiter is a sliding-window request counter keyed by client address.
// It is an injected component rather than ambient process state so tests can
// construct and reset their own instance.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records a hit for the key and reports whether it stays within the
// window's limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)

	recent := rl.hits[key][:0]
	for _, t := range rl.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.hits[key] = recent
		return false
	}

	rl.hits[key] = append(recent, rl.now())
	return true
}

// Reset clears all tracked windows.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.hits = make(map[string][]time.Time)
}

// Middleware rejects clients that exceed the window with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !rl.Allow(ctx.ClientIP()) {
			p := problem.New(ctx, http.StatusTooManyRequests, "Too many requests, slow down")
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, p)
			return
		}
		ctx.Next()
	}
}
