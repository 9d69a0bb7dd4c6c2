package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/response"
	"golang.org/x/time/rate"
)

// ipLimiter holds a rate limiter and last-seen time per IP.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds the state for token-bucket IP rate limiting, used on
// public read endpoints where bursts are acceptable.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	rps      rate.Limit
	burst    int
}

// NewRateLimiter creates a new RateLimiter.
// rps is the allowed requests per second; burst is the max burst size.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*ipLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	// Background cleanup of stale entries every 3 minutes
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.limiters[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[ip] = &ipLimiter{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// cleanup removes IP entries not seen for 5 minutes.
func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(3 * time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.limiters {
			if time.Since(v.lastSeen) > 5*time.Minute {
				delete(rl.limiters, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware returns a Gin middleware that enforces IP-based rate limiting.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := rl.getLimiter(ip)

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": "too many requests, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// --- Sliding window limiter ---

// windowEntry holds request timestamps for one key inside the current window.
type windowEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// WindowLimiter enforces a sliding-window request count per key. The key is
// the client IP plus the username when the request carries one, so a single
// address cannot exhaust the budget of every account behind a NAT. Exceeding
// the limit yields 429 with a Retry-After header. Used on auth endpoints
// (refresh, login) where the budget is an absolute count per window rather
// than a sustained rate.
type WindowLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	window  time.Duration
	max     int
	now     func() time.Time // injectable for tests
}

// NewWindowLimiter creates a sliding-window limiter allowing max requests
// per window for each key.
func NewWindowLimiter(window time.Duration, max int) *WindowLimiter {
	wl := &WindowLimiter{
		entries: make(map[string]*windowEntry),
		window:  window,
		max:     max,
		now:     time.Now,
	}
	go wl.cleanup()
	return wl
}

// Allow records one request for key and reports whether it is within the
// limit. When rejected, retryAfter is the time until the oldest in-window
// request expires.
func (wl *WindowLimiter) Allow(key string) (allowed bool, retryAfter time.Duration) {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	now := wl.now()
	cutoff := now.Add(-wl.window)

	e, exists := wl.entries[key]
	if !exists {
		e = &windowEntry{}
		wl.entries[key] = e
	}
	e.lastSeen = now

	// Drop timestamps that slid out of the window
	kept := e.timestamps[:0]
	for _, ts := range e.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.timestamps = kept

	if len(e.timestamps) >= wl.max {
		oldest := e.timestamps[0]
		return false, oldest.Sub(cutoff)
	}

	e.timestamps = append(e.timestamps, now)
	return true, 0
}

// cleanup removes keys idle for two full windows.
func (wl *WindowLimiter) cleanup() {
	for {
		time.Sleep(3 * time.Minute)
		wl.mu.Lock()
		for key, e := range wl.entries {
			if wl.now().Sub(e.lastSeen) > 2*wl.window {
				delete(wl.entries, key)
			}
		}
		wl.mu.Unlock()
	}
}

// Middleware returns a Gin middleware enforcing the window limit per
// IP+account key.
func (wl *WindowLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if username := GetUsername(c); username != "" {
			key += ":" + username
		}

		allowed, retryAfter := wl.Allow(key)
		if !allowed {
			sec := int(retryAfter.Seconds())
			if sec < 1 {
				sec = 1
			}
			response.TooManyRequests(c, sec)
			c.Abort()
			return
		}

		c.Next()
	}
}
