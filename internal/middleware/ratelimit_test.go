package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimit_AllowsNormalRequests(t *testing.T) {
	rl := NewRateLimiter(10, 10) // 10 rps, burst 10

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// First request should pass
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRateLimit_BlocksExcessiveRequests(t *testing.T) {
	rl := NewRateLimiter(1, 2) // 1 rps, burst 2

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Send burst+1 requests rapidly, last one should be blocked
	var lastCode int
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		router.ServeHTTP(w, req)
		lastCode = w.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("expected status %d after burst exceeded, got %d", http.StatusTooManyRequests, lastCode)
	}
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1) // 1 rps, burst 1

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// First IP uses its burst
	w1 := httptest.NewRecorder()
	req1, _ := http.NewRequest("GET", "/test", nil)
	req1.RemoteAddr = "10.0.0.1:12345"
	router.ServeHTTP(w1, req1)

	if w1.Code != http.StatusOK {
		t.Errorf("IP1 first request: expected %d, got %d", http.StatusOK, w1.Code)
	}

	// Second IP should still have its own burst
	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/test", nil)
	req2.RemoteAddr = "10.0.0.2:12345"
	router.ServeHTTP(w2, req2)

	if w2.Code != http.StatusOK {
		t.Errorf("IP2 first request: expected %d, got %d", http.StatusOK, w2.Code)
	}
}

func TestWindowLimiter_AllowsUpToMax(t *testing.T) {
	wl := NewWindowLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		allowed, _ := wl.Allow("key")
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, retryAfter := wl.Allow("key")
	if allowed {
		t.Error("request over the limit should be rejected")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Errorf("retryAfter = %v, expected within (0, 1m]", retryAfter)
	}
}

func TestWindowLimiter_NewWindowResets(t *testing.T) {
	current := time.Now()
	wl := NewWindowLimiter(time.Minute, 2)
	wl.now = func() time.Time { return current }

	wl.Allow("key")
	wl.Allow("key")

	if allowed, _ := wl.Allow("key"); allowed {
		t.Fatal("third request in window should be rejected")
	}

	// Advance past the window; the old requests slide out
	current = current.Add(61 * time.Second)
	if allowed, _ := wl.Allow("key"); !allowed {
		t.Error("request in a fresh window should be allowed")
	}
}

func TestWindowLimiter_IndependentKeys(t *testing.T) {
	wl := NewWindowLimiter(time.Minute, 1)

	if allowed, _ := wl.Allow("1.2.3.4:alice"); !allowed {
		t.Error("first request for alice should be allowed")
	}
	if allowed, _ := wl.Allow("1.2.3.4:bob"); !allowed {
		t.Error("bob should have his own budget")
	}
	if allowed, _ := wl.Allow("1.2.3.4:alice"); allowed {
		t.Error("alice's second request should be rejected")
	}
}

func TestWindowLimiter_Middleware(t *testing.T) {
	wl := NewWindowLimiter(time.Minute, 2)

	router := gin.New()
	router.Use(wl.Middleware())
	router.POST("/login", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	var lastW *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		lastW = httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "10.0.0.9:12345"
		router.ServeHTTP(lastW, req)
	}

	if lastW.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d after limit exceeded, got %d", http.StatusTooManyRequests, lastW.Code)
	}
	if lastW.Header().Get("Retry-After") == "" {
		t.Error("429 response should carry a Retry-After header")
	}
}
