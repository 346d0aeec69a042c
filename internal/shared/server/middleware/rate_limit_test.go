package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func rateLimitRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl.Middleware())
	r.POST("/api/v1/reviews/:id/analyze", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"queued": true})
	})
	return r
}

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	r := rateLimitRouter(rl)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/r1/analyze", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusAccepted {
			t.Fatalf("request %d: status = %d, want %d", i+1, w.Code, http.StatusAccepted)
		}
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	r := rateLimitRouter(rl)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/r1/analyze", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/r1/analyze", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	r := rateLimitRouter(rl)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/r1/analyze", nil)
	first.RemoteAddr = "10.0.0.1:54321"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/r1/analyze", nil)
	second.RemoteAddr = "10.0.0.2:54321"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, second)

	if w.Code != http.StatusAccepted {
		t.Fatalf("second client status = %d, want %d", w.Code, http.StatusAccepted)
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	base := time.Now()
	rl.now = func() time.Time { return base }

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("second request in window should be blocked")
	}

	rl.now = func() time.Time { return base.Add(time.Minute + time.Second) }
	if !rl.allow("10.0.0.1") {
		t.Fatal("request after window reset should be allowed")
	}
}
