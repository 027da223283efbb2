package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

func TestIPRateLimiter_BurstThenDenied(t *testing.T) {
	// A tiny refill rate so the bucket does not recover mid-test.
	rl := NewIPRateLimiter(rate.Limit(0.001), 3, testLogger())

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request past the burst should be denied")
	}
}

func TestIPRateLimiter_PerIPIsolation(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(0.001), 1, testLogger())

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request from first IP should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("second request from first IP should be denied")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("a different IP has its own bucket")
	}
}

func TestLimit_Returns429WithRetryAfter(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(0.001), 1, testLogger())

	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.9:51234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("limited response should carry Retry-After")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("limited response Content-Type = %q, want application/json", ct)
	}
}

func TestLimit_UsesForwardedForHeader(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(0.001), 1, testLogger())

	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Both requests share a proxy address but present different client
	// IPs; each should get its own bucket.
	for _, clientIP := range []string{"203.0.113.5", "203.0.113.6"} {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:40000"
		req.Header.Set("X-Forwarded-For", clientIP)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("first request from %s should pass, got %d", clientIP, rec.Code)
		}
	}
}
