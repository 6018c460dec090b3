// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute, false)
	defer rl.Stop()

	for i := range 3 {
		if ok, _ := rl.allow("test-ip"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, wait := rl.allow("test-ip")
	if ok {
		t.Error("4th request should be rate-limited")
	}
	if wait <= 0 || wait > time.Minute {
		t.Errorf("wait = %v", wait)
	}
	if ok, _ := rl.allow("other-ip"); !ok {
		t.Error("different IP should be allowed")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, false)
	defer rl.Stop()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("test-ip")
	rl.allow("test-ip")
	if ok, _ := rl.allow("test-ip"); ok {
		t.Error("should be rate-limited")
	}

	now = now.Add(61 * time.Second)
	if ok, _ := rl.allow("test-ip"); !ok {
		t.Error("should be allowed after window expires")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, false)
	defer rl.Stop()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("old")
	now = now.Add(2 * time.Minute)
	rl.allow("fresh")
	rl.cleanup()

	if _, ok := rl.clients["old"]; ok {
		t.Error("idle entry not removed")
	}
	if _, ok := rl.clients["fresh"]; !ok {
		t.Error("active entry removed")
	}
	rl.Stop()
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, false)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote, xff string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remote
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := range 2 {
		if rr := send("192.168.1.1:12345", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i+1, rr.Code)
		}
	}

	// A forged header does not buy a fresh bucket when proxies are not trusted.
	rr := send("192.168.1.1:23456", "10.9.9.9")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if body := decodeError(t, rr); body.Error.Code != "rate_limited" {
		t.Errorf("code = %q", body.Error.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		remote     string
		xff        string
		realIP     string
		want       string
	}{
		{"remote addr", false, "203.0.113.5:4000", "", "", "203.0.113.5"},
		{"ipv6 remote", false, "[2001:db8::1]:4000", "", "", "2001:db8::1"},
		{"untrusted xff ignored", false, "203.0.113.5:4000", "198.51.100.1", "", "203.0.113.5"},
		{"trusted xff first hop", true, "10.0.0.1:4000", "198.51.100.1, 10.0.0.1", "", "198.51.100.1"},
		{"trusted real ip", true, "10.0.0.1:4000", "", "198.51.100.2", "198.51.100.2"},
		{"no port", false, "203.0.113.5", "", "", "203.0.113.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(1, time.Minute, tt.trustProxy)
			defer rl.Stop()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := rl.clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
