package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimitedHandler(t *testing.T, maxReqs, windowSec int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rl := NewRateLimiter(client, maxReqs, windowSec)
	return rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})), mr
}

func doLogin(handler http.Handler, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	handler, _ := newLimitedHandler(t, 3, 60)

	for i := 0; i < 3; i++ {
		if rec := doLogin(handler, "10.0.0.1:4000", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := doLogin(handler, "10.0.0.1:4000", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After 60, got %q", got)
	}
}

func TestRateLimiterKeysByForwardedClient(t *testing.T) {
	handler, _ := newLimitedHandler(t, 1, 60)

	// Two clients behind the same proxy share a RemoteAddr but carry
	// distinct X-Forwarded-For chains.
	if rec := doLogin(handler, "10.0.0.9:80", "203.0.113.7, 10.0.0.9"); rec.Code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", rec.Code)
	}
	if rec := doLogin(handler, "10.0.0.9:80", "203.0.113.7, 10.0.0.9"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first client repeat: expected 429, got %d", rec.Code)
	}
	if rec := doLogin(handler, "10.0.0.9:80", "198.51.100.2, 10.0.0.9"); rec.Code != http.StatusOK {
		t.Fatalf("second client: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterSeparatesRemoteAddrs(t *testing.T) {
	handler, _ := newLimitedHandler(t, 2, 60)

	for i := 0; i < 2; i++ {
		doLogin(handler, "1.1.1.1:1", "")
	}
	if rec := doLogin(handler, "2.2.2.2:1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unrelated address, got %d", rec.Code)
	}
}

func TestRateLimiterFailsOpenWithoutRedis(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1, 60)
	mr.Close()

	if rec := doLogin(handler, "3.3.3.3:1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 when redis is down, got %d", rec.Code)
	}
}

func TestClientIPPrecedence(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.9:80"

	if got := clientIP(req); got != "10.0.0.9" {
		t.Fatalf("remote addr: got %q", got)
	}

	req.Header.Set("X-Real-IP", "198.51.100.5")
	if got := clientIP(req); got != "198.51.100.5" {
		t.Fatalf("x-real-ip: got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.9")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("x-forwarded-for: got %q", got)
	}
}
