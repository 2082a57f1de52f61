package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("k") || !rl.Allow("k") {
		t.Fatalf("expected first two requests to pass")
	}
	if rl.Allow("k") {
		t.Fatalf("expected third request to be limited")
	}
	if !rl.Allow("other") {
		t.Fatalf("expected separate key to pass")
	}

	now = now.Add(2 * time.Minute)
	if !rl.Allow("k") {
		t.Fatalf("expected window reset")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}

func TestRateLimiterSweepsExpiredBuckets(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for _, key := range []string{"a", "b", "c"} {
		rl.Allow(key)
	}
	if got := rl.tracked(); got != 3 {
		t.Fatalf("tracked = %d, want 3", got)
	}

	now = now.Add(2 * time.Minute)
	rl.Allow("d")
	if got := rl.tracked(); got != 1 {
		t.Fatalf("tracked after window = %d, want 1", got)
	}
}

func TestRateLimiterForwardedFor(t *testing.T) {
	handler := func(rl *RateLimiter) http.Handler {
		return rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
	}
	request := func(h http.Handler, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// без доверенного прокси заголовок не меняет ключ
	direct := handler(NewRateLimiter(1, time.Minute))
	if code := request(direct, "10.0.0.1"); code != http.StatusNoContent {
		t.Fatalf("first request: got %d", code)
	}
	if code := request(direct, "10.0.0.2"); code != http.StatusTooManyRequests {
		t.Fatalf("spoofed header should not bypass the limit, got %d", code)
	}

	proxied := handler(NewRateLimiter(1, time.Minute, TrustForwardedFor(true)))
	if code := request(proxied, "10.0.0.1, 192.168.0.1"); code != http.StatusNoContent {
		t.Fatalf("first client: got %d", code)
	}
	if code := request(proxied, "10.0.0.2"); code != http.StatusNoContent {
		t.Fatalf("second client: got %d", code)
	}
	if code := request(proxied, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("repeat client: got %d", code)
	}
}

func TestRequestIDGeneratedAndPropagated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid request id, got %q", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected header to match context id")
	}

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != incoming {
		t.Fatalf("expected incoming id %q to be kept, got %q", incoming, seen)
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", rec.Code)
	}
}
