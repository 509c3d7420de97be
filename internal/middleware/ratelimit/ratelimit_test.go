package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// clock is a settable time source for the limiter.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestLimiterWindow(t *testing.T) {
	c := newClock()
	rl := NewLimiter(Config{RequestsPerMinute: 2, Now: c.now})
	defer rl.Stop()

	if !rl.Allow("alice") || !rl.Allow("alice") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("alice") {
		t.Fatal("third request in the window should be refused")
	}
	if !rl.Allow("bob") {
		t.Fatal("other keys have their own window")
	}

	c.t = c.t.Add(time.Minute)
	if !rl.Allow("alice") {
		t.Fatal("a new window should reset the count")
	}
	if rl.Rejected() != 1 {
		t.Errorf("Rejected = %d, want 1", rl.Rejected())
	}
}

func TestLimiterSweep(t *testing.T) {
	c := newClock()
	rl := NewLimiter(Config{Now: c.now})
	defer rl.Stop()

	rl.Allow("alice")
	c.t = c.t.Add(3 * time.Minute)
	rl.Allow("bob")

	if n := rl.sweep(); n != 1 {
		t.Errorf("sweep removed %d, want 1", n)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients = %d, want 1", rl.ActiveClients())
	}
}

func TestMiddlewareRetryAfter(t *testing.T) {
	c := newClock()
	rl := NewLimiter(Config{RequestsPerMinute: 1, Now: c.now})
	defer rl.Stop()

	h := rl.Middleware(func(r *http.Request) string { return r.Header.Get("X-User-ID") }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-User-ID", "alice")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	if rr := send(); rr.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rr.Code)
	}

	c.t = c.t.Add(45 * time.Second)
	rr := send()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "15" {
		t.Errorf("Retry-After = %q, want 15", got)
	}
}

func TestRetrySeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{300 * time.Millisecond, 1},
		{14*time.Second + time.Millisecond, 15},
		{time.Minute, 60},
	}
	for _, tt := range tests {
		if got := retrySeconds(tt.in); got != tt.want {
			t.Errorf("retrySeconds(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
