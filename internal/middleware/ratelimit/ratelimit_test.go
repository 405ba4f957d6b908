package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestAllowWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	l := NewLimiter(Config{RequestsPerMinute: 2, Now: clock.Now})
	defer l.Stop()

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Fatal("third request in the window should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("other clients have their own budget")
	}

	clock.Advance(time.Minute)
	if !l.Allow("a") {
		t.Fatal("budget should reset after a minute")
	}
}

func TestCleanupDropsStaleClients(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	l := NewLimiter(Config{RequestsPerMinute: 1, Now: clock.Now})
	defer l.Stop()

	l.Allow("a")
	clock.Advance(90 * time.Second)
	l.Allow("b")
	clock.Advance(45 * time.Second)
	l.cleanup()

	if got := l.ActiveClients(); got != 1 {
		t.Fatalf("ActiveClients = %d, want 1", got)
	}
}

func TestMiddleware(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	l := NewLimiter(Config{RequestsPerMinute: 1, Now: clock.Now})
	defer l.Stop()

	h := l.Middleware(func(r *http.Request) string { return r.RemoteAddr }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/moods", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Fatalf("request %d: status %d, want %d", i, rr.Code, want)
		}
		if want == http.StatusTooManyRequests && rr.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q", rr.Header().Get("Retry-After"))
		}
	}
}

func TestNewLimiterDefaults(t *testing.T) {
	l := NewLimiter(Config{})
	defer l.Stop()
	if l.limit != 60 {
		t.Fatalf("limit = %d, want 60", l.limit)
	}
	l.Stop()
}
