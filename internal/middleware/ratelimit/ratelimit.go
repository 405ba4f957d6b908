// Package ratelimit throttles mood submissions per client.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const window = time.Minute

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration

	// Now is the time source; nil means time.Now.
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// Limiter counts requests per key in fixed one-minute windows.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	limit   int
	now     func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type bucket struct {
	windowStart time.Time
	requests    int
}

// NewLimiter starts a limiter and its cleanup goroutine. Call Stop to end it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	l := &Limiter{
		clients:     make(map[string]*bucket),
		limit:       cfg.RequestsPerMinute,
		now:         cfg.Now,
		stopCleanup: make(chan struct{}),
	}
	go l.cleanupLoop(cfg.CleanupInterval)
	return l
}

// Allow records one request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.clients[key]
	if !ok || now.Sub(b.windowStart) >= window {
		l.clients[key] = &bucket{windowStart: now, requests: 1}
		return true
	}
	b.requests++
	return b.requests <= l.limit
}

// retryAfter is the number of whole seconds until key's window resets.
func (l *Limiter) retryAfter(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.clients[key]
	if !ok {
		return 0
	}
	left := window - l.now().Sub(b.windowStart)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup drops buckets whose window ended more than one window ago.
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-2 * window)
	for key, b := range l.clients {
		if b.windowStart.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// Middleware rejects requests over the limit. keyFunc picks the client key.
// onLimit renders the rejection; nil gives a plain 429.
func (l *Limiter) Middleware(keyFunc func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if l.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}
			if secs := l.retryAfter(key); secs > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
