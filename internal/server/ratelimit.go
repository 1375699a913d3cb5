package server

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter implements a token bucket rate limiter.
type RateLimiter struct {
	lastUpdate time.Time
	rate       float64
	burst      int
	tokens     float64
	mu         sync.Mutex
}

// NewRateLimiter creates a rate limiter allowing rate requests per second
// with the given burst.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     float64(burst),
		lastUpdate: time.Now(),
	}
}

// Allow reports whether a request should be admitted.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastUpdate).Seconds()
	rl.tokens += elapsed * rl.rate
	if rl.tokens > float64(rl.burst) {
		rl.tokens = float64(rl.burst)
	}
	rl.lastUpdate = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// lastUpdateTime returns the limiter's last activity, for idle cleanup.
func (rl *RateLimiter) lastUpdateTime() time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.lastUpdate
}

// PerClientRateLimiter keys token buckets by client address. Idle buckets
// are dropped periodically so the map tracks active clients only.
type PerClientRateLimiter struct {
	lastCleanup     time.Time
	clients         map[string]*RateLimiter
	rate            float64
	burst           int
	cleanupInterval time.Duration
	maxIdleTime     time.Duration
	mu              sync.Mutex
}

// NewPerClientRateLimiter creates a per-client rate limiter.
func NewPerClientRateLimiter(rate float64, burst int) *PerClientRateLimiter {
	return &PerClientRateLimiter{
		rate:            rate,
		burst:           burst,
		clients:         make(map[string]*RateLimiter),
		cleanupInterval: 5 * time.Minute,
		maxIdleTime:     10 * time.Minute,
		lastCleanup:     time.Now(),
	}
}

// Allow reports whether a request from the given client should be admitted.
func (p *PerClientRateLimiter) Allow(clientKey string) bool {
	p.mu.Lock()
	if time.Since(p.lastCleanup) > p.cleanupInterval {
		p.cleanupLocked()
	}
	limiter, ok := p.clients[clientKey]
	if !ok {
		limiter = NewRateLimiter(p.rate, p.burst)
		p.clients[clientKey] = limiter
	}
	p.mu.Unlock()

	return limiter.Allow()
}

// cleanupLocked removes idle limiters. Caller holds p.mu.
func (p *PerClientRateLimiter) cleanupLocked() {
	now := time.Now()
	for key, limiter := range p.clients {
		if now.Sub(limiter.lastUpdateTime()) > p.maxIdleTime {
			delete(p.clients, key)
		}
	}
	p.lastCleanup = now
}

// RateLimit is middleware applying per-client rate limiting keyed by
// RemoteAddr (RealIP middleware runs first, so this is the client address).
func RateLimit(limiter *PerClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.RemoteAddr) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
