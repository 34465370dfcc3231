/*
Package limiter provides token-bucket rate limiting keyed by an arbitrary string.

The development backend keys it by client IP to throttle authentication attempts; the terminal
client keys it by API route so a burst of user intents cannot flood the backend. Idle buckets
are swept periodically to bound memory.
*/
package limiter

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"whatsgram/internal/pkg/errs"
	"whatsgram/internal/pkg/logx"
	"whatsgram/internal/pkg/resp"
)

// sweepInterval is how often idle buckets are removed.
const sweepInterval = 3 * time.Minute

// KeyedLimiter holds one rate.Limiter per key.
type KeyedLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	// r is the refill rate in events per second; b is the bucket size.
	r rate.Limit
	b int

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a KeyedLimiter and starts its sweeper. Call Close to stop the sweeper.
func New(r rate.Limit, b int) *KeyedLimiter {
	l := &KeyedLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		stop:   make(chan struct{}),
	}

	go l.sweep()

	return l
}

// Get returns the limiter for key, creating it on first use.
func (l *KeyedLimiter) Get(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists = l.limits[key]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limits[key] = limiter
	}

	return limiter
}

// Allow reports whether an event for key may happen now.
func (l *KeyedLimiter) Allow(key string) bool {
	return l.Get(key).Allow()
}

// Wait blocks until an event for key is permitted or ctx is done.
func (l *KeyedLimiter) Wait(ctx context.Context, key string) error {
	return l.Get(key).Wait(ctx)
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limits)
}

// Close stops the sweeper goroutine.
func (l *KeyedLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// sweep periodically drops buckets that are full, i.e. untouched for a while.
func (l *KeyedLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			removed := l.prune(now)
			if removed > 0 {
				logx.Debug("Rate limiter sweep", "removed", removed, "remaining", l.Len())
			}
		}
	}
}

// prune removes every bucket whose tokens are back at burst capacity at now.
func (l *KeyedLimiter) prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for key, limiter := range l.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(l.limits, key)
			count++
		}
	}
	return count
}

// ClientIP returns the host part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}

// Middleware rejects requests over the per-IP limit with ErrRateLimitExceeded.
func (l *KeyedLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)

		if !l.Allow(ip) {
			logx.Warn("Request rejected: rate limit exceeded.", "ip", ip, "path", r.URL.Path)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
