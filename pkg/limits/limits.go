// Package limits caps how hard a single client can use the site: page
// loads per second and concurrent live connections.
package limits

import (
	"context"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// KeyFunc derives the limiting key of a request.
type KeyFunc func(r *http.Request) string

// ClientIP keys requests by the remote address.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ForwardedIP trusts the first X-Forwarded-For entry, then X-Real-IP. Use
// it only behind a proxy that sets these headers.
func ForwardedIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return ClientIP(r)
}

// RateLimiter is a token bucket per key.
type RateLimiter struct {
	limit rate.Limit
	burst int
	key   KeyFunc
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*rateEntry

	rejected atomic.Int64
}

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond requests per key with bursts of twice
// that. A nil key uses ClientIP.
func NewRateLimiter(perSecond float64, key KeyFunc) *RateLimiter {
	if key == nil {
		key = ClientIP
	}
	return &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   max(1, int(math.Ceil(2*perSecond))),
		key:     key,
		now:     time.Now,
		entries: make(map[string]*rateEntry),
	}
}

// Allow takes a token for key.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()
	rl.mu.Lock()
	e, ok := rl.entries[key]
	if !ok {
		e = &rateEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.entries[key] = e
	}
	e.lastSeen = now
	rl.mu.Unlock()

	if e.limiter.AllowN(now, 1) {
		return true
	}
	rl.rejected.Add(1)
	return false
}

// Rejected counts refused requests.
func (rl *RateLimiter) Rejected() int64 {
	return rl.rejected.Load()
}

// Len is the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

// Sweep forgets keys idle for longer than idle.
func (rl *RateLimiter) Sweep(idle time.Duration) int {
	cutoff := rl.now().Add(-idle)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for k, e := range rl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(rl.entries, k)
			n++
		}
	}
	return n
}

// StartSweeper sweeps every interval until ctx is done.
func (rl *RateLimiter) StartSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Sweep(idle)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Middleware answers 429 once the client's bucket is empty.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(rl.key(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ConnectionLimiter caps concurrent live connections per key.
type ConnectionLimiter struct {
	maxPerKey int
	key       KeyFunc

	mu    sync.Mutex
	conns map[string]int

	blocked atomic.Int64
}

// NewConnectionLimiter allows maxPerKey open connections per key. A nil
// key uses ClientIP.
func NewConnectionLimiter(maxPerKey int, key KeyFunc) *ConnectionLimiter {
	if key == nil {
		key = ClientIP
	}
	return &ConnectionLimiter{
		maxPerKey: maxPerKey,
		key:       key,
		conns:     make(map[string]int),
	}
}

// Acquire takes a slot for key. It reports false when key is at the cap.
func (cl *ConnectionLimiter) Acquire(key string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.conns[key] >= cl.maxPerKey {
		cl.blocked.Add(1)
		return false
	}
	cl.conns[key]++
	return true
}

// Release frees a slot taken by Acquire.
func (cl *ConnectionLimiter) Release(key string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.conns[key] <= 1 {
		delete(cl.conns, key)
		return
	}
	cl.conns[key]--
}

// Count is the number of open connections of key.
func (cl *ConnectionLimiter) Count(key string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conns[key]
}

// Blocked counts refused connections.
func (cl *ConnectionLimiter) Blocked() int64 {
	return cl.blocked.Load()
}

// Gate takes a slot for the client of r. The caller runs release when
// the connection ends.
func (cl *ConnectionLimiter) Gate(r *http.Request) (release func(), ok bool) {
	key := cl.key(r)
	if !cl.Acquire(key) {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(func() { cl.Release(key) }) }, true
}
