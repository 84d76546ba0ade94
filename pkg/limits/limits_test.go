package limits

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock { return &clock{t: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)} }

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", ClientIP(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", ClientIP(req))
}

func TestForwardedIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:80"
	assert.Equal(t, "10.0.0.1", ForwardedIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", ForwardedIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ForwardedIP(req))
}

func TestRateLimiter_Allow(t *testing.T) {
	c := newClock()
	rl := NewRateLimiter(1, nil)
	rl.now = c.now

	// burst of two
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys have separate buckets")
	assert.Equal(t, int64(1), rl.Rejected())

	c.advance(time.Second)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	c := newClock()
	rl := NewRateLimiter(5, nil)
	rl.now = c.now

	rl.Allow("old")
	c.advance(10 * time.Minute)
	rl.Allow("new")
	require.Equal(t, 2, rl.Len())

	assert.Equal(t, 1, rl.Sweep(5*time.Minute))
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiter_Middleware(t *testing.T) {
	c := newClock()
	rl := NewRateLimiter(0.5, nil)
	rl.now = c.now
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, get().Code)
	rec := get()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestConnectionLimiter(t *testing.T) {
	cl := NewConnectionLimiter(2, nil)

	assert.True(t, cl.Acquire("a"))
	assert.True(t, cl.Acquire("a"))
	assert.False(t, cl.Acquire("a"))
	assert.True(t, cl.Acquire("b"))
	assert.Equal(t, 2, cl.Count("a"))
	assert.Equal(t, int64(1), cl.Blocked())

	cl.Release("a")
	assert.Equal(t, 1, cl.Count("a"))
	assert.True(t, cl.Acquire("a"))

	cl.Release("b")
	assert.Equal(t, 0, cl.Count("b"))
}

func TestConnectionLimiter_Gate(t *testing.T) {
	cl := NewConnectionLimiter(1, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4000"

	release, ok := cl.Gate(req)
	require.True(t, ok)
	_, ok = cl.Gate(req)
	assert.False(t, ok)

	release()
	release()
	assert.Equal(t, 0, cl.Count("192.0.2.7"), "release runs once")

	_, ok = cl.Gate(req)
	assert.True(t, ok)
}
