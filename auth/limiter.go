package auth

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles login attempts per client IP.
type Limiter struct {
	mu      sync.Mutex
	every   rate.Limit
	burst   int
	ttl     time.Duration
	clients map[string]*limiterEntry
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLimiter allows perMinute attempts per IP with the given burst.
func NewLimiter(perMinute, burst int) *Limiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = perMinute
	}
	return &Limiter{
		every:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		ttl:     10 * time.Minute,
		clients: make(map[string]*limiterEntry),
	}
}

// Allow reports whether one more attempt from r is allowed now.
func (l *Limiter) Allow(r *http.Request) bool {
	return l.allowKey(clientIP(r), time.Now())
}

func (l *Limiter) allowKey(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.clients {
		if now.Sub(e.lastSeen) > l.ttl {
			delete(l.clients, k)
		}
	}
	e, ok := l.clients[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.every, l.burst)}
		l.clients[key] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
