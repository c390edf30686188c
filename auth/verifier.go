package auth

import (
	"context"
	"sync"
	"time"
)

// CachedVerifier remembers positive answers of inner for ttl so that RequireAuth does
// not query the database on every request. Negative answers are never cached.
type CachedVerifier struct {
	inner UserVerifier
	ttl   time.Duration
	now   func() time.Time

	mu    sync.RWMutex
	known map[uint]time.Time
}

func NewCachedVerifier(inner UserVerifier, ttl time.Duration) *CachedVerifier {
	return &CachedVerifier{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
		known: make(map[uint]time.Time),
	}
}

// Verify has the UserVerifier signature; pass it to SetUserVerifier.
func (c *CachedVerifier) Verify(ctx context.Context, uid uint) bool {
	c.mu.RLock()
	expires, ok := c.known[uid]
	c.mu.RUnlock()
	if ok && c.now().Before(expires) {
		return true
	}

	if !c.inner(ctx, uid) {
		c.Invalidate(uid)
		return false
	}
	c.mu.Lock()
	c.known[uid] = c.now().Add(c.ttl)
	c.mu.Unlock()
	return true
}

// Invalidate forgets uid, e.g. after the account was removed.
func (c *CachedVerifier) Invalidate(uid uint) {
	c.mu.Lock()
	delete(c.known, uid)
	c.mu.Unlock()
}
