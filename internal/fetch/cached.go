package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultProbeCacheTTL is how long a settled probe result is reused.
const DefaultProbeCacheTTL = 5 * time.Minute

// ImageLoader is the probe surface the image check depends on.
// Load emulates a browser image load; Head is the explicit cross-site probe.
type ImageLoader interface {
	Load(ctx context.Context, url string) error
	Head(ctx context.Context, url string) error
}

// CachedLoader wraps an ImageLoader with a result cache. Concurrent probes
// of the same URL share one request, bounded by the first caller's context.
// Timeouts and cancellations are never cached.
type CachedLoader struct {
	inner ImageLoader
	ttl   time.Duration
	now   func() time.Time

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]cachedProbe
}

type cachedProbe struct {
	err     error
	expires time.Time
}

// NewCachedLoader creates a caching wrapper around inner.
func NewCachedLoader(inner ImageLoader, ttl time.Duration) *CachedLoader {
	if ttl <= 0 {
		ttl = DefaultProbeCacheTTL
	}
	return &CachedLoader{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cachedProbe),
	}
}

// Load returns the cached GET outcome for url, probing when absent or stale.
func (c *CachedLoader) Load(ctx context.Context, url string) error {
	return c.probe(ctx, "GET "+url, func(ctx context.Context) error {
		return c.inner.Load(ctx, url)
	})
}

// Head returns the cached HEAD outcome for url, probing when absent or stale.
func (c *CachedLoader) Head(ctx context.Context, url string) error {
	return c.probe(ctx, "HEAD "+url, func(ctx context.Context) error {
		return c.inner.Head(ctx, url)
	})
}

// Len returns the number of cached outcomes, expired ones included.
func (c *CachedLoader) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *CachedLoader) probe(ctx context.Context, key string, fn func(context.Context) error) error {
	c.mu.Lock()
	entry, ok := c.cache[key]
	c.mu.Unlock()
	if ok && c.now().Before(entry.expires) {
		return entry.err
	}

	_, err, _ := c.group.Do(key, func() (any, error) {
		err := fn(ctx)
		if !isTransient(err) {
			c.mu.Lock()
			c.cache[key] = cachedProbe{err: err, expires: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return nil, err
	})
	return err
}

func isTransient(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
