package cache

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Item represents a cached value with expiration
type Item[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// IsExpired checks if the item has expired
func (i *Item[V]) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Cache provides thread-safe storage with a sliding TTL
type Cache[V any] struct {
	mu      sync.RWMutex
	items   map[string]*Item[V]
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	stopped sync.Once
}

// New creates a cache with the specified TTL. A janitor goroutine evicts
// expired items every interval until Close is called.
func New[V any](ttl, interval time.Duration) *Cache[V] {
	c := &Cache[V]{
		items: make(map[string]*Item[V]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	if interval > 0 {
		go c.cleanup(interval)
	}

	return c
}

// cleanup removes expired items periodically
func (c *Cache[V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.Evict(); n > 0 {
				slog.Debug("Evicted expired cache items", "count", n)
			}
		case <-c.stop:
			return
		}
	}
}

// Evict removes every expired item and returns how many were removed
func (c *Cache[V]) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.items {
		if item.IsExpired(now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Close stops the janitor goroutine
func (c *Cache[V]) Close() {
	c.stopped.Do(func() { close(c.stop) })
}

// TTL returns the configured time to live
func (c *Cache[V]) TTL() time.Duration { return c.ttl }

// Get retrieves an item and extends its expiry
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	item, exists := c.items[key]
	if !exists {
		return zero, false
	}

	now := c.now()
	if item.IsExpired(now) {
		delete(c.items, key)
		return zero, false
	}

	item.ExpiresAt = now.Add(c.ttl)
	return item.Value, true
}

// Set stores an item in the cache
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &Item[V]{
		Value:     value,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Delete removes an item and reports whether it was present
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := c.items[key]
	delete(c.items, key)
	return exists
}

// Clear removes all items from the cache
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*Item[V])
}

// Size returns the number of items in the cache, expired or not
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns cache statistics
func (c *Cache[V]) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	totalItems := len(c.items)
	expiredItems := 0

	for _, item := range c.items {
		if item.IsExpired(now) {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// HitRecorder is notified of response cache lookups
type HitRecorder interface {
	IncrementCacheHit()
	IncrementCacheMiss()
}

// Key hashes a request body into a cache key
func Key(body []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(body))
}

// Middleware caches successful JSON responses of a deterministic POST
// endpoint, keyed by request body. Only routes the middleware is mounted on
// are cached.
func Middleware(c *Cache[[]byte], rec HitRecorder) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost {
			ctx.Next()
			return
		}

		// A body over the route's limit fails here; the error handler maps it.
		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			_ = ctx.Error(err)
			ctx.Abort()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		cacheKey := Key(body)

		if cachedData, found := c.Get(cacheKey); found {
			slog.Debug("Cache hit", "key", cacheKey[:8]+"...")
			if rec != nil {
				rec.IncrementCacheHit()
			}
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", cachedData)
			ctx.Abort()
			return
		}

		slog.Debug("Cache miss", "key", cacheKey[:8]+"...")
		if rec != nil {
			rec.IncrementCacheMiss()
		}

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Header("X-Cache", "MISS")
		ctx.Next()

		// A handler failing via c.Error leaves the status at 200 until the
		// error handler writes, so only cache bodies that were written.
		if ctx.Writer.Written() && ctx.Writer.Status() == http.StatusOK && len(ctx.Errors) == 0 {
			c.Set(cacheKey, bytes.Clone(wrapper.body.Bytes()))
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
