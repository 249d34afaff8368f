package artifact

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/redis"
)

// CachedURL is a signed URL and the moment it stops working.
type CachedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// URLCache stores signed URLs per storage path. Implementations must not
// return an entry past its ExpiresAt.
type URLCache interface {
	Get(ctx context.Context, storagePath string) (CachedURL, bool)
	Put(ctx context.Context, storagePath string, u CachedURL)
	Invalidate(ctx context.Context, storagePath string)
}

// MemoryURLCache keeps signed URLs in process memory.
type MemoryURLCache struct {
	mu      sync.Mutex
	entries map[string]CachedURL
	now     func() time.Time
}

// NewMemoryURLCache creates an empty cache.
func NewMemoryURLCache() *MemoryURLCache {
	return &MemoryURLCache{entries: make(map[string]CachedURL), now: time.Now}
}

// Get returns a live entry and evicts an expired one.
func (c *MemoryURLCache) Get(_ context.Context, storagePath string) (CachedURL, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.entries[storagePath]
	if !ok {
		return CachedURL{}, false
	}
	if !c.now().Before(u.ExpiresAt) {
		delete(c.entries, storagePath)
		return CachedURL{}, false
	}
	return u, true
}

// Put stores u.
func (c *MemoryURLCache) Put(_ context.Context, storagePath string, u CachedURL) {
	c.mu.Lock()
	c.entries[storagePath] = u
	c.mu.Unlock()
}

// Invalidate drops the entry for storagePath.
func (c *MemoryURLCache) Invalidate(_ context.Context, storagePath string) {
	c.mu.Lock()
	delete(c.entries, storagePath)
	c.mu.Unlock()
}

// RedisURLCache shares signed URLs between processes. Keys expire with
// the URL they hold. Redis failures degrade to cache misses.
type RedisURLCache struct {
	store *redis.JSONStore[CachedURL]
	log   *logger.Logger
	now   func() time.Time
}

// NewRedisURLCache creates a cache on client with keys under prefix.
func NewRedisURLCache(client *redis.Client, prefix string, log *logger.Logger) *RedisURLCache {
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisURLCache{
		store: redis.NewJSONStore[CachedURL](client, prefix),
		log:   log.WithComponent("artifact.cache"),
		now:   time.Now,
	}
}

// Get loads the entry for storagePath.
func (c *RedisURLCache) Get(ctx context.Context, storagePath string) (CachedURL, bool) {
	u, ok, err := c.store.Get(ctx, storagePath)
	if err != nil {
		c.log.Warn("signed url cache read failed", logger.Fields(logger.FieldStoragePath, storagePath, logger.FieldError, err.Error()))
		return CachedURL{}, false
	}
	if !ok || !c.now().Before(u.ExpiresAt) {
		return CachedURL{}, false
	}
	return u, true
}

// Put stores u with a TTL ending at its expiry.
func (c *RedisURLCache) Put(ctx context.Context, storagePath string, u CachedURL) {
	ttl := u.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return
	}
	if err := c.store.Put(ctx, storagePath, u, ttl); err != nil {
		c.log.Warn("signed url cache write failed", logger.Fields(logger.FieldStoragePath, storagePath, logger.FieldError, err.Error()))
	}
}

// Invalidate deletes the entry for storagePath.
func (c *RedisURLCache) Invalidate(ctx context.Context, storagePath string) {
	if err := c.store.Delete(ctx, storagePath); err != nil {
		c.log.Warn("signed url cache delete failed", logger.Fields(logger.FieldStoragePath, storagePath, logger.FieldError, err.Error()))
	}
}

var (
	_ URLCache = (*MemoryURLCache)(nil)
	_ URLCache = (*RedisURLCache)(nil)
)
