package artifact

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/audiopen/redis"
)

func TestMemoryURLCacheExpires(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryURLCache()
	c.now = clock.Now

	c.Put(context.Background(), "u/a.webm", CachedURL{URL: "https://x/a", ExpiresAt: clock.Now().Add(time.Minute)})
	if u, ok := c.Get(context.Background(), "u/a.webm"); !ok || u.URL != "https://x/a" {
		t.Fatalf("expected hit, got %+v %v", u, ok)
	}
	clock.Advance(time.Minute)
	if _, ok := c.Get(context.Background(), "u/a.webm"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestRedisURLCache(t *testing.T) {
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)

	client, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr()}, nil)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	c := NewRedisURLCache(client, "audiopen:signed-url", nil)
	expires := time.Now().Add(10 * time.Minute).Truncate(time.Second)

	c.Put(ctx, "user-1/recording.webm", CachedURL{URL: "https://storage/sig", ExpiresAt: expires})
	u, ok := c.Get(ctx, "user-1/recording.webm")
	if !ok || u.URL != "https://storage/sig" || !u.ExpiresAt.Equal(expires) {
		t.Fatalf("expected cached url, got %+v %v", u, ok)
	}

	ttl := mini.TTL("audiopen:signed-url:user-1/recording.webm")
	if ttl <= 0 || ttl > 10*time.Minute {
		t.Errorf("expected key ttl bounded by expiry, got %v", ttl)
	}

	c.Invalidate(ctx, "user-1/recording.webm")
	if _, ok := c.Get(ctx, "user-1/recording.webm"); ok {
		t.Error("expected miss after invalidate")
	}

	c.Put(ctx, "user-1/stale.webm", CachedURL{URL: "https://storage/old", ExpiresAt: time.Now().Add(-time.Second)})
	if mini.Exists("audiopen:signed-url:user-1/stale.webm") {
		t.Error("expected expired url not to be written")
	}

	mini.Close()
	if _, ok := c.Get(ctx, "user-1/recording.webm"); ok {
		t.Error("expected miss when redis is down")
	}
}
