// Package redis holds the go-redis client behind the shared signed-URL
// cache. JSONStore keeps typed values under a key namespace:
//
//	store := redis.NewJSONStore[artifact.CachedURL](client, "audiopen:signed-url")
//	_ = store.Put(ctx, storagePath, entry, ttl)
package redis
