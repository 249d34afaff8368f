package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// JSONStore keeps values of one type as JSON strings under a shared key
// namespace.
type JSONStore[T any] struct {
	client    *Client
	namespace string
}

// NewJSONStore returns a store whose keys are "namespace:key". An empty
// namespace leaves keys untouched.
func NewJSONStore[T any](client *Client, namespace string) *JSONStore[T] {
	return &JSONStore[T]{client: client, namespace: namespace}
}

// Key returns the redis key used for key.
func (s *JSONStore[T]) Key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

// Get decodes the value at key. ok is false when the key does not exist.
func (s *JSONStore[T]) Get(ctx context.Context, key string) (v T, ok bool, err error) {
	raw, err := s.client.Get(ctx, s.Key(key))
	switch {
	case IsNil(err):
		return v, false, nil
	case err != nil:
		return v, false, fmt.Errorf("redis: get %s: %w", s.Key(key), err)
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, false, fmt.Errorf("redis: decode %s: %w", s.Key(key), err)
	}
	return v, true, nil
}

// Put stores v at key. A zero ttl keeps the key until it is deleted.
func (s *JSONStore[T]) Put(ctx context.Context, key string, v T, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", s.Key(key), err)
	}
	return s.client.Set(ctx, s.Key(key), string(data), ttl)
}

// Delete removes key. Missing keys are not an error.
func (s *JSONStore[T]) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.Key(key))
}
