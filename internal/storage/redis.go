// ABOUTME: Redis-backed Store for headless or shared deployments.
// ABOUTME: Keys are namespaced with a prefix and may carry an expiry.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "mirrorview:"

// RedisStore persists values in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	expiry time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisExpiry sets a server-side expiry on every write. Zero means none.
func WithRedisExpiry(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.expiry = d
	}
}

// WithRedisPrefix overrides the key namespace.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenRedis connects to addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, addr, password string, db int, opts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &StorageError{Op: "ping", Key: addr, Err: err}
	}
	return NewRedisStore(client, opts...), nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

// Get returns the value for key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get", key, err)
	}
	return val, nil
}

// Set replaces the value for key. SET is atomic.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return wrapErr("set", key, s.client.Set(ctx, s.key(key), value, s.expiry).Err())
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return wrapErr("delete", key, s.client.Del(ctx, s.key(key)).Err())
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
