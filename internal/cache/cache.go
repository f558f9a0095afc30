// Package cache provides the read-through cache used for the product list
// and the profit aggregate. Redis backs it in production; when no address is
// configured a no-op implementation keeps every read going to the database.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get returns "" and no error on a miss.
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	GenerateKey(operation, key string) string
}

type redisCache struct {
	client      *redis.Client
	serviceName string
}

func NewRedisCache(addr, serviceName string) Cache {
	return &redisCache{
		client:      redis.NewClient(&redis.Options{Addr: addr}),
		serviceName: serviceName,
	}
}

func (r redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}

	if err != nil {
		return "", err
	}

	return val, nil
}

func (r redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r redisCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.serviceName, operation, key)
}

// Noop never stores anything.
type Noop struct {
	ServiceName string
}

func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Get(context.Context, string) (string, error)                   { return "", nil }
func (Noop) Delete(context.Context, ...string) error                       { return nil }

func (n Noop) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", n.ServiceName, operation, key)
}

// New returns a Redis cache for addr, or Noop when addr is empty.
func New(addr, serviceName string) Cache {
	if addr == "" {
		return Noop{ServiceName: serviceName}
	}
	return NewRedisCache(addr, serviceName)
}
