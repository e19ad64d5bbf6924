package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces collection keys.
const DefaultRedisPrefix = "bitsconnect:collection:"

// RedisPort stores each collection under one string key.
type RedisPort struct {
	client *redis.Client
	prefix string
}

// NewRedisPort creates a port on client. An empty prefix uses
// DefaultRedisPrefix.
func NewRedisPort(client *redis.Client, prefix string) *RedisPort {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisPort{client: client, prefix: prefix}
}

func (r *RedisPort) key(name string) string {
	return r.prefix + name
}

func (r *RedisPort) Load(ctx context.Context, name string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load collection %s: %w", name, err)
	}
	return val, true, nil
}

func (r *RedisPort) Save(ctx context.Context, name string, payload []byte) error {
	if err := r.client.Set(ctx, r.key(name), payload, 0).Err(); err != nil {
		return fmt.Errorf("save collection %s: %w", name, err)
	}
	return nil
}
