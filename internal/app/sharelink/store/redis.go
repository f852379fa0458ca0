package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"rotalink.local/internal/app/sharelink"
)

const backendRedis = "redis"

// RedisStore keeps share records as JSON strings with a Redis TTL, so expiry
// is enforced by Redis itself.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Set issues SET key value EX ttl.
func (s *RedisStore) Set(ctx context.Context, key string, rec sharelink.Record, ttl time.Duration) (err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "redis SET")
	defer func() {
		observe(backendRedis, "set", start, err)
		endSpan(span, err)
	}()
	span.SetAttributes(attribute.String("db.system", "redis"), attribute.String("share.key", key))

	data, err := encode(rec)
	if err != nil {
		return err
	}
	if err = s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get maps redis.Nil to sharelink.ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) (rec sharelink.Record, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "redis GET")
	defer func() {
		observe(backendRedis, "get", start, err)
		endSpan(span, err)
	}()
	span.SetAttributes(attribute.String("db.system", "redis"), attribute.String("share.key", key))

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return sharelink.Record{}, sharelink.ErrNotFound
	}
	if err != nil {
		return sharelink.Record{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decode(key, data)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
