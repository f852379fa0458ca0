package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotalink.local/internal/app/sharelink"
)

// setupRedis connects to REDIS_ADDR (default localhost:6379) and skips the
// test when Redis is not reachable.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})

	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skip: cannot connect to redis at %s: %v", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func testKey(t *testing.T) string {
	return sharelink.Key(sharelink.NewShareID()) + ":" + t.Name()
}

func TestRedisStoreSetGetWithTTL(t *testing.T) {
	client := setupRedis(t)
	s := NewRedisStore(client)
	ctx := context.Background()
	key := testKey(t)
	t.Cleanup(func() { client.Del(context.Background(), key) })

	rec := sharelink.NewRecord("https://example.com/shared/abc123?x=1", time.Now())
	require.NoError(t, s.Set(ctx, key, rec, sharelink.ShareTTL))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, rec.LongURL, got.LongURL)
	assert.Equal(t, "abc123", got.ScheduleID)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, sharelink.ShareTTL-time.Minute)
	assert.LessOrEqual(t, ttl, sharelink.ShareTTL)
}

func TestRedisStoreWireFormat(t *testing.T) {
	client := setupRedis(t)
	s := NewRedisStore(client)
	ctx := context.Background()
	key := testKey(t)
	t.Cleanup(func() { client.Del(context.Background(), key) })

	require.NoError(t, s.Set(ctx, key, sharelink.NewRecord("https://example.com/x", time.Now()), time.Minute))

	raw, err := client.Get(ctx, key).Bytes()
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, k := range []string{"longUrl", "createdAt", "expiresAt", "scheduleId"} {
		assert.Contains(t, fields, k)
	}
	assert.Equal(t, sharelink.UnknownScheduleID, fields["scheduleId"])
}

func TestRedisStoreMissAndCorruptValue(t *testing.T) {
	client := setupRedis(t)
	s := NewRedisStore(client)
	ctx := context.Background()
	key := testKey(t)
	t.Cleanup(func() { client.Del(context.Background(), key) })

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, sharelink.ErrNotFound)

	require.NoError(t, client.Set(ctx, key, "not json", time.Minute).Err())
	_, err = s.Get(ctx, key)
	require.Error(t, err)
	assert.NotErrorIs(t, err, sharelink.ErrNotFound)

	resolver := sharelink.NewResolver(s)
	_, err = resolver.Resolve(ctx, "abcdefgh")
	assert.ErrorIs(t, err, sharelink.ErrNotFound)
}

func TestRedisStoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	s := NewRedisStore(client)

	err := s.Set(context.Background(), "share:abcdefgh", sharelink.Record{LongURL: "https://example.com"}, time.Minute)
	require.Error(t, err)

	_, err = s.Get(context.Background(), "share:abcdefgh")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sharelink.ErrNotFound)
}
