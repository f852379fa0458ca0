package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"rotalink.local/internal/app/sharelink"
)

const backendMemory = "memory"

// MemoryStore is a single-process store for development. It is bounded by
// MaxCost and may evict before the TTL; Issue's confirmation read reports
// such a loss as a failed write.
type MemoryStore struct {
	cache *ristretto.Cache
}

// NewMemoryStore keeps up to maxItems records within maxBytes of encoded JSON.
func NewMemoryStore(maxItems, maxBytes int64) (*MemoryStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

// Set waits for the write buffer to drain so a following Get sees the record.
func (s *MemoryStore) Set(_ context.Context, key string, rec sharelink.Record, ttl time.Duration) (err error) {
	defer func(start time.Time) { observe(backendMemory, "set", start, err) }(time.Now())

	data, err := encode(rec)
	if err != nil {
		return err
	}
	// A rejected set is not an error here; the confirmation read catches it.
	s.cache.SetWithTTL(key, data, int64(len(data)), ttl)
	s.cache.Wait()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (rec sharelink.Record, err error) {
	defer func(start time.Time) { observe(backendMemory, "get", start, err) }(time.Now())

	v, ok := s.cache.Get(key)
	if !ok {
		return sharelink.Record{}, sharelink.ErrNotFound
	}
	data, ok := v.([]byte)
	if !ok {
		return sharelink.Record{}, fmt.Errorf("memory get %s: unexpected value %T", key, v)
	}
	return decode(key, data)
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() {
	s.cache.Close()
}
