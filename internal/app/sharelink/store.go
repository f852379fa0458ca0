package sharelink

import (
	"context"
	"time"
)

// KeyPrefix namespaces share records in the shared store.
const KeyPrefix = "share:"

// Key returns the store key for a share id.
func Key(id string) string {
	return KeyPrefix + id
}

// Store is a shared key-value store that evicts keys after their TTL.
// Implementations own serialization of Record.
type Store interface {
	Set(ctx context.Context, key string, rec Record, ttl time.Duration) error
	// Get returns ErrNotFound when key is absent or has expired.
	Get(ctx context.Context, key string) (Record, error)
}

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
