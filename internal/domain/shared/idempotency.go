package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys for a while so redelivered work, such as a
// chat update retried by the platform after a slow answer, runs only once.
type IdempotencyStore interface {
	// MarkProcessed records key for ttl. It reports false when key was
	// already recorded and has not expired.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Close() error
}
