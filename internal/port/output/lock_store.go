package output

import (
	"context"
	"time"
)

// LockStore is an output port for the shared, cross-process lock backend.
// An in-memory implementation is only valid in tests: locks must hold across
// separate web-server workers.
type LockStore interface {
	// Acquire attempts a non-blocking acquisition of the named lock.
	// Returns false when the lock is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the named lock. Releasing a free lock is not an error.
	Release(ctx context.Context, key string) (bool, error)

	// IsLocked is a non-mutating probe of the named lock
	IsLocked(ctx context.Context, key string) (bool, error)
}
