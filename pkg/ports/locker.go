package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates instance access across replicas. The
// session manager serializes dispatches in-process; a locker extends that
// guarantee to multi-process deployments.
type DistributedLocker interface {
	// Lock acquires the lock for key, blocking until acquired or ctx is
	// done. The returned UnlockFunc must be called to release it; the
	// ttl bounds how long a crashed holder can wedge the key.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
