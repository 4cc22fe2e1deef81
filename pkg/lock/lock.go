// Package lock serializes the validate-then-write sequence of a booking per key.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotAcquired = errors.New("lock not acquired")

// ReleaseFunc releases a held lock. It is safe to call once.
type ReleaseFunc func(ctx context.Context) error

type Locker interface {
	// Acquire blocks until key is held, ctx is done or the backend gives up.
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// ProviderKey is the lock key guarding one provider's calendar.
func ProviderKey(providerID string) string {
	return "provider_lock_" + providerID
}

const retryInterval = 25 * time.Millisecond

// waitContext bounds ctx by wait when ctx has no earlier deadline.
func waitContext(ctx context.Context, wait time.Duration) (context.Context, context.CancelFunc) {
	if wait <= 0 {
		return context.WithCancel(ctx)
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, wait)
}

func notAcquired(key string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, cause)
}
