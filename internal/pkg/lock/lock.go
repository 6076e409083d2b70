// Package lock serializes work per identity key, across processes via Redis or
// inside one process via a keyed mutex.
package lock

import (
	"context"
	"errors"
)

// ErrTimeout is returned when the lock could not be acquired within the wait budget.
var ErrTimeout = errors.New("lock wait timeout")

// Release gives the lock back. It is safe to call once.
type Release func(ctx context.Context) error

// Locker grants exclusive ownership of a key.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}
