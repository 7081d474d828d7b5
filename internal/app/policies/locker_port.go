package policies

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock could not be taken before ctx expired.
var ErrLockTimeout = errors.New("policies: lock acquisition timed out")

// Locker serializes work on a named key, within one process or across many.
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done. The
	// returned release func must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}
