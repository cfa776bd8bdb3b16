package mutex

import (
	"context"

	"github.com/pkg/errors"
)

type MutexErr struct {
	error
}

func WithMutexErr(err error) error {
	return MutexErr{err}
}

// Lock is held until Release is called
type Lock interface {
	Release(ctx context.Context) error
}

// Mutex serializes work on a named resource across workers and processes
type Mutex interface {
	Lock(ctx context.Context, key string) (Lock, error)
}

// LockAll acquires locks for every key in the given order. On failure already acquired locks are released.
func LockAll(ctx context.Context, m Mutex, keys ...string) (Lock, error) {
	locks := make(multiLock, 0, len(keys))

	for _, key := range keys {
		l, err := m.Lock(ctx, key)
		if err != nil {
			if rErr := locks.Release(ctx); rErr != nil {
				return nil, WithMutexErr(errors.Wrapf(rErr, "releasing acquired locks when %s", err))
			}
			return nil, err
		}

		locks = append(locks, l)
	}

	return locks, nil
}

type multiLock []Lock

// Release frees locks in reverse order and returns the first error
func (m multiLock) Release(ctx context.Context) error {
	var firstErr error

	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Release(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
