package mutex

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// NewMemoryMutex is a process local mutex, suitable when all workers share one process
func NewMemoryMutex() Mutex {
	return &memoryMutex{slots: xsync.NewMapOf[string, *memorySlot]()}
}

type memoryMutex struct {
	slots *xsync.MapOf[string, *memorySlot]
}

// memorySlot lives while someone holds or waits for its key. refs is only touched inside Compute.
type memorySlot struct {
	token chan struct{}
	refs  int
}

func (m *memoryMutex) Lock(ctx context.Context, key string) (Lock, error) {
	slot, _ := m.slots.Compute(key, func(s *memorySlot, loaded bool) (*memorySlot, bool) {
		if !loaded {
			s = &memorySlot{token: make(chan struct{}, 1)}
		}
		s.refs++
		return s, false
	})

	select {
	case slot.token <- struct{}{}:
		l := &memoryLock{m: m, slot: slot, key: key}
		l.held.Store(true)
		return l, nil
	case <-ctx.Done():
		m.unref(key)
		return nil, WithMutexErr(errors.Wrapf(ctx.Err(), "waiting for lock %s", key))
	}
}

// unref drops the slot when the last holder or waiter is gone
func (m *memoryMutex) unref(key string) {
	m.slots.Compute(key, func(s *memorySlot, loaded bool) (*memorySlot, bool) {
		if !loaded {
			return nil, true
		}
		s.refs--
		return s, s.refs <= 0
	})
}

type memoryLock struct {
	m    *memoryMutex
	slot *memorySlot
	key  string
	held atomic.Bool
}

func (l *memoryLock) Release(_ context.Context) error {
	if !l.held.CompareAndSwap(true, false) {
		return WithMutexErr(errors.Errorf("lock %s is not held", l.key))
	}

	<-l.slot.token
	l.m.unref(l.key)

	return nil
}
