//go:build integration

package mutex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-foreman/ordersaga/saga/mutex"
)

func testSQLMutexUseCases(t *testing.T, mutexFactory func() mutex.Mutex) {
	sqlMutex := mutexFactory()

	t.Run("acquire and release a mutex sequentially", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		for i := 0; i < 2; i++ {
			lock, err := sqlMutex.Lock(ctx, "inventory:BOOKS")
			require.NoError(t, err)
			assert.NoError(t, lock.Release(ctx))
		}
	})

	t.Run("wait to acquire locked mutex from another instance", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		lock, err := sqlMutex.Lock(ctx, "inventory:MOVIES")
		require.NoError(t, err)

		acquired := make(chan struct{})

		go func() {
			another, err := mutexFactory().Lock(ctx, "inventory:MOVIES")
			if assert.NoError(t, err) {
				assert.NoError(t, another.Release(ctx))
			}
			close(acquired)
		}()

		select {
		case <-acquired:
			t.Fatal("lock was acquired while held by another instance")
		case <-time.After(time.Millisecond * 200):
		}

		require.NoError(t, lock.Release(ctx))

		select {
		case <-acquired:
		case <-ctx.Done():
			t.Fatal("lock was not acquired after release")
		}
	})

	t.Run("fail to acquire a held lock before deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		lock, err := sqlMutex.Lock(ctx, "inventory:MUSIC")
		require.NoError(t, err)

		waitingCtx, cancelWaiting := context.WithTimeout(ctx, time.Millisecond*200)
		defer cancelWaiting()

		_, err = mutexFactory().Lock(waitingCtx, "inventory:MUSIC")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inventory:MUSIC")

		assert.NoError(t, lock.Release(ctx))
	})

	t.Run("lock every key of a reservation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		lock, err := mutex.LockAll(ctx, sqlMutex, "inventory:A", "inventory:B", "inventory:C")
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))

		lock, err = mutex.LockAll(ctx, mutexFactory(), "inventory:A", "inventory:B")
		require.NoError(t, err)
		assert.NoError(t, lock.Release(ctx))
	})
}
