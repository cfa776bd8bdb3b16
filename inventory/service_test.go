package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-foreman/ordersaga/saga"
	"github.com/go-foreman/ordersaga/saga/mutex"
	"github.com/go-foreman/ordersaga/saga/participant"
	"github.com/go-foreman/ordersaga/testing/log"
	"github.com/go-foreman/ordersaga/testing/sagatest"
)

func seededStore() Store {
	return NewMemoryStore(
		Inventory{ID: "inv-1", ProductCode: "COMIC_BOOKS", Available: 10},
		Inventory{ID: "inv-2", ProductCode: "BOOKS", Available: 3},
	)
}

func available(t *testing.T, store Store, code string) int {
	i, found, err := store.FindByProductCode(context.Background(), code)
	require.NoError(t, err)
	require.True(t, found)

	return i.Available
}

func TestService_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements every product", func(t *testing.T) {
		store := seededStore()
		svc := NewService(NewMemoryLedger(), store, mutex.NewMemoryMutex(), log.NewNilLogger())

		ev := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("COMIC_BOOKS", 15.5, 2), sagatest.Item("BOOKS", 9.9, 3))

		reservation, err := svc.Reserve(ctx, ev)
		require.NoError(t, err)
		require.Len(t, reservation, 2)

		assert.Equal(t, "COMIC_BOOKS", reservation[0].ProductCode)
		assert.Equal(t, "inv-1", reservation[0].InventoryID)
		assert.Equal(t, 2, reservation[0].OrderQuantity)
		assert.Equal(t, 10, reservation[0].OldQuantity)
		assert.Equal(t, 8, reservation[0].NewQuantity)
		assert.Equal(t, 3, reservation[1].OldQuantity)
		assert.Equal(t, 0, reservation[1].NewQuantity)

		assert.Equal(t, 8, available(t, store, "COMIC_BOOKS"))
		assert.Equal(t, 0, available(t, store, "BOOKS"))
	})

	t.Run("out of stock changes nothing", func(t *testing.T) {
		store := seededStore()
		svc := NewService(NewMemoryLedger(), store, mutex.NewMemoryMutex(), log.NewNilLogger())

		ev := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("COMIC_BOOKS", 15.5, 2), sagatest.Item("BOOKS", 9.9, 4))

		_, err := svc.Reserve(ctx, ev)
		require.Error(t, err)
		assert.True(t, saga.IsValidationFailure(err))
		assert.EqualError(t, err, "Product is out of stock!")

		assert.Equal(t, 10, available(t, store, "COMIC_BOOKS"))
		assert.Equal(t, 3, available(t, store, "BOOKS"))
	})

	t.Run("the same product in two line items", func(t *testing.T) {
		store := seededStore()
		svc := NewService(NewMemoryLedger(), store, mutex.NewMemoryMutex(), log.NewNilLogger())

		ev := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("BOOKS", 9.9, 2), sagatest.Item("BOOKS", 9.9, 2))

		_, err := svc.Reserve(ctx, ev)
		assert.EqualError(t, err, "Product is out of stock!")
		assert.Equal(t, 3, available(t, store, "BOOKS"))

		ev = sagatest.NewEvent("order-2", "tx-2", sagatest.Item("BOOKS", 9.9, 2), sagatest.Item("BOOKS", 9.9, 1))

		reservation, err := svc.Reserve(ctx, ev)
		require.NoError(t, err)
		assert.Equal(t, 3, reservation[0].OldQuantity)
		assert.Equal(t, 1, reservation[0].NewQuantity)
		assert.Equal(t, 1, reservation[1].OldQuantity)
		assert.Equal(t, 0, reservation[1].NewQuantity)
		assert.Equal(t, 0, available(t, store, "BOOKS"))
	})

	t.Run("inventory not found", func(t *testing.T) {
		svc := NewService(NewMemoryLedger(), seededStore(), mutex.NewMemoryMutex(), log.NewNilLogger())

		_, err := svc.Reserve(ctx, sagatest.NewEvent("order-1", "tx-1", sagatest.Item("MUSIC", 1, 1)))
		assert.True(t, saga.IsNotFound(err))
		assert.EqualError(t, err, "Inventory not found by informed product.")
	})

	t.Run("concurrent sagas never oversell", func(t *testing.T) {
		store := NewMemoryStore(Inventory{ID: "inv-1", ProductCode: "COMIC_BOOKS", Available: 5})
		svc := NewService(NewMemoryLedger(), store, mutex.NewMemoryMutex(), log.NewNilLogger())

		wg := sync.WaitGroup{}
		succeeded := make(chan struct{}, 10)

		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ev := sagatest.NewEvent(fmt.Sprintf("order-%d", i), fmt.Sprintf("tx-%d", i), sagatest.Item("COMIC_BOOKS", 1, 1))
				if _, err := svc.Reserve(ctx, ev); err == nil {
					succeeded <- struct{}{}
				}
			}(i)
		}
		wg.Wait()
		close(succeeded)

		assert.Len(t, succeeded, 5)
		assert.Equal(t, 0, available(t, store, "COMIC_BOOKS"))
	})
}

func TestService_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("restores exactly what was reserved", func(t *testing.T) {
		store := seededStore()
		testLogger := log.NewNilLogger()
		svc := NewService(NewMemoryLedger(), store, mutex.NewMemoryMutex(), testLogger)

		ev := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("COMIC_BOOKS", 15.5, 2), sagatest.Item("BOOKS", 9.9, 1))

		reservation, err := svc.Reserve(ctx, ev)
		require.NoError(t, err)

		require.NoError(t, svc.Restore(ctx, ev, reservation))

		assert.Equal(t, 10, available(t, store, "COMIC_BOOKS"))
		assert.Equal(t, 3, available(t, store, "BOOKS"))
		testLogger.AssertContainsSubstr(t, "Restored inventory for order order-1: from 8 to 10")
	})

	t.Run("other sagas' reservations are kept", func(t *testing.T) {
		store := seededStore()
		svc := NewService(NewMemoryLedger(), store, mutex.NewMemoryMutex(), log.NewNilLogger())

		first := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("COMIC_BOOKS", 15.5, 2))
		second := sagatest.NewEvent("order-2", "tx-2", sagatest.Item("COMIC_BOOKS", 15.5, 3))

		reservation, err := svc.Reserve(ctx, first)
		require.NoError(t, err)
		_, err = svc.Reserve(ctx, second)
		require.NoError(t, err)

		require.NoError(t, svc.Restore(ctx, first, reservation))
		assert.Equal(t, 7, available(t, store, "COMIC_BOOKS"))
	})

	t.Run("a repeated restore gives nothing back", func(t *testing.T) {
		store := seededStore()
		ledger := NewMemoryLedger()
		testLogger := log.NewNilLogger()
		svc := NewService(ledger, store, mutex.NewMemoryMutex(), testLogger)

		ev := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("COMIC_BOOKS", 15.5, 2))

		reservation, err := svc.Reserve(ctx, ev)
		require.NoError(t, err)
		require.NoError(t, ledger.Save(ctx, reservation))

		saved, _, err := ledger.Find(ctx, "order-1", "tx-1")
		require.NoError(t, err)
		require.NoError(t, svc.Restore(ctx, ev, saved))
		assert.Equal(t, 10, available(t, store, "COMIC_BOOKS"))

		saved, _, err = ledger.Find(ctx, "order-1", "tx-1")
		require.NoError(t, err)
		assert.Equal(t, Restored, saved[0].Status)

		require.NoError(t, svc.Restore(ctx, ev, saved))
		assert.Equal(t, 10, available(t, store, "COMIC_BOOKS"))
		testLogger.AssertContainsSubstr(t, "Inventory of order order-1 was already restored")
	})

	t.Run("only rows left reserved are restored", func(t *testing.T) {
		store := seededStore()
		svc := NewService(NewMemoryLedger(), store, mutex.NewMemoryMutex(), log.NewNilLogger())

		ev := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("COMIC_BOOKS", 15.5, 2), sagatest.Item("BOOKS", 9.9, 1))

		reservation, err := svc.Reserve(ctx, ev)
		require.NoError(t, err)
		reservation[0].Status = Restored

		require.NoError(t, svc.Restore(ctx, ev, reservation))
		assert.Equal(t, 8, available(t, store, "COMIC_BOOKS"))
		assert.Equal(t, 3, available(t, store, "BOOKS"))
		assert.True(t, reservation.FullyRestored())
	})

	t.Run("inventory disappeared", func(t *testing.T) {
		svc := NewService(NewMemoryLedger(), NewMemoryStore(), mutex.NewMemoryMutex(), log.NewNilLogger())

		err := svc.Restore(ctx, sagatest.NewEvent("order-1", "tx-1"), Reservation{{ProductCode: "BOOKS", OrderQuantity: 1}})
		assert.True(t, saga.IsNotFound(err))
	})
}

func TestInventoryParticipant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	testLogger := log.NewNilLogger()

	store := seededStore()
	ledger := NewMemoryLedger()
	svc := NewService(ledger, store, mutex.NewMemoryMutex(), testLogger)
	executor, err := participant.NewExecutor(svc.Definition())
	require.NoError(t, err)

	t.Run("reserved and compensated", func(t *testing.T) {
		ev := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("COMIC_BOOKS", 15.5, 2))
		execCtx, outbox := sagatest.ExecCtx(ctrl, ev, saga.InventorySuccessChannel, testLogger)

		require.NoError(t, executor.Execute(execCtx))

		result := outbox.Last().Event()
		assert.Equal(t, saga.Success, result.Status)
		assert.Equal(t, saga.InventorySource, result.Source)
		last, _ := result.LastHistory()
		assert.Equal(t, "Inventory updated successfully!", last.Message)
		assert.Equal(t, 8, available(t, store, "COMIC_BOOKS"))

		// redelivery of the same command is stopped by the guard
		require.NoError(t, executor.Execute(execCtx))
		assert.Equal(t, saga.RollbackPending, outbox.Last().Event().Status)
		assert.Equal(t, 8, available(t, store, "COMIC_BOOKS"))

		undoCtx, undoOutbox := sagatest.ExecCtx(ctrl, result, saga.InventoryFailChannel, testLogger)
		require.NoError(t, executor.Compensate(undoCtx))

		rolledBack := undoOutbox.Last().Event()
		assert.Equal(t, saga.Fail, rolledBack.Status)
		last, _ = rolledBack.LastHistory()
		assert.Equal(t, "Rollback executed for inventory!", last.Message)
		assert.Equal(t, 10, available(t, store, "COMIC_BOOKS"))

		// a second undo command for the same saga must not add stock again
		require.NoError(t, executor.Compensate(undoCtx))
		assert.Equal(t, saga.Fail, undoOutbox.Last().Event().Status)
		assert.Equal(t, 10, available(t, store, "COMIC_BOOKS"))
	})

	t.Run("out of stock", func(t *testing.T) {
		ev := sagatest.NewEvent("order-2", "tx-2", sagatest.Item("BOOKS", 9.9, 4))
		execCtx, outbox := sagatest.ExecCtx(ctrl, ev, saga.InventorySuccessChannel, testLogger)

		require.NoError(t, executor.Execute(execCtx))

		result := outbox.Last().Event()
		assert.Equal(t, saga.RollbackPending, result.Status)
		last, _ := result.LastHistory()
		assert.Equal(t, "Fail to update inventory: Product is out of stock!", last.Message)

		undoCtx, undoOutbox := sagatest.ExecCtx(ctrl, result, saga.InventoryFailChannel, testLogger)
		require.NoError(t, executor.Compensate(undoCtx))

		assert.Equal(t, saga.Fail, undoOutbox.Last().Event().Status)
		exists, err := ledger.Exists(ctx, "order-2", "tx-2")
		require.NoError(t, err)
		assert.False(t, exists)
		assert.Equal(t, 3, available(t, store, "BOOKS"))
	})
}
