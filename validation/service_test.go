package validation

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-foreman/ordersaga/saga"
	"github.com/go-foreman/ordersaga/saga/mutex"
	"github.com/go-foreman/ordersaga/saga/participant"
	"github.com/go-foreman/ordersaga/testing/log"
	"github.com/go-foreman/ordersaga/testing/sagatest"
)

func createExecutor(t *testing.T, store Store, codes ...string) *participant.Executor[Validation] {
	executor, err := participant.NewExecutor(NewService(store, NewMemoryCatalog(codes...)).Definition(mutex.NewMemoryMutex()))
	require.NoError(t, err)

	return executor
}

func TestService_Validate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), NewMemoryCatalog("COMIC_BOOKS", "BOOKS"))

	t.Run("all products exist", func(t *testing.T) {
		ev := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("COMIC_BOOKS", 15.5, 2), sagatest.Item("BOOKS", 9.9, 1))

		v, err := svc.Validate(ctx, ev)
		require.NoError(t, err)
		assert.True(t, v.Success)
		assert.Equal(t, "order-1", v.OrderID)
		assert.Equal(t, "tx-1", v.TransactionID)
		assert.NotEmpty(t, v.ID)
	})

	t.Run("unknown product", func(t *testing.T) {
		ev := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("COMIC_BOOKS", 15.5, 2), sagatest.Item("MOVIES", 5, 1))

		_, err := svc.Validate(ctx, ev)
		require.Error(t, err)
		assert.True(t, saga.IsNotFound(err))
		assert.EqualError(t, err, "Product does not exists in database")
	})

	t.Run("product code is missing", func(t *testing.T) {
		ev := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("", 15.5, 2))

		_, err := svc.Validate(ctx, ev)
		assert.True(t, saga.IsValidationFailure(err))
		assert.EqualError(t, err, "Product must be informed!")
	})
}

func TestValidationParticipant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	testLogger := log.NewNilLogger()

	fixedNow := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixedNow }
	defer func() { now = time.Now }()

	t.Run("validated and rolled back", func(t *testing.T) {
		store := NewMemoryStore()
		executor := createExecutor(t, store, "COMIC_BOOKS")

		ev := sagatest.NewEvent("order-1", "tx-1", sagatest.Item("COMIC_BOOKS", 15.5, 2))
		execCtx, outbox := sagatest.ExecCtx(ctrl, ev, saga.ProductValidationSuccessChannel, testLogger)

		require.NoError(t, executor.Execute(execCtx))

		result := outbox.Last().Event()
		assert.Equal(t, saga.Success, result.Status)
		last, _ := result.LastHistory()
		assert.Equal(t, "Products are validated successfully!", last.Message)

		v, found, err := store.Find(ctx, "order-1", "tx-1")
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, v.Success)

		undoCtx, undoOutbox := sagatest.ExecCtx(ctrl, result, saga.ProductValidationFailChannel, testLogger)
		require.NoError(t, executor.Compensate(undoCtx))

		rolledBack := undoOutbox.Last().Event()
		assert.Equal(t, saga.Fail, rolledBack.Status)
		last, _ = rolledBack.LastHistory()
		assert.Equal(t, "Rollback executed for product validation!", last.Message)

		v, _, _ = store.Find(ctx, "order-1", "tx-1")
		assert.False(t, v.Success)
	})

	t.Run("unknown product goes to rollback", func(t *testing.T) {
		store := NewMemoryStore()
		executor := createExecutor(t, store, "COMIC_BOOKS")

		ev := sagatest.NewEvent("order-2", "tx-2", sagatest.Item("MOVIES", 5, 1))
		execCtx, outbox := sagatest.ExecCtx(ctrl, ev, saga.ProductValidationSuccessChannel, testLogger)

		require.NoError(t, executor.Execute(execCtx))

		result := outbox.Last().Event()
		assert.Equal(t, saga.RollbackPending, result.Status)
		last, _ := result.LastHistory()
		assert.Equal(t, "Fail to validate products: Product does not exists in database", last.Message)

		exists, err := store.Exists(ctx, "order-2", "tx-2")
		require.NoError(t, err)
		assert.False(t, exists)

		undoCtx, _ := sagatest.ExecCtx(ctrl, result, saga.ProductValidationFailChannel, testLogger)
		require.NoError(t, executor.Compensate(undoCtx))

		v, found, _ := store.Find(ctx, "order-2", "tx-2")
		require.True(t, found)
		assert.False(t, v.Success)
		assert.Equal(t, fixedNow, v.CreatedAt)
	})
}
