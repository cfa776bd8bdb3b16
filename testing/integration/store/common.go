//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-foreman/ordersaga/inventory"
	"github.com/go-foreman/ordersaga/order"
	"github.com/go-foreman/ordersaga/payment"
	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/saga"
	"github.com/go-foreman/ordersaga/saga/mutex"
	sagaSql "github.com/go-foreman/ordersaga/saga/sql"
	"github.com/go-foreman/ordersaga/testing/log"
	"github.com/go-foreman/ordersaga/testing/sagatest"
	"github.com/go-foreman/ordersaga/validation"
)

func testStores(t *testing.T, db *sagaSql.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	createdAt := time.Now().UTC().Truncate(time.Second)

	t.Run("validation and catalog", func(t *testing.T) {
		store, err := validation.NewSQLStore(ctx, db)
		require.NoError(t, err)

		require.NoError(t, store.AddProducts(ctx, "COMIC_BOOKS", "BOOKS"))
		require.NoError(t, store.AddProducts(ctx, "BOOKS"))

		exists, err := store.ExistsByCode(ctx, "BOOKS")
		require.NoError(t, err)
		assert.True(t, exists)

		v := validation.Validation{ID: "v-1", OrderID: "order-1", TransactionID: "tx-1", Success: true, CreatedAt: createdAt, UpdatedAt: createdAt}
		require.NoError(t, store.Save(ctx, v))

		v.Success = false
		require.NoError(t, store.Save(ctx, v))

		found, ok, err := store.Find(ctx, "order-1", "tx-1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.False(t, found.Success)
	})

	t.Run("inventory reservation and restore", func(t *testing.T) {
		store, err := inventory.NewSQLStore(ctx, db)
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, inventory.Inventory{ID: "inv-1", ProductCode: "MOVIES", Available: 10, CreatedAt: createdAt, UpdatedAt: createdAt}))

		service := inventory.NewService(store.Ledger(), store, mutex.NewSqlMutex(db, log.NewNilLogger()), log.NewNilLogger())
		ev := sagatest.NewEvent("order-2", "tx-2", sagatest.Item("MOVIES", 1, 4))

		reservation, err := service.Reserve(ctx, ev)
		require.NoError(t, err)
		require.NoError(t, store.Ledger().Save(ctx, reservation))

		i, _, err := store.FindByProductCode(ctx, "MOVIES")
		require.NoError(t, err)
		assert.Equal(t, 6, i.Available)

		saved, found, err := store.Ledger().Find(ctx, "order-2", "tx-2")
		require.NoError(t, err)
		require.True(t, found)
		require.Len(t, saved, 1)
		assert.Equal(t, 10, saved[0].OldQuantity)
		assert.Equal(t, 6, saved[0].NewQuantity)

		require.NoError(t, service.Restore(ctx, ev, saved))

		i, _, err = store.FindByProductCode(ctx, "MOVIES")
		require.NoError(t, err)
		assert.Equal(t, 10, i.Available)

		saved, _, err = store.Ledger().Find(ctx, "order-2", "tx-2")
		require.NoError(t, err)
		assert.Equal(t, inventory.Restored, saved[0].Status)

		require.NoError(t, service.Restore(ctx, ev, saved))

		i, _, err = store.FindByProductCode(ctx, "MOVIES")
		require.NoError(t, err)
		assert.Equal(t, 10, i.Available)
	})

	t.Run("payment", func(t *testing.T) {
		store, err := payment.NewSQLStore(ctx, db)
		require.NoError(t, err)

		p := payment.Payment{ID: "p-1", OrderID: "order-3", TransactionID: "tx-3", TotalAmount: 40.9, TotalItems: 3, Status: payment.Success, CreatedAt: createdAt, UpdatedAt: createdAt}
		require.NoError(t, store.Save(ctx, p))

		p.Status = payment.Refund
		require.NoError(t, store.Save(ctx, p))

		found, ok, err := store.Find(ctx, "order-3", "tx-3")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, payment.Refund, found.Status)
		assert.InDelta(t, 40.9, found.TotalAmount, 1e-9)
	})

	t.Run("order events", func(t *testing.T) {
		store, err := order.NewSQLStore(ctx, db, message.NewJsonMarshaller())
		require.NoError(t, err)

		ev := sagatest.NewEvent("order-4", "tx-4", sagatest.Item("BOOKS", 5, 2))
		ev.CreatedAt = createdAt
		require.NoError(t, store.SaveOrder(ctx, ev.Payload))
		require.NoError(t, store.SaveEvent(ctx, ev))

		ev.Transit(saga.OrchestratorSource, saga.Success, "Saga finished successfully!")
		require.NoError(t, store.SaveEvent(ctx, ev))

		last, err := order.NewEventQuery(store).FindByFilters(ctx, order.Filter{TransactionID: "tx-4"})
		require.NoError(t, err)
		assert.Equal(t, saga.OrchestratorSource, last.Source)
		assert.Len(t, last.History, 1)

		events, err := store.FindEvents(ctx)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
}
