package saga

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_AppendHistory(t *testing.T) {
	fixedTime := time.Date(2022, 6, 1, 10, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixedTime }
	defer func() { now = time.Now }()

	t.Run("entry reflects current source and status", func(t *testing.T) {
		ev := &Event{ID: "ev", OrderID: "order", TransactionID: "tx", Status: Pending}
		ev.Source = OrchestratorSource
		ev.Status = Success
		ev.AppendHistory("Saga started!")

		require.Len(t, ev.History, 1)
		assert.Equal(t, History{Source: OrchestratorSource, Status: Success, Message: "Saga started!", CreatedAt: fixedTime}, ev.History[0])
	})

	t.Run("history only grows and old entries are untouched", func(t *testing.T) {
		ev := &Event{}
		ev.Transit(OrchestratorSource, Success, "Saga started!")
		snapshot := ev.History

		ev.Transit(ProductValidationSource, Success, "validated")
		ev.Transit(InventorySource, RollbackPending, "out of stock")

		require.Len(t, snapshot, 1)
		assert.Equal(t, "Saga started!", snapshot[0].Message)

		require.Len(t, ev.History, 3)
		assert.Equal(t, "Saga started!", ev.History[0].Message)
		assert.Equal(t, InventorySource, ev.History[2].Source)
		assert.Equal(t, RollbackPending, ev.History[2].Status)

		last, ok := ev.LastHistory()
		require.True(t, ok)
		assert.Equal(t, "out of stock", last.Message)
	})

	t.Run("appending to a shared prefix doesn't leak between copies", func(t *testing.T) {
		ev := &Event{}
		ev.Transit(OrchestratorSource, Success, "first")

		a := ev.Clone()
		b := ev.Clone()
		a.Transit(ProductValidationSource, Success, "a")
		b.Transit(ProductValidationSource, RollbackPending, "b")

		assert.Equal(t, "a", a.History[1].Message)
		assert.Equal(t, "b", b.History[1].Message)
		assert.Len(t, ev.History, 1)
	})

	t.Run("no history", func(t *testing.T) {
		_, ok := (&Event{}).LastHistory()
		assert.False(t, ok)
	})
}

func TestEvent_Clone(t *testing.T) {
	ev := &Event{
		ID:      "ev",
		OrderID: "order",
		Payload: Order{ID: "order", Products: []OrderProduct{{Product: Product{Code: "COMIC_BOOKS", UnitValue: 15.5}, Quantity: 2}}},
	}
	c := ev.Clone()
	c.Payload.Products[0].Quantity = 10
	c.Payload.TotalAmount = 31

	assert.Equal(t, 2, ev.Payload.Products[0].Quantity)
	assert.Zero(t, ev.Payload.TotalAmount)
}

func TestEvent_JSON(t *testing.T) {
	createdAt := time.Date(2022, 6, 1, 10, 0, 0, 0, time.UTC)
	ev := Event{
		ID:            "ev",
		TransactionID: "1654077600000_6d4c",
		OrderID:       "order",
		Payload: Order{
			ID:            "order",
			Products:      []OrderProduct{{Product: Product{Code: "MUSIC", UnitValue: 5}, Quantity: 2}},
			CreatedAt:     createdAt,
			TransactionID: "1654077600000_6d4c",
		},
		Source:    InventorySource,
		Status:    RollbackPending,
		History:   []History{{Source: InventorySource, Status: RollbackPending, Message: "Product is out of stock!", CreatedAt: createdAt}},
		CreatedAt: createdAt,
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "eventHistory")
	assert.Equal(t, "ROLLBACK_PENDING", raw["status"])
	assert.Equal(t, "INVENTORY_SERVICE", raw["source"])

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ev, decoded)
}
