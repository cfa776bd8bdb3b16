package dispatcher

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-foreman/ordersaga/pubsub/message/execution"
	"github.com/go-foreman/ordersaga/saga"
)

type service struct {
}

func (h *service) execute(execCtx execution.MessageExecutionCtx) error {
	return nil
}

func (h *service) compensate(execCtx execution.MessageExecutionCtx) error {
	return nil
}

var handler = &service{}

func TestDispatcher_Subscribe(t *testing.T) {
	t.Run("subscribe executor for channel", func(t *testing.T) {
		dispatcher := NewDispatcher()
		dispatcher.Subscribe(saga.InventorySuccessChannel, handler.execute)

		executors := dispatcher.Match(saga.InventorySuccessChannel)
		require.Len(t, executors, 1)
		assertThisValueExists(t, handler.execute, executors)

		assert.Empty(t, dispatcher.Match(saga.InventoryFailChannel))
	})

	t.Run("multiple executors for channel", func(t *testing.T) {
		dispatcher := NewDispatcher()
		dispatcher.
			Subscribe(saga.OrchestratorChannel, handler.execute).
			Subscribe(saga.OrchestratorChannel, handler.compensate)

		executors := dispatcher.Match(saga.OrchestratorChannel)
		require.Len(t, executors, 2)
		assertThisValueExists(t, handler.execute, executors)
		assertThisValueExists(t, handler.compensate, executors)
	})

	t.Run("same executor is registered once", func(t *testing.T) {
		dispatcher := NewDispatcher()
		dispatcher.Subscribe(saga.PaymentFailChannel, handler.compensate)
		dispatcher.Subscribe(saga.PaymentFailChannel, handler.compensate)

		require.Len(t, dispatcher.Match(saga.PaymentFailChannel), 1)
	})

	t.Run("channels with executors", func(t *testing.T) {
		dispatcher := NewDispatcher()
		dispatcher.Subscribe(saga.PaymentSuccessChannel, handler.execute)
		dispatcher.Subscribe(saga.PaymentFailChannel, handler.compensate)

		assert.Equal(t, []saga.Channel{saga.PaymentFailChannel, saga.PaymentSuccessChannel}, dispatcher.Channels())
	})
}

func assertThisValueExists(t *testing.T, expected execution.Executor, executors []execution.Executor) {
	expectedPtr := reflect.ValueOf(expected).Pointer()
	for _, e := range executors {
		if reflect.ValueOf(e).Pointer() == expectedPtr {
			return
		}
	}

	assert.Fail(t, "executor is not found among matched executors")
}
