package saga

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable_Resolve(t *testing.T) {
	table, err := NewTransitionTable(DefaultPipeline)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		source  Source
		status  Status
		channel Channel
	}{
		{"saga started", OrchestratorSource, Success, ProductValidationSuccessChannel},
		{"validation succeeded", ProductValidationSource, Success, InventorySuccessChannel},
		{"inventory succeeded", InventorySource, Success, PaymentSuccessChannel},
		{"payment succeeded, last participant", PaymentSource, Success, FinishSuccessChannel},
		{"validation failed, compensate itself", ProductValidationSource, RollbackPending, ProductValidationFailChannel},
		{"inventory failed, compensate itself", InventorySource, RollbackPending, InventoryFailChannel},
		{"payment failed, compensate itself", PaymentSource, RollbackPending, PaymentFailChannel},
		{"payment compensated, go to inventory", PaymentSource, Fail, InventoryFailChannel},
		{"inventory compensated, go to validation", InventorySource, Fail, ProductValidationFailChannel},
		{"validation compensated, first participant", ProductValidationSource, Fail, FinishFailChannel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			channel, err := table.Resolve(tc.source, tc.status)
			require.NoError(t, err)
			assert.Equal(t, tc.channel, channel)
		})
	}

	t.Run("unmapped pairs are routing errors", func(t *testing.T) {
		unmapped := []struct {
			source Source
			status Status
		}{
			{OrchestratorSource, Fail},
			{OrchestratorSource, RollbackPending},
			{ProductValidationSource, Pending},
			{"SHIPPING_SERVICE", Success},
			{"", Success},
			{PaymentSource, ""},
		}

		for _, pair := range unmapped {
			channel, err := table.Resolve(pair.source, pair.status)
			assert.Empty(t, channel)
			require.Error(t, err)
			assert.True(t, IsRoutingError(err))

			var routingErr RoutingError
			require.True(t, errors.As(err, &routingErr))
			assert.Equal(t, pair.source, routingErr.Source)
			assert.Equal(t, pair.status, routingErr.Status)
		}
	})

	t.Run("error message", func(t *testing.T) {
		_, err := table.Resolve(OrchestratorSource, Fail)
		assert.EqualError(t, err, "no transition defined for source 'ORCHESTRATOR' and status 'FAIL'")
	})
}

func TestNewTransitionTable(t *testing.T) {
	t.Run("empty pipeline", func(t *testing.T) {
		_, err := NewTransitionTable(Pipeline{})
		assert.EqualError(t, err, "pipeline has no participants")
	})

	t.Run("duplicated source", func(t *testing.T) {
		_, err := NewTransitionTable(Pipeline{
			{Source: InventorySource, Do: "a", Undo: "b"},
			{Source: InventorySource, Do: "c", Undo: "d"},
		})
		assert.EqualError(t, err, "source 'INVENTORY_SERVICE' is defined more than once in the pipeline")
	})

	t.Run("orchestrator can't be a participant", func(t *testing.T) {
		_, err := NewTransitionTable(Pipeline{{Source: OrchestratorSource, Do: "a", Undo: "b"}})
		assert.EqualError(t, err, "step 0 has invalid source 'ORCHESTRATOR'")
	})

	t.Run("single participant is both first and last", func(t *testing.T) {
		table, err := NewTransitionTable(Pipeline{{Source: PaymentSource, Do: PaymentSuccessChannel, Undo: PaymentFailChannel}})
		require.NoError(t, err)

		ch, err := table.Resolve(PaymentSource, Success)
		require.NoError(t, err)
		assert.Equal(t, FinishSuccessChannel, ch)

		ch, err = table.Resolve(PaymentSource, Fail)
		require.NoError(t, err)
		assert.Equal(t, FinishFailChannel, ch)
	})

	t.Run("entries", func(t *testing.T) {
		table, err := NewTransitionTable(DefaultPipeline)
		require.NoError(t, err)

		entries := table.Entries()
		assert.Len(t, entries, 10)
		assert.Equal(t, Transition{Source: InventorySource, Status: Fail, Channel: ProductValidationFailChannel}, entries[0])
	})

	t.Run("channels", func(t *testing.T) {
		channels := DefaultPipeline.Channels()
		assert.Len(t, channels, 11)
		assert.Contains(t, channels, NotifyEndingChannel)
		assert.Contains(t, channels, PaymentFailChannel)
	})
}

func TestErrorTaxonomy(t *testing.T) {
	guard := WithGuardViolation(errors.New("There's another transactionId for this validation."))
	wrapped := errors.Wrap(guard, "executing forward action")

	assert.True(t, IsGuardViolation(wrapped))
	assert.False(t, IsValidationFailure(wrapped))
	assert.EqualError(t, wrapped, "executing forward action: There's another transactionId for this validation.")

	notFound := WithNotFound(errors.Wrap(errors.New("no rows"), "Inventory not found by informed product."))
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsRoutingError(notFound))

	assert.True(t, IsValidationFailure(WithValidationFailure(errors.New("Product is out of stock!"))))
}
