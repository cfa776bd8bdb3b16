package order

import (
	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/pubsub/message/execution"
)

// Notifier records the final envelope of a saga
type Notifier struct {
	store Store
}

func NewNotifier(store Store) *Notifier {
	return &Notifier{store: store}
}

func (n *Notifier) NotifyEnding(execCtx execution.MessageExecutionCtx) error {
	ev := execCtx.Message().Event()

	if err := n.store.SaveEvent(execCtx.Context(), ev); err != nil {
		return errors.Wrapf(err, "saving ended saga of order %s", ev.OrderID)
	}

	execCtx.Logger().Logf(log.InfoLevel, "Order %s with saga notified! TransactionId: %s", ev.OrderID, ev.TransactionID)

	return nil
}
