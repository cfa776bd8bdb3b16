package order

import (
	"context"

	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/saga"
)

// EventQuery reads envelopes recorded by the initiator and the notifier
type EventQuery struct {
	store Store
}

func NewEventQuery(store Store) *EventQuery {
	return &EventQuery{store: store}
}

func (q *EventQuery) FindAll(ctx context.Context) ([]*saga.Event, error) {
	events, err := q.store.FindEvents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "finding events")
	}

	return events, nil
}

func (q *EventQuery) FindByFilters(ctx context.Context, filter Filter) (*saga.Event, error) {
	if filter.OrderID == "" && filter.TransactionID == "" {
		return nil, saga.WithValidationFailure(errors.New("OrderId or TransactionId must be informed."))
	}

	if filter.OrderID != "" {
		ev, found, err := q.store.LastEventByOrderID(ctx, filter.OrderID)
		if err != nil {
			return nil, errors.Wrapf(err, "finding event of order %s", filter.OrderID)
		}
		if !found {
			return nil, saga.WithNotFound(errors.New("Event not found OrderId."))
		}
		return ev, nil
	}

	ev, found, err := q.store.LastEventByTransactionID(ctx, filter.TransactionID)
	if err != nil {
		return nil, errors.Wrapf(err, "finding event of transaction %s", filter.TransactionID)
	}
	if !found {
		return nil, saga.WithNotFound(errors.New("Event not found TransactionId."))
	}

	return ev, nil
}
