package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/saga"
)

const transactionIDPattern = "%d_%s"

var now = time.Now

// Initiator places orders and starts their sagas. It is the only place a saga identity is minted.
type Initiator struct {
	store     Store
	publisher Publisher
	logger    log.Logger
}

func NewInitiator(store Store, publisher Publisher, logger log.Logger) *Initiator {
	return &Initiator{store: store, publisher: publisher, logger: logger}
}

// CreateOrder persists the order with its pending envelope and publishes the envelope to the start channel
func (i *Initiator) CreateOrder(ctx context.Context, req OrderRequest) (saga.Order, error) {
	if len(req.Products) == 0 {
		return saga.Order{}, saga.WithValidationFailure(errors.New("Product List is empty!!"))
	}

	createdAt := now()

	order := saga.Order{
		ID:            uuid.NewString(),
		Products:      req.Products,
		CreatedAt:     createdAt,
		TransactionID: fmt.Sprintf(transactionIDPattern, createdAt.UnixMilli(), uuid.NewString()),
	}

	if err := i.store.SaveOrder(ctx, order); err != nil {
		return saga.Order{}, errors.Wrapf(err, "saving order %s", order.ID)
	}

	ev := &saga.Event{
		ID:            uuid.NewString(),
		TransactionID: order.TransactionID,
		OrderID:       order.ID,
		Payload:       order,
		Status:        saga.Pending,
		CreatedAt:     createdAt,
	}

	if err := i.store.SaveEvent(ctx, ev); err != nil {
		return saga.Order{}, errors.Wrapf(err, "saving event of order %s", order.ID)
	}

	msg := message.NewOutcomingMessage(saga.StartSagaChannel, ev, message.WithTraceID(order.TransactionID))

	if err := i.publisher.Send(ctx, msg); err != nil {
		return saga.Order{}, errors.Wrapf(err, "publishing order %s to %s", order.ID, saga.StartSagaChannel)
	}

	i.logger.Logf(log.InfoLevel, "Order %s created. TransactionId: %s", order.ID, order.TransactionID)

	return order, nil
}
