package order

import (
	"context"

	"github.com/go-foreman/ordersaga/pubsub/endpoint"
	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/saga"
)

//go:generate mockgen --build_flags=--mod=mod -destination ./mock_test.go -package order . Publisher

type OrderRequest struct {
	Products []saga.OrderProduct `json:"products"`
}

// Filter selects the most recent envelope by order id, or by transaction id when order id is empty
type Filter struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
}

// Store keeps placed orders and the envelopes of their sagas
type Store interface {
	SaveOrder(ctx context.Context, order saga.Order) error
	// SaveEvent inserts or replaces an envelope by its id
	SaveEvent(ctx context.Context, ev *saga.Event) error
	// FindEvents returns every envelope, most recent first
	FindEvents(ctx context.Context) ([]*saga.Event, error)
	LastEventByOrderID(ctx context.Context, orderID string) (*saga.Event, bool, error)
	LastEventByTransactionID(ctx context.Context, transactionID string) (*saga.Event, bool, error)
}

// Publisher sends messages outside of an execution context, the message bus is one
type Publisher interface {
	Send(ctx context.Context, msg *message.OutcomingMessage, options ...endpoint.DeliveryOption) error
}
