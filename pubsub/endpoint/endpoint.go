package endpoint

import (
	"context"
	"time"

	"github.com/go-foreman/ordersaga/pubsub/message"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/endpoint/endpoint.go -package endpoint . Endpoint,Router

type Endpoint interface {
	// Name is a unique name of the endpoint
	Name() string
	// Send delivers a message to the channel it is addressed to
	Send(ctx context.Context, message *message.OutcomingMessage, options ...DeliveryOption) error
}

type deliveryOptions struct {
	delay *time.Duration
}

func WithDelay(delay time.Duration) DeliveryOption {
	return func(o *deliveryOptions) error {
		o.delay = &delay
		return nil
	}
}

type DeliveryOption func(o *deliveryOptions) error
