package endpoint

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/pubsub/transport"
)

// AmqpEndpoint publishes messages to a topic with the message channel as a routing key
type AmqpEndpoint struct {
	transport     transport.Transport
	topic         string
	msgMarshaller message.Marshaller
	name          string
}

func NewAmqpEndpoint(name string, transport transport.Transport, topic string, msgMarshaller message.Marshaller) Endpoint {
	return &AmqpEndpoint{name: name, transport: transport, topic: topic, msgMarshaller: msgMarshaller}
}

func (a AmqpEndpoint) Name() string {
	return a.name
}

func (a AmqpEndpoint) Send(ctx context.Context, msg *message.OutcomingMessage, opts ...DeliveryOption) error {
	deliveryOpts := &deliveryOptions{}

	for _, opt := range opts {
		if err := opt(deliveryOpts); err != nil {
			return errors.Wrapf(err, "error compiling delivery options for message %s", msg.UID())
		}
	}

	dataToSend, err := a.msgMarshaller.Marshal(msg.Event())
	if err != nil {
		return errors.Wrapf(err, "error serializing message %s to json", msg.UID())
	}

	destination := transport.DeliveryDestination{DestinationTopic: a.topic, RoutingKey: string(msg.Channel())}
	toSend := transport.NewOutboundPkg(dataToSend, "application/json", destination, msg.Headers())

	if deliveryOpts.delay != nil {
		timer := time.NewTimer(*deliveryOpts.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return errors.Errorf("failed to send message %s. Was waiting for the delay and parent ctx closed.", msg.UID())
		case <-timer.C:
		}
	}

	return a.transport.Send(ctx, toSend)
}
