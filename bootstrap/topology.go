package bootstrap

import (
	"context"

	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/config"
	"github.com/go-foreman/ordersaga/pubsub/endpoint"
	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/pubsub/transport"
	"github.com/go-foreman/ordersaga/pubsub/transport/amqp"
	"github.com/go-foreman/ordersaga/saga"
)

// Topology builds transport specific topic, queue and binding declarations
type Topology struct {
	Topic func(name string) transport.Topic
	Queue func(name string) transport.Queue
	Bind  func(topic, bindingKey string) transport.QueueBind
	// ConsumeOpts are passed to the transport by every subscriber
	ConsumeOpts []transport.ConsumeOpt
}

// AmqpTopology declares a durable topic exchange and durable queues, each worker gets one prefetched delivery
func AmqpTopology(conf *config.Config) Topology {
	var queueOpts []amqp.DeclareOpt
	if conf.QuorumQueues {
		queueOpts = append(queueOpts, amqp.Quorum())
	}

	return Topology{
		Topic: func(name string) transport.Topic {
			return amqp.Topic(name)
		},
		Queue: func(name string) transport.Queue {
			return amqp.Queue(name, queueOpts...)
		},
		Bind:        amqp.QueueBind,
		ConsumeOpts: []transport.ConsumeOpt{amqp.WithQosPrefetchCount(conf.WorkersCount)},
	}
}

var MemoryTopology = Topology{
	Topic: transport.NewTopic,
	Queue: transport.NewQueue,
	Bind:  transport.NewQueueBind,
}

// Declare creates the exchange and one queue per channel bound to it by the channel name
func (tp Topology) Declare(ctx context.Context, t transport.Transport, exchange string, channels ...saga.Channel) error {
	if err := t.CreateTopic(ctx, tp.Topic(exchange)); err != nil {
		return errors.Wrapf(err, "creating exchange %s", exchange)
	}

	for _, channel := range channels {
		if err := t.CreateQueue(ctx, tp.Queue(string(channel)), tp.Bind(exchange, string(channel))); err != nil {
			return errors.Wrapf(err, "creating queue %s", channel)
		}
	}

	return nil
}

// NewRouter routes every channel to the exchange, the channel name is used as a routing key
func NewRouter(t transport.Transport, exchange string, channels ...saga.Channel) endpoint.Router {
	router := endpoint.NewRouter()
	router.RegisterEndpoint(endpoint.NewAmqpEndpoint(exchange, t, exchange, message.NewJsonMarshaller()), channels...)

	return router
}
