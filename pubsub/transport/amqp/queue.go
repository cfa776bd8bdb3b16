package amqp

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/go-foreman/ordersaga/pubsub/transport"
)

// declaration holds broker flags of an exchange or a queue. Saga channels are durable unless told otherwise
type declaration struct {
	durable    bool
	autoDelete bool
	quorum     bool
}

type DeclareOpt func(d *declaration)

// Transient declarations are lost on broker restart, meant for tests and throwaway environments
func Transient() DeclareOpt {
	return func(d *declaration) {
		d.durable = false
		d.autoDelete = true
	}
}

// Quorum declares a replicated quorum queue, ignored for exchanges
func Quorum() DeclareOpt {
	return func(d *declaration) {
		d.quorum = true
	}
}

func declare(opts []DeclareOpt) declaration {
	d := declaration{durable: true}
	for _, opt := range opts {
		opt(&d)
	}

	return d
}

// Topic declares a topic exchange all saga channels are routed through
func Topic(name string, opts ...DeclareOpt) transport.Topic {
	return amqpTopic{name: name, declaration: declare(opts)}
}

type amqpTopic struct {
	declaration
	name string
}

func (a amqpTopic) Name() string {
	return a.name
}

// Queue declares the queue of a single saga channel
func Queue(name string, opts ...DeclareOpt) transport.Queue {
	return amqpQueue{name: name, declaration: declare(opts)}
}

type amqpQueue struct {
	declaration
	name string
}

func (q amqpQueue) Name() string {
	return q.name
}

func (q amqpQueue) args() amqp.Table {
	if !q.quorum {
		return nil
	}

	return amqp.Table{"x-queue-type": "quorum"}
}

// QueueBind binds a channel queue to the exchange by the channel name
func QueueBind(destinationTopic, bindingKey string) transport.QueueBind {
	return amqpQueueBind{destination: destinationTopic, binding: bindingKey}
}

type amqpQueueBind struct {
	destination string
	binding     string
}

func (q amqpQueueBind) DestinationTopic() string {
	return q.destination
}

func (q amqpQueueBind) BindingKey() string {
	return q.binding
}
