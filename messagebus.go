package ordersaga

import (
	"context"

	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/pubsub/dispatcher"
	"github.com/go-foreman/ordersaga/pubsub/endpoint"
	"github.com/go-foreman/ordersaga/pubsub/inbox"
	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/pubsub/message/execution"
	"github.com/go-foreman/ordersaga/pubsub/subscriber"
	"github.com/go-foreman/ordersaga/pubsub/transport"
	"github.com/go-foreman/ordersaga/saga"
)

// Component allow to wrap and prepare booting of your component, which will be initialized by MessageBus
type Component interface {
	Init(b *MessageBus) error
}

// SubscriberOption allows to provide a few options for configuring Subscriber
type SubscriberOption func(subscriberOpts *subscriberOpts, c *container)

type subscriberOpts struct {
	subscriber subscriber.Subscriber
	transport  transport.Transport
	opts       []subscriber.Opt
}

// WithSubscriber option allows to specify your own implementation of Subscriber for MessageBus
func WithSubscriber(subscriber subscriber.Subscriber) SubscriberOption {
	return func(subscriberOpts *subscriberOpts, c *container) {
		subscriberOpts.subscriber = subscriber
	}
}

// DefaultWithTransport option allows to specify your own transport which will be used in the default subscriber
func DefaultWithTransport(transport transport.Transport, opts ...subscriber.Opt) SubscriberOption {
	return func(subscriberOpts *subscriberOpts, c *container) {
		subscriberOpts.transport = transport
		subscriberOpts.opts = opts
	}
}

// SubscriberFactory is a function which gives you an access to default Processor and message.Decoder, these are needed when you implement own Subscriber
type SubscriberFactory func(processor subscriber.Processor, decoder message.Decoder) subscriber.Subscriber

// WithSubscriberFactory provides a way to construct your own Subscriber and pass it along to MessageBus
func WithSubscriberFactory(factory SubscriberFactory) SubscriberOption {
	return func(subscriberOpts *subscriberOpts, c *container) {
		subscriberOpts.subscriber = factory(c.processor, c.messageDecoder)
	}
}

// QueueFactory builds a transport queue consumed for a channel
type QueueFactory func(channel saga.Channel) transport.Queue

// ConfigOption allows to configure MessageBus's container
type ConfigOption func(o *container)

type container struct {
	messageExecutionCtxFactory execution.MessageExecutionCtxFactory
	messagesDispatcher         dispatcher.Dispatcher
	router                     endpoint.Router
	messageDecoder             message.Decoder
	processor                  subscriber.Processor
	inbox                      inbox.Inbox
	queueFactory               QueueFactory
	components                 []Component
}

// WithComponents specifies a list of additional components you want to be registered in MessageBus
func WithComponents(components ...Component) ConfigOption {
	return func(c *container) {
		c.components = append(c.components, components...)
	}
}

// WithRouter allows to provide another endpoint.Router implementation
func WithRouter(router endpoint.Router) ConfigOption {
	return func(c *container) {
		c.router = router
	}
}

// WithDispatcher allows to provide another dispatcher.Dispatcher implementation
func WithDispatcher(dispatcher dispatcher.Dispatcher) ConfigOption {
	return func(c *container) {
		c.messagesDispatcher = dispatcher
	}
}

// WithMessageDecoder allows to provide another message.Decoder implementation
func WithMessageDecoder(decoder message.Decoder) ConfigOption {
	return func(c *container) {
		c.messageDecoder = decoder
	}
}

// WithMessageExecutionFactory allows to provide own execution.MessageExecutionCtxFactory
func WithMessageExecutionFactory(factory execution.MessageExecutionCtxFactory) ConfigOption {
	return func(c *container) {
		c.messageExecutionCtxFactory = factory
	}
}

// WithInbox makes the default processor skip packages which were already processed
func WithInbox(inbox inbox.Inbox) ConfigOption {
	return func(c *container) {
		c.inbox = inbox
	}
}

// WithQueueFactory allows to declare queues with transport specific options
func WithQueueFactory(factory QueueFactory) ConfigOption {
	return func(c *container) {
		c.queueFactory = factory
	}
}

// MessageBus is a main component, kind of a container which aggregates other components
type MessageBus struct {
	messagesDispatcher dispatcher.Dispatcher
	router             endpoint.Router
	subscriber         subscriber.Subscriber
	queueFactory       QueueFactory
	logger             log.Logger
}

// NewMessageBus constructs MessageBus, allows to specify logger, choose subscriber or use default with transport and other options which configure implementations of other important parts
func NewMessageBus(logger log.Logger, subscriberOption SubscriberOption, configOpts ...ConfigOption) (*MessageBus, error) {
	b := &MessageBus{logger: logger}

	opts := &container{}
	for _, config := range configOpts {
		config(opts)
	}

	if opts.messagesDispatcher == nil {
		opts.messagesDispatcher = dispatcher.NewDispatcher()
	}

	if opts.router == nil {
		opts.router = endpoint.NewRouter()
	}

	if opts.messageExecutionCtxFactory == nil {
		opts.messageExecutionCtxFactory = execution.NewMessageExecutionCtxFactory(opts.router, logger)
	}

	if opts.messageDecoder == nil {
		opts.messageDecoder = message.NewJsonDecoder()
	}

	if opts.processor == nil {
		opts.processor = subscriber.NewMessageProcessor(opts.messageDecoder, opts.messageExecutionCtxFactory, opts.messagesDispatcher, opts.inbox, logger)
	}

	if opts.queueFactory == nil {
		opts.queueFactory = func(channel saga.Channel) transport.Queue {
			return transport.NewQueue(string(channel))
		}
	}

	b.messagesDispatcher = opts.messagesDispatcher
	b.router = opts.router
	b.queueFactory = opts.queueFactory

	subscriberOpt := &subscriberOpts{}
	subscriberOption(subscriberOpt, opts)

	if subscriberOpt.subscriber != nil {
		b.subscriber = subscriberOpt.subscriber
	} else if subscriberOpt.transport != nil {
		b.subscriber = subscriber.NewSubscriber(subscriberOpt.transport, opts.processor, logger, subscriberOpt.opts...)
	} else {
		return nil, errors.New("subscriber is nil")
	}

	for _, component := range opts.components {
		if err := component.Init(b); err != nil {
			return nil, errors.Wrap(err, "initializing component")
		}
	}

	return b, nil
}

// Dispatcher returns an instance of dispatcher.Dispatcher
func (b *MessageBus) Dispatcher() dispatcher.Dispatcher {
	return b.messagesDispatcher
}

// Router returns an instance of endpoint.Router
func (b *MessageBus) Router() endpoint.Router {
	return b.router
}

// Subscriber returns an instance of subscriber.Subscriber which controls the main flow of messages
func (b *MessageBus) Subscriber() subscriber.Subscriber {
	return b.subscriber
}

// Logger returns an instance of logger
func (b *MessageBus) Logger() log.Logger {
	return b.logger
}

// Send publishes a message outside of any execution context, e.g. when a saga is initiated
func (b *MessageBus) Send(ctx context.Context, msg *message.OutcomingMessage, options ...endpoint.DeliveryOption) error {
	endpoints := b.router.Route(msg.Channel())

	if len(endpoints) == 0 {
		return execution.WithNoDefinedEndpoints(errors.Errorf("no endpoints defined for channel %s", msg.Channel()))
	}

	for _, endp := range endpoints {
		if err := endp.Send(ctx, msg, options...); err != nil {
			return errors.Wrapf(err, "sending message %s to %s", msg.UID(), endp.Name())
		}
	}

	return nil
}

// Run consumes every channel that has executors subscribed by components
func (b *MessageBus) Run(ctx context.Context) error {
	channels := b.messagesDispatcher.Channels()
	if len(channels) == 0 {
		return errors.New("no executors are subscribed, nothing to consume")
	}

	queues := make([]transport.Queue, len(channels))
	for i, channel := range channels {
		queues[i] = b.queueFactory(channel)
	}

	return b.subscriber.Run(ctx, queues...)
}
