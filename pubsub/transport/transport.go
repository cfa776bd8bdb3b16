package transport

import (
	"context"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/transport/transport.go -package transport . Transport,IncomingPkg

// Transport hides a broker behind topics (exchanges), queues and bindings between them
type Transport interface {
	CreateTopic(ctx context.Context, topic Topic) error
	CreateQueue(ctx context.Context, queue Queue, queueBind ...QueueBind) error
	Consume(ctx context.Context, queues []Queue, options ...ConsumeOpt) (<-chan IncomingPkg, error)
	Send(ctx context.Context, outboundPkg OutboundPkg, options ...SendOpt) error
	Connect(context.Context) error
	Disconnect(context.Context) error
}

type Topic interface {
	Name() string
}

type Queue interface {
	Name() string
}

type QueueBind interface {
	DestinationTopic() string
	BindingKey() string
}

// ConsumeOpt and SendOpt are applied by a transport to its own options type
type ConsumeOpt func(options interface{}) error
type SendOpt func(options interface{}) error
