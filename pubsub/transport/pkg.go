package transport

import (
	"time"
)

// IncomingPkg is a raw delivery consumed from a channel queue, it must be settled by Ack, Nack or Reject exactly once
type IncomingPkg interface {
	UID() string
	// Origin is a name of the queue the package was consumed from, which is the saga channel
	Origin() string
	Payload() []byte
	Headers() map[string]interface{}
	Ack(options ...AcknowledgmentOption) error
	Nack(options ...AcknowledgmentOption) error
	Reject(options ...AcknowledgmentOption) error
	ReceivedAt() time.Time
	PublishedAt() time.Time
}

type OutboundPkg interface {
	Payload() []byte
	ContentType() string
	Headers() map[string]interface{}
	Destination() DeliveryDestination
}

// DeliveryDestination addresses a saga channel, RoutingKey is the channel name bound to the DestinationTopic
type DeliveryDestination struct {
	DestinationTopic string
	RoutingKey       string
}

func NewOutboundPkg(payload []byte, contentType string, destination DeliveryDestination, headers map[string]interface{}) OutboundPkg {
	return outboundPkg{payload: payload, contentType: contentType, destination: destination, headers: headers}
}

type outboundPkg struct {
	payload     []byte
	contentType string
	headers     map[string]interface{}
	destination DeliveryDestination
}

func (o outboundPkg) Payload() []byte                  { return o.payload }
func (o outboundPkg) ContentType() string              { return o.contentType }
func (o outboundPkg) Headers() map[string]interface{}  { return o.headers }
func (o outboundPkg) Destination() DeliveryDestination { return o.destination }

// AckOptions are collected by transports when a package is settled
type AckOptions struct {
	Requeue bool
}

type AcknowledgmentOption func(o *AckOptions)

// WithRequeue puts a nacked or rejected package back to its queue, the subscriber uses it for transient failures
func WithRequeue() AcknowledgmentOption {
	return func(o *AckOptions) {
		o.Requeue = true
	}
}

func CollectAckOptions(options ...AcknowledgmentOption) AckOptions {
	opts := AckOptions{}
	for _, o := range options {
		o(&opts)
	}

	return opts
}
