package amqp

import (
	"time"

	"github.com/go-foreman/ordersaga/pubsub/transport"
)

type inAmqpPkg struct {
	delivery   Delivery
	receivedAt time.Time
	origin     string
}

func (i inAmqpPkg) UID() string {
	if uid, ok := i.Headers()["uid"].(string); ok {
		return uid
	}
	return ""
}

func (i inAmqpPkg) Origin() string {
	return i.origin
}

func (i inAmqpPkg) Payload() []byte {
	return i.delivery.Body()
}

func (i inAmqpPkg) Headers() map[string]interface{} {
	headers := i.delivery.Headers()
	if headers == nil {
		return map[string]interface{}{}
	}

	return headers
}

// Ack settles this delivery only, a worker must never ack deliveries held by other workers
func (i inAmqpPkg) Ack(options ...transport.AcknowledgmentOption) error {
	return i.delivery.Ack(false)
}

func (i inAmqpPkg) Nack(options ...transport.AcknowledgmentOption) error {
	return i.delivery.Nack(false, transport.CollectAckOptions(options...).Requeue)
}

func (i inAmqpPkg) Reject(options ...transport.AcknowledgmentOption) error {
	return i.delivery.Reject(transport.CollectAckOptions(options...).Requeue)
}

func (i inAmqpPkg) PublishedAt() time.Time {
	return i.delivery.Timestamp()
}

func (i inAmqpPkg) ReceivedAt() time.Time {
	return i.receivedAt
}
