package message

import (
	"time"

	"github.com/google/uuid"

	"github.com/go-foreman/ordersaga/saga"
)

const (
	uidHeader          = "uid"
	traceIDHeader      = "traceId"
	returnsCountHeader = "returnsCount"
)

type Headers map[string]interface{}

// ReturnsCount reads the number of returns. Brokers and JSON may deliver the number as any numeric type.
func (h Headers) ReturnsCount() int {
	switch v := h[returnsCountHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (h Headers) RegisterReturn() {
	h[returnsCountHeader] = h.ReturnsCount() + 1
}

func (h Headers) TraceID() string {
	traceID, _ := h[traceIDHeader].(string)
	return traceID
}

func (h Headers) UID() string {
	uid, _ := h[uidHeader].(string)
	return uid
}

func (h Headers) copy() Headers {
	c := make(Headers, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}

// ReceivedMessage is an envelope consumed from a channel
type ReceivedMessage struct {
	uid        string
	event      *saga.Event
	headers    Headers
	receivedAt time.Time
	origin     string
}

func NewReceivedMessage(uid string, event *saga.Event, headers Headers, receivedAt time.Time, origin string) *ReceivedMessage {
	if headers == nil {
		headers = Headers{}
	}

	return &ReceivedMessage{uid: uid, event: event, headers: headers, receivedAt: receivedAt, origin: origin}
}

func (m ReceivedMessage) UID() string {
	return m.uid
}

// Event returns the envelope as it was received. Executors must Clone it before changing.
func (m ReceivedMessage) Event() *saga.Event {
	return m.event
}

func (m ReceivedMessage) Headers() Headers {
	return m.headers
}

func (m ReceivedMessage) ReceivedAt() time.Time {
	return m.receivedAt
}

// Origin is the channel the message was consumed from
func (m ReceivedMessage) Origin() saga.Channel {
	return saga.Channel(m.origin)
}

func (m ReceivedMessage) TraceID() string {
	return m.headers.TraceID()
}

// OutcomingMessage is an envelope addressed to a channel
type OutcomingMessage struct {
	uid     string
	channel saga.Channel
	event   *saga.Event
	headers Headers
}

func NewOutcomingMessage(channel saga.Channel, event *saga.Event, options ...MsgOption) *OutcomingMessage {
	opts := &msgOpts{}
	for _, o := range options {
		o(opts)
	}

	headers := Headers{}
	if opts.headers != nil {
		headers = opts.headers.copy()
	}

	uid := uuid.New().String()
	headers[uidHeader] = uid

	if opts.traceID != "" {
		headers[traceIDHeader] = opts.traceID
	}

	return &OutcomingMessage{uid: uid, channel: channel, event: event, headers: headers}
}

// FromReceivedMsg prepares the received message to be sent again to the channel it came from.
// The copy gets its own uid, the received one may be already marked as processed.
func FromReceivedMsg(received *ReceivedMessage) *OutcomingMessage {
	headers := received.Headers().copy()
	uid := uuid.New().String()
	headers[uidHeader] = uid

	return &OutcomingMessage{uid: uid, channel: received.Origin(), event: received.Event(), headers: headers}
}

func (m OutcomingMessage) UID() string {
	return m.uid
}

func (m OutcomingMessage) Channel() saga.Channel {
	return m.channel
}

func (m OutcomingMessage) Event() *saga.Event {
	return m.event
}

func (m OutcomingMessage) Headers() Headers {
	return m.headers
}

type MsgOption func(o *msgOpts)

type msgOpts struct {
	headers Headers
	traceID string
}

// WithHeaders sets initial headers, uid and traceId are always overridden
func WithHeaders(headers Headers) MsgOption {
	return func(o *msgOpts) {
		o.headers = headers
	}
}

func WithTraceID(traceID string) MsgOption {
	return func(o *msgOpts) {
		o.traceID = traceID
	}
}
