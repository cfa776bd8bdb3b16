package message

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/pubsub/transport"
	"github.com/go-foreman/ordersaga/saga"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/message/marshaller.go -package message . Marshaller,Decoder

// Marshaller serializes an envelope for a transport package
type Marshaller interface {
	Marshal(event *saga.Event) ([]byte, error)
}

// Decoder restores received message from an incoming package
type Decoder interface {
	Decode(inPkg transport.IncomingPkg) (*ReceivedMessage, error)
}

type DecoderErr struct {
	error
}

func WithDecoderErr(err error) error {
	return DecoderErr{err}
}

func NewJsonMarshaller() Marshaller {
	return jsonMarshaller{}
}

type jsonMarshaller struct{}

func (j jsonMarshaller) Marshal(event *saga.Event) ([]byte, error) {
	if event == nil {
		return nil, errors.New("event is nil")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return data, nil
}

func NewJsonDecoder() Decoder {
	return jsonDecoder{}
}

type jsonDecoder struct{}

func (j jsonDecoder) Decode(inPkg transport.IncomingPkg) (*ReceivedMessage, error) {
	event := &saga.Event{}

	if err := json.Unmarshal(inPkg.Payload(), event); err != nil {
		return nil, WithDecoderErr(errors.Wrapf(err, "decoding package %s from %s", inPkg.UID(), inPkg.Origin()))
	}

	if event.ID == "" {
		return nil, WithDecoderErr(errors.Errorf("package %s from %s does not carry an event id", inPkg.UID(), inPkg.Origin()))
	}

	headers := Headers{}
	for k, v := range inPkg.Headers() {
		headers[k] = v
	}

	return NewReceivedMessage(inPkg.UID(), event, headers, inPkg.ReceivedAt(), inPkg.Origin()), nil
}
