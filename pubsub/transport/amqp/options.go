package amqp

import (
	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/pubsub/transport"
)

type consumeOptions struct {
	Exclusive     bool
	PrefetchCount uint
}

type sendOptions struct {
	Mandatory bool
}

// optionsOf asserts that an option is applied by this transport, options of other transports are refused
func optionsOf[T any](options interface{}, optName, typeName string) (*T, error) {
	opts, ok := options.(*T)
	if !ok {
		return nil, errors.Errorf("calling %s opt: this option must be called on amqp.%s type", optName, typeName)
	}

	return opts, nil
}

// WithQosPrefetchCount limits unacked deliveries per consuming channel, bootstrap sets it to the number of workers
func WithQosPrefetchCount(limit uint) transport.ConsumeOpt {
	return func(options interface{}) error {
		opts, err := optionsOf[consumeOptions](options, "WithQosPrefetchCount", "consumeOptions")
		if err != nil {
			return err
		}

		opts.PrefetchCount = limit

		return nil
	}
}

// WithExclusive makes the consumer the only one of a queue
func WithExclusive() transport.ConsumeOpt {
	return func(options interface{}) error {
		opts, err := optionsOf[consumeOptions](options, "WithExclusive", "consumeOptions")
		if err != nil {
			return err
		}

		opts.Exclusive = true

		return nil
	}
}

// WithMandatory asks the broker to return an event which no saga channel is bound to
func WithMandatory() transport.SendOpt {
	return func(options interface{}) error {
		opts, err := optionsOf[sendOptions](options, "WithMandatory", "sendOptions")
		if err != nil {
			return err
		}

		opts.Mandatory = true

		return nil
	}
}
