package subscriber

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/log"
	msgDispatcher "github.com/go-foreman/ordersaga/pubsub/dispatcher"
	"github.com/go-foreman/ordersaga/pubsub/inbox"
	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/pubsub/message/execution"
	"github.com/go-foreman/ordersaga/pubsub/transport"
)

type ctxKey string

// ContextTraceIDKey holds traceId of the processed message in the execution context
const ContextTraceIDKey ctxKey = "traceId"

const maxReturnsCount = 10

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/subscriber/processor.go -package subscriber . Processor,Subscriber

type Processor interface {
	Process(ctx context.Context, inPkg transport.IncomingPkg) error
}

type processor struct {
	logger            log.Logger
	decoder           message.Decoder
	dispatcher        msgDispatcher.Dispatcher
	msgExecCtxFactory execution.MessageExecutionCtxFactory
	inbox             inbox.Inbox
}

// NewMessageProcessor creates a processor. Inbox is optional, without it redelivered packages are executed again.
func NewMessageProcessor(decoder message.Decoder, msgExecCtxFactory execution.MessageExecutionCtxFactory, msgDispatcher msgDispatcher.Dispatcher, inbox inbox.Inbox, logger log.Logger) Processor {
	return &processor{decoder: decoder, msgExecCtxFactory: msgExecCtxFactory, dispatcher: msgDispatcher, inbox: inbox, logger: logger}
}

func (p *processor) Process(ctx context.Context, inPkg transport.IncomingPkg) error {
	msg, err := p.decoder.Decode(inPkg)
	if err != nil {
		p.logger.Logf(log.ErrorLevel, "failed to decode IncomingPkg into message. %s", err)
		return errors.WithStack(err)
	}

	if msg.UID() == "" {
		return WithInvalidPackageErr(errors.Errorf("error finding uid header in received message from %s", msg.Origin()))
	}

	if msg.Headers().ReturnsCount() >= maxReturnsCount {
		return WithInvalidPackageErr(errors.Errorf("message %s was returned more than %d times, rejecting it", msg.UID(), maxReturnsCount))
	}

	if p.inbox != nil {
		processed, err := p.inbox.Processed(ctx, msg.UID())
		if err != nil {
			return errors.WithStack(err)
		}

		if processed {
			p.logger.Logf(log.InfoLevel, "message %s from %s was already processed, skipping", msg.UID(), msg.Origin())
			return nil
		}
	}

	executors := p.dispatcher.Match(msg.Origin())

	if len(executors) == 0 {
		errMsg := fmt.Sprintf("no executors defined for message uid %s from %s", msg.UID(), msg.Origin())
		p.logger.Log(log.ErrorLevel, errMsg)
		return WithNoExecutorsDefinedErr(errors.New(errMsg))
	}

	execCtx := p.msgExecCtxFactory.CreateCtx(context.WithValue(ctx, ContextTraceIDKey, msg.TraceID()), msg)

	for _, exec := range executors {
		if err := exec(execCtx); err != nil {
			return errors.Wrapf(err, "error executing message %s from %s", msg.UID(), msg.Origin())
		}
	}

	if p.inbox != nil {
		if err := p.inbox.MarkProcessed(ctx, msg.UID()); err != nil {
			p.logger.Logf(log.ErrorLevel, "error marking message %s as processed. %s", msg.UID(), err)
		}
	}

	return nil
}

type NoExecutorsDefinedErr struct {
	error
}

func WithNoExecutorsDefinedErr(err error) error {
	return NoExecutorsDefinedErr{err}
}

// InvalidPackageErr is returned for packages which will never be processed successfully
type InvalidPackageErr struct {
	error
}

func WithInvalidPackageErr(err error) error {
	return InvalidPackageErr{err}
}

// redeliverable tells if processing of a package may succeed next time
func redeliverable(err error) bool {
	var (
		decoderErr     message.DecoderErr
		noExecutorsErr NoExecutorsDefinedErr
		invalidErr     InvalidPackageErr
	)

	return !errors.As(err, &decoderErr) && !errors.As(err, &noExecutorsErr) && !errors.As(err, &invalidErr)
}
