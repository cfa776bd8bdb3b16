package participant

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/pubsub/message/execution"
	"github.com/go-foreman/ordersaga/saga"
	"github.com/go-foreman/ordersaga/saga/mutex"
)

// Ledger keeps one record per (orderId, transactionId) for a participant
type Ledger[R any] interface {
	Exists(ctx context.Context, orderID, transactionID string) (bool, error)
	Find(ctx context.Context, orderID, transactionID string) (R, bool, error)
	Save(ctx context.Context, record R) error
}

// Definition describes a participant: what it does forward, how it reverts and where it keeps the ledger
type Definition[R any] struct {
	Source saga.Source
	// Name is used in failure history messages, e.g. "Fail to <name>: ..."
	Name string
	// Subject is used in rollback history messages, Name by default
	Subject string
	Ledger  Ledger[R]
	// Action performs the domain step and returns the ledger record to persist. It may update the event payload.
	Action func(ctx context.Context, ev *saga.Event) (R, error)
	// Compensation reverts the step using the recorded before-state. It may update the event payload.
	Compensation func(ctx context.Context, ev *saga.Event, record R) error
	// Marker builds a failure record saved when compensation finds nothing to revert. Optional.
	Marker         func(ev *saga.Event) R
	SuccessMessage string
	// ResultChannel is where every outcome is published, OrchestratorChannel by default
	ResultChannel saga.Channel
	// Mutex serializes handling of the same saga across workers. Optional.
	Mutex mutex.Mutex
}

// Executor runs the guard, the action and the ledger write of one participant and reports the outcome
type Executor[R any] struct {
	def Definition[R]
}

func NewExecutor[R any](def Definition[R]) (*Executor[R], error) {
	if def.Source == "" || def.Source == saga.OrchestratorSource {
		return nil, errors.Errorf("participant has invalid source '%s'", def.Source)
	}

	if def.Ledger == nil || def.Action == nil || def.Compensation == nil {
		return nil, errors.Errorf("participant %s must define ledger, action and compensation", def.Source)
	}

	if def.ResultChannel == "" {
		def.ResultChannel = saga.OrchestratorChannel
	}

	if def.Name == "" {
		def.Name = string(def.Source)
	}

	if def.Subject == "" {
		def.Subject = def.Name
	}

	return &Executor[R]{def: def}, nil
}

func (e *Executor[R]) Source() saga.Source {
	return e.def.Source
}

// Execute handles a do-channel message. Any failure of the step is reported as ROLLBACK_PENDING, only publishing errors are returned.
func (e *Executor[R]) Execute(execCtx execution.MessageExecutionCtx) error {
	ctx := execCtx.Context()
	ev := execCtx.Message().Event().Clone()

	unlock, err := e.lock(ctx, ev)
	if err != nil {
		return errors.Wrapf(err, "locking order %s", ev.OrderID)
	}
	defer unlock(execCtx.Logger())

	if err := e.forward(ctx, ev); err != nil {
		execCtx.Logger().Logf(log.ErrorLevel, "error trying to %s: %s", e.def.Name, err)
		ev.Transit(e.def.Source, saga.RollbackPending, fmt.Sprintf("Fail to %s: %s", e.def.Name, err))
	} else {
		ev.Transit(e.def.Source, saga.Success, e.def.SuccessMessage)
	}

	return e.publish(execCtx, ev)
}

func (e *Executor[R]) forward(ctx context.Context, ev *saga.Event) error {
	exists, err := e.def.Ledger.Exists(ctx, ev.OrderID, ev.TransactionID)
	if err != nil {
		return errors.Wrap(err, "checking ledger")
	}

	if exists {
		return saga.WithGuardViolation(errors.New("There's another transactionId for this validation."))
	}

	if err := validateInput(ev); err != nil {
		return err
	}

	record, err := e.def.Action(ctx, ev)
	if err != nil {
		return err
	}

	if err := e.def.Ledger.Save(ctx, record); err != nil {
		return errors.Wrap(err, "saving ledger record")
	}

	return nil
}

// Compensate handles an undo-channel message. The outcome is always FAIL and compensation errors end up in the history only.
func (e *Executor[R]) Compensate(execCtx execution.MessageExecutionCtx) error {
	ctx := execCtx.Context()
	ev := execCtx.Message().Event().Clone()

	unlock, err := e.lock(ctx, ev)
	if err != nil {
		return errors.Wrapf(err, "locking order %s", ev.OrderID)
	}
	defer unlock(execCtx.Logger())

	// status and source are set before compensation so its payload changes are recorded under FAIL
	ev.Source = e.def.Source
	ev.Status = saga.Fail

	if err := e.revert(ctx, ev); err != nil {
		execCtx.Logger().Logf(log.ErrorLevel, "rollback of %s failed: %s", e.def.Subject, err)
		ev.AppendHistory(fmt.Sprintf("Rollback not executed for %s: %s", e.def.Subject, err))
	} else {
		ev.AppendHistory(fmt.Sprintf("Rollback executed for %s!", e.def.Subject))
	}

	return e.publish(execCtx, ev)
}

func (e *Executor[R]) revert(ctx context.Context, ev *saga.Event) error {
	record, found, err := e.def.Ledger.Find(ctx, ev.OrderID, ev.TransactionID)
	if err != nil {
		return errors.Wrap(err, "finding ledger record")
	}

	if found {
		return e.def.Compensation(ctx, ev, record)
	}

	if e.def.Marker == nil {
		return nil
	}

	if err := e.def.Ledger.Save(ctx, e.def.Marker(ev)); err != nil {
		return errors.Wrap(err, "saving failure marker")
	}

	return nil
}

func (e *Executor[R]) publish(execCtx execution.MessageExecutionCtx, ev *saga.Event) error {
	received := execCtx.Message()
	outcoming := message.NewOutcomingMessage(e.def.ResultChannel, ev, message.WithTraceID(received.TraceID()))

	if err := execCtx.Send(outcoming); err != nil {
		return errors.Wrapf(err, "publishing result of %s for order %s to %s", e.def.Source, ev.OrderID, e.def.ResultChannel)
	}

	return nil
}

func (e *Executor[R]) lock(ctx context.Context, ev *saga.Event) (func(logger log.Logger), error) {
	if e.def.Mutex == nil {
		return func(log.Logger) {}, nil
	}

	l, err := e.def.Mutex.Lock(ctx, fmt.Sprintf("%s:%s:%s", e.def.Source, ev.OrderID, ev.TransactionID))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return func(logger log.Logger) {
		if err := l.Release(ctx); err != nil {
			logger.Log(log.ErrorLevel, err)
		}
	}, nil
}

func validateInput(ev *saga.Event) error {
	if ev.OrderID == "" || ev.TransactionID == "" {
		return saga.WithValidationFailure(errors.New("OrderId and transactionId must be informed!"))
	}

	if len(ev.Payload.Products) == 0 {
		return saga.WithValidationFailure(errors.New("Product List is empty!!"))
	}

	for _, item := range ev.Payload.Products {
		if item.Product.Code == "" {
			return saga.WithValidationFailure(errors.New("Product must be informed!"))
		}
	}

	return nil
}
