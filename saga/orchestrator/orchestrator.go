package orchestrator

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/pubsub/message/execution"
	"github.com/go-foreman/ordersaga/saga"
)

const sagaLogID = "ORDER ID: %s | TRANSACTION ID %s | EVENT ID %s"

// Orchestrator is the only writer to participant channels. It routes every result by the transition table.
type Orchestrator struct {
	table  *saga.TransitionTable
	logger log.Logger
}

func NewOrchestrator(table *saga.TransitionTable, logger log.Logger) *Orchestrator {
	return &Orchestrator{table: table, logger: logger}
}

// Start begins a saga received from the start channel
func (o *Orchestrator) Start(execCtx execution.MessageExecutionCtx) error {
	ev := execCtx.Message().Event().Clone()
	ev.Transit(saga.OrchestratorSource, saga.Success, "Saga started!")

	execCtx.Logger().Logf(log.InfoLevel, "### SAGA STARTED | %s", sagaID(ev))

	return o.route(execCtx, ev)
}

// Continue routes a participant result to the next channel
func (o *Orchestrator) Continue(execCtx execution.MessageExecutionCtx) error {
	return o.route(execCtx, execCtx.Message().Event().Clone())
}

// FinishSuccess closes a saga which passed every participant
func (o *Orchestrator) FinishSuccess(execCtx execution.MessageExecutionCtx) error {
	ev := execCtx.Message().Event().Clone()
	ev.Transit(saga.OrchestratorSource, saga.Success, "Saga finished successfully!")

	execCtx.Logger().Logf(log.InfoLevel, "SAGA FINISHED SUCCESSFULLY FOR EVENT %s", ev.ID)

	return o.notifyEnding(execCtx, ev)
}

// FinishFail closes a saga which walked back to the first participant
func (o *Orchestrator) FinishFail(execCtx execution.MessageExecutionCtx) error {
	ev := execCtx.Message().Event().Clone()
	ev.Transit(saga.OrchestratorSource, saga.Fail, "Saga finished with errors!")

	execCtx.Logger().Logf(log.InfoLevel, "SAGA FINISHED WITH ERRORS FOR EVENT %s", ev.ID)

	return o.notifyEnding(execCtx, ev)
}

func (o *Orchestrator) route(execCtx execution.MessageExecutionCtx, ev *saga.Event) error {
	channel, err := o.table.Resolve(ev.Source, ev.Status)
	if err != nil {
		if saga.IsRoutingError(err) {
			// the saga halts here, redelivering the same envelope can't help. The read model still gets the halt.
			execCtx.Logger().Logf(log.ErrorLevel, "### SAGA HALTED | %s | %s", sagaID(ev), err)
			ev.AppendHistory(fmt.Sprintf("Saga halted: %s", err))
			return o.notifyEnding(execCtx, ev)
		}
		return errors.WithStack(err)
	}

	logTransition(execCtx.Logger(), ev, channel)

	return o.send(execCtx, channel, ev)
}

func (o *Orchestrator) notifyEnding(execCtx execution.MessageExecutionCtx, ev *saga.Event) error {
	return o.send(execCtx, saga.NotifyEndingChannel, ev)
}

func (o *Orchestrator) send(execCtx execution.MessageExecutionCtx, channel saga.Channel, ev *saga.Event) error {
	outcoming := message.NewOutcomingMessage(channel, ev, message.WithTraceID(execCtx.Message().TraceID()))

	if err := execCtx.Send(outcoming); err != nil {
		return errors.Wrapf(err, "sending event %s of order %s to %s", ev.ID, ev.OrderID, channel)
	}

	return nil
}

func logTransition(logger log.Logger, ev *saga.Event, channel saga.Channel) {
	id := sagaID(ev)

	switch ev.Status {
	case saga.Success:
		logger.Logf(log.InfoLevel, "### CURRENT SAGA: %s | SUCCESS | NEXT TOPIC %s | %s", ev.Source, channel, id)
	case saga.RollbackPending:
		logger.Logf(log.InfoLevel, "### CURRENT SAGA: %s | SENDING TO ROLLBACK CURRENT SERVICE | NEXT TOPIC %s | %s", ev.Source, channel, id)
	case saga.Fail:
		logger.Logf(log.InfoLevel, "### CURRENT SAGA: %s | SENDING TO ROLLBACK PREVIOUS SERVICE | NEXT TOPIC %s | %s", ev.Source, channel, id)
	}
}

func sagaID(ev *saga.Event) string {
	return fmt.Sprintf(sagaLogID, ev.OrderID, ev.TransactionID, ev.ID)
}
