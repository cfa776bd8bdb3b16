package orchestrator

import (
	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga"
	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/saga"
)

// Component subscribes the orchestrator to the start, result and terminal channels
type Component struct {
	pipeline saga.Pipeline
}

func NewComponent(pipeline saga.Pipeline) *Component {
	return &Component{pipeline: pipeline}
}

func (c Component) Init(mBus *ordersaga.MessageBus) error {
	table, err := saga.NewTransitionTable(c.pipeline)
	if err != nil {
		return errors.Wrap(err, "building transition table")
	}

	for _, entry := range table.Entries() {
		mBus.Logger().Logf(log.DebugLevel, "transition %s + %s -> %s", entry.Source, entry.Status, entry.Channel)
	}

	o := NewOrchestrator(table, mBus.Logger())

	mBus.Dispatcher().
		Subscribe(saga.StartSagaChannel, o.Start).
		Subscribe(saga.OrchestratorChannel, o.Continue).
		Subscribe(saga.FinishSuccessChannel, o.FinishSuccess).
		Subscribe(saga.FinishFailChannel, o.FinishFail)

	return nil
}
