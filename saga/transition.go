package saga

import (
	"sort"

	"github.com/pkg/errors"
)

// Channel is a logical name of a queue messages are published to
type Channel string

const (
	StartSagaChannel     Channel = "start-saga"
	OrchestratorChannel  Channel = "orchestrator"
	FinishSuccessChannel Channel = "finish-success"
	FinishFailChannel    Channel = "finish-fail"
	NotifyEndingChannel  Channel = "notify-ending"

	ProductValidationSuccessChannel Channel = "product-validation-success"
	ProductValidationFailChannel    Channel = "product-validation-fail"
	InventorySuccessChannel         Channel = "inventory-success"
	InventoryFailChannel            Channel = "inventory-fail"
	PaymentSuccessChannel           Channel = "payment-success"
	PaymentFailChannel              Channel = "payment-fail"
)

func (c Channel) String() string {
	return string(c)
}

// Step is a participant of the pipeline with its forward (Do) and compensation (Undo) channels
type Step struct {
	Source Source
	Do     Channel
	Undo   Channel
}

// Pipeline is an ordered list of participants
type Pipeline []Step

// DefaultPipeline validates products, reserves inventory and captures payment in that order
var DefaultPipeline = Pipeline{
	{Source: ProductValidationSource, Do: ProductValidationSuccessChannel, Undo: ProductValidationFailChannel},
	{Source: InventorySource, Do: InventorySuccessChannel, Undo: InventoryFailChannel},
	{Source: PaymentSource, Do: PaymentSuccessChannel, Undo: PaymentFailChannel},
}

// Channels returns every channel the saga uses, pipeline channels included
func (p Pipeline) Channels() []Channel {
	channels := []Channel{StartSagaChannel, OrchestratorChannel, FinishSuccessChannel, FinishFailChannel, NotifyEndingChannel}
	for _, step := range p {
		channels = append(channels, step.Do, step.Undo)
	}

	return channels
}

type transitionKey struct {
	source Source
	status Status
}

// Transition is one row of the table
type Transition struct {
	Source  Source
	Status  Status
	Channel Channel
}

// TransitionTable resolves where an event goes next from its last source and status
type TransitionTable struct {
	transitions map[transitionKey]Channel
}

// NewTransitionTable builds the finite (source, status) -> channel table for a pipeline:
//
//	SUCCESS from the orchestrator goes to the first participant, from Pi to Pi+1 and from the last one to finish-success;
//	ROLLBACK_PENDING from Pi goes to Pi's own undo channel;
//	FAIL from Pi goes to Pi-1's undo channel and from the first participant to finish-fail.
func NewTransitionTable(pipeline Pipeline) (*TransitionTable, error) {
	if len(pipeline) == 0 {
		return nil, errors.New("pipeline has no participants")
	}

	table := &TransitionTable{transitions: make(map[transitionKey]Channel, len(pipeline)*3+1)}
	table.transitions[transitionKey{OrchestratorSource, Success}] = pipeline[0].Do

	last := len(pipeline) - 1

	for i, step := range pipeline {
		if step.Source == OrchestratorSource || step.Source == "" {
			return nil, errors.Errorf("step %d has invalid source '%s'", i, step.Source)
		}

		if _, exists := table.transitions[transitionKey{step.Source, RollbackPending}]; exists {
			return nil, errors.Errorf("source '%s' is defined more than once in the pipeline", step.Source)
		}

		if i < last {
			table.transitions[transitionKey{step.Source, Success}] = pipeline[i+1].Do
		} else {
			table.transitions[transitionKey{step.Source, Success}] = FinishSuccessChannel
		}

		table.transitions[transitionKey{step.Source, RollbackPending}] = step.Undo

		if i > 0 {
			table.transitions[transitionKey{step.Source, Fail}] = pipeline[i-1].Undo
		} else {
			table.transitions[transitionKey{step.Source, Fail}] = FinishFailChannel
		}
	}

	return table, nil
}

// Resolve returns the next channel or RoutingError if the pair isn't covered by the table
func (t *TransitionTable) Resolve(source Source, status Status) (Channel, error) {
	if source == "" || status == "" {
		return "", WithRoutingError(source, status)
	}

	channel, exists := t.transitions[transitionKey{source, status}]
	if !exists {
		return "", WithRoutingError(source, status)
	}

	return channel, nil
}

// Entries returns all rows sorted by source and status
func (t *TransitionTable) Entries() []Transition {
	entries := make([]Transition, 0, len(t.transitions))
	for key, channel := range t.transitions {
		entries = append(entries, Transition{Source: key.source, Status: key.status, Channel: channel})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Source != entries[j].Source {
			return entries[i].Source < entries[j].Source
		}
		return entries[i].Status < entries[j].Status
	})

	return entries
}
