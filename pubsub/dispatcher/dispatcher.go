package dispatcher

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/dispatcher/dispatcher.go -package dispatcher . Dispatcher

import (
	"reflect"
	"sort"

	"github.com/go-foreman/ordersaga/pubsub/message/execution"
	"github.com/go-foreman/ordersaga/saga"
)

// Dispatcher matches a channel with executors subscribed to it
type Dispatcher interface {
	Match(channel saga.Channel) []execution.Executor
	Subscribe(channel saga.Channel, executor execution.Executor) Dispatcher
	// Channels returns every channel that has at least one executor, sorted by name
	Channels() []saga.Channel
}

func NewDispatcher() Dispatcher {
	return &dispatcher{
		executors: make(map[saga.Channel][]execution.Executor),
	}
}

type dispatcher struct {
	executors map[saga.Channel][]execution.Executor
}

func (d dispatcher) Match(channel saga.Channel) []execution.Executor {
	return d.executors[channel]
}

func (d *dispatcher) Subscribe(channel saga.Channel, executor execution.Executor) Dispatcher {
	executorPtr := reflect.ValueOf(executor).Pointer()

	for _, registered := range d.executors[channel] {
		//check if this executor was already registered. because it's a function - need to take value and then ptr of it.
		if reflect.ValueOf(registered).Pointer() == executorPtr {
			return d
		}
	}

	d.executors[channel] = append(d.executors[channel], executor)
	return d
}

func (d dispatcher) Channels() []saga.Channel {
	channels := make([]saga.Channel, 0, len(d.executors))
	for channel := range d.executors {
		channels = append(channels, channel)
	}

	sort.Slice(channels, func(i, j int) bool {
		return channels[i] < channels[j]
	})

	return channels
}
