package order

import (
	"github.com/go-foreman/ordersaga"
	"github.com/go-foreman/ordersaga/saga"
)

// Component subscribes the notifier to the ending channel
type Component struct {
	store Store
}

func NewComponent(store Store) *Component {
	return &Component{store: store}
}

func (c Component) Init(mBus *ordersaga.MessageBus) error {
	mBus.Dispatcher().Subscribe(saga.NotifyEndingChannel, NewNotifier(c.store).NotifyEnding)
	return nil
}
