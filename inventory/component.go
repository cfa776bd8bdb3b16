package inventory

import (
	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga"
	"github.com/go-foreman/ordersaga/saga"
	"github.com/go-foreman/ordersaga/saga/mutex"
	"github.com/go-foreman/ordersaga/saga/participant"
)

// Component subscribes the inventory participant to its do and undo channels
type Component struct {
	ledger Ledger
	store  Store
	mutex  mutex.Mutex
}

func NewComponent(ledger Ledger, store Store, m mutex.Mutex) *Component {
	return &Component{ledger: ledger, store: store, mutex: m}
}

func (c Component) Init(mBus *ordersaga.MessageBus) error {
	svc := NewService(c.ledger, c.store, c.mutex, mBus.Logger())

	executor, err := participant.NewExecutor(svc.Definition())
	if err != nil {
		return errors.Wrap(err, "creating inventory executor")
	}

	mBus.Dispatcher().
		Subscribe(saga.InventorySuccessChannel, executor.Execute).
		Subscribe(saga.InventoryFailChannel, executor.Compensate)

	return nil
}
