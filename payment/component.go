package payment

import (
	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga"
	"github.com/go-foreman/ordersaga/saga"
	"github.com/go-foreman/ordersaga/saga/mutex"
	"github.com/go-foreman/ordersaga/saga/participant"
)

// Component subscribes the payment participant to its do and undo channels
type Component struct {
	service *Service
	mutex   mutex.Mutex
}

func NewComponent(store Store, m mutex.Mutex) *Component {
	return &Component{service: NewService(store), mutex: m}
}

func (c Component) Init(mBus *ordersaga.MessageBus) error {
	executor, err := participant.NewExecutor(c.service.Definition(c.mutex))
	if err != nil {
		return errors.Wrap(err, "creating payment executor")
	}

	mBus.Dispatcher().
		Subscribe(saga.PaymentSuccessChannel, executor.Execute).
		Subscribe(saga.PaymentFailChannel, executor.Compensate)

	return nil
}
