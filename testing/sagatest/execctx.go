package sagatest

import (
	"context"
	"sync"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/pubsub/endpoint"
	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/saga"
	"github.com/go-foreman/ordersaga/testing/mocks/pubsub/message/execution"
)

// Outbox records messages sent through a mocked execution context
type Outbox struct {
	mutex sync.Mutex
	sent  []*message.OutcomingMessage
	err   error
}

// FailWith makes every following Send return err
func (o *Outbox) FailWith(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.err = err
}

func (o *Outbox) Sent() []*message.OutcomingMessage {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	r := make([]*message.OutcomingMessage, len(o.sent))
	copy(r, o.sent)

	return r
}

// Last returns the last sent message or nil
func (o *Outbox) Last() *message.OutcomingMessage {
	sent := o.Sent()
	if len(sent) == 0 {
		return nil
	}

	return sent[len(sent)-1]
}

func (o *Outbox) send(msg *message.OutcomingMessage, _ ...endpoint.DeliveryOption) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.err != nil {
		return o.err
	}

	o.sent = append(o.sent, msg)

	return nil
}

// ExecCtx builds an execution context mock delivering ev from origin
func ExecCtx(ctrl *gomock.Controller, ev *saga.Event, origin saga.Channel, logger log.Logger) (*execution.MockMessageExecutionCtx, *Outbox) {
	received := message.NewReceivedMessage("msg-"+ev.ID, ev, message.Headers{"uid": "msg-" + ev.ID, "traceId": "trace-" + ev.ID}, time.Now(), string(origin))
	outbox := &Outbox{}

	execCtx := execution.NewMockMessageExecutionCtx(ctrl)
	execCtx.EXPECT().Message().Return(received).AnyTimes()
	execCtx.EXPECT().Context().Return(context.Background()).AnyTimes()
	execCtx.EXPECT().Logger().Return(logger).AnyTimes()
	execCtx.EXPECT().Send(gomock.Any()).DoAndReturn(outbox.send).AnyTimes()

	return execCtx, outbox
}

// NewEvent builds an envelope the way the initiator does
func NewEvent(orderID, transactionID string, products ...saga.OrderProduct) *saga.Event {
	createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	return &saga.Event{
		ID:            "ev-" + orderID,
		TransactionID: transactionID,
		OrderID:       orderID,
		Payload: saga.Order{
			ID:            orderID,
			Products:      products,
			CreatedAt:     createdAt,
			TransactionID: transactionID,
		},
		Status:    saga.Pending,
		CreatedAt: createdAt,
	}
}

func Item(code string, unitValue float64, quantity int) saga.OrderProduct {
	return saga.OrderProduct{Product: saga.Product{Code: code, UnitValue: unitValue}, Quantity: quantity}
}
