package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/go-foreman/ordersaga/saga"
	"github.com/go-foreman/ordersaga/saga/mutex"
	"github.com/go-foreman/ordersaga/saga/participant"
)

// MinimumAmount is the smallest total which can be charged
const MinimumAmount = 0.1

var now = time.Now

// Service charges and refunds orders
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Totals sums line items into the amount to charge and the number of items
func Totals(products []saga.OrderProduct) (float64, int) {
	quantities := make([]float64, len(products))
	unitValues := make([]float64, len(products))

	for i, item := range products {
		quantities[i] = float64(item.Quantity)
		unitValues[i] = item.Product.UnitValue
	}

	return floats.Dot(quantities, unitValues), int(floats.Sum(quantities))
}

// Charge computes totals, writes them onto the envelope payload and returns a successful payment
func (s *Service) Charge(ctx context.Context, ev *saga.Event) (Payment, error) {
	totalAmount, totalItems := Totals(ev.Payload.Products)

	ev.Payload.TotalAmount = totalAmount
	ev.Payload.TotalItems = totalItems

	if totalAmount < MinimumAmount {
		return Payment{}, saga.WithValidationFailure(errors.Errorf("The minimal amount available is %v", MinimumAmount))
	}

	p := s.newPayment(ev, Success)
	p.TotalAmount = totalAmount
	p.TotalItems = totalItems

	return p, nil
}

// Refund marks the payment as refunded and copies its totals back onto the envelope payload
func (s *Service) Refund(ctx context.Context, ev *saga.Event, p Payment) error {
	ev.Payload.TotalAmount = p.TotalAmount
	ev.Payload.TotalItems = p.TotalItems

	p.Status = Refund
	p.UpdatedAt = now()

	return s.store.Save(ctx, p)
}

// Marker records a failed payment when nothing was charged
func (s *Service) Marker(ev *saga.Event) Payment {
	return s.newPayment(ev, Failed)
}

func (s *Service) newPayment(ev *saga.Event, status Status) Payment {
	createdAt := now()

	return Payment{
		ID:            uuid.New().String(),
		OrderID:       ev.OrderID,
		TransactionID: ev.TransactionID,
		Status:        status,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

// Definition describes the payment participant
func (s *Service) Definition(m mutex.Mutex) participant.Definition[Payment] {
	return participant.Definition[Payment]{
		Source:         saga.PaymentSource,
		Name:           "realize payment",
		Subject:        "payment",
		Ledger:         s.store,
		Action:         s.Charge,
		Compensation:   s.Refund,
		Marker:         s.Marker,
		SuccessMessage: "Payment realized successfully!",
		Mutex:          m,
	}
}
