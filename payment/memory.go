package payment

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

func NewMemoryStore() Store {
	return &memoryStore{payments: xsync.NewMapOf[string, Payment]()}
}

type memoryStore struct {
	payments *xsync.MapOf[string, Payment]
}

func (m *memoryStore) Exists(ctx context.Context, orderID, transactionID string) (bool, error) {
	_, exists := m.payments.Load(orderID + "|" + transactionID)
	return exists, nil
}

func (m *memoryStore) Find(ctx context.Context, orderID, transactionID string) (Payment, bool, error) {
	p, exists := m.payments.Load(orderID + "|" + transactionID)
	return p, exists, nil
}

func (m *memoryStore) Save(ctx context.Context, payment Payment) error {
	m.payments.Store(payment.OrderID+"|"+payment.TransactionID, payment)
	return nil
}
