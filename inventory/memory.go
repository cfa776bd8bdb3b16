package inventory

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

func NewMemoryLedger() Ledger {
	return &memoryLedger{reservations: xsync.NewMapOf[string, Reservation]()}
}

type memoryLedger struct {
	reservations *xsync.MapOf[string, Reservation]
}

func (m *memoryLedger) Exists(ctx context.Context, orderID, transactionID string) (bool, error) {
	_, exists := m.reservations.Load(orderID + "|" + transactionID)
	return exists, nil
}

func (m *memoryLedger) Find(ctx context.Context, orderID, transactionID string) (Reservation, bool, error) {
	r, exists := m.reservations.Load(orderID + "|" + transactionID)
	if !exists {
		return nil, false, nil
	}

	return append(Reservation(nil), r...), true, nil
}

func (m *memoryLedger) Save(ctx context.Context, reservation Reservation) error {
	if len(reservation) == 0 {
		return nil
	}

	m.reservations.Store(reservation[0].OrderID+"|"+reservation[0].TransactionID, append(Reservation(nil), reservation...))

	return nil
}

// NewMemoryStore creates a store filled with the given inventories
func NewMemoryStore(inventories ...Inventory) Store {
	s := &memoryStore{inventories: xsync.NewMapOf[string, Inventory]()}
	for _, i := range inventories {
		s.inventories.Store(i.ProductCode, i)
	}

	return s
}

type memoryStore struct {
	inventories *xsync.MapOf[string, Inventory]
}

func (m *memoryStore) FindByProductCode(ctx context.Context, code string) (Inventory, bool, error) {
	i, exists := m.inventories.Load(code)
	return i, exists, nil
}

func (m *memoryStore) Save(ctx context.Context, inventory Inventory) error {
	m.inventories.Store(inventory.ProductCode, inventory)
	return nil
}
