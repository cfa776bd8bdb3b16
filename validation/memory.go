package validation

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

func NewMemoryStore() Store {
	return &memoryStore{validations: xsync.NewMapOf[string, Validation]()}
}

type memoryStore struct {
	validations *xsync.MapOf[string, Validation]
}

func (m *memoryStore) Exists(ctx context.Context, orderID, transactionID string) (bool, error) {
	_, exists := m.validations.Load(key(orderID, transactionID))
	return exists, nil
}

func (m *memoryStore) Find(ctx context.Context, orderID, transactionID string) (Validation, bool, error) {
	v, exists := m.validations.Load(key(orderID, transactionID))
	return v, exists, nil
}

func (m *memoryStore) Save(ctx context.Context, validation Validation) error {
	m.validations.Store(key(validation.OrderID, validation.TransactionID), validation)
	return nil
}

// NewMemoryCatalog creates a catalog with the given product codes
func NewMemoryCatalog(codes ...string) Catalog {
	c := &memoryCatalog{codes: xsync.NewMapOf[string, struct{}]()}
	for _, code := range codes {
		c.codes.Store(code, struct{}{})
	}

	return c
}

type memoryCatalog struct {
	codes *xsync.MapOf[string, struct{}]
}

func (m *memoryCatalog) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, exists := m.codes.Load(code)
	return exists, nil
}

func key(orderID, transactionID string) string {
	return orderID + "|" + transactionID
}
