package validation

import (
	"context"
	"time"
)

// Validation is the ledger record of the product validation step
type Validation struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"orderId"`
	TransactionID string    `json:"transactionId"`
	Success       bool      `json:"success"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Store keeps one Validation per (orderId, transactionId)
type Store interface {
	Exists(ctx context.Context, orderID, transactionID string) (bool, error)
	Find(ctx context.Context, orderID, transactionID string) (Validation, bool, error)
	Save(ctx context.Context, validation Validation) error
}

// Catalog knows which product codes exist
type Catalog interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
