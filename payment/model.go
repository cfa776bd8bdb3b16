package payment

import (
	"context"
	"time"
)

type Status string

const (
	Pending Status = "PENDING"
	Success Status = "SUCCESS"
	Refund  Status = "REFUND"
	Failed  Status = "FAILED"
)

// Payment is the ledger record of the payment step
type Payment struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"orderId"`
	TransactionID string    `json:"transactionId"`
	TotalAmount   float64   `json:"totalAmount"`
	TotalItems    int       `json:"totalItems"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Store keeps one Payment per (orderId, transactionId)
type Store interface {
	Exists(ctx context.Context, orderID, transactionID string) (bool, error)
	Find(ctx context.Context, orderID, transactionID string) (Payment, bool, error)
	Save(ctx context.Context, payment Payment) error
}
