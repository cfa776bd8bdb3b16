package inventory

import (
	"context"
	"time"
)

// Inventory is the available quantity of a product
type Inventory struct {
	ID          string    `json:"id"`
	ProductCode string    `json:"productCode"`
	Available   int       `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ReservationStatus string

const (
	Reserved ReservationStatus = "RESERVED"
	// Restored rows were given back to availability and are skipped by later compensations
	Restored ReservationStatus = "RESTORED"
)

// OrderInventory remembers quantities of one line item before and after the reservation
type OrderInventory struct {
	ID            string            `json:"id"`
	InventoryID   string            `json:"inventoryId"`
	ProductCode   string            `json:"productCode"`
	OrderID       string            `json:"orderId"`
	TransactionID string            `json:"transactionId"`
	OrderQuantity int               `json:"orderQuantity"`
	OldQuantity   int               `json:"oldQuantity"`
	NewQuantity   int               `json:"newQuantity"`
	Status        ReservationStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Reservation is the ledger record of one saga attempt, a row per line item
type Reservation []OrderInventory

// FullyRestored tells if every row was already given back
func (r Reservation) FullyRestored() bool {
	for _, row := range r {
		if row.Status != Restored {
			return false
		}
	}

	return true
}

// Ledger keeps reservations by (orderId, transactionId)
type Ledger interface {
	Exists(ctx context.Context, orderID, transactionID string) (bool, error)
	Find(ctx context.Context, orderID, transactionID string) (Reservation, bool, error)
	Save(ctx context.Context, reservation Reservation) error
}

// Store reads and writes inventory rows. Callers serialize read-modify-write per product.
type Store interface {
	FindByProductCode(ctx context.Context, code string) (Inventory, bool, error)
	Save(ctx context.Context, inventory Inventory) error
}
