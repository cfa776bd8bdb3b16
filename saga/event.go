package saga

import (
	"time"
)

// Status is an outcome of the last step applied to an Event
type Status string

const (
	// Pending is set at initiation, before any participant has acted
	Pending Status = "PENDING"
	// Success means the current step completed and the saga proceeds forward
	Success Status = "SUCCESS"
	// RollbackPending means the current step failed and must compensate itself first
	RollbackPending Status = "ROLLBACK_PENDING"
	// Fail means a compensation has been applied
	Fail Status = "FAIL"
)

func (s Status) String() string {
	return string(s)
}

// Source identifies who produced the current state of an Event
type Source string

const (
	OrchestratorSource      Source = "ORCHESTRATOR"
	ProductValidationSource Source = "PRODUCT_VALIDATION_SERVICE"
	InventorySource         Source = "INVENTORY_SERVICE"
	PaymentSource           Source = "PAYMENT_SERVICE"
)

func (s Source) String() string {
	return string(s)
}

type Product struct {
	Code      string  `json:"code"`
	UnitValue float64 `json:"unitValue"`
}

type OrderProduct struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Order is a snapshot of the placed order carried by every Event. Totals are filled in by the payment step.
type Order struct {
	ID            string         `json:"id"`
	Products      []OrderProduct `json:"products"`
	CreatedAt     time.Time      `json:"createdAt"`
	TransactionID string         `json:"transactionId"`
	TotalAmount   float64        `json:"totalAmount"`
	TotalItems    int            `json:"totalItems"`
}

// History is one entry of the saga audit trail
type History struct {
	Source    Source    `json:"source"`
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Event is the envelope travelling between the orchestrator and participants.
// OrderID, TransactionID and CreatedAt never change after initiation, History is append only.
type Event struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	OrderID       string    `json:"orderId"`
	Payload       Order     `json:"payload"`
	Source        Source    `json:"source"`
	Status        Status    `json:"status"`
	History       []History `json:"eventHistory"`
	CreatedAt     time.Time `json:"createdAt"`
}

var now = time.Now

// AppendHistory records current Source and Status with the message.
// A new slice is built on each call so slices handed out earlier keep their content.
func (e *Event) AppendHistory(message string) {
	history := make([]History, len(e.History), len(e.History)+1)
	copy(history, e.History)

	e.History = append(history, History{
		Source:    e.Source,
		Status:    e.Status,
		Message:   message,
		CreatedAt: now(),
	})
}

// Transit sets source and status, then appends a history entry reflecting the new state
func (e *Event) Transit(source Source, status Status, message string) {
	e.Source = source
	e.Status = status
	e.AppendHistory(message)
}

// LastHistory returns the most recent audit entry
func (e *Event) LastHistory() (History, bool) {
	if len(e.History) == 0 {
		return History{}, false
	}

	return e.History[len(e.History)-1], true
}

func (e *Event) Clone() *Event {
	c := *e

	c.History = make([]History, len(e.History))
	copy(c.History, e.History)

	c.Payload.Products = make([]OrderProduct, len(e.Payload.Products))
	copy(c.Payload.Products, e.Payload.Products)

	return &c
}
