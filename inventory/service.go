package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/saga"
	"github.com/go-foreman/ordersaga/saga/mutex"
	"github.com/go-foreman/ordersaga/saga/participant"
)

var now = time.Now

// Service reserves and restores product availability
type Service struct {
	ledger Ledger
	store  Store
	mutex  mutex.Mutex
	logger log.Logger
}

func NewService(ledger Ledger, store Store, m mutex.Mutex, logger log.Logger) *Service {
	return &Service{ledger: ledger, store: store, mutex: m, logger: logger}
}

// Reserve decrements availability of every ordered product. Nothing is decremented unless every item is in stock.
func (s *Service) Reserve(ctx context.Context, ev *saga.Event) (Reservation, error) {
	lock, err := s.lockProducts(ctx, ev.Payload.Products)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, lock)

	inventories := make(map[string]Inventory, len(ev.Payload.Products))
	demand := make(map[string]int, len(ev.Payload.Products))

	for _, item := range ev.Payload.Products {
		code := item.Product.Code

		if _, loaded := inventories[code]; !loaded {
			inventory, found, err := s.store.FindByProductCode(ctx, code)
			if err != nil {
				return nil, errors.WithStack(err)
			}

			if !found {
				return nil, saga.WithNotFound(errors.New("Inventory not found by informed product."))
			}

			inventories[code] = inventory
		}

		if item.Quantity <= 0 {
			return nil, saga.WithValidationFailure(errors.Errorf("Quantity of product %s must be positive", code))
		}

		demand[code] += item.Quantity
	}

	for code, quantity := range demand {
		if quantity > inventories[code].Available {
			return nil, saga.WithValidationFailure(errors.New("Product is out of stock!"))
		}
	}

	createdAt := now()
	reservation := make(Reservation, 0, len(ev.Payload.Products))

	for _, item := range ev.Payload.Products {
		inventory := inventories[item.Product.Code]

		reservation = append(reservation, OrderInventory{
			ID:            uuid.New().String(),
			InventoryID:   inventory.ID,
			ProductCode:   inventory.ProductCode,
			OrderID:       ev.OrderID,
			TransactionID: ev.TransactionID,
			OrderQuantity: item.Quantity,
			OldQuantity:   inventory.Available,
			NewQuantity:   inventory.Available - item.Quantity,
			Status:        Reserved,
			CreatedAt:     createdAt,
			UpdatedAt:     createdAt,
		})

		inventory.Available -= item.Quantity
		inventory.UpdatedAt = createdAt
		inventories[item.Product.Code] = inventory
	}

	for _, code := range sortedCodes(ev.Payload.Products) {
		if err := s.store.Save(ctx, inventories[code]); err != nil {
			return nil, errors.Wrapf(err, "saving inventory of %s", code)
		}
	}

	return reservation, nil
}

// Restore returns reserved quantities back to availability. Every restored row is marked in the ledger
// right after its inventory is saved, so a repeated undo command never restores the same row twice.
func (s *Service) Restore(ctx context.Context, ev *saga.Event, reservation Reservation) error {
	if reservation.FullyRestored() {
		s.logger.Logf(log.InfoLevel, "Inventory of order %s was already restored", ev.OrderID)
		return nil
	}

	items := make([]saga.OrderProduct, 0, len(reservation))
	for _, row := range reservation {
		if row.Status != Restored {
			items = append(items, saga.OrderProduct{Product: saga.Product{Code: row.ProductCode}, Quantity: row.OrderQuantity})
		}
	}

	lock, err := s.lockProducts(ctx, items)
	if err != nil {
		return err
	}
	defer s.release(ctx, lock)

	for i := range reservation {
		row := &reservation[i]
		if row.Status == Restored {
			continue
		}

		inventory, found, err := s.store.FindByProductCode(ctx, row.ProductCode)
		if err != nil {
			return errors.WithStack(err)
		}

		if !found {
			return saga.WithNotFound(errors.Errorf("Inventory of product %s not found", row.ProductCode))
		}

		from := inventory.Available
		inventory.Available += row.OrderQuantity
		inventory.UpdatedAt = now()

		if err := s.store.Save(ctx, inventory); err != nil {
			return errors.Wrapf(err, "restoring inventory of %s", row.ProductCode)
		}

		row.Status = Restored
		row.UpdatedAt = inventory.UpdatedAt

		if err := s.ledger.Save(ctx, reservation); err != nil {
			return errors.Wrapf(err, "marking reservation of %s as restored", row.ProductCode)
		}

		s.logger.Logf(log.InfoLevel, "Restored inventory for order %s: from %d to %d", ev.OrderID, from, inventory.Available)
	}

	return nil
}

func (s *Service) lockProducts(ctx context.Context, items []saga.OrderProduct) (mutex.Lock, error) {
	codes := sortedCodes(items)
	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = "inventory:" + code
	}

	lock, err := mutex.LockAll(ctx, s.mutex, keys...)
	if err != nil {
		return nil, errors.Wrap(err, "locking inventory")
	}

	return lock, nil
}

func (s *Service) release(ctx context.Context, lock mutex.Lock) {
	if err := lock.Release(ctx); err != nil {
		s.logger.Log(log.ErrorLevel, err)
	}
}

// Definition describes the inventory participant. There is no failure marker, a failed reservation changes nothing.
func (s *Service) Definition() participant.Definition[Reservation] {
	return participant.Definition[Reservation]{
		Source:         saga.InventorySource,
		Name:           "update inventory",
		Subject:        "inventory",
		Ledger:         s.ledger,
		Action:         s.Reserve,
		Compensation:   s.Restore,
		SuccessMessage: "Inventory updated successfully!",
		Mutex:          s.mutex,
	}
}

func sortedCodes(items []saga.OrderProduct) []string {
	seen := make(map[string]struct{}, len(items))
	codes := make([]string, 0, len(items))

	for _, item := range items {
		if _, exists := seen[item.Product.Code]; exists {
			continue
		}
		seen[item.Product.Code] = struct{}{}
		codes = append(codes, item.Product.Code)
	}

	sort.Strings(codes)

	return codes
}
