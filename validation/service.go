package validation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/saga"
	"github.com/go-foreman/ordersaga/saga/mutex"
	"github.com/go-foreman/ordersaga/saga/participant"
)

var now = time.Now

// Service confirms that every ordered product exists in the catalog
type Service struct {
	store   Store
	catalog Catalog
}

func NewService(store Store, catalog Catalog) *Service {
	return &Service{store: store, catalog: catalog}
}

// Validate is the forward action, a successful Validation is returned to be written into the ledger
func (s *Service) Validate(ctx context.Context, ev *saga.Event) (Validation, error) {
	for _, item := range ev.Payload.Products {
		if item.Product.Code == "" {
			return Validation{}, saga.WithValidationFailure(errors.New("Product must be informed!"))
		}

		exists, err := s.catalog.ExistsByCode(ctx, item.Product.Code)
		if err != nil {
			return Validation{}, errors.WithStack(err)
		}

		if !exists {
			return Validation{}, saga.WithNotFound(errors.New("Product does not exists in database"))
		}
	}

	return s.newValidation(ev, true), nil
}

// Invalidate flags the recorded validation as unsuccessful
func (s *Service) Invalidate(ctx context.Context, ev *saga.Event, v Validation) error {
	v.Success = false
	v.UpdatedAt = now()

	return s.store.Save(ctx, v)
}

// Marker records a failed validation when the forward step never completed
func (s *Service) Marker(ev *saga.Event) Validation {
	return s.newValidation(ev, false)
}

func (s *Service) newValidation(ev *saga.Event, success bool) Validation {
	createdAt := now()

	return Validation{
		ID:            uuid.New().String(),
		OrderID:       ev.OrderID,
		TransactionID: ev.TransactionID,
		Success:       success,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

// Definition describes the product validation participant
func (s *Service) Definition(m mutex.Mutex) participant.Definition[Validation] {
	return participant.Definition[Validation]{
		Source:         saga.ProductValidationSource,
		Name:           "validate products",
		Subject:        "product validation",
		Ledger:         s.store,
		Action:         s.Validate,
		Compensation:   s.Invalidate,
		Marker:         s.Marker,
		SuccessMessage: "Products are validated successfully!",
		Mutex:          m,
	}
}
