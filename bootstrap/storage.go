package bootstrap

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/config"
	"github.com/go-foreman/ordersaga/inventory"
	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/order"
	"github.com/go-foreman/ordersaga/payment"
	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/saga/mutex"
	sagaSql "github.com/go-foreman/ordersaga/saga/sql"
	"github.com/go-foreman/ordersaga/validation"
)

// Storage holds the stores of the roles a process runs. Stores of other roles stay nil.
type Storage struct {
	Validation      validation.Store
	Catalog         validation.Catalog
	InventoryLedger inventory.Ledger
	Inventory       inventory.Store
	Payment         payment.Store
	Order           order.Store
	Mutex           mutex.Mutex

	db *sagaSql.DB
}

// OpenStorage builds stores of the given roles on the configured driver and seeds catalog and inventory
func OpenStorage(ctx context.Context, conf *config.Config, logger log.Logger, roles ...Role) (*Storage, error) {
	if conf.DBDriver == config.MemoryDriver {
		return openMemoryStorage(conf, roles), nil
	}

	db, err := sagaSql.Open(ctx, sagaSql.Driver(conf.DBDriver), conf.DBDSN)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", conf.DBDriver)
	}

	s, err := openSQLStorage(ctx, db, conf, logger, roles)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Logf(log.ErrorLevel, "closing database: %s", closeErr)
		}
		return nil, err
	}

	return s, nil
}

func openMemoryStorage(conf *config.Config, roles []Role) *Storage {
	s := &Storage{Mutex: mutex.NewMemoryMutex()}

	for _, role := range roles {
		switch role {
		case ValidationRole:
			s.Validation = validation.NewMemoryStore()
			s.Catalog = validation.NewMemoryCatalog(conf.SeedProducts...)
		case InventoryRole:
			now := time.Now().UTC()
			inventories := make([]inventory.Inventory, len(conf.SeedProducts))
			for i, code := range conf.SeedProducts {
				inventories[i] = inventory.Inventory{ID: uuid.NewString(), ProductCode: code, Available: conf.SeedAvailable, CreatedAt: now, UpdatedAt: now}
			}
			s.InventoryLedger = inventory.NewMemoryLedger()
			s.Inventory = inventory.NewMemoryStore(inventories...)
		case PaymentRole:
			s.Payment = payment.NewMemoryStore()
		case OrderRole:
			s.Order = order.NewMemoryStore()
		}
	}

	return s
}

func openSQLStorage(ctx context.Context, db *sagaSql.DB, conf *config.Config, logger log.Logger, roles []Role) (*Storage, error) {
	s := &Storage{Mutex: mutex.NewSqlMutex(db, logger), db: db}

	for _, role := range roles {
		switch role {
		case ValidationRole:
			store, err := validation.NewSQLStore(ctx, db)
			if err != nil {
				return nil, err
			}
			if err := store.AddProducts(ctx, conf.SeedProducts...); err != nil {
				return nil, errors.Wrap(err, "seeding product catalog")
			}
			s.Validation, s.Catalog = store, store
		case InventoryRole:
			store, err := inventory.NewSQLStore(ctx, db)
			if err != nil {
				return nil, err
			}
			if err := seedInventory(ctx, store, conf.SeedProducts, conf.SeedAvailable); err != nil {
				return nil, err
			}
			s.InventoryLedger, s.Inventory = store.Ledger(), store
		case PaymentRole:
			store, err := payment.NewSQLStore(ctx, db)
			if err != nil {
				return nil, err
			}
			s.Payment = store
		case OrderRole:
			store, err := order.NewSQLStore(ctx, db, message.NewJsonMarshaller())
			if err != nil {
				return nil, err
			}
			s.Order = store
		}
	}

	return s, nil
}

// seedInventory stocks products which have no inventory yet
func seedInventory(ctx context.Context, store inventory.Store, codes []string, available int) error {
	now := time.Now().UTC()

	for _, code := range codes {
		_, exists, err := store.FindByProductCode(ctx, code)
		if err != nil {
			return errors.Wrapf(err, "seeding inventory of %s", code)
		}

		if exists {
			continue
		}

		if err := store.Save(ctx, inventory.Inventory{ID: uuid.NewString(), ProductCode: code, Available: available, CreatedAt: now, UpdatedAt: now}); err != nil {
			return errors.Wrapf(err, "seeding inventory of %s", code)
		}
	}

	return nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}

	return errors.WithStack(s.db.Close())
}
