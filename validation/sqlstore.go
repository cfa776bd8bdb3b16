package validation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"

	sagaSql "github.com/go-foreman/ordersaga/saga/sql"
)

const (
	validationTableName = "validation"
	productTableName    = "product"
)

// SQLStore keeps validations and the product catalog in mysql or postgres
type SQLStore struct {
	db *sagaSql.DB
}

// NewSQLStore creates validation and product tables if they don't exist and returns a store serving both
func NewSQLStore(ctx context.Context, db *sagaSql.DB) (*SQLStore, error) {
	s := &SQLStore{db: db}

	err := db.InitTables(ctx,
		fmt.Sprintf(`create table if not exists %s
		(
			id varchar(255) not null primary key,
			order_id varchar(255) not null,
			transaction_id varchar(255) not null,
			success boolean not null,
			created_at timestamp null,
			updated_at timestamp null,
			constraint validation_order_transaction_uq unique (order_id, transaction_id)
		);`, validationTableName),
		fmt.Sprintf(`create table if not exists %s
		(
			id varchar(255) not null primary key,
			code varchar(255) not null unique,
			created_at timestamp null,
			updated_at timestamp null
		);`, productTableName),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "initializing tables for validation store, driver %s", db.Driver())
	}

	return s, nil
}

func (s SQLStore) Exists(ctx context.Context, orderID, transactionID string) (bool, error) {
	var count int

	err := s.db.QueryRowContext(ctx,
		s.db.PrepQuery(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE order_id = ? AND transaction_id = ?;", validationTableName)),
		orderID, transactionID,
	).Scan(&count)
	if err != nil {
		return false, errors.Wrapf(err, "checking validation of order %s", orderID)
	}

	return count > 0, nil
}

func (s SQLStore) Find(ctx context.Context, orderID, transactionID string) (Validation, bool, error) {
	v := Validation{}

	err := s.db.QueryRowContext(ctx,
		s.db.PrepQuery(fmt.Sprintf("SELECT id, order_id, transaction_id, success, created_at, updated_at FROM %s WHERE order_id = ? AND transaction_id = ?;", validationTableName)),
		orderID, transactionID,
	).Scan(&v.ID, &v.OrderID, &v.TransactionID, &v.Success, &v.CreatedAt, &v.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return Validation{}, false, nil
		}
		return Validation{}, false, errors.Wrapf(err, "querying validation of order %s", orderID)
	}

	return v, true, nil
}

func (s SQLStore) Save(ctx context.Context, v Validation) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Upsert(validationTableName, "id", "id", "order_id", "transaction_id", "success", "created_at", "updated_at"),
		v.ID, v.OrderID, v.TransactionID, v.Success, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "saving validation %s", v.ID)
	}

	return nil
}

func (s SQLStore) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int

	err := s.db.QueryRowContext(ctx,
		s.db.PrepQuery(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE code = ?;", productTableName)),
		code,
	).Scan(&count)
	if err != nil {
		return false, errors.Wrapf(err, "checking product %s", code)
	}

	return count > 0, nil
}

// AddProducts registers product codes in the catalog, existing codes are kept
func (s SQLStore) AddProducts(ctx context.Context, codes ...string) error {
	now := time.Now().UTC()

	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		for _, code := range codes {
			if _, err := tx.ExecContext(ctx, s.db.Upsert(productTableName, "id", "id", "code", "created_at", "updated_at"), code, code, now, now); err != nil {
				return errors.Wrapf(err, "adding product %s", code)
			}
		}

		return nil
	})
}
