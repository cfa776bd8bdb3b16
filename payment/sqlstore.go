package payment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	sagaSql "github.com/go-foreman/ordersaga/saga/sql"
)

const paymentTableName = "payment"

type SQLStore struct {
	db *sagaSql.DB
}

func NewSQLStore(ctx context.Context, db *sagaSql.DB) (*SQLStore, error) {
	err := db.InitTables(ctx,
		fmt.Sprintf(`create table if not exists %s
		(
			id varchar(255) not null primary key,
			order_id varchar(255) not null,
			transaction_id varchar(255) not null,
			total_amount double precision not null,
			total_items integer not null,
			status varchar(32) not null,
			created_at timestamp null,
			updated_at timestamp null,
			constraint payment_order_transaction_uq unique (order_id, transaction_id)
		);`, paymentTableName),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "initializing tables for payment store, driver %s", db.Driver())
	}

	return &SQLStore{db: db}, nil
}

func (s SQLStore) Exists(ctx context.Context, orderID, transactionID string) (bool, error) {
	var count int

	err := s.db.QueryRowContext(ctx,
		s.db.PrepQuery(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE order_id = ? AND transaction_id = ?;", paymentTableName)),
		orderID, transactionID,
	).Scan(&count)
	if err != nil {
		return false, errors.Wrapf(err, "checking payment of order %s", orderID)
	}

	return count > 0, nil
}

func (s SQLStore) Find(ctx context.Context, orderID, transactionID string) (Payment, bool, error) {
	p := Payment{}

	err := s.db.QueryRowContext(ctx,
		s.db.PrepQuery(fmt.Sprintf("SELECT id, order_id, transaction_id, total_amount, total_items, status, created_at, updated_at FROM %s WHERE order_id = ? AND transaction_id = ?;", paymentTableName)),
		orderID, transactionID,
	).Scan(&p.ID, &p.OrderID, &p.TransactionID, &p.TotalAmount, &p.TotalItems, &p.Status, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return Payment{}, false, nil
		}
		return Payment{}, false, errors.Wrapf(err, "querying payment of order %s", orderID)
	}

	return p, true, nil
}

func (s SQLStore) Save(ctx context.Context, p Payment) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Upsert(paymentTableName, "id", "id", "order_id", "transaction_id", "total_amount", "total_items", "status", "created_at", "updated_at"),
		p.ID, p.OrderID, p.TransactionID, p.TotalAmount, p.TotalItems, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "saving payment %s", p.ID)
	}

	return nil
}
