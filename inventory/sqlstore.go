package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	sagaSql "github.com/go-foreman/ordersaga/saga/sql"
)

const (
	inventoryTableName      = "inventory"
	orderInventoryTableName = "order_inventory"
)

// SQLStore keeps inventories and reservations in mysql or postgres
type SQLStore struct {
	db *sagaSql.DB
}

func NewSQLStore(ctx context.Context, db *sagaSql.DB) (*SQLStore, error) {
	s := &SQLStore{db: db}

	err := db.InitTables(ctx,
		fmt.Sprintf(`create table if not exists %s
		(
			id varchar(255) not null primary key,
			product_code varchar(255) not null unique,
			available integer not null,
			created_at timestamp null,
			updated_at timestamp null
		);`, inventoryTableName),
		fmt.Sprintf(`create table if not exists %s
		(
			id varchar(255) not null primary key,
			inventory_id varchar(255) not null,
			product_code varchar(255) not null,
			order_id varchar(255) not null,
			transaction_id varchar(255) not null,
			order_quantity integer not null,
			old_quantity integer not null,
			new_quantity integer not null,
			status varchar(32) not null,
			created_at timestamp null,
			updated_at timestamp null
		);`, orderInventoryTableName),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "initializing tables for inventory store, driver %s", db.Driver())
	}

	return s, nil
}

func (s SQLStore) FindByProductCode(ctx context.Context, code string) (Inventory, bool, error) {
	i := Inventory{}

	err := s.db.QueryRowContext(ctx,
		s.db.PrepQuery(fmt.Sprintf("SELECT id, product_code, available, created_at, updated_at FROM %s WHERE product_code = ?;", inventoryTableName)),
		code,
	).Scan(&i.ID, &i.ProductCode, &i.Available, &i.CreatedAt, &i.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return Inventory{}, false, nil
		}
		return Inventory{}, false, errors.Wrapf(err, "querying inventory of %s", code)
	}

	return i, true, nil
}

func (s SQLStore) Save(ctx context.Context, i Inventory) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Upsert(inventoryTableName, "id", "id", "product_code", "available", "created_at", "updated_at"),
		i.ID, i.ProductCode, i.Available, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "saving inventory %s", i.ID)
	}

	return nil
}

// Ledger returns a view of the store serving reservations
func (s *SQLStore) Ledger() Ledger {
	return sqlLedger{db: s.db}
}

type sqlLedger struct {
	db *sagaSql.DB
}

func (l sqlLedger) Exists(ctx context.Context, orderID, transactionID string) (bool, error) {
	var count int

	err := l.db.QueryRowContext(ctx,
		l.db.PrepQuery(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE order_id = ? AND transaction_id = ?;", orderInventoryTableName)),
		orderID, transactionID,
	).Scan(&count)
	if err != nil {
		return false, errors.Wrapf(err, "checking reservation of order %s", orderID)
	}

	return count > 0, nil
}

func (l sqlLedger) Find(ctx context.Context, orderID, transactionID string) (Reservation, bool, error) {
	rows, err := l.db.QueryContext(ctx,
		l.db.PrepQuery(fmt.Sprintf("SELECT id, inventory_id, product_code, order_id, transaction_id, order_quantity, old_quantity, new_quantity, status, created_at, updated_at FROM %s WHERE order_id = ? AND transaction_id = ? ORDER BY product_code;", orderInventoryTableName)),
		orderID, transactionID,
	)
	if err != nil {
		return nil, false, errors.Wrapf(err, "querying reservation of order %s", orderID)
	}

	defer rows.Close()

	var reservation Reservation

	for rows.Next() {
		row := OrderInventory{}
		if err := rows.Scan(&row.ID, &row.InventoryID, &row.ProductCode, &row.OrderID, &row.TransactionID, &row.OrderQuantity, &row.OldQuantity, &row.NewQuantity, &row.Status, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, false, errors.Wrapf(err, "scanning reservation of order %s", orderID)
		}
		reservation = append(reservation, row)
	}

	if err := rows.Err(); err != nil {
		return nil, false, errors.WithStack(err)
	}

	return reservation, len(reservation) > 0, nil
}

// Save writes all rows of the reservation in one transaction
func (l sqlLedger) Save(ctx context.Context, reservation Reservation) error {
	return l.db.InTx(ctx, func(tx *sql.Tx) error {
		for _, row := range reservation {
			_, err := tx.ExecContext(ctx,
				l.db.Upsert(orderInventoryTableName, "id", "id", "inventory_id", "product_code", "order_id", "transaction_id", "order_quantity", "old_quantity", "new_quantity", "status", "created_at", "updated_at"),
				row.ID, row.InventoryID, row.ProductCode, row.OrderID, row.TransactionID, row.OrderQuantity, row.OldQuantity, row.NewQuantity, string(row.Status), row.CreatedAt, row.UpdatedAt,
			)
			if err != nil {
				return errors.Wrapf(err, "saving reservation row %s", row.ID)
			}
		}

		return nil
	})
}
