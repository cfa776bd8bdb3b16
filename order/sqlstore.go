package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/pubsub/message"
	"github.com/go-foreman/ordersaga/saga"
	sagaSql "github.com/go-foreman/ordersaga/saga/sql"
)

const (
	orderTableName = "orders"
	eventTableName = "saga_event"
)

// SQLStore keeps orders and envelopes in mysql or postgres. Envelopes are stored whole in the body column.
type SQLStore struct {
	db            *sagaSql.DB
	msgMarshaller message.Marshaller
}

func NewSQLStore(ctx context.Context, db *sagaSql.DB, msgMarshaller message.Marshaller) (*SQLStore, error) {
	err := db.InitTables(ctx,
		fmt.Sprintf(`create table if not exists %s
		(
			id varchar(255) not null primary key,
			transaction_id varchar(255) not null,
			products text not null,
			created_at timestamp null
		);`, orderTableName),
		fmt.Sprintf(`create table if not exists %s
		(
			id varchar(255) not null primary key,
			order_id varchar(255) not null,
			transaction_id varchar(255) not null,
			source varchar(64) not null,
			status varchar(32) not null,
			body text not null,
			created_at timestamp null
		);`, eventTableName),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "initializing tables for order store, driver %s", db.Driver())
	}

	return &SQLStore{db: db, msgMarshaller: msgMarshaller}, nil
}

func (s SQLStore) SaveOrder(ctx context.Context, order saga.Order) error {
	products, err := json.Marshal(order.Products)
	if err != nil {
		return errors.Wrapf(err, "marshalling products of order %s", order.ID)
	}

	_, err = s.db.ExecContext(ctx,
		s.db.PrepQuery(fmt.Sprintf("INSERT INTO %s (id, transaction_id, products, created_at) VALUES (?, ?, ?, ?);", orderTableName)),
		order.ID, order.TransactionID, string(products), order.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "saving order %s", order.ID)
	}

	return nil
}

func (s SQLStore) SaveEvent(ctx context.Context, ev *saga.Event) error {
	body, err := s.msgMarshaller.Marshal(ev)
	if err != nil {
		return errors.Wrapf(err, "marshalling event %s", ev.ID)
	}

	_, err = s.db.ExecContext(ctx,
		s.db.Upsert(eventTableName, "id", "id", "order_id", "transaction_id", "source", "status", "body", "created_at"),
		ev.ID, ev.OrderID, ev.TransactionID, string(ev.Source), string(ev.Status), string(body), ev.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "saving event %s", ev.ID)
	}

	return nil
}

func (s SQLStore) FindEvents(ctx context.Context) ([]*saga.Event, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id, body FROM %s ORDER BY created_at DESC;", eventTableName))
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}

	defer rows.Close()

	var events []*saga.Event

	for rows.Next() {
		ev, err := s.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	return events, nil
}

func (s SQLStore) LastEventByOrderID(ctx context.Context, orderID string) (*saga.Event, bool, error) {
	return s.lastBy(ctx, "order_id", orderID)
}

func (s SQLStore) LastEventByTransactionID(ctx context.Context, transactionID string) (*saga.Event, bool, error) {
	return s.lastBy(ctx, "transaction_id", transactionID)
}

func (s SQLStore) lastBy(ctx context.Context, column, value string) (*saga.Event, bool, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.PrepQuery(fmt.Sprintf("SELECT id, body FROM %s WHERE %s = ? ORDER BY created_at DESC LIMIT 1;", eventTableName, column)),
		value,
	)

	ev, err := s.scanEvent(row)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "querying last event by %s %s", column, value)
	}

	return ev, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s SQLStore) scanEvent(row scanner) (*saga.Event, error) {
	var id, body string

	if err := row.Scan(&id, &body); err != nil {
		return nil, errors.WithStack(err)
	}

	ev := &saga.Event{}
	if err := json.Unmarshal([]byte(body), ev); err != nil {
		return nil, errors.Wrapf(err, "unmarshalling event %s", id)
	}

	return ev, nil
}
