package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/pkg/errors"
)

const (
	MYSQLDriver Driver = "mysql"
	PGDriver    Driver = "pg"
)

// Driver is a sql dialect the stores speak. It is required because of https://github.com/golang/go/issues/3602
type Driver string

func (d Driver) driverName() (string, error) {
	switch d {
	case MYSQLDriver:
		return "mysql", nil
	case PGDriver:
		return "pgx", nil
	default:
		return "", errors.Errorf("unsupported sql driver '%s'", d)
	}
}

// DB is a connection pool which knows its dialect
type DB struct {
	*sql.DB
	driver Driver
}

func NewDB(db *sql.DB, driver Driver) *DB {
	return &DB{DB: db, driver: driver}
}

// Open opens a pool with go-sql-driver/mysql or pgx stdlib depending on the driver and pings it
func Open(ctx context.Context, driver Driver, dsn string) (*DB, error) {
	name, err := driver.driverName()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s connection", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		if cErr := db.Close(); cErr != nil {
			return nil, errors.Wrapf(cErr, "closing %s connection when %s", driver, err)
		}
		return nil, errors.Wrapf(err, "pinging %s", driver)
	}

	return NewDB(db, driver), nil
}

func (m *DB) Driver() Driver {
	return m.driver
}

// PrepQuery replaces wildcard params to specific driver. Standard wildcard is '?'
func (m *DB) PrepQuery(query string) string {
	if m.driver != PGDriver {
		return query
	}

	var res []byte

	counter := 1

	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			res = append(append(res, '$'), []byte(strconv.Itoa(counter))...)
			counter++

			continue
		}
		res = append(res, query[i])
	}

	return string(res)
}

// Upsert builds an insert statement which updates the given columns when the key already exists
func (m *DB) Upsert(table, key string, columns ...string) string {
	placeholders := make([]string, len(columns))
	updates := make([]string, 0, len(columns))

	for i, column := range columns {
		placeholders[i] = "?"

		if column == key {
			continue
		}

		if m.driver == PGDriver {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
		} else {
			updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", column, column))
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if m.driver == PGDriver {
		query = fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s;", query, key, strings.Join(updates, ", "))
	} else {
		query = fmt.Sprintf("%s ON DUPLICATE KEY UPDATE %s;", query, strings.Join(updates, ", "))
	}

	return m.PrepQuery(query)
}

// InitTables executes DDL statements in one transaction, rolling back on the first failure
func (m *DB) InitTables(ctx context.Context, statements ...string) error {
	return m.InTx(ctx, func(tx *sql.Tx) error {
		for _, statement := range statements {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	})
}

// InTx runs fn inside a transaction. The transaction is committed when fn returns nil.
func (m *DB) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := fn(tx); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Wrapf(rErr, "error rollback when %s", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	return nil
}

// IsUniqueViolation reports whether err was caused by a duplicate key in either dialect
func IsUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	return false
}
