package mutex

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/log"
	sagaSql "github.com/go-foreman/ordersaga/saga/sql"
)

const mysqlMaxLockName = 64

// NewSqlMutex creates a mutex on top of GET_LOCK for mysql or pg_advisory_lock for postgres.
// Every lock holds a dedicated connection from the pool until it's released.
func NewSqlMutex(db *sagaSql.DB, logger log.Logger) Mutex {
	if db.Driver() == sagaSql.MYSQLDriver {
		return &mysqlMutex{db: db, logger: logger}
	}
	return &pgsqlMutex{db: db, logger: logger}
}

type mysqlMutex struct {
	db     *sagaSql.DB
	logger log.Logger
}

func (m *mysqlMutex) Lock(ctx context.Context, key string) (Lock, error) {
	name := mysqlLockName(key)

	conn, err := m.db.Conn(ctx)
	if err != nil {
		return nil, WithMutexErr(errors.Wrapf(err, "obtaining a connection from pool for %s", key))
	}

	r := sql.NullInt64{}
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, -1);", name).Scan(&r); err != nil {
		return nil, WithMutexErr(closeWith(conn, errors.Wrapf(err, "acquiring lock for %s", key)))
	}

	/*
		Returns 1 if the lock was obtained successfully,
		0 if the attempt timed out (for example, because another client has previously locked the name),
		or NULL if an error occurred (such as running out of memory or the thread was killed with mysqladmin kill).
	*/
	if r.Int64 != 1 {
		return nil, WithMutexErr(closeWith(conn, errors.Errorf("got error status %d when acquiring lock for %s", r.Int64, key)))
	}

	m.logger.Logf(log.DebugLevel, "acquired lock %s", key)

	return &mysqlLock{conn: conn, key: key, name: name}, nil
}

type mysqlLock struct {
	conn *sql.Conn
	key  string
	name string
}

func (l *mysqlLock) Release(ctx context.Context) error {
	r := sql.NullInt64{}
	if err := l.conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?);", l.name).Scan(&r); err != nil {
		return WithMutexErr(closeWith(l.conn, errors.Wrapf(err, "releasing lock for %s", l.key)))
	}

	if r.Int64 != 1 {
		return WithMutexErr(closeWith(l.conn, errors.Errorf("lock was not established by this thread for %s", l.key)))
	}

	if err := l.conn.Close(); err != nil {
		return WithMutexErr(errors.Wrapf(err, "closing connection of %s mutex", l.key))
	}

	return nil
}

type pgsqlMutex struct {
	db     *sagaSql.DB
	logger log.Logger
}

func (p *pgsqlMutex) Lock(ctx context.Context, key string) (Lock, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, WithMutexErr(errors.Wrapf(err, "obtaining a connection from pool for %s", key))
	}

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock(hashtext($1));", key); err != nil {
		return nil, WithMutexErr(closeWith(conn, errors.Wrapf(err, "acquiring lock for %s", key)))
	}

	p.logger.Logf(log.DebugLevel, "acquired lock %s", key)

	return &pgsqlLock{conn: conn, key: key}, nil
}

type pgsqlLock struct {
	conn *sql.Conn
	key  string
}

func (l *pgsqlLock) Release(ctx context.Context) error {
	if _, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock(hashtext($1));", l.key); err != nil {
		return WithMutexErr(closeWith(l.conn, errors.Wrapf(err, "releasing lock for %s", l.key)))
	}

	if err := l.conn.Close(); err != nil {
		return WithMutexErr(errors.Wrapf(err, "closing connection of %s mutex", l.key))
	}

	return nil
}

// mysql limits user lock names to 64 characters
func mysqlLockName(key string) string {
	if len(key) <= mysqlMaxLockName {
		return key
	}

	sum := sha1.Sum([]byte(key))

	return hex.EncodeToString(sum[:])
}

// closeWith closes conn after a failure, so that a lock bound to the session is dropped by the server
func closeWith(conn *sql.Conn, err error) error {
	if closingErr := conn.Close(); closingErr != nil {
		return errors.Errorf("%s. also failed to close connection %s", err, closingErr)
	}

	return err
}
