package sql

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepQuery(t *testing.T) {
	query := "UPDATE inventory SET available = ? WHERE product_code = ? AND id = ?;"

	t.Run("mysql keeps question marks", func(t *testing.T) {
		db := NewDB(nil, MYSQLDriver)
		assert.Equal(t, query, db.PrepQuery(query))
	})

	t.Run("pg uses positional params", func(t *testing.T) {
		db := NewDB(nil, PGDriver)
		assert.Equal(t, "UPDATE inventory SET available = $1 WHERE product_code = $2 AND id = $3;", db.PrepQuery(query))
	})
}

func TestUpsert(t *testing.T) {
	t.Run("mysql", func(t *testing.T) {
		db := NewDB(nil, MYSQLDriver)
		assert.Equal(t,
			"INSERT INTO payment (id, status, updated_at) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE status = VALUES(status), updated_at = VALUES(updated_at);",
			db.Upsert("payment", "id", "id", "status", "updated_at"),
		)
	})

	t.Run("pg", func(t *testing.T) {
		db := NewDB(nil, PGDriver)
		assert.Equal(t,
			"INSERT INTO payment (id, status, updated_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at;",
			db.Upsert("payment", "id", "id", "status", "updated_at"),
		)
	})
}

func TestInitTables(t *testing.T) {
	ctx := context.Background()

	t.Run("all statements committed", func(t *testing.T) {
		db, mock := createDB(t)

		mock.ExpectBegin()
		mock.ExpectExec("create table if not exists a (id int);").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("create table if not exists b (id int);").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		require.NoError(t, db.InitTables(ctx, "create table if not exists a (id int);", "create table if not exists b (id int);"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on the first failed statement", func(t *testing.T) {
		db, mock := createDB(t)

		mock.ExpectBegin()
		mock.ExpectExec("create table if not exists a (id int);").WillReturnError(errors.New("error exec1"))
		mock.ExpectRollback()

		err := db.InitTables(ctx, "create table if not exists a (id int);", "create table if not exists b (id int);")
		assert.EqualError(t, err, "error exec1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback failed", func(t *testing.T) {
		db, mock := createDB(t)

		mock.ExpectBegin()
		mock.ExpectExec("create table if not exists a (id int);").WillReturnError(errors.New("error exec1"))
		mock.ExpectRollback().WillReturnError(errors.New("conn lost"))

		err := db.InitTables(ctx, "create table if not exists a (id int);")
		assert.EqualError(t, err, "error rollback when error exec1: conn lost")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error committing", func(t *testing.T) {
		db, mock := createDB(t)

		mock.ExpectBegin()
		mock.ExpectExec("create table if not exists a (id int);").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit().WillReturnError(errors.New("error commit"))

		err := db.InitTables(ctx, "create table if not exists a (id int);")
		assert.EqualError(t, err, "committing a transaction: error commit")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInTx(t *testing.T) {
	db, mock := createDB(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err := db.InTx(context.Background(), func(tx *sql.Tx) error {
		t.Fatal("must not be called")
		return nil
	})
	assert.EqualError(t, err, "beginning a transaction: too many connections")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "sqlite", "file::memory:")
	assert.EqualError(t, err, "unsupported sql driver 'sqlite'")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(errors.Wrap(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, "inserting")))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1213}))
	assert.True(t, IsUniqueViolation(errors.WithStack(&pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(errors.New("duplicate")))
	assert.False(t, IsUniqueViolation(nil))
}

func createDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(
		sqlmock.MonitorPingsOption(true),
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
	)
	require.NoError(t, err)

	return NewDB(db, MYSQLDriver), mock
}
