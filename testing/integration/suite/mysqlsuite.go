//go:build integration

package suite

import (
	"context"
	"os"
	"time"

	driverSql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	sagaSql "github.com/go-foreman/ordersaga/saga/sql"
)

// MysqlSuite connects to MYSQL_CONNECTION or a local ordersaga database
type MysqlSuite struct {
	suite.Suite
	db *sagaSql.DB
}

func (s *MysqlSuite) SetupSuite() {
	require.NoError(s.T(), driverSql.SetLogger(nopLogger{}))

	connectionStr := "ordersaga:ordersaga@tcp(127.0.0.1:3306)/ordersaga?charset=utf8&parseTime=True"
	if v := os.Getenv("MYSQL_CONNECTION"); v != "" {
		connectionStr = v
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	var err error
	s.db, err = sagaSql.Open(ctx, sagaSql.MYSQLDriver, connectionStr)
	require.NoError(s.T(), err)
}

func (s *MysqlSuite) DB() *sagaSql.DB {
	return s.db
}

func (s *MysqlSuite) TearDownSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	_, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+Tables+";")
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.db.Close())
}

type nopLogger struct{}

func (l nopLogger) Print(v ...interface{}) {}
