package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	cfg := &ClientConfig{Host: "ch", Port: 9440, Database: "sw", User: "u", Password: "p", ReadTimeout: 30 * time.Second, AsyncInsert: true}
	o := Options(cfg)

	assert.Equal(t, []string{"ch:9440"}, o.Addr)
	assert.Equal(t, "sw", o.Auth.Database)
	assert.Equal(t, 30, o.Settings["max_execution_time"])
	assert.Equal(t, 1, o.Settings["async_insert"])
	assert.Equal(t, clickhouse.CompressionLZ4, o.Compression.Method)
}

func TestInitSchemaStopsOnFirstError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE DATABASE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("readonly"))

	c := NewFromDB(db)
	err = c.InitSchema(context.Background(), []string{
		"CREATE DATABASE IF NOT EXISTS sw",
		"CREATE TABLE IF NOT EXISTS sw.t (x UInt8) ENGINE = Memory",
		"CREATE TABLE never_run",
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectClose()
	require.NoError(t, c.Close())
}
