package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockConn(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	return conn, mock
}

func mockDialector(conn *sql.DB) gorm.Dialector {
	return postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"})
}

var testDBConfig = &config.DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 2, ConnMaxLifetime: 60, ConnMaxIdleTime: 30}

func TestOpenDatabase_Connects(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectPing()

	db, err := openDatabase(context.Background(), mockDialector(conn), testDBConfig)
	require.NoError(t, err)
	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenDatabase_RetriesUntilReady(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectPing().WillReturnError(errors.New("the database system is starting up"))
	mock.ExpectPing().WillReturnError(errors.New("the database system is starting up"))
	mock.ExpectPing()

	core, logs := observer.New(zapcore.WarnLevel)
	db, err := openDatabase(context.Background(), mockDialector(conn), testDBConfig,
		WithLogger(zap.New(core)),
		WithConnectRetry(3, time.Millisecond))
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, 2, logs.FilterMessage("Database not ready, retrying").Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenDatabase_GivesUp(t *testing.T) {
	conn, mock := newMockConn(t)
	refused := errors.New("connection refused")
	mock.ExpectPing().WillReturnError(refused)
	mock.ExpectPing().WillReturnError(refused)
	mock.ExpectClose()

	_, err := openDatabase(context.Background(), mockDialector(conn), testDBConfig, WithConnectRetry(2, time.Millisecond))
	require.Error(t, err)
	assert.ErrorIs(t, err, refused)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenDatabase_StopsOnCancel(t *testing.T) {
	conn, _ := newMockConn(t)

	// a cancelled context fails the ping before it reaches the driver
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := openDatabase(ctx, mockDialector(conn), testDBConfig, WithConnectRetry(5, time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDatabase_Ping(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectPing()
	db, err := openDatabase(context.Background(), mockDialector(conn), testDBConfig)
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	assert.ErrorIs(t, db.Ping(context.Background()), sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_LogPoolStats(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectPing()

	core, logs := observer.New(zapcore.DebugLevel)
	db, err := openDatabase(context.Background(), mockDialector(conn), testDBConfig, WithLogger(zap.New(core)))
	require.NoError(t, err)

	db.LogPoolStats()
	entries := logs.FilterMessage("Database pool").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "database", entries[0].LoggerName)
	assert.Equal(t, int64(0), entries[0].ContextMap()["wait_count"])
}
