package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	t.Cleanup(telemetry.SetOutput(io.Discard))
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) { return mockDB, nil }
	t.Cleanup(func() { openDB = prev })
	return mock
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_PING_TIMEOUT", "1s")
	t.Setenv("DB_CONNECT_ATTEMPTS", "4")

	opts := OptionsFromEnv(DefaultServerOptions())
	if opts.MaxOpenConns != 7 || opts.MaxIdleConns != 3 {
		t.Fatalf("unexpected pool sizes %+v", opts)
	}
	if opts.ConnMaxLifetime != 20*time.Minute || opts.PingTimeout != time.Second {
		t.Fatalf("unexpected durations %+v", opts)
	}
	if opts.ConnectAttempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", opts.ConnectAttempts)
	}
	if opts.ConnMaxIdleTime != 2*time.Minute {
		t.Fatalf("expected untouched idle time, got %s", opts.ConnMaxIdleTime)
	}
}

func TestOptionsFromEnvKeepsDefaultsOnBadValue(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")

	if got := OptionsFromEnv(DefaultMigrateOptions()); got != DefaultMigrateOptions() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestConnectPingsAndSizesPool(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectPing()

	db, err := Connect(context.Background(), "postgres://ignored", Options{MaxOpenConns: 7})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := db.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConnectRetriesPing(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("starting up"))
	mock.ExpectPing()

	_, err := Connect(context.Background(), "postgres://ignored", Options{ConnectAttempts: 2})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConnectGivesUpAfterAttempts(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	if _, err := Connect(context.Background(), "postgres://ignored", Options{ConnectAttempts: 1}); err == nil {
		t.Fatalf("expected ping error")
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultServerOptions()); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}

func TestConnectWrapsOpenError(t *testing.T) {
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return nil, driver.ErrBadConn
	}
	defer func() { openDB = prev }()

	_, err := Connect(context.Background(), "postgres://ignored", DefaultMigrateOptions())
	if !errors.Is(err, driver.ErrBadConn) {
		t.Fatalf("expected wrapped ErrBadConn, got %v", err)
	}
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := migrationFiles.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("expected at least one migration")
	}
}

func TestMigrationHelpersRejectNilDB(t *testing.T) {
	if err := RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("expected nil db to be a no-op, got %v", err)
	}
	if err := RollbackMigration(context.Background(), nil); err == nil {
		t.Fatalf("expected rollback error")
	}
	if _, err := MigrationVersion(context.Background(), nil); err == nil {
		t.Fatalf("expected version error")
	}
}
