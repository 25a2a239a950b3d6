package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                    { return nil }
func (nopStmt) NumInput() int                                   { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func resetShared() {
	shared.mu.Lock()
	shared.db = nil
	shared.mu.Unlock()
}

func TestSharedReturnsSamePool(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	resetShared()
	defer resetShared()

	db1, err := Shared(context.Background(), "ignored", DefaultOptions(ProfileLambda))
	if err != nil {
		t.Fatalf("Shared first: %v", err)
	}
	db2, err := Shared(context.Background(), "ignored", DefaultOptions(ProfileLambda))
	if err != nil {
		t.Fatalf("Shared second: %v", err)
	}
	if db1 != db2 {
		t.Fatalf("expected the same pool on both calls")
	}
}

func TestSharedRetriesAfterFailure(t *testing.T) {
	ensureTestDriverRegistered()
	var calls int32
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, driver.ErrBadConn
		}
		return sql.Open("dbtest", dsn)
	}
	defer func() { openDB = prev }()
	resetShared()
	defer resetShared()

	if _, err := Shared(context.Background(), "ignored", DefaultOptions(ProfileLambda)); err == nil {
		t.Fatalf("expected first call to fail")
	}
	database, err := Shared(context.Background(), "ignored", DefaultOptions(ProfileLambda))
	if err != nil || database == nil {
		t.Fatalf("expected second call to connect, got %v", err)
	}
}

func TestOpenUsesProfileDefaults(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	database, err := Open(context.Background(), "ignored", ProfileJob)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()
	if got := database.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("expected job pool of 1, got %d", got)
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultOptions(ProfileServer)); !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("expected ErrNoDatabase, got %v", err)
	}
}

func TestDetectProfile(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	if got := DetectProfile(); got != ProfileServer {
		t.Fatalf("expected server profile, got %s", got)
	}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "admissions-http")
	if got := DetectProfile(); got != ProfileLambda {
		t.Fatalf("expected lambda profile, got %s", got)
	}
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "nonsense")

	opts := OptionsFromEnv(DefaultOptions(ProfileServer))
	database, err := Connect(context.Background(), "ignored", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer database.Close()

	if got := database.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", got)
	}
	if opts.MaxIdleConns != 3 {
		t.Fatalf("expected MaxIdleConns=3, got %d", opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime != 20*time.Minute {
		t.Fatalf("expected ConnMaxLifetime=20m, got %s", opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("expected ConnMaxIdleTime=45s, got %s", opts.ConnMaxIdleTime)
	}
	if opts.PingTimeout != 5*time.Second {
		t.Fatalf("invalid DB_PING_TIMEOUT should keep the default, got %s", opts.PingTimeout)
	}
}

func TestPingWithoutDatabase(t *testing.T) {
	if err := Ping(context.Background(), nil, time.Second); !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("expected ErrNoDatabase, got %v", err)
	}
}

func TestPingUsesDriver(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	database, err := openDB("pgx", "ignored")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()
	if err := Ping(context.Background(), database, 0); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) < 5 {
		t.Fatalf("expected at least 5 migrations, got %d", len(entries))
	}
	for _, entry := range entries {
		data, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		if !strings.Contains(string(data), "-- +goose Up") || !strings.Contains(string(data), "-- +goose Down") {
			t.Fatalf("%s missing goose annotations", entry.Name())
		}
	}
}
