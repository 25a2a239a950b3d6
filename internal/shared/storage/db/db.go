package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"admissions-backend/internal/shared/telemetry"
)

// ErrNoDatabase is returned when no database is configured.
var ErrNoDatabase = errors.New("database not configured")

// Profile names the kind of process a pool is sized for.
type Profile string

const (
	ProfileServer Profile = "server"
	ProfileLambda Profile = "lambda"
	// ProfileJob covers short-lived commands such as migrate.
	ProfileJob Profile = "job"
)

// DetectProfile returns ProfileLambda inside AWS Lambda and ProfileServer otherwise.
func DetectProfile() Profile {
	if strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != "" {
		return ProfileLambda
	}
	return ProfileServer
}

// Options controls pool sizing and connectivity checks.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultOptions returns pool defaults for a profile. Lambda keeps the pool
// tiny since every concurrent invocation is its own container.
func DefaultOptions(p Profile) Options {
	switch p {
	case ProfileLambda:
		return Options{MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxIdleTime: 30 * time.Second, ConnMaxLifetime: 15 * time.Minute, PingTimeout: 3 * time.Second}
	case ProfileJob:
		return Options{MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second}
	default:
		return Options{MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second}
	}
}

type envOverride struct {
	key   string
	apply func(o *Options, raw string) error
}

var envOverrides = []envOverride{
	{"DB_MAX_OPEN_CONNS", func(o *Options, raw string) (err error) { o.MaxOpenConns, err = strconv.Atoi(raw); return }},
	{"DB_MAX_IDLE_CONNS", func(o *Options, raw string) (err error) { o.MaxIdleConns, err = strconv.Atoi(raw); return }},
	{"DB_CONN_MAX_LIFETIME", func(o *Options, raw string) (err error) { o.ConnMaxLifetime, err = time.ParseDuration(raw); return }},
	{"DB_CONN_MAX_IDLE_TIME", func(o *Options, raw string) (err error) { o.ConnMaxIdleTime, err = time.ParseDuration(raw); return }},
	{"DB_PING_TIMEOUT", func(o *Options, raw string) (err error) { o.PingTimeout, err = time.ParseDuration(raw); return }},
}

// OptionsFromEnv applies DB_* overrides to defaults. Unparseable values are
// logged and ignored.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	for _, o := range envOverrides {
		raw := strings.TrimSpace(os.Getenv(o.key))
		if raw == "" {
			continue
		}
		candidate := opts
		if err := o.apply(&candidate, raw); err != nil {
			telemetry.Warn("db.env_invalid", map[string]any{"key": o.key, "error": err.Error()})
			continue
		}
		opts = candidate
	}
	return opts
}

var openDB = sql.Open

// Open connects using the profile's defaults plus DB_* overrides. Lambda
// processes reuse one handle across invocations.
func Open(ctx context.Context, databaseURL string, p Profile) (*sql.DB, error) {
	opts := OptionsFromEnv(DefaultOptions(p))
	if p == ProfileLambda {
		return Shared(ctx, databaseURL, opts)
	}
	return Connect(ctx, databaseURL, opts)
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is empty", ErrNoDatabase)
	}

	database, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	configurePool(database, opts)

	if err := Ping(ctx, database, opts.PingTimeout); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := database.Stats()
	telemetry.Info("db.connected", map[string]any{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
	})
	return database, nil
}

var shared struct {
	mu sync.Mutex
	db *sql.DB
}

// Shared returns the process-wide pool, connecting on first use. A failed
// connect is not cached; the next call tries again.
func Shared(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.db != nil {
		return shared.db, nil
	}
	database, err := Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	shared.db = database
	return database, nil
}

func configurePool(database *sql.DB, opts Options) {
	fallback := DefaultOptions(ProfileServer)
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = fallback.MaxOpenConns
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = fallback.MaxIdleConns
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = fallback.ConnMaxLifetime
	}
	database.SetMaxOpenConns(opts.MaxOpenConns)
	database.SetMaxIdleConns(opts.MaxIdleConns)
	database.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		database.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

// Ping checks connectivity within timeout. A nil database is reported as
// ErrNoDatabase so callers can tell memory mode apart from an outage.
func Ping(ctx context.Context, database *sql.DB, timeout time.Duration) error {
	if database == nil {
		return ErrNoDatabase
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return database.PingContext(pingCtx)
}
