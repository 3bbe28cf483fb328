package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/kelseyhightower/envconfig"

	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

// Options controls pool sizing and the startup ping. Each field can be
// overridden by the DB_* variable in its tag.
type Options struct {
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME"`
	PingTimeout     time.Duration `envconfig:"DB_PING_TIMEOUT"`
	// ConnectAttempts is how many pings Connect tries before giving up.
	ConnectAttempts int           `envconfig:"DB_CONNECT_ATTEMPTS"`
	RetryDelay      time.Duration `envconfig:"DB_CONNECT_RETRY_DELAY"`
}

var openDB = sql.Open

// DefaultServerOptions returns defaults for the API process.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
		ConnectAttempts: 3,
		RetryDelay:      time.Second,
	}
}

// DefaultMigrateOptions returns defaults for the one-shot migrate command.
func DefaultMigrateOptions() Options {
	opts := DefaultServerOptions()
	opts.MaxOpenConns = 1
	opts.MaxIdleConns = 1
	opts.ConnectAttempts = 1
	return opts
}

// OptionsFromEnv applies DB_* overrides on top of defaults. A malformed
// variable is logged and the defaults are kept.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	if err := envconfig.Process("", &opts); err != nil {
		telemetry.Warn("db.env_invalid", map[string]any{"error": err.Error()})
		return defaults
	}
	return opts
}

// Connect opens a pooled *sql.DB on the pgx driver and pings it, retrying
// while the server comes up.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	opts = applyOptions(db, opts)

	var pingErr error
	for attempt := 1; attempt <= opts.ConnectAttempts; attempt++ {
		if pingErr = ping(ctx, db, opts.PingTimeout); pingErr == nil {
			break
		}
		telemetry.Warn("db.ping_failed", map[string]any{"attempt": attempt, "error": pingErr.Error()})
		if attempt == opts.ConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
	if pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	stats := db.Stats()
	telemetry.Info("db.init", map[string]any{
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
		"max_open": stats.MaxOpenConnections,
	})
	return db, nil
}

func ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.PingContext(pingCtx)
}

// applyOptions fills zero values and configures the pool.
func applyOptions(db *sql.DB, opts Options) Options {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 5 * time.Second
	}
	if opts.ConnectAttempts <= 0 {
		opts.ConnectAttempts = 1
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
	return opts
}
