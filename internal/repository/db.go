package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB is an open database handle with its dialect. Pool is nil for SQLite.
type DB struct {
	drv  *entsql.Driver
	Pool *pgxpool.Pool
}

// SQL returns the underlying *sql.DB.
func (d *DB) SQL() *sql.DB { return d.drv.DB() }

// Dialect is the ent dialect name, dialect.Postgres or dialect.SQLite.
func (d *DB) Dialect() string { return d.drv.Dialect() }

// Open creates a pgx pool and wraps it as *sql.DB.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "custody-tracker"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return &DB{drv: entsql.OpenDB(dialect.Postgres, db), Pool: pool}, nil
}

// OpenSQLite opens (creating if needed) a SQLite file for single-node use and tests.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening database", "driver", "sqlite", "path", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; the pragmas below are per connection
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return &DB{drv: entsql.OpenDB(dialect.SQLite, db)}, nil
}

// Close closes the database connections gracefully
func Close(db *DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if err := db.drv.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
	if db.Pool != nil {
		db.Pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, db *DB, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.SQL().PingContext(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
