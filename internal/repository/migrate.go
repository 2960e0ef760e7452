package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"entgo.io/ent/dialect"
	"github.com/pressly/goose/v3"

	"github.com/joseph-ayodele/custody-tracker/db/migrations"
)

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// Migrate applies the embedded migrations for the database's dialect.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	dir, gooseDialect := "sqlite", "sqlite3"
	if db.Dialect() == dialect.Postgres {
		dir, gooseDialect = "postgres", "postgres"
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.SQL(), dir); err != nil {
		logger.Error("db.migrate.failed", "dialect", gooseDialect, "err", err)
		return fmt.Errorf("run migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db.SQL())
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("db.migrate.ok", "dialect", gooseDialect, "version", version)
	return nil
}
