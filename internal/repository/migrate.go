package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/companyhub/companyhub/migrations"
)

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

func (r *Repository) withGoose(fn func(db *sql.DB) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	// Connections stay owned by the pool; the *sql.DB is only a view on it.
	db := stdlib.OpenDBFromPool(r.pool)

	return fn(db)
}

// Migrate applies every pending migration.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.withGoose(func(db *sql.DB) error {
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		return nil
	})
}

// MigrateDownTo rolls the schema back to version.
func (r *Repository) MigrateDownTo(ctx context.Context, version int64) error {
	return r.withGoose(func(db *sql.DB) error {
		if err := goose.DownToContext(ctx, db, ".", version); err != nil {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}
		return nil
	})
}

// SchemaVersion reports the currently applied migration version.
func (r *Repository) SchemaVersion(ctx context.Context) (int64, error) {
	var version int64
	err := r.withGoose(func(db *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}
