package store

import (
	"context"
	"embed"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

func prepareGoose() error {
	goose.SetBaseFS(migrations)
	return goose.SetDialect("postgres")
}

// MigrateUp applies every pending migration.
func MigrateUp(ctx context.Context, db *DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return errors.Wrap(goose.UpContext(ctx, db.SQL(), migrationsDir), "migrate up")
}

// MigrateDown rolls back the latest migration.
func MigrateDown(ctx context.Context, db *DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return errors.Wrap(goose.DownContext(ctx, db.SQL(), migrationsDir), "migrate down")
}

// MigrateStatus prints the state of each migration through goose's logger.
func MigrateStatus(ctx context.Context, db *DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return errors.Wrap(goose.StatusContext(ctx, db.SQL(), migrationsDir), "migrate status")
}
