package localstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrateUp applies pending migrations on a dedicated connection, since
// closing the migrator closes the database it was given.
func migrateUp(path string) error {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return fmt.Errorf("migration: open: %w", err)
	}

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		db.Close()
		return fmt.Errorf("migration: source: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("migration: driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer func() {
		sourceErr, dbErr := migrator.Close()
		if sourceErr != nil {
			log.Error().Err(sourceErr).Msg("migration source close failed")
		}
		if dbErr != nil {
			log.Error().Err(dbErr).Msg("migration db close failed")
		}
	}()
	migrator.Log = migrateLogger{}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: failed to get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration: database is in a dirty state at version %d (manual intervention required)", version)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration: up failed: %w", err)
	}
	newVersion, _, _ := migrator.Version()
	log.Info().Uint("from_version", version).Uint("to_version", newVersion).Msg("local store migrated")
	return nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	log.Debug().Msgf(format, v...)
}

func (migrateLogger) Verbose() bool {
	return false
}
