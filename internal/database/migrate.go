package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies every pending up-migration from migrationsPath.
// An already up-to-date schema is not an error.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	err = m.Up()
	switch {
	case err == nil:
	case errors.Is(err, migrate.ErrNoChange):
		slog.Info("database schema already up to date")
		return nil
	default:
		return fmt.Errorf("running migrations: %w", err)
	}

	ver, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("reading migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration version %d is dirty", ver)
	}
	slog.Info("database migrations applied", "version", ver)
	return nil
}
