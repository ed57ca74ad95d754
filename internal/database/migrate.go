package database

import (
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations brings the schema up to date at startup. A schema that is
// already current is not an error.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			slog.Info("database schema already current", "path", migrationsPath)
			return nil
		}
		return fmt.Errorf("applying migrations: %w", err)
	}

	ver, dirty, _ := m.Version()
	slog.Info("database schema migrated", "version", ver, "dirty", dirty, "path", migrationsPath)
	return nil
}
