package vault

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// runMigrations applies pending migrations for the dialect.
// Applied migrations are skipped, so it runs on every open.
//
// Do not close the migrator: that closes db.
func runMigrations(db *sql.DB, d *Dialect) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+d.Name)
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := d.MigrateDriver(db)
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, d.Name, dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
