package vault

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4/database"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "modernc.org/sqlite"
)

func init() {
	Register(&Dialect{
		Name:       "sqlite",
		DriverName: "sqlite",
		DSN:        sqliteDSN,
		MigrateDriver: func(db *sql.DB) (database.Driver, error) {
			return migratesqlite.WithInstance(db, &migratesqlite.Config{})
		},
		// A single connection avoids "database is locked" between writers.
		MaxOpenConns: 1,
	})
}

func sqliteDSN(opts Options) (string, error) {
	if opts.DSN != "" {
		return opts.DSN, nil
	}
	if opts.Path == "" {
		return "", errors.New("sqlite vault requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		opts.Path,
	), nil
}
