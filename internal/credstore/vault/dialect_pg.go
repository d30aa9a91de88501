package vault

import (
	"database/sql"
	"errors"

	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func init() {
	Register(&Dialect{
		Name:       "pg",
		DriverName: "pgx",
		Numbered:   true,
		DSN: func(opts Options) (string, error) {
			if opts.DSN == "" {
				return "", errors.New("pg vault requires a dsn")
			}
			return opts.DSN, nil
		},
		MigrateDriver: func(db *sql.DB) (database.Driver, error) {
			return migratepgx.WithInstance(db, &migratepgx.Config{})
		},
	})
}
