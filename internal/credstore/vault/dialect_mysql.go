package vault

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
)

func init() {
	Register(&Dialect{
		Name:       "mysql",
		DriverName: "mysql",
		DSN:        mysqlDSN,
		MigrateDriver: func(db *sql.DB) (database.Driver, error) {
			return migratemysql.WithInstance(db, &migratemysql.Config{})
		},
	})
}

// mysqlDSN normalizes a user-supplied DSN: timestamps must parse
// and the migration runner needs multi-statement support.
func mysqlDSN(opts Options) (string, error) {
	if opts.DSN == "" {
		return "", errors.New("mysql vault requires a dsn")
	}
	cfg, err := mysql.ParseDSN(opts.DSN)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN(), nil
}
