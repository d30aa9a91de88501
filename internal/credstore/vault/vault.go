// Package vault is an encrypted credential store kept in a SQL table.
//
// Payloads are sealed with a 32-byte master key before they reach the
// database, so the table itself holds no plaintext. SQLite (a local file),
// PostgreSQL and MySQL are supported.
package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zx06/xcred/internal/credstore"
)

// DefaultTimeout bounds every vault operation.
const DefaultTimeout = 10 * time.Second

// Options configures Open.
type Options struct {
	// Driver selects the dialect: sqlite, pg, or mysql.
	Driver string

	// DSN is the connection string. For sqlite it may be empty if Path is set.
	DSN string

	// Path is the database file for sqlite.
	Path string

	// MasterKey seals every payload. Must be KeySize bytes.
	MasterKey []byte

	// Timeout bounds each operation. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Backend is a credstore.Backend on a SQL database.
type Backend struct {
	db      *sql.DB
	dialect *Dialect
	sealer  *sealer
	timeout time.Duration
	now     func() time.Time
}

var _ credstore.Backend = (*Backend)(nil)

// Open connects to the vault database, applies migrations,
// and returns a Backend. Close it when done.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	d, ok := Lookup(opts.Driver)
	if !ok {
		return nil, fmt.Errorf("unsupported vault driver %q", opts.Driver)
	}

	s, err := newSealer(opts.MasterKey)
	if err != nil {
		return nil, err
	}

	dsn, err := d.DSN(opts)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	if d.MaxOpenConns > 0 {
		db.SetMaxOpenConns(d.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.Name, err)
	}

	if err := runMigrations(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Backend{
		db:      db,
		dialect: d,
		sealer:  s,
		timeout: timeout,
		now:     time.Now,
	}, nil
}

// Close releases the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.timeout)
}

// Save seals data and replaces the record in one transaction.
func (b *Backend) Save(service, key string, data []byte) (err error) {
	sealed, err := b.sealer.seal(data, recordAD(service, key))
	if err != nil {
		return err
	}

	ctx, cancel := b.opContext()
	defer cancel()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		b.dialect.bind(`DELETE FROM credentials WHERE service = ? AND account = ?`),
		service, key,
	); err != nil {
		return fmt.Errorf("delete previous %q: %w", key, err)
	}

	if _, err = tx.ExecContext(ctx,
		b.dialect.bind(`INSERT INTO credentials (service, account, payload, access_policy, updated_at) VALUES (?, ?, ?, ?, ?)`),
		service, key, sealed, string(credstore.AccessWhenUnlockedThisDeviceOnly), b.now().UTC(),
	); err != nil {
		return fmt.Errorf("insert %q: %w", key, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads and opens a record.
// A record sealed under a different master key is an error, not ErrNotFound.
func (b *Backend) Load(service, key string) ([]byte, error) {
	ctx, cancel := b.opContext()
	defer cancel()

	var sealed []byte
	err := b.db.QueryRowContext(ctx,
		b.dialect.bind(`SELECT payload FROM credentials WHERE service = ? AND account = ?`),
		service, key,
	).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, credstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %q: %w", key, err)
	}

	return b.sealer.open(sealed, recordAD(service, key))
}

// Delete removes a record. Missing records are not an error.
func (b *Backend) Delete(service, key string) error {
	ctx, cancel := b.opContext()
	defer cancel()

	if _, err := b.db.ExecContext(ctx,
		b.dialect.bind(`DELETE FROM credentials WHERE service = ? AND account = ?`),
		service, key,
	); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Exists reports whether a record exists without reading its payload.
func (b *Backend) Exists(service, key string) (bool, error) {
	ctx, cancel := b.opContext()
	defer cancel()

	var one int
	err := b.db.QueryRowContext(ctx,
		b.dialect.bind(`SELECT 1 FROM credentials WHERE service = ? AND account = ?`),
		service, key,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %q: %w", key, err)
	}
	return true, nil
}

// Keys lists the record keys stored under service, sorted.
func (b *Backend) Keys(service string) ([]string, error) {
	ctx, cancel := b.opContext()
	defer cancel()

	rows, err := b.db.QueryContext(ctx,
		b.dialect.bind(`SELECT account FROM credentials WHERE service = ? ORDER BY account`),
		service,
	)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}
