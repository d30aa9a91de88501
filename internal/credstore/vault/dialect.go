package vault

import (
	"database/sql"
	"sort"
	"strconv"
	"sync"

	"github.com/golang-migrate/migrate/v4/database"
)

// Dialect describes one SQL database the vault can live in.
type Dialect struct {
	// Name selects the dialect in configuration and names its migrations directory.
	Name string

	// DriverName is the database/sql driver to open.
	DriverName string

	// Numbered placeholders ($1, $2) instead of '?'.
	Numbered bool

	// DSN turns Options into a connection string when Options.DSN is empty.
	DSN func(opts Options) (string, error)

	// MigrateDriver wraps an open database for golang-migrate.
	MigrateDriver func(db *sql.DB) (database.Driver, error)

	// MaxOpenConns limits the pool; zero means unlimited.
	MaxOpenConns int
}

// bind rewrites '?' placeholders for dialects that number them.
func (d *Dialect) bind(query string) string {
	if !d.Numbered {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, '$')
			out = strconv.AppendInt(out, int64(n), 10)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

var (
	mu       sync.RWMutex
	dialects = map[string]*Dialect{}
)

// Register makes a dialect available by name. It panics on misuse.
func Register(d *Dialect) {
	mu.Lock()
	defer mu.Unlock()
	if d == nil {
		panic("vault.Register: nil dialect")
	}
	if d.Name == "" {
		panic("vault.Register: empty name")
	}
	if _, exists := dialects[d.Name]; exists {
		panic("vault.Register: duplicate dialect: " + d.Name)
	}
	dialects[d.Name] = d
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (*Dialect, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := dialects[name]
	return d, ok
}

// Dialects lists registered dialect names in sorted order.
func Dialects() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(dialects))
	for k := range dialects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
