// Package sqlite implements the storage contract on a single-file embedded
// SQLite database with WAL journaling and FTS5 search indexes.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joss/domem/internal/db"
	"github.com/joss/domem/internal/logging"
	"github.com/joss/domem/internal/migrate"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations is the embedded schema history of this backend.
var Migrations = migrate.MustLoad(migrationFS, "migrations")

// preferredDrivers lists registered driver names in order of preference.
// driver_cgo.go prepends the cgo driver when it is compiled in.
var preferredDrivers = []string{"sqlite"}

// connPragmas run on the dedicated connection right after it is opened.
var connPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA cache_size=-64000",
	"PRAGMA busy_timeout=30000",
}

// Adapter is the embedded backend.
type Adapter struct {
	*db.Conn

	path       string
	driver     string
	migrations migrate.Set
	log        *logging.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDriver forces a database/sql driver name instead of auto-detection.
func WithDriver(name string) Option {
	return func(a *Adapter) { a.driver = name }
}

// WithMigrations replaces the embedded migration set.
func WithMigrations(set migrate.Set) Option {
	return func(a *Adapter) { a.migrations = set }
}

// New creates an adapter for the database file at path. No I/O happens
// until Connect or the first operation.
func New(path string, opts ...Option) *Adapter {
	a := &Adapter{
		path:       path,
		migrations: Migrations,
		log:        logging.New("sqlite").WithBackend(db.BackendEmbedded),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Conn = db.NewConn(a.Connect)
	return a
}

// Path returns the database file path.
func (a *Adapter) Path() string {
	return a.path
}

// Connect opens the database file, creating its directory if needed, and
// configures the connection.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.Connected() {
		return nil
	}

	driver, err := a.resolveDriver()
	if err != nil {
		return err
	}

	if a.path != ":memory:" && !strings.HasPrefix(a.path, "file:") {
		if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	pool, err := sql.Open(driver, a.path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	pool.SetMaxOpenConns(1)

	if err := a.Attach(ctx, pool); err != nil {
		_ = pool.Close()
		return err
	}

	for _, pragma := range connPragmas {
		if _, err := a.Execute(ctx, pragma); err != nil {
			_ = a.Conn.Close()
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	a.log.Info("adapter_opened", map[string]interface{}{
		"path":   a.path,
		"driver": driver,
	})
	return nil
}

func (a *Adapter) resolveDriver() (string, error) {
	registered := sql.Drivers()
	if a.driver != "" {
		if !slices.Contains(registered, a.driver) {
			return "", &db.DriverMissingError{Driver: a.driver, Packages: driverPackages}
		}
		return a.driver, nil
	}
	for _, name := range preferredDrivers {
		if slices.Contains(registered, name) {
			return name, nil
		}
	}
	return "", &db.DriverMissingError{Driver: preferredDrivers[0], Packages: driverPackages}
}

var driverPackages = []string{
	"modernc.org/sqlite",
	"github.com/mattn/go-sqlite3 (build with -tags sqlite_fts5)",
}

// RunMigrations applies pending migrations.
func (a *Adapter) RunMigrations(ctx context.Context) error {
	if err := a.Connect(ctx); err != nil {
		return err
	}
	return migrate.New(a, dialect{}, a.migrations).Apply(ctx)
}

// CurrentVersion returns the highest applied migration version.
func (a *Adapter) CurrentVersion(ctx context.Context) (int, error) {
	return migrate.New(a, dialect{}, a.migrations).CurrentVersion(ctx)
}

// Placeholder is the positional parameter marker.
func (a *Adapter) Placeholder() string {
	return "?"
}

// SupportsNativeFullText is false: search goes through the FTS5 virtual
// tables with plain SQL.
func (a *Adapter) SupportsNativeFullText() bool {
	return false
}

// Backend returns db.BackendEmbedded.
func (a *Adapter) Backend() string {
	return db.BackendEmbedded
}

type dialect struct{}

func (dialect) Name() string { return db.BackendEmbedded }

func (dialect) TableExists(ctx context.Context, exec migrate.Executor) (bool, error) {
	row, err := exec.FetchOne(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", migrate.Table)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// IsBenign matches SQLite's "already exists" and "duplicate column" errors.
// SQLite has no stable numeric code for these, only SQLITE_ERROR.
func (dialect) IsBenign(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}

var _ db.Adapter = (*Adapter)(nil)
