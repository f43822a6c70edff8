// Package mysql implements the storage contract on a MySQL server, using
// engine-maintained FULLTEXT indexes for search.
package mysql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/joss/domem/internal/db"
	"github.com/joss/domem/internal/logging"
	"github.com/joss/domem/internal/migrate"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations is the embedded schema history of this backend.
var Migrations = migrate.MustLoad(migrationFS, "migrations")

// DefaultDriver is the database/sql name registered by go-sql-driver/mysql.
const DefaultDriver = "mysql"

// ConnectTimeout bounds the initial dial.
const ConnectTimeout = 30 * time.Second

var driverPackages = []string{"github.com/go-sql-driver/mysql"}

// Config holds connection parameters.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	// Driver overrides the database/sql driver name.
	Driver string
}

// Adapter is the networked backend.
type Adapter struct {
	*db.Conn

	cfg        Config
	migrations migrate.Set
	log        *logging.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMigrations replaces the embedded migration set.
func WithMigrations(set migrate.Set) Option {
	return func(a *Adapter) { a.migrations = set }
}

// New creates an adapter. The driver is checked on the first connection
// attempt, not here.
func New(cfg Config, opts ...Option) *Adapter {
	if cfg.Driver == "" {
		cfg.Driver = DefaultDriver
	}
	a := &Adapter{
		cfg:        cfg,
		migrations: Migrations,
		log:        logging.New("mysql").WithBackend(db.BackendNetworked),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Conn = db.NewConn(a.Connect)
	return a
}

// DSN renders the connection string: utf8mb4 collation, autocommit on,
// bounded dial and found-rows semantics so an UPDATE that matches a row
// always reports it as affected.
func (a *Adapter) DSN() string {
	mc := mysql.NewConfig()
	mc.User = a.cfg.User
	mc.Passwd = a.cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(a.cfg.Host, strconv.Itoa(a.cfg.Port))
	mc.DBName = a.cfg.Database
	mc.Collation = "utf8mb4_unicode_ci"
	mc.Timeout = ConnectTimeout
	mc.ClientFoundRows = true
	mc.Params = map[string]string{"autocommit": "1"}
	return mc.FormatDSN()
}

// Connect dials the server.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.Connected() {
		return nil
	}

	if !slices.Contains(sql.Drivers(), a.cfg.Driver) {
		return &db.DriverMissingError{Driver: a.cfg.Driver, Packages: driverPackages}
	}

	pool, err := sql.Open(a.cfg.Driver, a.DSN())
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	pool.SetMaxOpenConns(1)

	dialCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	if err := a.Attach(dialCtx, pool); err != nil {
		_ = pool.Close()
		return fmt.Errorf("connect %s: %w", net.JoinHostPort(a.cfg.Host, strconv.Itoa(a.cfg.Port)), err)
	}

	a.log.Info("adapter_opened", map[string]interface{}{
		"host":     a.cfg.Host,
		"database": a.cfg.Database,
	})
	return nil
}

// RunMigrations applies pending migrations. MySQL commits DDL implicitly,
// so re-running a half-applied version relies on benign-error tolerance.
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

// Placeholder is the positional parameter marker. go-sql-driver/mysql
// uses '?' on the wire, unlike the Python connectors' %s.
func (a *Adapter) Placeholder() string {
	return "?"
}

// SupportsNativeFullText is true: the adapter implements db.FullTextSearcher.
func (a *Adapter) SupportsNativeFullText() bool {
	return true
}

// Backend returns db.BackendNetworked.
func (a *Adapter) Backend() string {
	return db.BackendNetworked
}

// SearchObservations ranks observations by FULLTEXT relevance.
func (a *Adapter) SearchObservations(ctx context.Context, query string, limit int) ([]db.Row, error) {
	return a.FetchAll(ctx, `
		SELECT id, session_id, type, content, file_path, agent_name, created_at,
		       MATCH(content) AGAINST(? IN NATURAL LANGUAGE MODE) AS relevance
		FROM observations
		WHERE MATCH(content) AGAINST(? IN NATURAL LANGUAGE MODE)
		ORDER BY relevance DESC
		LIMIT ?`, query, query, limit)
}

// SearchSummaries ranks summaries by FULLTEXT relevance.
func (a *Adapter) SearchSummaries(ctx context.Context, query string, limit int) ([]db.Row, error) {
	return a.FetchAll(ctx, `
		SELECT id, session_id, request, investigation, result, created_at,
		       MATCH(request, investigation, result) AGAINST(? IN NATURAL LANGUAGE MODE) AS relevance
		FROM session_summaries
		WHERE MATCH(request, investigation, result) AGAINST(? IN NATURAL LANGUAGE MODE)
		ORDER BY relevance DESC
		LIMIT ?`, query, query, limit)
}

// benignErrors are server error numbers meaning the object already exists.
var benignErrors = map[uint16]string{
	1050: "ER_TABLE_EXISTS_ERROR",
	1060: "ER_DUP_FIELDNAME",
	1061: "ER_DUP_KEYNAME",
	1826: "ER_FK_DUP_NAME",
}

type dialect struct{}

func (dialect) Name() string { return db.BackendNetworked }

func (dialect) TableExists(ctx context.Context, exec migrate.Executor) (bool, error) {
	row, err := exec.FetchOne(ctx, `
		SELECT COUNT(*) AS n FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?`, migrate.Table)
	if err != nil {
		return false, err
	}
	return row.Int64("n") > 0, nil
}

// IsBenign matches on the server error number, never on message text.
func (dialect) IsBenign(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	_, ok := benignErrors[me.Number]
	return ok
}

var (
	_ db.Adapter          = (*Adapter)(nil)
	_ db.FullTextSearcher = (*Adapter)(nil)
)
