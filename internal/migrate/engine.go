package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/joss/domem/internal/db"
	"github.com/joss/domem/internal/logging"
)

// Table is the bookkeeping table holding one row per applied version.
const Table = "migrations"

// Executor is the subset of the adapter contract the engine needs.
type Executor interface {
	db.Reader
	db.Writer
	db.Transactor
	Placeholder() string
}

// Dialect captures what differs between backends.
type Dialect interface {
	// Name is used for log context.
	Name() string
	// TableExists reports whether the bookkeeping table has been created.
	TableExists(ctx context.Context, exec Executor) (bool, error)
	// IsBenign reports whether a DDL error only says the object already exists.
	IsBenign(err error) bool
}

// Error identifies the migration version that failed.
type Error struct {
	Version   int
	Statement string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("migration %d failed: %v", e.Version, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Engine applies a Set through an Executor.
type Engine struct {
	exec    Executor
	dialect Dialect
	set     Set
	now     func() time.Time
	log     *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the applied_at time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine for set.
func New(exec Executor, dialect Dialect, set Set, opts ...Option) *Engine {
	e := &Engine{
		exec:    exec,
		dialect: dialect,
		set:     set,
		now:     time.Now,
		log:     logging.New("migrate").WithBackend(dialect.Name()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CurrentVersion returns 0 when the bookkeeping table does not exist yet,
// otherwise the highest applied version.
func (e *Engine) CurrentVersion(ctx context.Context) (int, error) {
	ok, err := e.dialect.TableExists(ctx, e.exec)
	if err != nil {
		return 0, fmt.Errorf("check migrations table: %w", err)
	}
	if !ok {
		return 0, nil
	}

	row, err := e.exec.FetchOne(ctx, "SELECT MAX(version) AS version FROM "+Table)
	if err != nil {
		return 0, fmt.Errorf("read current version: %w", err)
	}
	v, _ := row.NullInt64("version")
	return int(v), nil
}

// Pending returns the migrations newer than the current version.
func (e *Engine) Pending(ctx context.Context) (Set, error) {
	current, err := e.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	return e.set.After(current), nil
}

// Apply runs every pending migration in ascending order, each in its own
// transaction. It stops at the first failure; the failed version is not
// recorded and is retried from scratch on the next call.
func (e *Engine) Apply(ctx context.Context) error {
	pending, err := e.Pending(ctx)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := e.applyOne(ctx, m); err != nil {
			e.log.Error("migration_failed", map[string]interface{}{
				"version":   m.Version,
				"name":      m.Name,
				"statement": err.Statement,
			}, err.Err)
			return err
		}
	}
	return nil
}

func (e *Engine) applyOne(ctx context.Context, m Migration) *Error {
	start := time.Now()

	if err := e.exec.Begin(ctx); err != nil {
		return &Error{Version: m.Version, Err: fmt.Errorf("begin: %w", err)}
	}

	for _, stmt := range Split(m.SQL) {
		if _, err := e.exec.Execute(ctx, stmt); err != nil {
			if IsDDL(stmt) && e.dialect.IsBenign(err) {
				e.log.Warn("migration_statement_skipped", map[string]interface{}{
					"version": m.Version,
				}, err)
				continue
			}
			_ = e.exec.Rollback()
			return &Error{Version: m.Version, Statement: stmt, Err: err}
		}
	}

	ph := e.exec.Placeholder()
	record := fmt.Sprintf("INSERT INTO %s (version, applied_at) VALUES (%s, %s)", Table, ph, ph)
	if _, err := e.exec.Execute(ctx, record, m.Version, e.now().Unix()); err != nil {
		_ = e.exec.Rollback()
		return &Error{Version: m.Version, Statement: record, Err: err}
	}

	if err := e.exec.Commit(); err != nil {
		return &Error{Version: m.Version, Err: fmt.Errorf("commit: %w", err)}
	}

	e.log.TimedEvent("migration_applied", start, map[string]interface{}{
		"version": m.Version,
		"name":    m.Name,
	})
	return nil
}
