// Package db defines the storage contract every relational backend satisfies.
// High-level modules (the memory store, the factory, the CLI) depend on the
// Adapter interface only, never on a concrete backend.
package db

import (
	"context"
)

// Backend names reported by Adapter.Backend.
const (
	BackendEmbedded  = "embedded"
	BackendNetworked = "networked"
)

// Result describes the outcome of a write statement.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Reader provides read-only access.
// Use this for query-only consumers.
type Reader interface {
	// FetchOne runs a query and returns its first row, or nil when no row matched.
	FetchOne(ctx context.Context, query string, args ...any) (Row, error)
	// FetchAll runs a query and returns every row.
	FetchAll(ctx context.Context, query string, args ...any) ([]Row, error)
}

// Writer provides write access.
type Writer interface {
	// Execute runs a single statement. Outside a transaction it autocommits.
	Execute(ctx context.Context, query string, args ...any) (Result, error)
	// ExecuteMany runs one statement once per argument set.
	ExecuteMany(ctx context.Context, query string, argSets [][]any) error
}

// Transactor provides explicit transaction control for multi-statement atomicity.
type Transactor interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error
}

// Adapter is the full contract a backend implements.
//
// All SQL passed to Reader and Writer methods must use Placeholder() for
// every parameter; callers interpolate the marker into query templates and
// never literal values.
type Adapter interface {
	Reader
	Writer
	Transactor

	// Connect opens the backend connection. Calling it twice is a no-op.
	Connect(ctx context.Context) error
	// Close releases the connection. Calling it twice is a no-op.
	Close() error

	// RunMigrations applies every pending schema migration in version order.
	RunMigrations(ctx context.Context) error
	// CurrentVersion is the highest applied migration, 0 on a fresh database.
	CurrentVersion(ctx context.Context) (int, error)

	// Placeholder is the positional parameter marker of this backend.
	Placeholder() string
	// LastInsertID is the auto-increment value of the latest insert.
	LastInsertID() int64

	// SupportsNativeFullText reports whether the adapter also implements
	// FullTextSearcher. Backends that return false expose their search index
	// through plain SQL instead.
	SupportsNativeFullText() bool
	// Backend names the backend kind (BackendEmbedded or BackendNetworked).
	Backend() string
}

// FullTextSearcher is implemented by backends whose engine maintains a
// native full-text index queried in the WHERE clause.
type FullTextSearcher interface {
	SearchObservations(ctx context.Context, query string, limit int) ([]Row, error)
	SearchSummaries(ctx context.Context, query string, limit int) ([]Row, error)
}

// With connects a, runs fn and closes a on every exit path.
func With(ctx context.Context, a Adapter, fn func(Adapter) error) (err error) {
	if err := a.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
