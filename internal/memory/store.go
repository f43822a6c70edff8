// Package memory provides the domain API over the storage adapter:
// sessions, observations, summaries, plans, team queries and the
// progressive context digest used to restore prior work.
package memory

import (
	"fmt"
	"time"

	"github.com/joss/domem/internal/db"
)

// SearchLimit caps full-text search results.
const SearchLimit = 50

// Store is the Memory Store. It depends only on db.Adapter and builds
// every query with the adapter's placeholder.
type Store struct {
	db       db.Adapter
	userName string
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithUserName sets the user recorded on sessions created without one.
func WithUserName(name string) Option {
	return func(s *Store) { s.userName = name }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New wraps a connected (or lazily connecting) adapter.
func New(a db.Adapter, opts ...Option) *Store {
	s := &Store{db: a, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Adapter returns the underlying adapter.
func (s *Store) Adapter() db.Adapter {
	return s.db
}

// UserName returns the store's default user.
func (s *Store) UserName() string {
	return s.userName
}

// Close closes the underlying adapter.
func (s *Store) Close() error {
	return s.db.Close()
}

// sql interpolates the adapter placeholder into a template that refers to
// it as %[1]s.
func (s *Store) sql(template string) string {
	return fmt.Sprintf(template, s.db.Placeholder())
}

func (s *Store) unix() int64 {
	return s.now().Unix()
}

// insertID prefers the id reported by the statement itself.
func (s *Store) insertID(res db.Result) int64 {
	if res.LastInsertID > 0 {
		return res.LastInsertID
	}
	return s.db.LastInsertID()
}
