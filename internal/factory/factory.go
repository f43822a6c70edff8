// Package factory builds a connected, schema-current adapter from configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/joss/domem/internal/config"
	"github.com/joss/domem/internal/db"
	"github.com/joss/domem/internal/db/mysql"
	"github.com/joss/domem/internal/db/sqlite"
)

// Supported lists every accepted backend type value.
var Supported = []string{db.BackendEmbedded, "sqlite", db.BackendNetworked, "mysql"}

type options struct {
	migrate bool
}

// Option configures Open.
type Option func(*options)

// WithoutMigrations skips RunMigrations after connecting.
func WithoutMigrations() Option {
	return func(o *options) { o.migrate = false }
}

// WithMigrations sets whether Open runs migrations.
func WithMigrations(enabled bool) Option {
	return func(o *options) { o.migrate = enabled }
}

// New instantiates the adapter selected by cfg without connecting.
// An unknown type yields *db.UnsupportedBackendError and no adapter.
func New(cfg config.Database) (db.Adapter, error) {
	switch config.NormalizeType(cfg.Type) {
	case db.BackendEmbedded:
		path := cfg.Path
		if path == "" {
			path = config.DefaultPath()
		}
		var opts []sqlite.Option
		if cfg.Driver != "" {
			opts = append(opts, sqlite.WithDriver(cfg.Driver))
		}
		return sqlite.New(path, opts...), nil

	case db.BackendNetworked:
		return mysql.New(mysql.Config{
			Host:     orDefault(cfg.Host, config.DefaultHost),
			Port:     orDefaultInt(cfg.Port, config.DefaultPort),
			Database: orDefault(cfg.Database, config.DefaultDatabase),
			User:     orDefault(cfg.User, config.DefaultUser),
			Password: cfg.Password,
			Driver:   cfg.Driver,
		}), nil
	}

	return nil, &db.UnsupportedBackendError{Value: cfg.Type, Supported: Supported}
}

// Open instantiates, connects and, unless WithoutMigrations is given,
// migrates the adapter. On any failure the adapter is closed and nil returned.
func Open(ctx context.Context, cfg config.Database, opts ...Option) (db.Adapter, error) {
	o := options{migrate: true}
	for _, opt := range opts {
		opt(&o)
	}

	a, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if err := a.Connect(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("connect %s backend: %w", a.Backend(), err)
	}

	if o.migrate {
		if err := a.RunMigrations(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	return a, nil
}

// OpenDefault resolves configuration with config.Load and opens it.
func OpenDefault(ctx context.Context, configPath string, opts ...Option) (db.Adapter, config.Database, error) {
	cfg := config.Load(configPath)
	a, err := Open(ctx, cfg, opts...)
	return a, cfg, err
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func orDefaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
