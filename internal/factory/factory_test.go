package factory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/domem/internal/config"
	"github.com/joss/domem/internal/db"
	"github.com/joss/domem/internal/db/mysql"
	"github.com/joss/domem/internal/db/sqlite"
)

func TestNewSelectsBackend(t *testing.T) {
	a, err := New(config.Database{Type: "sqlite", Path: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Adapter{}, a)
	assert.Equal(t, db.BackendEmbedded, a.Backend())

	a, err = New(config.Database{Type: "networked", Host: "db"})
	require.NoError(t, err)
	m, ok := a.(*mysql.Adapter)
	require.True(t, ok)
	assert.Contains(t, m.DSN(), "tcp(db:3306)/do_memory")
	assert.False(t, m.Connected(), "construction must not dial")
}

func TestNewRejectsUnknownType(t *testing.T) {
	a, err := New(config.Database{Type: "postgres"})
	assert.Nil(t, a)

	var unsupported *db.UnsupportedBackendError
	require.ErrorAs(t, err, &unsupported)
	assert.ErrorIs(t, err, db.ErrUnsupportedBackend)
	assert.Equal(t, "postgres", unsupported.Value)
	assert.Contains(t, err.Error(), "embedded, sqlite, networked, mysql")
}

func TestOpenMigrates(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, config.Database{Type: "embedded", Path: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	defer a.Close()

	v, err := a.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, sqlite.Migrations.Latest(), v)
}

func TestOpenWithoutMigrations(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, config.Database{Type: "embedded", Path: filepath.Join(t.TempDir(), "m.db")}, WithoutMigrations())
	require.NoError(t, err)
	defer a.Close()

	v, err := a.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestOpenMissingDriverReturnsNoAdapter(t *testing.T) {
	a, err := Open(context.Background(), config.Database{Type: "mysql", Driver: "mysql-connector"})
	assert.Nil(t, a)
	assert.ErrorIs(t, err, db.ErrDriverMissing)
}

func TestOpenDefaultReadsEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.db")
	t.Setenv(config.EnvType, "sqlite")
	t.Setenv(config.EnvPath, path)
	t.Setenv(config.EnvUserName, "carol")

	a, cfg, err := OpenDefault(context.Background(), "")
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "carol", cfg.UserName)
	assert.Equal(t, path, a.(*sqlite.Adapter).Path())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
