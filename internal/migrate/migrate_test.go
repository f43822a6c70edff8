package migrate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/domem/internal/db"
)

// fakeExec keeps applied versions in memory and mimics transactional
// bookkeeping: inserts become visible only on Commit.
type fakeExec struct {
	tableExists bool
	applied     []int
	pending     []int
	inTx        bool
	stmts       []string
	failOn      map[string]error
	begins      int
	commits     int
	rollbacks   int
}

func newFakeExec() *fakeExec {
	return &fakeExec{failOn: map[string]error{}}
}

func (f *fakeExec) Placeholder() string { return "?" }

func (f *fakeExec) Execute(ctx context.Context, query string, args ...any) (db.Result, error) {
	f.stmts = append(f.stmts, query)
	for frag, err := range f.failOn {
		if strings.Contains(query, frag) {
			return db.Result{}, err
		}
	}
	if strings.HasPrefix(query, "CREATE TABLE IF NOT EXISTS migrations") {
		f.tableExists = true
	}
	if strings.HasPrefix(query, "INSERT INTO migrations") {
		f.pending = append(f.pending, args[0].(int))
	}
	return db.Result{RowsAffected: 1}, nil
}

func (f *fakeExec) ExecuteMany(ctx context.Context, query string, argSets [][]any) error {
	return errors.New("not used")
}

func (f *fakeExec) FetchOne(ctx context.Context, query string, args ...any) (db.Row, error) {
	max := 0
	for _, v := range f.applied {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return db.Row{"version": nil}, nil
	}
	return db.Row{"version": int64(max)}, nil
}

func (f *fakeExec) FetchAll(ctx context.Context, query string, args ...any) ([]db.Row, error) {
	return nil, nil
}

func (f *fakeExec) Begin(ctx context.Context) error {
	if f.inTx {
		return db.ErrTxActive
	}
	f.inTx = true
	f.begins++
	return nil
}

func (f *fakeExec) Commit() error {
	f.inTx = false
	f.commits++
	f.applied = append(f.applied, f.pending...)
	f.pending = nil
	return nil
}

func (f *fakeExec) Rollback() error {
	f.inTx = false
	f.rollbacks++
	f.pending = nil
	return nil
}

var errBenign = errors.New("already exists")

type fakeDialect struct{}

func (fakeDialect) Name() string { return "fake" }

func (fakeDialect) TableExists(ctx context.Context, exec Executor) (bool, error) {
	return exec.(*fakeExec).tableExists, nil
}

func (fakeDialect) IsBenign(err error) bool { return errors.Is(err, errBenign) }

func testSet() Set {
	return Set{
		{Version: 1, Name: "core", SQL: `
CREATE TABLE IF NOT EXISTS migrations (version INTEGER PRIMARY KEY, applied_at INTEGER);
CREATE TABLE IF NOT EXISTS sessions (id TEXT PRIMARY KEY);`},
		{Version: 2, Name: "index", SQL: `CREATE INDEX IF NOT EXISTS idx_a ON sessions(id);`},
		{Version: 3, Name: "column", SQL: `ALTER TABLE sessions ADD COLUMN note TEXT;
UPDATE sessions SET note = '';`},
	}
}

func TestApplyRunsPendingInOrder(t *testing.T) {
	ctx := context.Background()
	exec := newFakeExec()
	e := New(exec, fakeDialect{}, testSet(), WithClock(func() time.Time { return time.Unix(100, 0) }))

	v, err := e.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	require.NoError(t, e.Apply(ctx))

	v, err = e.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, []int{1, 2, 3}, exec.applied)
	assert.Equal(t, 3, exec.begins)
	assert.Equal(t, 3, exec.commits)
	assert.Zero(t, exec.rollbacks)
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	exec := newFakeExec()
	e := New(exec, fakeDialect{}, testSet())

	require.NoError(t, e.Apply(ctx))
	before := len(exec.stmts)

	require.NoError(t, e.Apply(ctx))
	v, err := e.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, before, len(exec.stmts), "second run must not execute anything")
}

func TestApplyFailureRollsBackAndStops(t *testing.T) {
	ctx := context.Background()
	exec := newFakeExec()
	cause := errors.New("syntax error")
	exec.failOn["UPDATE sessions"] = cause
	e := New(exec, fakeDialect{}, testSet())

	err := e.Apply(ctx)
	require.Error(t, err)

	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 3, merr.Version)
	assert.Contains(t, merr.Statement, "UPDATE sessions")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "migration 3 failed")

	assert.Equal(t, []int{1, 2}, exec.applied)
	assert.Equal(t, 1, exec.rollbacks)

	// retried from scratch once the cause is gone
	delete(exec.failOn, "UPDATE sessions")
	require.NoError(t, e.Apply(ctx))
	assert.Equal(t, []int{1, 2, 3}, exec.applied)
}

func TestApplyToleratesBenignDDL(t *testing.T) {
	ctx := context.Background()
	exec := newFakeExec()
	exec.failOn["ADD COLUMN note"] = errBenign
	e := New(exec, fakeDialect{}, testSet())

	require.NoError(t, e.Apply(ctx))
	assert.Equal(t, []int{1, 2, 3}, exec.applied)
	assert.Zero(t, exec.rollbacks)
}

func TestApplyNeverToleratesBenignOnNonDDL(t *testing.T) {
	ctx := context.Background()
	exec := newFakeExec()
	exec.failOn["UPDATE sessions"] = errBenign
	e := New(exec, fakeDialect{}, testSet())

	err := e.Apply(ctx)
	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 3, merr.Version)
}

func TestApplyNeverToleratesBookkeepingFailure(t *testing.T) {
	ctx := context.Background()
	exec := newFakeExec()
	exec.failOn["INSERT INTO migrations"] = errBenign
	e := New(exec, fakeDialect{}, testSet())

	err := e.Apply(ctx)
	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 1, merr.Version)
	assert.Contains(t, merr.Statement, "INSERT INTO migrations")
	assert.Empty(t, exec.applied)
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_fts.sql":  {Data: []byte("CREATE INDEX b ON t(x);")},
		"migrations/001_core.sql": {Data: []byte("CREATE TABLE t (x INT);")},
		"migrations/README.md":    {Data: []byte("ignored")},
		"migrations/010_late.sql": {Data: []byte("DROP TABLE t;")},
	}

	set, err := Load(fsys, "migrations")
	require.NoError(t, err)
	require.Len(t, set, 3)
	assert.Equal(t, 1, set[0].Version)
	assert.Equal(t, "core", set[0].Name)
	assert.Equal(t, 2, set[1].Version)
	assert.Equal(t, 10, set[2].Version)
	assert.Equal(t, 10, set.Latest())
	assert.Len(t, set.After(1), 2)
}

func TestLoadRejectsDuplicateVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"m/001_a.sql": {Data: []byte("SELECT 1;")},
		"m/1_b.sql":   {Data: []byte("SELECT 2;")},
	}
	_, err := Load(fsys, "m")
	assert.ErrorContains(t, err, "duplicate migration version 1")
}
