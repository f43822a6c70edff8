package db

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
)

// querier is satisfied by both *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Conn is the database/sql plumbing shared by the SQL adapters.
//
// It owns exactly one dedicated connection taken from its pool, so session
// state (pragmas, autocommit, transactions) stays on a single backend
// session. Statements run through the open transaction when there is one
// and autocommit otherwise.
type Conn struct {
	mu     sync.Mutex
	pool   *sql.DB
	conn   *sql.Conn
	tx     *sql.Tx
	lastID int64

	// dial connects lazily when an operation runs before Connect.
	dial func(ctx context.Context) error
}

// NewConn creates an unattached Conn. dial is invoked on first use when
// the owning adapter has not been connected yet; it may be nil.
func NewConn(dial func(ctx context.Context) error) *Conn {
	return &Conn{dial: dial}
}

// Attach takes a dedicated connection from pool and makes it current.
func (c *Conn) Attach(ctx context.Context, pool *sql.DB) error {
	conn, err := pool.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pool = pool
	c.conn = conn
	c.tx = nil
	return nil
}

// Connected reports whether a connection is attached.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close rolls back any open transaction and releases the connection and its pool.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	var firstErr error
	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil && err != sql.ErrTxDone {
			firstErr = err
		}
		c.tx = nil
	}
	if err := c.conn.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.pool.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	c.conn = nil
	c.pool = nil
	return firstErr
}

func (c *Conn) ensure(ctx context.Context) error {
	if c.Connected() {
		return nil
	}
	if c.dial == nil {
		return ErrNotConnected
	}
	return c.dial(ctx)
}

// current returns the transaction if one is open, else the connection.
// Caller holds c.mu.
func (c *Conn) current() (querier, error) {
	if c.tx != nil {
		return c.tx, nil
	}
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

// Execute runs a single statement.
func (c *Conn) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	if err := c.ensure(ctx); err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.current()
	if err != nil {
		return Result{}, err
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}
	return c.record(res), nil
}

// record converts a driver result and remembers the insert id.
// Caller holds c.mu.
func (c *Conn) record(res sql.Result) Result {
	var out Result
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		out.LastInsertID = id
		c.lastID = id
	}
	return out
}

// ExecuteMany runs query once per argument set. Outside an explicit
// transaction the whole batch commits or rolls back together.
func (c *Conn) ExecuteMany(ctx context.Context, query string, argSets [][]any) (err error) {
	if len(argSets) == 0 {
		return nil
	}
	if err := c.ensure(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.current()
	if err != nil {
		return err
	}

	if c.tx == nil {
		var tx *sql.Tx
		tx, err = c.conn.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			return fmt.Errorf("begin batch: %w", err)
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
				return
			}
			err = tx.Commit()
		}()
		q = tx
	}

	stmt, err := q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, args := range argSets {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return fmt.Errorf("batch row %d: %w", i, err)
		}
		c.record(res)
	}
	return nil
}

// FetchOne returns the first row of query, or nil when there is none.
func (c *Conn) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := c.fetch(ctx, 1, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FetchAll returns every row of query.
func (c *Conn) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	return c.fetch(ctx, 0, query, args...)
}

func (c *Conn) fetch(ctx context.Context, max int, query string, args ...any) ([]Row, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.current()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanRows(rows, max)
}

// scanRows reads rows into column-keyed maps. max <= 0 means no limit.
func scanRows(rows *sql.Rows, max int) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalize(values[i])
		}
		out = append(out, row)

		if max > 0 && len(out) >= max {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// normalize makes driver values backend-uniform.
func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(slices.Clone(t))
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case uint64:
		return int64(t)
	}
	return v
}

// Begin opens an explicit transaction on the dedicated connection.
// The transaction lives until Commit or Rollback, independent of ctx.
func (c *Conn) Begin(ctx context.Context) error {
	if err := c.ensure(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tx != nil {
		return ErrTxActive
	}
	if c.conn == nil {
		return ErrNotConnected
	}

	tx, err := c.conn.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	c.tx = tx
	return nil
}

// Commit commits the open transaction.
func (c *Conn) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tx == nil {
		return ErrNoTx
	}
	err := c.tx.Commit()
	c.tx = nil
	return err
}

// Rollback aborts the open transaction.
func (c *Conn) Rollback() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tx == nil {
		return ErrNoTx
	}
	err := c.tx.Rollback()
	c.tx = nil
	return err
}

// InTx reports whether an explicit transaction is open.
func (c *Conn) InTx() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx != nil
}

// LastInsertID is the auto-increment value of the most recent insert.
func (c *Conn) LastInsertID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastID
}
