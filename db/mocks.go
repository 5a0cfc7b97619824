package db

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/testutil"
)

var errNotStubbed = errors.New("mock: statement not stubbed")

// MockConn stands in for the pool in repository tests. The SQL of every statement
// is kept in the order it was sent.
type MockConn struct {
	QueryFunc    func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...interface{}) pgx.Row
	ExecFunc     func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	BeginFunc    func(ctx context.Context) (pgx.Tx, error)

	statements []string
	*testutil.CallWatcher
}

func NewMockConn() *MockConn {
	return &MockConn{
		QueryFunc: func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
			return nil, errNotStubbed
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...interface{}) pgx.Row {
			return MockRow{Err: pgx.ErrNoRows}
		},
		ExecFunc: func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
			return pgconn.CommandTag("UPDATE 1"), nil
		},
		BeginFunc:   func(ctx context.Context) (pgx.Tx, error) { return nil, errNotStubbed },
		CallWatcher: testutil.NewCallWatcher(),
	}
}

// Statements returns the SQL sent through Query, QueryRow and Exec.
func (c *MockConn) Statements() []string {
	return c.statements
}

func (c *MockConn) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	c.AddCall(ctx, sql, args)
	c.statements = append(c.statements, sql)
	return c.QueryFunc(ctx, sql, args...)
}

func (c *MockConn) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	c.AddCall(ctx, sql, args)
	c.statements = append(c.statements, sql)
	return c.QueryRowFunc(ctx, sql, args...)
}

func (c *MockConn) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	c.AddCall(ctx, sql, args)
	c.statements = append(c.statements, sql)
	return c.ExecFunc(ctx, sql, args...)
}

func (c *MockConn) Begin(ctx context.Context) (pgx.Tx, error) {
	c.AddCall(ctx)
	return c.BeginFunc(ctx)
}

// MockRow is a single row result. Scan fails with Err when it is set and
// otherwise hands dest to ScanFunc.
type MockRow struct {
	Err      error
	ScanFunc func(dest ...interface{}) error
}

func (r MockRow) Scan(dest ...interface{}) error {
	if r.Err != nil {
		return r.Err
	}
	if r.ScanFunc == nil {
		return nil
	}
	return r.ScanFunc(dest...)
}

// MockTransaction is the core.Transaction handed out by mocked BeginTransaction
// calls. Commit and Rollback are counted on its own CallWatcher, separate from the
// statements run inside it.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	*MockConn
	*testutil.CallWatcher
}

func NewMockTransaction() *MockTransaction {
	return &MockTransaction{
		MockConn:     NewMockConn(),
		CommitFunc:   func(ctx context.Context) error { return nil },
		RollbackFunc: func(ctx context.Context) error { return nil },
		CallWatcher:  testutil.NewCallWatcher(),
	}
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.AddCall(ctx)
	return t.CommitFunc(ctx)
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	t.AddCall(ctx)
	return t.RollbackFunc(ctx)
}
