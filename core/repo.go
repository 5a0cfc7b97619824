package core

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound  = errors.New("core: record not found")
	ErrDuplicate = errors.New("core: duplicate record")
)

// Transaction is a unit of work opened by a repository. Callers thread it through
// QueryOptions and UpdateOptions so that every repository call joins the same unit.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Transactional interface {
	BeginTransaction(ctx context.Context) (Transaction, error)
}

type Conn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type UpdateOptions struct {
	Tx Transaction
}

type QueryOptions struct {
	ForUpdate bool
	Tx        Transaction
}

// Rollback is deferred by services after BeginTransaction and only acts when the
// enclosing function is returning an error.
func Rollback(ctx context.Context, tx Transaction, err error) {
	if tx == nil {
		return
	}
	if e := tx.Rollback(ctx); e != nil {
		log.Warn().Err(e).AnErr("cause", err).Msg("failed to rollback")
	}
}
