package sql

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// dbExecutor is an interface that represents either *sqlx.Conn or *sqlx.Tx.
type dbExecutor interface {
	PreparexContext(ctx context.Context, query string) (*sqlx.Stmt, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}
