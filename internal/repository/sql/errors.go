package sql

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PostgreSQL error codes. See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgStringTooLongErrCode     = "22001"
	pgNotNullViolationErrCode  = "23502"
	pgForeignKeyViolationCode  = "23503"
	pgCheckViolationErrCode    = "23514"
	pgNumericOutOfRangeErrCode = "22003"
)

type pgErrorInfo struct {
	code       string
	constraint string
	column     string
	detail     string
}

// asPgError extracts the server error regardless of which driver produced it.
func asPgError(err error) (pgErrorInfo, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErrorInfo{code: pgErr.Code, constraint: pgErr.ConstraintName, column: pgErr.ColumnName, detail: pgErr.Detail}, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgErrorInfo{code: string(pqErr.Code), constraint: pqErr.Constraint, column: pqErr.Column, detail: pqErr.Detail}, true
	}
	return pgErrorInfo{}, false
}

// constraintViolation maps integrity errors raised by the database to validation errors.
func constraintViolation(err error) *repository.ValidationError {
	info, ok := asPgError(err)
	if !ok {
		return nil
	}

	field := info.constraint
	if field == "" {
		field = info.column
	}

	switch info.code {
	case pgForeignKeyViolationCode:
		reason := "referenced record does not exist"
		if info.detail != "" {
			reason += ": " + info.detail
		}
		return &repository.ValidationError{Field: field, Reason: reason}
	case pgCheckViolationErrCode:
		return &repository.ValidationError{Field: field, Reason: "value violates constraint " + info.constraint}
	case pgNotNullViolationErrCode:
		return &repository.ValidationError{Field: field, Reason: info.column + " is required"}
	case pgStringTooLongErrCode:
		return &repository.ValidationError{Field: field, Reason: "value too long"}
	case pgNumericOutOfRangeErrCode:
		return &repository.ValidationError{Field: field, Reason: "numeric value out of range"}
	default:
		return nil
	}
}

// persistenceError classifies err, logs backing store failures and wraps them for the caller.
func persistenceError(ctx context.Context, op string, err error, attrs ...slog.Attr) error {
	if vErr := constraintViolation(err); vErr != nil {
		slog.LogAttrs(ctx, slog.LevelDebug, "catalog store rejected input",
			append(attrs, slog.String("op", op), slog.String("reason", vErr.Reason))...)
		return vErr
	}
	slog.LogAttrs(ctx, slog.LevelError, "catalog store operation failed",
		append(attrs, slog.String("op", op), slog.Any("err", err))...)
	return &repository.PersistenceError{Op: op, Err: err}
}
