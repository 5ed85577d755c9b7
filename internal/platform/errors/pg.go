package errors

// Postgres helpers: map pgx errors to ErrorCodes and retry semantics

import (
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrUniqueViolation         = "23505"
	pgErrForeignKeyViolation     = "23503"
	pgErrNotNullViolation        = "23502"
	pgErrCheckViolation          = "23514"
	pgErrInvalidTextRepr         = "22P02"
	pgErrSerializationFailure    = "40001"
	pgErrDeadlockDetected        = "40P01"
	pgErrLockNotAvailable        = "55P03"
	pgErrCannotConnectNow        = "57P03"
	pgErrUndefinedTable          = "42P01"
	pgErrAdminShutdown           = "57P01"
	pgErrReadOnlySQLTransaction  = "25006"
	pgErrInsufficientPrivilege   = "42501"
	pgErrConnectionFailureClass  = "08"
	pgErrInsufficientResourceCls = "53"
)

// ExtractPgError returns the *pgconn.PgError under err, if any
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsDuplicateKey reports a unique constraint violation
func IsDuplicateKey(err error) bool {
	p, ok := ExtractPgError(err)
	return ok && p.Code == pgErrUniqueViolation
}

// DBErrorCode maps a pg error to an ErrorCode; ok is false for non-pg errors
func DBErrorCode(err error) (ErrorCode, bool) {
	if stderrs.Is(err, pgx.ErrNoRows) {
		return ErrorCodeNotFound, true
	}
	p, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch {
	case p.Code == pgErrUniqueViolation:
		return ErrorCodeDuplicateKey, true
	case p.Code == pgErrForeignKeyViolation, p.Code == pgErrInvalidTextRepr:
		return ErrorCodeInvalidArgument, true
	case p.Code == pgErrNotNullViolation, p.Code == pgErrCheckViolation:
		return ErrorCodeValidation, true
	case p.Code == pgErrUndefinedTable, p.Code == pgErrInsufficientPrivilege:
		return ErrorCodeConfig, true
	case p.Code == pgErrCannotConnectNow, p.Code == pgErrAdminShutdown, p.Code == pgErrReadOnlySQLTransaction,
		strings.HasPrefix(p.Code, pgErrConnectionFailureClass), strings.HasPrefix(p.Code, pgErrInsufficientResourceCls):
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a pg error with its mapped code; nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// IsRetryablePG reports transient Postgres conditions
func IsRetryablePG(err error) bool {
	if err == nil {
		return false
	}
	p, ok := ExtractPgError(err)
	if !ok {
		s := strings.ToLower(Root(err).Error())
		return strings.Contains(s, "commit unexpectedly resulted in rollback") ||
			strings.Contains(s, "deadlock detected")
	}
	switch p.Code {
	case pgErrSerializationFailure, pgErrDeadlockDetected, pgErrLockNotAvailable, pgErrCannotConnectNow, pgErrAdminShutdown:
		return true
	}
	return strings.HasPrefix(p.Code, pgErrConnectionFailureClass)
}
