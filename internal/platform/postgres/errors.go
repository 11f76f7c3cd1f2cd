package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes we distinguish at the store layer.
const (
	pgUniqueViolationCode     = "23505"
	pgForeignKeyViolationCode = "23503"
	pgCheckViolationCode      = "23514"
)

// isPgError reports whether err is a PostgreSQL error with the given code.
func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	return isPgError(err, pgUniqueViolationCode)
}

// isForeignKeyViolation reports whether err is a foreign key violation.
func isForeignKeyViolation(err error) bool {
	return isPgError(err, pgForeignKeyViolationCode)
}

// isCheckViolation reports whether err is a check constraint violation.
func isCheckViolation(err error) bool {
	return isPgError(err, pgCheckViolationCode)
}
