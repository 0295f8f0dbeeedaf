package pg

import (
	"context"
	"errors"
	"fmt"
	"net"

	// Packages
	pgx "github.com/jackc/pgx/v5"
	pgconn "github.com/jackc/pgx/v5/pgconn"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Err is an error code returned by the package.
type Err int

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	ErrSuccess Err = iota
	ErrNotFound
	ErrNotImplemented
	ErrBadParameter
	ErrNotAvailable
	ErrConflict
	ErrQuery
)

// PostgreSQL error codes which are translated
const (
	pgUndefinedTable     = "42P01"
	pgUndefinedObject    = "42704"
	pgDuplicateTable     = "42P07"
	pgDuplicateObject    = "42710"
	pgUniqueViolation    = "23505"
	pgRaiseException     = "P0001"
	pgInvalidText        = "22P02"
	pgInvalidParameter   = "22023"
	pgConnectionClass    = "08"
	pgInsufficientRes    = "53"
	pgOperatorIntervent  = "57"
	pgDataExceptionClass = "22"
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Err) Error() string {
	switch e {
	case ErrSuccess:
		return "success"
	case ErrNotFound:
		return "not found"
	case ErrNotImplemented:
		return "not implemented"
	case ErrBadParameter:
		return "bad parameter"
	case ErrNotAvailable:
		return "store unavailable"
	case ErrConflict:
		return "conflict"
	case ErrQuery:
		return "query error"
	}
	return fmt.Sprintf("error code %d", int(e))
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// With returns the error wrapped with additional context
func (e Err) With(args ...any) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprint(args...))
}

// Withf returns the error wrapped with a formatted message
func (e Err) Withf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprintf(format, args...))
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// pgerror translates driver and server errors into package errors. Errors
// which are already package errors, and context errors, are returned as-is.
func pgerror(err error) error {
	if err == nil {
		return nil
	}

	// Pass through
	var code Err
	if errors.As(err, &code) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// No rows
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// Server errors
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s", pgcode(pgErr.Code), pgErr.Message)
	}

	// Connection errors
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}

	// Anything else is a query error
	return fmt.Errorf("%w: %w", ErrQuery, err)
}

// pgcode maps a SQLSTATE code to an error code
func pgcode(code string) Err {
	switch code {
	case pgUndefinedTable, pgUndefinedObject:
		return ErrNotFound
	case pgDuplicateTable, pgDuplicateObject, pgUniqueViolation:
		return ErrConflict
	case pgRaiseException, pgInvalidText, pgInvalidParameter:
		return ErrBadParameter
	}
	if len(code) >= 2 {
		switch code[:2] {
		case pgConnectionClass, pgInsufficientRes, pgOperatorIntervent:
			return ErrNotAvailable
		case pgDataExceptionClass:
			return ErrBadParameter
		}
	}
	return ErrQuery
}
