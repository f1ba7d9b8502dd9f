package psql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	databaseerrors "shopcarts/internal/database"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// sqlState extracts the SQLSTATE code from lib/pq and pgx errors.
func sqlState(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}

	return "", false
}

func isUniqueViolation(err error) bool {
	code, ok := sqlState(err)
	return ok && code == uniqueViolation
}

// IsTransient reports whether err is a connectivity or contention failure
// after which the same statement may succeed.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, databaseerrors.ErrOutcomeUnknown) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if code, ok := sqlState(err); ok {
		switch {
		case len(code) == 5 && code[:2] == "08": // connection exception
			return true
		case code == "40001", // serialization_failure
			code == "40P01", // deadlock_detected
			code == "53300", // too_many_connections
			code == "57P01", // admin_shutdown
			code == "57P02", // crash_shutdown
			code == "57P03": // cannot_connect_now
			return true
		default:
			return false
		}
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// writeOutcome marks a transient failure of a write as ErrOutcomeUnknown unless the driver
// reports that nothing reached the server (bad connection or refused dial).
func writeOutcome(err error) error {
	if !IsTransient(err) {
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, syscall.ECONNREFUSED) {
		return err
	}
	return fmt.Errorf("%w: %w", databaseerrors.ErrOutcomeUnknown, err)
}
