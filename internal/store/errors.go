// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"regexp"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no row matches the requested id.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateKey is matched by every *DuplicateKeyError.
	ErrDuplicateKey = errors.New("store: duplicate key")

	// ErrInvalidReference is returned when a foreign key points at a row
	// that does not exist.
	ErrInvalidReference = errors.New("store: invalid reference")

	// ErrStoreUnavailable wraps connection and transport failures.
	ErrStoreUnavailable = errors.New("store: unavailable")
)

// DuplicateKeyError reports a unique constraint violation.
type DuplicateKeyError struct {
	Constraint string
	Err        error
}

func (e *DuplicateKeyError) Error() string {
	if e.Constraint == "" {
		return "duplicate key"
	}
	return "duplicate key violates " + e.Constraint
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDuplicateKey) hold for any DuplicateKeyError.
func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// PostgreSQL SQLSTATE and MySQL error numbers.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	myDuplicateEntry      = 1062
	myNoReferencedRow     = 1452
)

// mysqlKeyName extracts the key name from "Duplicate entry 'x' for key 'categories.slug'".
var mysqlKeyName = regexp.MustCompile(`for key '([^']+)'`)

// classify maps driver errors onto the package's error taxonomy. Errors
// that match nothing are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &DuplicateKeyError{Constraint: pgErr.ConstraintName, Err: err}
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrInvalidReference, pgErr.ConstraintName)
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case myDuplicateEntry:
			var key string
			if m := mysqlKeyName.FindStringSubmatch(myErr.Message); m != nil {
				key = m[1]
			}
			return &DuplicateKeyError{Constraint: key, Err: err}
		case myNoReferencedRow:
			return fmt.Errorf("%w: %s", ErrInvalidReference, myErr.Message)
		}
	}

	if unavailable(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

func unavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
