// Package repository implements raw-SQL persistence for movies, sessions,
// tickets, users and refresh tokens.  Queries use '?' placeholders and
// dialect-neutral SQL so the same code runs against MySQL and SQLite.
//
// Two sentinel errors cross the package boundary: ErrNotFound when a row
// lookup misses, and ErrDuplicateKey when the store rejects a write on a
// unique constraint.  Services translate both into domain errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateKey is returned when an insert or update violates a unique
// constraint.  The driver error is kept as the wrapped cause.
var ErrDuplicateKey = errors.New("duplicate key")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isUniqueViolation reports whether err is a unique-constraint failure
// raised by either supported driver.
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

type duplicateKeyError struct{ cause error }

func (e *duplicateKeyError) Error() string        { return "duplicate key: " + e.cause.Error() }
func (e *duplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }
func (e *duplicateKeyError) Unwrap() error        { return e.cause }

// translate maps unique violations onto ErrDuplicateKey and passes every
// other error through untouched.
func translate(err error) error {
	if err != nil && isUniqueViolation(err) {
		return &duplicateKeyError{cause: err}
	}
	return err
}
