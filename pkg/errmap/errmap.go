package errmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Code classifies failures of storyline operations.
type Code string

const (
	CodeValidation    Code = "validation"
	CodeConflict      Code = "conflict"
	CodeInvariant     Code = "invariant_violation"
	CodeNotFound      Code = "not_found"
	CodeAlreadyExists Code = "already_exists"
	CodeCanceled      Code = "canceled"
	CodeTimeout       Code = "timeout"
	CodeUnexpected    Code = "unexpected"
)

// Error carries a code and context while preserving the original cause via
// Unwrap.
type Error struct {
	Code      Code
	Message   string
	Entity    string
	Retryable bool
	cause     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = humanize(e.Code)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Entity != "" {
		return e.Entity + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

func humanize(code Code) string {
	switch code {
	case CodeValidation:
		return "invalid input"
	case CodeConflict:
		return "concurrent modification, retry"
	case CodeInvariant:
		return "ordering invariant violated"
	case CodeNotFound:
		return "not found"
	case CodeAlreadyExists:
		return "already exists"
	case CodeCanceled:
		return "operation was canceled"
	case CodeTimeout:
		return "operation timed out"
	default:
		return "unexpected error"
	}
}

// New builds an error without an underlying cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Retryable: code == CodeConflict,
	}
}

// Wrap builds an error around cause. The cause stays reachable through
// errors.Is and errors.As.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Retryable: code == CodeConflict,
		cause:     cause,
	}
}

// WithEntity returns a copy of e annotated with the entity type it concerns.
func (e *Error) WithEntity(entity string) *Error {
	out := *e
	out.Entity = entity
	return &out
}

// Map classifies err. Errors that are already classified pass through
// unchanged; driver and context errors are wrapped with the matching code.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var mapped *Error
	if errors.As(err, &mapped) {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled):
		return Wrap(CodeCanceled, err, "")
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(CodeTimeout, err, "")
	case errors.Is(err, sql.ErrNoRows):
		return Wrap(CodeNotFound, err, "")
	}

	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		return fromSQLite(sqlErr.Code(), err)
	}

	return Wrap(CodeUnexpected, err, "")
}

func fromSQLite(code int, err error) error {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return Wrap(CodeAlreadyExists, err, "")
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return Wrap(CodeInvariant, err, "check constraint rejected write")
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return Wrap(CodeValidation, err, "referenced parent does not exist")
	}

	// Extended result codes keep the primary code in the low byte.
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return Wrap(CodeConflict, err, "")
	case sqlite3.SQLITE_CONSTRAINT:
		return Wrap(CodeValidation, err, "constraint rejected write")
	case sqlite3.SQLITE_INTERRUPT:
		return Wrap(CodeCanceled, err, "")
	}
	return Wrap(CodeUnexpected, err, "")
}

// CodeOf returns the code of the first classified error in err's chain, or
// CodeUnexpected when nothing in the chain is classified.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var mapped *Error
	if errors.As(err, &mapped) {
		return mapped.Code
	}
	return CodeUnexpected
}

// Is reports whether err is classified with code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryable reports whether repeating the same operation may succeed.
func IsRetryable(err error) bool {
	var mapped *Error
	if errors.As(Map(err), &mapped) {
		return mapped.Retryable
	}
	return false
}
