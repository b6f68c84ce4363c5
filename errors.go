package s3sqlite

import (
	"fmt"

	"github.com/michalc/sqlite-s3-query/s3object"
)

// ErrVersioningNotEnabled re-exports s3object's error so callers of this
// package never need to import s3object directly to use errors.As.
type ErrVersioningNotEnabled = s3object.ErrVersioningNotEnabled

// ErrHTTPStatus re-exports s3object's error for the same reason.
type ErrHTTPStatus = s3object.ErrHTTPStatus

// ErrTransport re-exports s3object's error for the same reason.
type ErrTransport = s3object.ErrTransport

// ErrSQLite wraps a non-OK return code from libsqlite3: bind failures,
// prepare failures, and step failures all surface as this type, carrying
// whatever sqlite3_errmsg produced at the point of failure.
type ErrSQLite struct {
	Op      string
	Code    int32
	Message string
}

func (e *ErrSQLite) Error() string {
	return fmt.Sprintf("%s: sqlite error %d: %s", e.Op, e.Code, e.Message)
}

// ErrContextClosed is returned when a caller tries to read rows from a
// ResultStream, or execute a Statement, after its owning scope has
// already exited.
type ErrContextClosed struct {
	What string
}

func (e *ErrContextClosed) Error() string {
	return e.What + " used after its scope closed"
}

// ErrUnsupportedParam is returned when a bound parameter value is of a
// type the core does not know how to coerce to a SQLite storage class.
type ErrUnsupportedParam struct {
	Value any
}

func (e *ErrUnsupportedParam) Error() string {
	return fmt.Sprintf("unsupported parameter type %T", e.Value)
}

// ErrUnknownNamedParam is returned when a named parameter does not match
// any placeholder in the prepared statement.
type ErrUnknownNamedParam struct {
	Name string
}

func (e *ErrUnknownNamedParam) Error() string {
	return fmt.Sprintf("unknown named parameter %q", e.Name)
}
