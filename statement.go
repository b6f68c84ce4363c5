package s3sqlite

import (
	"strings"
	"unsafe"
)

// libsqlite3 return codes and column storage classes this package decodes
// against; only the handful actually observed by the executor.
const (
	sqliteRow  = 100
	sqliteDone = 101

	sqliteTypeInteger = 1
	sqliteTypeFloat   = 2
	sqliteTypeText    = 3
	sqliteTypeBlob    = 4
	sqliteTypeNull    = 5
)

// Statement is a prepared SQL statement owned by a Session, valid until
// either Close or the owning Session closes. Using it afterward fails
// with *ErrContextClosed, per spec invariant 7.
type Statement struct {
	session *Session
	stmt    uintptr
	closed  bool
}

// ResultStream is a lazy, non-restartable sequence of rows paired with a
// fixed column-name tuple. The column tuple is captured at stream
// construction from column_count/column_name, which are valid
// immediately after a successful prepare, so it matches the prepared
// statement's result metadata even for a query that returns zero rows.
type ResultStream struct {
	stmt    *Statement
	columns []string
	done    bool
	err     error
}

// Query prepares and executes sql with ordered positional parameters
// bound to indices 1..len(params), per spec §4.F.
func (s *Session) Query(sql string, params ...Value) (*ResultStream, error) {
	var stmt, _, err = s.prepare(sql)
	if err != nil {
		return nil, err
	}
	if bindErr := stmt.bindPositional(params); bindErr != nil {
		stmt.Close()
		return nil, bindErr
	}
	return newResultStream(stmt)
}

// QueryNamed prepares and executes sql with named parameters, each looked
// up via sqlite3_bind_parameter_index; a name absent from the statement's
// placeholders fails with *ErrUnknownNamedParam.
func (s *Session) QueryNamed(sql string, params []NamedParam) (*ResultStream, error) {
	var stmt, _, err = s.prepare(sql)
	if err != nil {
		return nil, err
	}
	if bindErr := stmt.bindNamed(params); bindErr != nil {
		stmt.Close()
		return nil, bindErr
	}
	return newResultStream(stmt)
}

// ScriptResults iterates the ResultStream of each statement in a
// multi-statement script in order. The next statement is prepared only
// once the previous stream has been fully drained or explicitly closed,
// per spec §4.E's multi-statement variant.
type ScriptResults struct {
	session  *Session
	tail     string
	paramSets [][]Value
	index    int
	current  *ResultStream
}

// QueryScript prepares and executes a semicolon-separated sequence of SQL
// statements. paramSets[i] binds positionally to the i-th statement;
// scripts with more statements than paramSets entries bind the
// remainder with no parameters.
func (s *Session) QueryScript(sql string, paramSets ...[]Value) (*ScriptResults, error) {
	return &ScriptResults{session: s, tail: sql, paramSets: paramSets}, nil
}

// Next prepares and executes the next statement in the script, closing
// the previous one first if the caller abandoned it mid-stream. It
// returns false once the tail is empty or whitespace-only, per spec
// §4.F's "empty or whitespace-only tails terminate the sequence."
func (r *ScriptResults) Next() (*ResultStream, bool, error) {
	if r.current != nil {
		r.current.Close()
		r.current = nil
	}
	if strings.TrimSpace(r.tail) == "" {
		return nil, false, nil
	}

	var stmt, tail, err = r.session.prepare(r.tail)
	if err != nil {
		return nil, false, err
	}
	r.tail = tail

	var params []Value
	if r.index < len(r.paramSets) {
		params = r.paramSets[r.index]
	}
	r.index++

	if bindErr := stmt.bindPositional(params); bindErr != nil {
		stmt.Close()
		return nil, false, bindErr
	}

	var stream, streamErr = newResultStream(stmt)
	if streamErr != nil {
		return nil, false, streamErr
	}
	r.current = stream
	return stream, true, nil
}

// Close finalizes whatever statement is currently open, if any.
func (r *ScriptResults) Close() error {
	if r.current == nil {
		return nil
	}
	var err = r.current.Close()
	r.current = nil
	return err
}

// prepare consumes sql's first statement and returns it prepared, plus
// the unconsumed tail text driving further calls for multi-statement
// scripts.
func (s *Session) prepare(sql string) (*Statement, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, "", &ErrContextClosed{What: "session"}
	}

	var stmtHandle uintptr
	var tailPtr uintptr
	var rc = s.capi.prepareV3(s.db, sql, int32(len(sql)), 0, uintptr(unsafe.Pointer(&stmtHandle)), uintptr(unsafe.Pointer(&tailPtr)))
	if rc != sqliteOK {
		return nil, "", &ErrSQLite{Op: "sqlite3_prepare_v3", Code: rc, Message: s.capi.errMessage(s.db)}
	}

	var tail string
	if tailPtr != 0 {
		tail = cGoString(tailPtr)
	}
	var st = &Statement{session: s, stmt: stmtHandle}
	s.openStmts = append(s.openStmts, st)
	return st, tail, nil
}

// bindPositional binds values to 1-based positional indices in order.
func (st *Statement) bindPositional(values []Value) error {
	for i, v := range values {
		if err := st.bindValue(int32(i+1), v); err != nil {
			return err
		}
	}
	return nil
}

// bindNamed resolves each name via sqlite3_bind_parameter_index before
// binding its value; an unmatched name fails with *ErrUnknownNamedParam.
func (st *Statement) bindNamed(params []NamedParam) error {
	for _, p := range params {
		var idx = st.session.capi.bindParameterIndex(st.stmt, p.Name)
		if idx == 0 {
			return &ErrUnknownNamedParam{Name: p.Name}
		}
		if err := st.bindValue(idx, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// bindValue coerces v to a SQLite storage class and binds it at idx:
// integer to int64, floating to double, []byte to blob, string to UTF-8
// text, nil to null. Any other Go type fails with *ErrUnsupportedParam.
func (st *Statement) bindValue(idx int32, v Value) error {
	var c = st.session.capi
	var rc int32
	switch val := v.(type) {
	case nil:
		rc = c.bindNull(st.stmt, idx)
	case int:
		rc = c.bindInt64(st.stmt, idx, int64(val))
	case int32:
		rc = c.bindInt64(st.stmt, idx, int64(val))
	case int64:
		rc = c.bindInt64(st.stmt, idx, val)
	case float32:
		rc = c.bindDouble(st.stmt, idx, float64(val))
	case float64:
		rc = c.bindDouble(st.stmt, idx, val)
	case []byte:
		if len(val) == 0 {
			rc = c.bindBlob(st.stmt, idx, 0, 0, sqliteTransient)
		} else {
			rc = c.bindBlob(st.stmt, idx, uintptr(unsafe.Pointer(&val[0])), int32(len(val)), sqliteTransient)
		}
	case string:
		rc = c.bindText(st.stmt, idx, val, int32(len(val)), sqliteTransient)
	default:
		return &ErrUnsupportedParam{Value: v}
	}
	if rc != sqliteOK {
		return &ErrSQLite{Op: "sqlite3_bind", Code: rc, Message: c.errMessage(st.session.db)}
	}
	return nil
}

// Close finalizes the statement and drops it from the owning session's
// open-statement tracking. Safe to call more than once and safe to call
// after the owning session has already closed the database (a no-op,
// since the session's own Close defensively finalizes whatever it finds
// still live and clears the tracking list itself).
func (st *Statement) Close() error {
	var s = st.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.closed || st.stmt == 0 {
		return nil
	}
	st.closed = true
	var rc = s.capi.finalize(st.stmt)
	st.stmt = 0
	for i, o := range s.openStmts {
		if o == st {
			s.openStmts = append(s.openStmts[:i], s.openStmts[i+1:]...)
			break
		}
	}
	if rc != sqliteOK {
		return &ErrSQLite{Op: "sqlite3_finalize", Code: rc}
	}
	return nil
}

func newResultStream(stmt *Statement) (*ResultStream, error) {
	var c = stmt.session.capi
	var count = c.columnCount(stmt.stmt)
	var columns = make([]string, count)
	for i := int32(0); i < count; i++ {
		columns[i] = cGoString(c.columnName(stmt.stmt, i))
	}
	return &ResultStream{stmt: stmt, columns: columns}, nil
}

// Columns returns the fixed column-name tuple, valid as soon as the
// stream is constructed.
func (r *ResultStream) Columns() []string {
	return r.columns
}

// Next advances to the next row, returning false at SQLITE_DONE or on
// error (inspect Err to distinguish the two). Reading from a stream whose
// statement was already closed — including by the owning session's
// teardown — fails with *ErrContextClosed.
func (r *ResultStream) Next() bool {
	if r.done || r.err != nil {
		return false
	}
	if r.stmt.closed {
		r.err = &ErrContextClosed{What: "result stream"}
		return false
	}

	var rc = r.stmt.session.capi.step(r.stmt.stmt)
	switch rc {
	case sqliteRow:
		return true
	case sqliteDone:
		r.done = true
		return false
	default:
		r.err = &ErrSQLite{Op: "sqlite3_step", Code: rc, Message: r.stmt.session.capi.errMessage(r.stmt.session.db)}
		return false
	}
}

// Err returns the error, if any, that stopped iteration. nil after a
// clean SQLITE_DONE.
func (r *ResultStream) Err() error {
	return r.err
}

// Row decodes the current row's values by column storage class: INTEGER
// to int64, FLOAT to float64, TEXT to string (UTF-8 decoded), BLOB to a
// freshly copied []byte (sqlite3_column_blob's pointer is only valid
// until the next step), NULL to nil.
func (r *ResultStream) Row() []Value {
	var c = r.stmt.session.capi
	var row = make([]Value, len(r.columns))
	for i := range row {
		var col = int32(i)
		switch c.columnType(r.stmt.stmt, col) {
		case sqliteTypeInteger:
			row[i] = c.columnInt64(r.stmt.stmt, col)
		case sqliteTypeFloat:
			row[i] = c.columnDouble(r.stmt.stmt, col)
		case sqliteTypeText:
			var ptr = c.columnText(r.stmt.stmt, col)
			var n = c.columnBytes(r.stmt.stmt, col)
			row[i] = string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
		case sqliteTypeBlob:
			var ptr = c.columnBlob(r.stmt.stmt, col)
			var n = c.columnBytes(r.stmt.stmt, col)
			if n == 0 {
				row[i] = []byte{}
			} else {
				var b = make([]byte, n)
				copy(b, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
				row[i] = b
			}
		default:
			row[i] = nil
		}
	}
	return row
}

// Close finalizes the underlying statement, releasing it before the
// owning session closes.
func (r *ResultStream) Close() error {
	return r.stmt.Close()
}
