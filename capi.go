package s3sqlite

import (
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/michalc/sqlite-s3-query/sqlitevfs/sqlitelib"
)

// capi is the set of libsqlite3 entry points the session controller and
// statement executor call, bound to Go function values via
// purego.RegisterFunc rather than the raw purego.SyscallN used by
// sqlitevfs for VFS (un)registration. RegisterFunc generates a
// platform-correct calling shim from the target Go signature, which
// matters here because several of these symbols pass or return float64
// (column/bind double) and int64 (row ids, column ints) — values
// SyscallN's plain uintptr argument list cannot carry correctly across
// every supported architecture's calling convention.
type capi struct {
	openV2      func(filename string, ppDb uintptr, flags int32, vfsName string) int32
	closeFn     func(db uintptr) int32
	prepareV3   func(db uintptr, sql string, nByte int32, prepFlags uint32, ppStmt uintptr, pzTail uintptr) int32
	step        func(stmt uintptr) int32
	columnCount func(stmt uintptr) int32
	columnName  func(stmt uintptr, col int32) uintptr
	columnType  func(stmt uintptr, col int32) int32
	columnInt64 func(stmt uintptr, col int32) int64
	columnDouble func(stmt uintptr, col int32) float64
	columnBlob  func(stmt uintptr, col int32) uintptr
	columnText  func(stmt uintptr, col int32) uintptr
	columnBytes func(stmt uintptr, col int32) int32
	bindText    func(stmt uintptr, idx int32, text string, n int32, destructor uintptr) int32
	bindBlob    func(stmt uintptr, idx int32, data uintptr, n int32, destructor uintptr) int32
	bindInt64   func(stmt uintptr, idx int32, v int64) int32
	bindDouble  func(stmt uintptr, idx int32, v float64) int32
	bindNull    func(stmt uintptr, idx int32) int32
	bindParameterIndex func(stmt uintptr, name string) int32
	finalize    func(stmt uintptr) int32
	errmsg      func(db uintptr) uintptr
	interrupt   func(db uintptr)
}

// sqliteTransient is SQLITE_TRANSIENT, the destructor sentinel telling
// libsqlite3 to copy a bound text/blob value itself rather than borrow the
// Go-owned memory past the bind call's return.
var sqliteTransient = ^uintptr(0)

func bindCAPI(lib *sqlitelib.Library) *capi {
	var c capi
	purego.RegisterFunc(&c.openV2, lib.Sqlite3OpenV2)
	purego.RegisterFunc(&c.closeFn, lib.Sqlite3Close)
	purego.RegisterFunc(&c.prepareV3, lib.Sqlite3PrepareV3)
	purego.RegisterFunc(&c.step, lib.Sqlite3Step)
	purego.RegisterFunc(&c.columnCount, lib.Sqlite3ColumnCount)
	purego.RegisterFunc(&c.columnName, lib.Sqlite3ColumnName)
	purego.RegisterFunc(&c.columnType, lib.Sqlite3ColumnType)
	purego.RegisterFunc(&c.columnInt64, lib.Sqlite3ColumnInt64)
	purego.RegisterFunc(&c.columnDouble, lib.Sqlite3ColumnDouble)
	purego.RegisterFunc(&c.columnBlob, lib.Sqlite3ColumnBlob)
	purego.RegisterFunc(&c.columnText, lib.Sqlite3ColumnText)
	purego.RegisterFunc(&c.columnBytes, lib.Sqlite3ColumnBytes)
	purego.RegisterFunc(&c.bindText, lib.Sqlite3BindText)
	purego.RegisterFunc(&c.bindBlob, lib.Sqlite3BindBlob)
	purego.RegisterFunc(&c.bindInt64, lib.Sqlite3BindInt64)
	purego.RegisterFunc(&c.bindDouble, lib.Sqlite3BindDouble)
	purego.RegisterFunc(&c.bindNull, lib.Sqlite3BindNull)
	purego.RegisterFunc(&c.bindParameterIndex, lib.Sqlite3BindParameterIndex)
	purego.RegisterFunc(&c.finalize, lib.Sqlite3Finalize)
	purego.RegisterFunc(&c.errmsg, lib.Sqlite3Errmsg)
	purego.RegisterFunc(&c.interrupt, lib.Sqlite3Interrupt)
	return &c
}

func (c *capi) errMessage(db uintptr) string {
	return cGoString(c.errmsg(db))
}

// cGoString reads a NUL-terminated C string out of raw memory. Separate
// from sqlitevfs's identical helper since the two packages share no
// internal code, only the same small, obvious technique.
func cGoString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var n int
	for *(*byte)(unsafe.Pointer(ptr + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
}
