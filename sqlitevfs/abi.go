package sqlitevfs

// This file mirrors, field for field, the subset of sqlite3.h's sqlite3_vfs
// and sqlite3_io_methods layouts this adapter needs. Both are declared at
// "iVersion 1", the minimum a VFS registration requires, so the
// version-2/3 method-table tail (xShmMap and friends) is simply absent
// rather than null-padded.
//
// Pointer-sized fields use uintptr rather than unsafe.Pointer because most
// of them hold C function addresses (from purego.NewCallback), not Go
// object references the garbage collector must track.

const (
	sqliteOK              = 0
	sqliteIOErr           = 10
	sqliteIOErrShortRead  = 522
	sqliteNotFound        = 12
	sqliteCantOpen        = 14
	sqliteIOCapImmutable  = 0x00002000
	sqliteOpenMainDB      = 0x00000100
	sqliteOpenReadOnly    = 0x00000001
	sqliteOpenNoMutex     = 0x00008000
	sqliteOpenURI         = 0x00000040
	defaultSectorSize     = 512
	defaultMaxPathnameLen = 1024
)

// Open flags the session controller must pass to sqlite3_open_v2, exported
// here since this package owns the ABI's flag bit values. NOMUTEX is
// essential: each handle is used single-threaded and wants no
// engine-internal locking on top of that guarantee.
const (
	OpenReadOnly = sqliteOpenReadOnly
	OpenURI      = sqliteOpenURI
	OpenNoMutex  = sqliteOpenNoMutex
)

// ioMethods is sqlite3_io_methods at iVersion 1. There is exactly one
// instance per registered VFS; every open fileHandle points at the same
// instance via its pMethods field, matching how SQLite itself expects a
// shared, read-only method table.
type ioMethods struct {
	version                int32
	_                      int32 // alignment padding before the first pointer field
	xClose                 uintptr
	xRead                  uintptr
	xWrite                 uintptr
	xTruncate              uintptr
	xSync                  uintptr
	xFileSize              uintptr
	xLock                  uintptr
	xUnlock                uintptr
	xCheckReservedLock     uintptr
	xFileControl           uintptr
	xSectorSize            uintptr
	xDeviceCharacteristics uintptr
}

// fileHandle is sqlite3_file: the engine's opaque per-open-file object.
// pMethods must be its first field. token identifies, via the package
// registry, which sessionState this handle belongs to: xOpen copies the
// registration's token (vfs.pAppData) into every file it opens, so all
// files opened against one registered name share the same token.
type fileHandle struct {
	pMethods uintptr
	token    uintptr
}

// vfs is sqlite3_vfs at iVersion 1.
type vfs struct {
	version       int32
	szOsFile      int32
	mxPathname    int32
	_             int32 // alignment padding before pNext
	pNext         uintptr
	zName         uintptr
	pAppData      uintptr
	xOpen         uintptr
	xDelete       uintptr
	xAccess       uintptr
	xFullPathname uintptr
	xDlOpen       uintptr
	xDlError      uintptr
	xDlSym        uintptr
	xDlClose      uintptr
	xRandomness   uintptr
	xSleep        uintptr
	xCurrentTime  uintptr
	xGetLastError uintptr
}
