// Package sqlitevfs implements the SQLite VFS and I/O method tables (the
// "VFS Adapter" component) over a version-pinned, range-addressable
// PageSource, and registers it with a dynamically-loaded libsqlite3 via
// github.com/ebitengine/purego — without cgo.
//
// The VFS enforces read-only, no-lock, no-shared-memory semantics: only
// the main database file may be opened; every other file class (journals,
// WAL, temp files, shared memory) is rejected so the engine never attempts
// to write anything back to the remote object.
package sqlitevfs

import (
	"time"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/michalc/sqlite-s3-query/sqlitevfs/sqlitelib"
)

// sessionState is the Go-side context reachable from a VFS callback: the
// page source it reads from, and the bookkeeping needed to unregister
// cleanly. Exactly one is created per Registration and addressed from
// vfs.pAppData, since a foreign C library can only carry a Go object
// across the call boundary as an opaque token.
type sessionState struct {
	name      []byte // NUL-terminated, kept alive for the registration's life
	source    PageSource
	vfsStruct *vfs
	vfsToken  uintptr // registry key, stashed in vfsStruct.pAppData
}

// Registration is a live, named VFS registration. Exactly one
// Registration exists per session; Unregister releases it.
type Registration struct {
	Name  string
	lib   *sqlitelib.Library
	vfs   *vfs
	token uintptr
}

var sharedIOMethods = buildIOMethods()

func buildIOMethods() *ioMethods {
	return &ioMethods{
		version:                1,
		xClose:                 purego.NewCallback(goXClose),
		xRead:                  purego.NewCallback(goXRead),
		xFileSize:              purego.NewCallback(goXFileSize),
		xLock:                  purego.NewCallback(goXLock),
		xUnlock:                purego.NewCallback(goXUnlock),
		xCheckReservedLock:     purego.NewCallback(goXCheckReservedLock),
		xFileControl:           purego.NewCallback(goXFileControl),
		xSectorSize:            purego.NewCallback(goXSectorSize),
		xDeviceCharacteristics: purego.NewCallback(goXDeviceCharacteristics),
	}
}

// Register builds and registers a new, uniquely-named VFS backed by
// source, using lib to call sqlite3_vfs_register. The returned
// Registration's Name is what callers pass as the "vfs=" URI parameter to
// sqlite3_open_v2.
func Register(lib *sqlitelib.Library, source PageSource) (*Registration, error) {
	var name = UniqueName()
	var nameBytes = append([]byte(name), 0)

	var state = &sessionState{
		name:   nameBytes,
		source: source,
	}
	var token = registerSession(state)
	state.vfsToken = token

	var v = &vfs{
		version:       1,
		szOsFile:      int32(unsafe.Sizeof(fileHandle{})),
		mxPathname:    defaultMaxPathnameLen,
		zName:         uintptr(unsafe.Pointer(&nameBytes[0])),
		pAppData:      token,
		xOpen:         purego.NewCallback(goXOpen),
		xDelete:       purego.NewCallback(goXDelete),
		xAccess:       purego.NewCallback(goXAccess),
		xFullPathname: purego.NewCallback(goXFullPathname),
		xCurrentTime:  purego.NewCallback(goXCurrentTime),
	}
	state.vfsStruct = v

	var reg = &Registration{Name: name, lib: lib, vfs: v, token: token}

	var rc, _, _ = purego.SyscallN(lib.Sqlite3VfsRegister, uintptr(unsafe.Pointer(v)), 0)
	if int32(rc) != sqliteOK {
		unregisterSession(token)
		return nil, &sqliteRC{op: "sqlite3_vfs_register", rc: int32(rc)}
	}

	return reg, nil
}

// Unregister removes the VFS from libsqlite3's process-wide registry. It
// must be called after the database opened against this VFS has been
// closed.
func (r *Registration) Unregister() error {
	defer unregisterSession(r.token)

	var rc, _, _ = purego.SyscallN(r.lib.Sqlite3VfsUnregister, uintptr(unsafe.Pointer(r.vfs)))
	if int32(rc) != sqliteOK {
		return &sqliteRC{op: "sqlite3_vfs_unregister", rc: int32(rc)}
	}
	return nil
}

type sqliteRC struct {
	op string
	rc int32
}

func (e *sqliteRC) Error() string {
	return e.op + ": sqlite error " + itoa(e.rc)
}

func itoa(v int32) string {
	if v == 0 {
		return "0"
	}
	var neg = v < 0
	if neg {
		v = -v
	}
	var buf [12]byte
	var i = len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// --- VFS-level callbacks ---

func goXOpen(pVfs, zName, pFile uintptr, flags int32, pOutFlags uintptr) int32 {
	var v = (*vfs)(unsafe.Pointer(pVfs))
	var state = lookupSession(v.pAppData)
	if state == nil {
		return sqliteCantOpen
	}
	if flags&sqliteOpenMainDB == 0 {
		// Journals, WAL files, temp files, and shared-memory regions are
		// all rejected with a failure code: only the main database file
		// may ever be opened against this VFS.
		return sqliteCantOpen
	}

	var f = (*fileHandle)(unsafe.Pointer(pFile))
	f.pMethods = uintptr(unsafe.Pointer(sharedIOMethods))
	f.token = v.pAppData

	if pOutFlags != 0 {
		writeInt32(pOutFlags, flags)
	}
	return sqliteOK
}

func goXDelete(pVfs, zName uintptr, syncDir int32) int32 {
	// Never actually invoked in practice, since the database is opened
	// immutable and no journal is ever created; no-op success.
	return sqliteOK
}

func goXAccess(pVfs, zName uintptr, flags int32, pResOut uintptr) int32 {
	// Every auxiliary file "does not exist", so the engine never attempts
	// to open a journal.
	writeInt32(pResOut, 0)
	return sqliteOK
}

func goXFullPathname(pVfs, zName uintptr, nOut int32, zOut uintptr) int32 {
	var name = goString(zName)
	var b = append([]byte(name), 0)
	if int32(len(b)) > nOut {
		return sqliteCantOpen
	}
	var dst = unsafe.Slice((*byte)(unsafe.Pointer(zOut)), len(b))
	copy(dst, b)
	return sqliteOK
}

func goXCurrentTime(pVfs, pTime uintptr) int32 {
	// Julian day number, the same conversion libsqlite3's own
	// unixCurrentTime uses.
	var julian = float64(time.Now().UnixNano())/86400e9 + 2440587.5
	writeFloat64(pTime, julian)
	return sqliteOK
}

// --- File-level (I/O method) callbacks ---

func goXClose(pFile uintptr) int32 {
	return sqliteOK
}

func goXRead(pFile, pOut uintptr, iAmt int32, iOfst int64) int32 {
	var f = (*fileHandle)(unsafe.Pointer(pFile))
	var state = lookupSession(f.token)
	if state == nil {
		return sqliteIOErr
	}

	var size = state.source.Size()
	var available = size - iOfst
	if available < 0 {
		available = 0
	}
	var toFetch = int64(iAmt)
	if toFetch > available {
		toFetch = available
	}

	var out = unsafe.Slice((*byte)(unsafe.Pointer(pOut)), iAmt)

	if toFetch > 0 {
		var data, err = state.source.ReadRange(iOfst, int(toFetch))
		if err != nil {
			return sqliteIOErr
		}
		copy(out, data)
	}
	if toFetch < int64(iAmt) {
		for i := toFetch; i < int64(iAmt); i++ {
			out[i] = 0
		}
		return sqliteIOErrShortRead
	}
	return sqliteOK
}

func goXFileSize(pFile, pSize uintptr) int32 {
	var f = (*fileHandle)(unsafe.Pointer(pFile))
	var state = lookupSession(f.token)
	if state == nil {
		return sqliteIOErr
	}
	writeInt64(pSize, state.source.Size())
	return sqliteOK
}

func goXLock(pFile uintptr, eLock int32) int32 {
	return sqliteOK
}

func goXUnlock(pFile uintptr, eLock int32) int32 {
	return sqliteOK
}

func goXCheckReservedLock(pFile, pResOut uintptr) int32 {
	writeInt32(pResOut, 0)
	return sqliteOK
}

func goXFileControl(pFile uintptr, op int32, pArg uintptr) int32 {
	return sqliteNotFound
}

func goXSectorSize(pFile uintptr) int32 {
	return defaultSectorSize
}

func goXDeviceCharacteristics(pFile uintptr) int32 {
	return sqliteIOCapImmutable
}

// --- raw memory helpers ---

func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var n int
	for *(*byte)(unsafe.Pointer(ptr + uintptr(n))) != 0 {
		n++
	}
	var b = unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n)
	return string(b)
}

func writeInt32(ptr uintptr, v int32) {
	*(*int32)(unsafe.Pointer(ptr)) = v
}

func writeInt64(ptr uintptr, v int64) {
	*(*int64)(unsafe.Pointer(ptr)) = v
}

func writeFloat64(ptr uintptr, v float64) {
	*(*float64)(unsafe.Pointer(ptr)) = v
}
