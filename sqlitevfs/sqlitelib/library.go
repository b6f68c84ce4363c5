// Package sqlitelib resolves a libsqlite3 shared library at runtime and
// binds the handful of C symbols the session controller and VFS adapter
// need, without requiring the caller to cgo-link libsqlite3 at compile
// time: a platform-specific search for a shared library name, then a
// symbol lookup against whatever handle that search resolves, done
// through github.com/ebitengine/purego's Dlopen/Dlsym/NewCallback trio
// so no cgo compilation step is required.
package sqlitelib

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// candidatePaths lists the shared library names tried, in order, by the
// default Loader on each platform, without requiring a C compiler to
// discover it.
func candidatePaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"libsqlite3.dylib", "/usr/lib/libsqlite3.dylib"}
	case "windows":
		return []string{"sqlite3.dll", "winsqlite3.dll"}
	default:
		return []string{"libsqlite3.so.0", "libsqlite3.so"}
	}
}

// Library is an opened libsqlite3 handle together with every symbol the
// core requires, already resolved to callable addresses.
type Library struct {
	handle uintptr

	Sqlite3Initialize          uintptr
	Sqlite3OpenV2              uintptr
	Sqlite3Close               uintptr
	Sqlite3PrepareV3           uintptr
	Sqlite3Step                uintptr
	Sqlite3ColumnCount         uintptr
	Sqlite3ColumnName          uintptr
	Sqlite3ColumnType          uintptr
	Sqlite3ColumnInt64         uintptr
	Sqlite3ColumnDouble        uintptr
	Sqlite3ColumnBlob          uintptr
	Sqlite3ColumnText          uintptr
	Sqlite3ColumnBytes         uintptr
	Sqlite3BindText            uintptr
	Sqlite3BindBlob            uintptr
	Sqlite3BindInt64           uintptr
	Sqlite3BindDouble          uintptr
	Sqlite3BindNull            uintptr
	Sqlite3BindParameterIndex  uintptr
	Sqlite3Finalize            uintptr
	Sqlite3VfsRegister   uintptr
	Sqlite3VfsUnregister uintptr
	Sqlite3Errmsg        uintptr
	Sqlite3Errstr        uintptr
	Sqlite3Interrupt     uintptr
}

// Load opens the shared library at path (or, if empty, the first of
// candidatePaths() that resolves) and binds every required symbol.
func Load(path string) (*Library, error) {
	var paths = candidatePaths()
	if path != "" {
		paths = []string{path}
	}

	var handle uintptr
	var lastErr error
	for _, p := range paths {
		var h, err = purego.Dlopen(p, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			handle = h
			lastErr = nil
			break
		}
		lastErr = err
	}
	if handle == 0 {
		return nil, fmt.Errorf("loading libsqlite3 (tried %v): %w", paths, lastErr)
	}

	var lib = &Library{handle: handle}
	var bind = func(name string, dest *uintptr) error {
		var sym, err = purego.Dlsym(handle, name)
		if err != nil {
			return errors.WithMessagef(err, "resolving required symbol %s", name)
		}
		*dest = sym
		return nil
	}

	for _, entry := range []struct {
		name string
		dest *uintptr
	}{
		{"sqlite3_initialize", &lib.Sqlite3Initialize},
		{"sqlite3_open_v2", &lib.Sqlite3OpenV2},
		{"sqlite3_close", &lib.Sqlite3Close},
		{"sqlite3_prepare_v3", &lib.Sqlite3PrepareV3},
		{"sqlite3_step", &lib.Sqlite3Step},
		{"sqlite3_column_count", &lib.Sqlite3ColumnCount},
		{"sqlite3_column_name", &lib.Sqlite3ColumnName},
		{"sqlite3_column_type", &lib.Sqlite3ColumnType},
		{"sqlite3_column_int64", &lib.Sqlite3ColumnInt64},
		{"sqlite3_column_double", &lib.Sqlite3ColumnDouble},
		{"sqlite3_column_blob", &lib.Sqlite3ColumnBlob},
		{"sqlite3_column_text", &lib.Sqlite3ColumnText},
		{"sqlite3_column_bytes", &lib.Sqlite3ColumnBytes},
		{"sqlite3_bind_text", &lib.Sqlite3BindText},
		{"sqlite3_bind_blob", &lib.Sqlite3BindBlob},
		{"sqlite3_bind_int64", &lib.Sqlite3BindInt64},
		{"sqlite3_bind_double", &lib.Sqlite3BindDouble},
		{"sqlite3_bind_null", &lib.Sqlite3BindNull},
		{"sqlite3_bind_parameter_index", &lib.Sqlite3BindParameterIndex},
		{"sqlite3_finalize", &lib.Sqlite3Finalize},
		{"sqlite3_vfs_register", &lib.Sqlite3VfsRegister},
		{"sqlite3_vfs_unregister", &lib.Sqlite3VfsUnregister},
		{"sqlite3_errmsg", &lib.Sqlite3Errmsg},
		{"sqlite3_errstr", &lib.Sqlite3Errstr},
		{"sqlite3_interrupt", &lib.Sqlite3Interrupt},
	} {
		if err := bind(entry.name, entry.dest); err != nil {
			return nil, err
		}
	}

	return lib, nil
}

// Close releases the library handle. libsqlite3 itself has no teardown
// routine that undoes sqlite3_initialize, so Close only affects the
// dynamic loader's reference count.
func (l *Library) Close() error {
	return purego.Dlclose(l.handle)
}
