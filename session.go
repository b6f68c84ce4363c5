// Package s3sqlite provides read-only query access to a SQLite database
// held as an immutable, versioned object in an S3-compatible object
// store, without downloading it in full. Session pins one object version
// for its whole lifetime, so every query it runs behaves like a
// REPEATABLE READ transaction even if the object is overwritten
// concurrently by other writers.
package s3sqlite

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/michalc/sqlite-s3-query/credentials"
	"github.com/michalc/sqlite-s3-query/internal/async"
	"github.com/michalc/sqlite-s3-query/s3object"
	"github.com/michalc/sqlite-s3-query/sqlitevfs"
	"github.com/michalc/sqlite-s3-query/sqlitevfs/sqlitelib"
)

const sqliteOK = 0

// Options configures Open. Every field is optional; the zero value of
// each falls back to environment-variable credentials, a plain
// net/http-backed client, and the first libsqlite3 found on the
// platform's shared library path.
type Options struct {
	Credentials CredentialsProvider
	HTTPClient  HTTPClientProvider
	Library     LibraryLoader
}

// Session owns one open, version-pinned connection: the libsqlite3
// handle, its registered VFS, and the HTTP client.
// A Session must not be used from more than one goroutine at a time,
// except for Interrupt, which is explicitly safe to call concurrently
// with an in-flight query.
type Session struct {
	mu sync.Mutex

	lib  *sqlitelib.Library
	capi *capi

	// client is always owned by the Session: Open always invokes the
	// HTTPClientProvider to construct a fresh instance, even when the
	// provider itself is one of the built-in defaults or a caller-supplied
	// constructor, so Close always closes it.
	client s3object.HTTPClient

	binding s3object.Binding
	reg     *sqlitevfs.Registration

	db uintptr

	// openStmts tracks every Statement prepared and not yet finalized, in
	// open order, so Close can defensively finalize whatever the caller
	// abandoned: sqlite3_close refuses to free a connection (returning
	// SQLITE_BUSY) while any of its statements remain unfinalized.
	openStmts []*Statement

	interrupted async.Promise
	closed      bool
}

type rangePageSource struct {
	reader s3object.RangeReader
	size   int64
}

func (p rangePageSource) ReadRange(offset int64, length int) ([]byte, error) {
	return p.reader.ReadRange(offset, length)
}

func (p rangePageSource) Size() int64 { return p.size }

// Open resolves url to an immutable object version, registers a
// dedicated VFS over it, and opens a read-only libsqlite3 handle against
// it. The returned Session must be closed to release the VFS
// registration, the libsqlite3 handle, and the HTTP client.
func Open(url string, opts Options) (*Session, error) {
	if opts.Credentials == nil {
		opts.Credentials = credentials.Env
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = defaultHTTPClientProvider()
	}
	if opts.Library == nil {
		opts.Library = defaultLibraryLoader()
	}

	var lib, libErr = opts.Library()
	if libErr != nil {
		return nil, errors.WithMessage(libErr, "loading libsqlite3")
	}

	var s = &Session{
		lib:         lib,
		capi:        bindCAPI(lib),
		interrupted: async.New(),
	}

	var client, clientErr = opts.HTTPClient()
	if clientErr != nil {
		lib.Close()
		return nil, errors.WithMessage(clientErr, "building HTTP client")
	}
	s.client = client

	var binding, bindErr = s3object.Resolve(client, opts.Credentials, url)
	if bindErr != nil {
		s.closeClient()
		lib.Close()
		return nil, bindErr
	}
	s.binding = binding

	var source = rangePageSource{
		reader: s3object.RangeReader{Client: client, Credentials: opts.Credentials, Binding: binding},
		size:   binding.Length,
	}

	var reg, regErr = sqlitevfs.Register(lib, source)
	if regErr != nil {
		s.closeClient()
		lib.Close()
		return nil, errors.WithMessage(regErr, "registering VFS")
	}
	s.reg = reg

	var dbHandle uintptr
	var uri = "file:" + binding.Path + "?immutable=1&vfs=" + reg.Name
	var flags = int32(sqlitevfs.OpenReadOnly | sqlitevfs.OpenURI | sqlitevfs.OpenNoMutex)
	var rc = s.capi.openV2(uri, uintptr(unsafe.Pointer(&dbHandle)), flags, reg.Name)
	if rc != sqliteOK {
		var msg = s.capi.errMessage(dbHandle)
		s.capi.closeFn(dbHandle)
		reg.Unregister()
		s.closeClient()
		lib.Close()
		return nil, &ErrSQLite{Op: "sqlite3_open_v2", Code: rc, Message: msg}
	}
	s.db = dbHandle

	return s, nil
}

// Interrupt asks libsqlite3 to abort whatever statement is currently
// stepping on this Session, per spec's open question about cancellation
// of long-running queries. It is the one Session method safe to call
// from a goroutine other than the one driving the query: sqlite3_interrupt
// is documented as safe to call from another thread. Calling it a second
// time is a no-op.
func (s *Session) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == 0 || s.interrupted.IsResolved() {
		return
	}
	s.capi.interrupt(s.db)
	s.interrupted.Resolve()
}

// Close finalizes any statements the caller failed to finalize itself,
// closes the database, unregisters the VFS, and releases the HTTP client
// and libsqlite3 handle — all in LIFO order relative to Open, regardless
// of which step of Open failed, per spec's "all resources are released in
// LIFO order regardless of failure path."
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error

	// Finalize whatever statements the caller failed to finalize itself,
	// most-recently-opened first, before sqlite3_close: otherwise it
	// returns SQLITE_BUSY and the connection is never freed.
	for i := len(s.openStmts) - 1; i >= 0; i-- {
		var st = s.openStmts[i]
		if st.closed || st.stmt == 0 {
			continue
		}
		st.closed = true
		if rc := s.capi.finalize(st.stmt); rc != sqliteOK && firstErr == nil {
			firstErr = &ErrSQLite{Op: "sqlite3_finalize", Code: rc, Message: s.capi.errMessage(s.db)}
		}
		st.stmt = 0
	}
	s.openStmts = nil

	if s.db != 0 {
		if rc := s.capi.closeFn(s.db); rc != sqliteOK && firstErr == nil {
			firstErr = &ErrSQLite{Op: "sqlite3_close", Code: rc, Message: s.capi.errMessage(s.db)}
		}
		s.db = 0
	}
	if s.reg != nil {
		if err := s.reg.Unregister(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.reg = nil
	}
	if err := s.closeClient(); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.lib != nil {
		if err := s.lib.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.lib = nil
	}
	return firstErr
}

func (s *Session) closeClient() error {
	if s.client == nil {
		return nil
	}
	var err = s.client.Close()
	s.client = nil
	return err
}
