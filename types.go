package s3sqlite

import (
	"github.com/michalc/sqlite-s3-query/httpclient"
	"github.com/michalc/sqlite-s3-query/s3object"
	"github.com/michalc/sqlite-s3-query/sqlitevfs/sqlitelib"
)

// Credentials pairs a signing region with the access key material used to
// sign every request. Never cached by the core: resolved fresh for each
// signing operation via CredentialsProvider.
type Credentials = s3object.Credentials

// CredentialsProvider resolves Credentials at the given instant. Invoked
// once per signed request (every HEAD and every range GET), never once
// per session, so callers may rotate keys without reopening.
type CredentialsProvider = s3object.CredentialsProvider

// HTTPClient is the blocking request boundary a provider must satisfy.
type HTTPClient = s3object.HTTPClient

// HTTPClientProvider builds the blocking HTTP client a session uses for
// every HEAD and range GET it issues. Open calls this exactly once and
// closes the returned client on session Close, regardless of whether the
// provider is one of the built-in defaults or caller-supplied.
type HTTPClientProvider func() (HTTPClient, error)

// LibraryLoader resolves and loads a libsqlite3 shared library, returning
// its opened handle and bound symbols: a loader callback returning a
// library handle, and the symbol lookups derived from it.
type LibraryLoader func() (*sqlitelib.Library, error)

// Value is a parameter or column value coerced to one of SQLite's storage
// classes: int64, float64, []byte (BLOB), string (TEXT), or nil (NULL).
type Value any

// NamedParam is one (":name", value) pair for named parameter binding.
// The name is looked up via sqlite3_bind_parameter_index; an unmatched
// name fails the query with *ErrUnknownNamedParam.
type NamedParam struct {
	Name  string
	Value Value
}

func defaultHTTPClientProvider() HTTPClientProvider {
	return func() (HTTPClient, error) {
		return httpclient.New(), nil
	}
}

func defaultLibraryLoader() LibraryLoader {
	return func() (*sqlitelib.Library, error) {
		return sqlitelib.Load("")
	}
}
