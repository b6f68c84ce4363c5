package s3object

import (
	"io"
	"net/http"
	"time"

	"github.com/michalc/sqlite-s3-query/sigv4"
)

// Response is the shape a blocking HTTP client provider must return for
// every request issued by Binding resolution and the Range Reader.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// HTTPClient is the blocking request boundary external to this package:
// callers supply an implementation (or use httpclient.Default) and the
// core never constructs its own transport. This is intentionally smaller
// than net/http.RoundTripper so that non-net/http clients can satisfy it
// without an adapter.
type HTTPClient interface {
	Do(method, url string, headers http.Header) (*Response, error)
	Close() error
}

// Credentials pairs a signing region with the access key, secret key, and
// optional session token used to derive a SigV4 signing key.
type Credentials struct {
	Region string
	sigv4.Credentials
}

// CredentialsProvider resolves Credentials for the signing operation about
// to be performed at Now. It is invoked once per signed request — never
// cached by this package — so that callers may rotate credentials without
// reopening a session.
type CredentialsProvider func(now time.Time) (Credentials, error)
