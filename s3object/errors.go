package s3object

import "fmt"

// ErrVersioningNotEnabled is returned when a HEAD against the object
// succeeds but the response carries no usable x-amz-version-id. Fatal to
// session open: an unversioned bucket can never give a safe, pinned read.
type ErrVersioningNotEnabled struct {
	URL string
}

func (e *ErrVersioningNotEnabled) Error() string {
	return fmt.Sprintf("bucket for %q does not have versioning enabled", e.URL)
}

// ErrTransport wraps a failure to even complete a HEAD or GET — a dialing,
// TLS, or connection-reset error from the underlying HTTPClient, as
// opposed to a response that came back with an unexpected status or
// body. Distinguishable via errors.As so callers can tell a network
// failure apart from a rejected request.
type ErrTransport struct {
	Method string
	URL    string
	Err    error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Err)
}

func (e *ErrTransport) Unwrap() error {
	return e.Err
}

// ErrHTTPStatus is returned for any non-2xx response from a HEAD or GET,
// and for a 200 response to a range GET (which must fail rather than risk
// silently serving the wrong bytes).
type ErrHTTPStatus struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *ErrHTTPStatus) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// ErrShortBody is returned when a range GET's response body is shorter or
// longer than the requested range.
type ErrShortBody struct {
	Requested int
	Got       int
}

func (e *ErrShortBody) Error() string {
	return fmt.Sprintf("range response carried %d bytes, requested %d", e.Got, e.Requested)
}
