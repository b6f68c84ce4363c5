// Package httpclient provides the default implementation of the core's
// blocking HTTP client provider boundary.
package httpclient

import (
	"net/http"

	"github.com/michalc/sqlite-s3-query/s3object"
)

// Default wraps net/http.Client with transparent gzip negotiation
// disabled. That's not an optimization here but a correctness
// requirement: a range GET's returned Content-Length must equal the
// requested range exactly, and client-side decompression would silently
// break that.
type Default struct {
	client *http.Client
}

// New returns a Default client. Callers needing custom timeouts, proxies,
// or TLS configuration should build their own http.Client and pass it to
// Wrap instead.
func New() *Default {
	return Wrap(&http.Client{
		Transport: &http.Transport{DisableCompression: true},
	})
}

// Wrap adapts an existing *http.Client to satisfy s3object.HTTPClient.
func Wrap(client *http.Client) *Default {
	return &Default{client: client}
}

func (d *Default) Do(method, url string, headers http.Header) (*s3object.Response, error) {
	var req, err = http.NewRequest(method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header = headers

	var resp *http.Response
	if resp, err = d.client.Do(req); err != nil {
		return nil, err
	}
	return &s3object.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// Close releases idle connections held by the underlying transport.
func (d *Default) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
