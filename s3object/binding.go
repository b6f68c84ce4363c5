package s3object

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/michalc/sqlite-s3-query/sigv4"
)

// Binding is the immutable, version-pinned resolution of an object URL:
// everything a session needs to address the same bytes for its lifetime.
// Once constructed, a Binding's VersionID is never renegotiated.
type Binding struct {
	Scheme string
	Host   string
	Path   string
	Region string
	// Service is always "s3"; retained as a field (rather than a bare
	// constant) so Sign's canonical request is built uniformly with the
	// Range Reader's later requests.
	Service   string
	VersionID string
	Length    int64
}

// Resolve issues a signed HEAD against rawURL and returns the immutable
// Binding for the session, or an error. It requires an x-amz-version-id in
// the response; a bucket without versioning enabled fails with
// *ErrVersioningNotEnabled before any query can run.
func Resolve(client HTTPClient, creds CredentialsProvider, rawURL string) (Binding, error) {
	var scheme, host, path, urlRegion, err = resolveURL(rawURL)
	if err != nil {
		return Binding{}, err
	}

	var now = time.Now()
	var resolved, credErr = creds(now)
	if credErr != nil {
		return Binding{}, fmt.Errorf("resolving credentials: %w", credErr)
	}
	var region = urlRegion
	if region == "" {
		region = resolved.Region
	}

	var signed = sigv4.Sign(sigv4.Request{
		Method:   "HEAD",
		Host:     host,
		Path:     path,
		BodyHash: sigv4.UnsignedPayload,
		Region:   region,
		Service:  "s3",
		Time:     now,
	}, resolved.Credentials)

	var headers = http.Header{}
	headers.Set("x-amz-content-sha256", signed.AmzContentSHA256)
	headers.Set("x-amz-date", signed.AmzDate)
	headers.Set("Authorization", signed.Authorization)
	if signed.AmzSecurityToken != "" {
		headers.Set("x-amz-security-token", signed.AmzSecurityToken)
	}

	var requestURL = scheme + "://" + host + path
	var resp, reqErr = client.Do("HEAD", requestURL, headers)
	if reqErr != nil {
		return Binding{}, &ErrTransport{Method: "HEAD", URL: requestURL, Err: reqErr}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Binding{}, &ErrHTTPStatus{Method: "HEAD", URL: requestURL, StatusCode: resp.StatusCode}
	}

	var versionID = resp.Header.Get("x-amz-version-id")
	if versionID == "" || versionID == "null" {
		return Binding{}, &ErrVersioningNotEnabled{URL: requestURL}
	}

	var length, lengthErr = strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if lengthErr != nil {
		return Binding{}, fmt.Errorf("parsing Content-Length: %w", lengthErr)
	}

	return Binding{
		Scheme:    scheme,
		Host:      host,
		Path:      path,
		Region:    region,
		Service:   "s3",
		VersionID: versionID,
		Length:    length,
	}, nil
}
