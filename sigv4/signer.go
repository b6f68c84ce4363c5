// Package sigv4 implements AWS Signature Version 4 request signing for the
// single-chunk, unsigned-payload case used by S3 GET and HEAD requests. It
// has no dependency on net/http so it can be exercised directly against the
// algorithm defined by AWS without constructing real requests.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// UnsignedPayload is the literal body hash used for GET/HEAD requests whose
// body is always empty; S3 accepts this in place of a real payload hash.
const UnsignedPayload = "UNSIGNED-PAYLOAD"

const algorithm = "AWS4-HMAC-SHA256"

// Credentials are the access key, secret key, and optional session token
// used to derive a signing key. The core never caches these; they're
// re-resolved by the caller for every signed request so that credential
// rotation is observed mid-session.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string // empty when not using temporary credentials
}

// QueryParam is one key/value pair of a request's query string, given
// unencoded; Sign percent-encodes it during canonical query string
// assembly.
type QueryParam struct {
	Key   string
	Value string
}

// Request is the shape of a single GET or HEAD request to sign. Host and
// Path identify the resource; Query carries parameters such as a pinned
// versionId; Headers carries request-specific headers that must also be
// signed (for example Range). The host, x-amz-content-sha256, x-amz-date,
// and (when a session token is present) x-amz-security-token headers are
// added automatically and must not be supplied here.
type Request struct {
	Method  string
	Host    string
	Path    string
	Query   []QueryParam
	Headers []QueryParam
	// BodyHash is the hex-encoded SHA-256 of the request body, or
	// UnsignedPayload for the bodiless GET/HEAD requests this package signs.
	BodyHash string
	Region   string
	Service  string
	Time     time.Time
}

// Signed is the set of headers that must be attached to the outgoing
// request, including the computed Authorization header.
type Signed struct {
	Authorization     string
	AmzDate           string
	AmzContentSHA256  string
	AmzSecurityToken  string // empty when Credentials.SessionToken is empty
}

// Sign computes the SigV4 Authorization header and accompanying headers for
// req, signed with creds. Sign does not mutate or retain req or creds.
func Sign(req Request, creds Credentials) Signed {
	var amzDate = req.Time.UTC().Format("20060102T150405Z")
	var dateStamp = amzDate[:8]

	var headersToSign = make([]QueryParam, 0, len(req.Headers)+4)
	headersToSign = append(headersToSign, req.Headers...)
	headersToSign = append(headersToSign,
		QueryParam{"host", req.Host},
		QueryParam{"x-amz-content-sha256", req.BodyHash},
		QueryParam{"x-amz-date", amzDate},
	)
	if creds.SessionToken != "" {
		headersToSign = append(headersToSign, QueryParam{"x-amz-security-token", creds.SessionToken})
	}

	var canonicalHeaders, signedHeaders = canonicalizeHeaders(headersToSign)
	var canonicalRequest = strings.Join([]string{
		strings.ToUpper(req.Method),
		canonicalURI(req.Path),
		canonicalQueryString(req.Query),
		canonicalHeaders,
		signedHeaders,
		req.BodyHash,
	}, "\n")

	var credentialScope = fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, req.Region, req.Service)
	var stringToSign = strings.Join([]string{
		algorithm,
		amzDate,
		credentialScope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	var signingKey = deriveSigningKey(creds.SecretAccessKey, dateStamp, req.Region, req.Service)
	var signature = hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	var authorization = fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, creds.AccessKeyID, credentialScope, signedHeaders, signature,
	)

	return Signed{
		Authorization:    authorization,
		AmzDate:          amzDate,
		AmzContentSHA256: req.BodyHash,
		AmzSecurityToken: creds.SessionToken,
	}
}

func deriveSigningKey(secret, dateStamp, region, service string) []byte {
	var kDate = hmacSHA256([]byte("AWS4"+secret), dateStamp)
	var kRegion = hmacSHA256(kDate, region)
	var kService = hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}

func hmacSHA256(key []byte, msg string) []byte {
	var mac = hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}

func hexSHA256(b []byte) string {
	var sum = sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// canonicalURI percent-encodes path per RFC 3986, leaving '/' untouched, as
// required by the SigV4 canonical request format (section 2.2).
func canonicalURI(path string) string {
	if path == "" {
		return "/"
	}
	var segments = strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = rfc3986Escape(seg)
	}
	return strings.Join(segments, "/")
}

func canonicalQueryString(params []QueryParam) string {
	var encoded = make([]string, len(params))
	for i, p := range params {
		encoded[i] = rfc3986Escape(p.Key) + "=" + rfc3986Escape(p.Value)
	}
	sort.Strings(encoded)
	return strings.Join(encoded, "&")
}

// canonicalizeHeaders lowercases header names, trims and collapses internal
// whitespace in values, sorts by header name, and returns both the
// newline-joined canonical headers block (terminated by a trailing newline)
// and the semicolon-joined signed-header name list.
func canonicalizeHeaders(headers []QueryParam) (canonical, signedList string) {
	type pair struct{ name, value string }
	var pairs = make([]pair, len(headers))
	for i, h := range headers {
		pairs[i] = pair{strings.ToLower(h.Key), collapseWhitespace(strings.TrimSpace(h.Value))}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })

	var b strings.Builder
	var names = make([]string, len(pairs))
	for i, p := range pairs {
		b.WriteString(p.name)
		b.WriteByte(':')
		b.WriteString(p.value)
		b.WriteByte('\n')
		names[i] = p.name
	}
	return b.String(), strings.Join(names, ";")
}

func collapseWhitespace(s string) string {
	var fields = strings.Fields(s)
	return strings.Join(fields, " ")
}

// rfc3986Escape percent-encodes s the way AWS expects: url.QueryEscape,
// which leaves only letters, digits and '-', '_', '.', '~' unescaped, with
// a space written as "%20" instead of '+' (and any "%7E" turned back into
// '~').
func rfc3986Escape(s string) string {
	var escaped = url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	escaped = strings.ReplaceAll(escaped, "%7E", "~")
	return escaped
}
