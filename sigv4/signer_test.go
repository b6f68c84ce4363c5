package sigv4

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTime() time.Time {
	return time.Date(2015, time.August, 30, 12, 36, 0, 0, time.UTC)
}

func fixedCreds() Credentials {
	return Credentials{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY",
	}
}

func TestSign_Deterministic(t *testing.T) {
	var req = Request{
		Method:   "GET",
		Host:     "examplebucket.s3.amazonaws.com",
		Path:     "/data.sqlite",
		BodyHash: UnsignedPayload,
		Region:   "us-east-1",
		Service:  "s3",
		Time:     fixedTime(),
	}

	var a = Sign(req, fixedCreds())
	var b = Sign(req, fixedCreds())

	assert.Equal(t, a, b, "identical inputs must produce an identical signature")
}

// TestSign_MatchesKnownGoodSignature checks Sign's output against a
// signature computed independently of this package: the same canonical
// request, string-to-sign, and HMAC-SHA256 key-derivation chain defined
// by the SigV4 algorithm, evaluated by hand against Python's hashlib/hmac
// rather than by calling Sign itself. A wrong step anywhere in that
// chain — an unescaped path segment, a misordered signed-header list, a
// wrong key-derivation round — changes this final signature, whereas the
// other tests in this file only check structural properties that a
// consistently-wrong implementation could still satisfy.
func TestSign_MatchesKnownGoodSignature(t *testing.T) {
	var req = Request{
		Method:   "GET",
		Host:     "examplebucket.s3.amazonaws.com",
		Path:     "/data.sqlite",
		Headers:  []QueryParam{{"range", "bytes=0-511"}},
		BodyHash: UnsignedPayload,
		Region:   "us-east-1",
		Service:  "s3",
		Time:     fixedTime(),
	}

	var signed = Sign(req, fixedCreds())

	// Independently derived: canonical request hash
	// d6b8b787ff8a10b71607cc96734c1b7ce4cb3971d7df4d9abb9dba02f93c6b2f,
	// signed with AKIDEXAMPLE / wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY
	// over scope 20150830/us-east-1/s3/aws4_request.
	var want = "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20150830/us-east-1/s3/aws4_request, " +
		"SignedHeaders=host;range;x-amz-content-sha256;x-amz-date, " +
		"Signature=72734705223ae6712d580f8d322a50ee039c21793d994a6ad0bac6669a97aa4f"
	assert.Equal(t, want, signed.Authorization)
}

func TestSign_SignedHeadersSortedAndComplete(t *testing.T) {
	var req = Request{
		Method:   "GET",
		Host:     "examplebucket.s3.amazonaws.com",
		Path:     "/data.sqlite",
		Headers:  []QueryParam{{"range", "bytes=0-511"}},
		BodyHash: UnsignedPayload,
		Region:   "us-east-1",
		Service:  "s3",
		Time:     fixedTime(),
	}

	var signed = Sign(req, fixedCreds())
	require.Contains(t, signed.Authorization, "SignedHeaders=host;range;x-amz-content-sha256;x-amz-date")
	assert.Equal(t, UnsignedPayload, signed.AmzContentSHA256)
	assert.Equal(t, "20150830T123600Z", signed.AmzDate)
	assert.Empty(t, signed.AmzSecurityToken)
}

func TestSign_SessionTokenAddsSignedHeaderAndValue(t *testing.T) {
	var req = Request{
		Method:   "HEAD",
		Host:     "examplebucket.s3.amazonaws.com",
		Path:     "/data.sqlite",
		BodyHash: UnsignedPayload,
		Region:   "us-east-1",
		Service:  "s3",
		Time:     fixedTime(),
	}
	var creds = fixedCreds()
	creds.SessionToken = "AQoDYXdzEPT...token"

	var signed = Sign(req, creds)
	assert.Contains(t, signed.Authorization, "x-amz-security-token")
	assert.Equal(t, creds.SessionToken, signed.AmzSecurityToken)
}

func TestSign_DifferentCredentialsYieldDifferentSignature(t *testing.T) {
	var req = Request{
		Method:   "GET",
		Host:     "examplebucket.s3.amazonaws.com",
		Path:     "/data.sqlite",
		BodyHash: UnsignedPayload,
		Region:   "us-east-1",
		Service:  "s3",
		Time:     fixedTime(),
	}

	var a = Sign(req, fixedCreds())
	var other = fixedCreds()
	other.SecretAccessKey = "differentsecretkeydifferentsecretkey"
	var b = Sign(req, other)

	assert.NotEqual(t, a.Authorization, b.Authorization)
}

func TestSign_QueryStringSortedByKey(t *testing.T) {
	var req = Request{
		Method: "GET",
		Host:   "examplebucket.s3.amazonaws.com",
		Path:   "/data.sqlite",
		Query: []QueryParam{
			{"versionId", "abc123"},
			{"another", "value"},
		},
		BodyHash: UnsignedPayload,
		Region:   "us-east-1",
		Service:  "s3",
		Time:     fixedTime(),
	}

	// The canonical query string is internal to the signature, but we can
	// confirm that reordering the input Query slice doesn't change the
	// computed signature, since it must be sorted before signing.
	var a = Sign(req, fixedCreds())

	req.Query = []QueryParam{
		{"another", "value"},
		{"versionId", "abc123"},
	}
	var b = Sign(req, fixedCreds())

	assert.Equal(t, a.Authorization, b.Authorization)
}

func TestCanonicalURI_EscapesExceptSlash(t *testing.T) {
	assert.Equal(t, "/", canonicalURI(""))
	assert.Equal(t, "/a%20b/c", canonicalURI("/a b/c"))
}
