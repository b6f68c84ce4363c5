package s3object_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michalc/sqlite-s3-query/httpclient"
	"github.com/michalc/sqlite-s3-query/s3object"
	"github.com/michalc/sqlite-s3-query/sigv4"
)

func fixedCreds(_ time.Time) (s3object.Credentials, error) {
	return s3object.Credentials{
		Region: "us-east-1",
		Credentials: sigv4.Credentials{
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY",
		},
	}, nil
}

func TestResolve_VersionedBucket(t *testing.T) {
	var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		require.NotEmpty(t, r.Header.Get("Authorization"))
		w.Header().Set("x-amz-version-id", "v1")
		w.Header().Set("Content-Length", "2048")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var client = httpclient.New()
	defer client.Close()

	var binding, err = s3object.Resolve(client, fixedCreds, server.URL+"/data.sqlite")
	require.NoError(t, err)
	assert.Equal(t, "v1", binding.VersionID)
	assert.Equal(t, int64(2048), binding.Length)
	assert.Equal(t, "/data.sqlite", binding.Path)
}

func TestResolve_UnversionedBucketFails(t *testing.T) {
	var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "2048")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var client = httpclient.New()
	defer client.Close()

	var _, err = s3object.Resolve(client, fixedCreds, server.URL+"/data.sqlite")
	require.Error(t, err)
	var versioningErr *s3object.ErrVersioningNotEnabled
	assert.ErrorAs(t, err, &versioningErr)
}

func TestResolve_NullVersionIDFails(t *testing.T) {
	var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-amz-version-id", "null")
		w.Header().Set("Content-Length", "2048")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var client = httpclient.New()
	defer client.Close()

	var _, err = s3object.Resolve(client, fixedCreds, server.URL+"/data.sqlite")
	require.Error(t, err)
	var versioningErr *s3object.ErrVersioningNotEnabled
	assert.ErrorAs(t, err, &versioningErr)
}

func TestResolve_TransportFailureFails(t *testing.T) {
	var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	var addr = server.Listener.Addr().String()
	server.Close() // nothing listens at addr anymore; Do must fail to connect

	var client = httpclient.New()
	defer client.Close()

	var _, err = s3object.Resolve(client, fixedCreds, "http://"+addr+"/data.sqlite")
	require.Error(t, err)
	var transportErr *s3object.ErrTransport
	assert.ErrorAs(t, err, &transportErr)
}

func TestResolve_NonOKStatusFails(t *testing.T) {
	var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	var client = httpclient.New()
	defer client.Close()

	var _, err = s3object.Resolve(client, fixedCreds, server.URL+"/data.sqlite")
	require.Error(t, err)
	var statusErr *s3object.ErrHTTPStatus
	assert.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}
