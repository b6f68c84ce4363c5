package s3sqlite_test

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/michalc/sqlite-s3-query/sigv4"

	s3sqlite "github.com/michalc/sqlite-s3-query"
)

// buildFixtureDB creates a throwaway on-disk SQLite file via the real
// mattn/go-sqlite3 cgo driver (test-only; never part of the shipped
// binary), applies seedSQL to it, reads back its raw bytes, and deletes
// the temp file. The returned bytes are what a real GET would have
// served for an object holding exactly this database.
func buildFixtureDB(t *testing.T, seedSQL string) []byte {
	t.Helper()

	var f, err = os.CreateTemp(t.TempDir(), "fixture-*.sqlite")
	require.NoError(t, err)
	var path = f.Name()
	require.NoError(t, f.Close())

	var db, openErr = sql.Open("sqlite3", path)
	require.NoError(t, openErr)
	_, execErr := db.Exec(seedSQL)
	require.NoError(t, execErr)
	require.NoError(t, db.Close())

	var data, readErr = os.ReadFile(path)
	require.NoError(t, readErr)
	return data
}

// fakeVersionedBucket serves one object's bytes with a rotatable version
// id, mimicking a versioned S3 bucket's HEAD/GET behavior closely enough
// to exercise Object Binding and the Range Reader without a real store.
type fakeVersionedBucket struct {
	mu       sync.Mutex
	versions map[string][]byte
	current  string
	n        int

	unversioned bool
}

func newFakeVersionedBucket(initial []byte) *fakeVersionedBucket {
	var b = &fakeVersionedBucket{versions: map[string][]byte{}}
	b.rotate(initial)
	return b
}

func (b *fakeVersionedBucket) rotate(content []byte) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
	var v = fmt.Sprintf("v%d", b.n)
	b.versions[v] = content
	b.current = v
	return v
}

func (b *fakeVersionedBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	var unversioned = b.unversioned
	var requested = r.URL.Query().Get("versionId")
	if requested == "" {
		requested = b.current
	}
	var content, ok = b.versions[requested]
	b.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if r.Method == http.MethodHead {
		if !unversioned {
			w.Header().Set("x-amz-version-id", requested)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		w.WriteHeader(http.StatusOK)
		return
	}

	var rangeHeader = r.Header.Get("range")
	var start, end int
	if _, scanErr := fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end); scanErr != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if end >= len(content) {
		end = len(content) - 1
	}
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(content)))
	w.WriteHeader(http.StatusPartialContent)
	_, _ = w.Write(content[start : end+1])
}

func fixedCredentials(_ time.Time) (s3sqlite.Credentials, error) {
	return s3sqlite.Credentials{
		Region: "us-east-1",
		Credentials: sigv4.Credentials{
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY",
		},
	}, nil
}

func openFixtureSession(t *testing.T, bucket *fakeVersionedBucket) *s3sqlite.Session {
	t.Helper()
	var server = httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	var session, err = s3sqlite.Open("http://"+server.Listener.Addr().String()+"/fixture.sqlite", s3sqlite.Options{
		Credentials: fixedCredentials,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}
