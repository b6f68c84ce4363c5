package s3sqlite_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3sqlite "github.com/michalc/sqlite-s3-query"
)

const seedTwoRows = `
CREATE TABLE t (a INTEGER, b TEXT);
INSERT INTO t (a, b) VALUES (1, 'x'), (2, 'y');
`

func collect(t *testing.T, stream *s3sqlite.ResultStream) ([]string, [][]s3sqlite.Value) {
	t.Helper()
	var columns = stream.Columns()
	var rows [][]s3sqlite.Value
	for stream.Next() {
		rows = append(rows, stream.Row())
	}
	require.NoError(t, stream.Err())
	return columns, rows
}

// S1: unconditional query over two rows.
func TestQuery_S1_SelectAll(t *testing.T) {
	var bucket = newFakeVersionedBucket(buildFixtureDB(t, seedTwoRows))
	var session = openFixtureSession(t, bucket)

	var stream, err = session.Query("SELECT a, b FROM t ORDER BY a")
	require.NoError(t, err)
	defer stream.Close()

	var columns, rows = collect(t, stream)
	assert.Equal(t, []string{"a", "b"}, columns)
	require.Len(t, rows, 2)
	assert.Equal(t, []s3sqlite.Value{int64(1), "x"}, rows[0])
	assert.Equal(t, []s3sqlite.Value{int64(2), "y"}, rows[1])
}

// S2: positional parameter binding.
func TestQuery_S2_PositionalParam(t *testing.T) {
	var bucket = newFakeVersionedBucket(buildFixtureDB(t, seedTwoRows))
	var session = openFixtureSession(t, bucket)

	var stream, err = session.Query("SELECT b FROM t WHERE a = ?", int64(2))
	require.NoError(t, err)
	defer stream.Close()

	var columns, rows = collect(t, stream)
	assert.Equal(t, []string{"b"}, columns)
	assert.Equal(t, [][]s3sqlite.Value{{"y"}}, rows)
}

// S3: named parameter binding. Parity with positional binding (invariant
// 5) is checked in TestInvariant_NamedParameterParity.
func TestQuery_S3_NamedParam(t *testing.T) {
	var bucket = newFakeVersionedBucket(buildFixtureDB(t, seedTwoRows))
	var session = openFixtureSession(t, bucket)

	var stream, err = session.QueryNamed("SELECT b FROM t WHERE a = :k", []s3sqlite.NamedParam{
		{Name: ":k", Value: int64(1)},
	})
	require.NoError(t, err)
	defer stream.Close()

	var columns, rows = collect(t, stream)
	assert.Equal(t, []string{"b"}, columns)
	assert.Equal(t, [][]s3sqlite.Value{{"x"}}, rows)
}

// invariant 5, checked directly: positional and named binding of
// equivalent values yield identical result sets.
func TestInvariant_NamedParameterParity(t *testing.T) {
	var bucket = newFakeVersionedBucket(buildFixtureDB(t, seedTwoRows))
	var session = openFixtureSession(t, bucket)

	var positional, posErr = session.Query("SELECT b FROM t WHERE a = ?", int64(2))
	require.NoError(t, posErr)
	var _, posRows = collect(t, positional)
	positional.Close()

	var named, namedErr = session.QueryNamed("SELECT b FROM t WHERE a = :k", []s3sqlite.NamedParam{{Name: ":k", Value: int64(2)}})
	require.NoError(t, namedErr)
	var _, namedRows = collect(t, named)
	named.Close()

	assert.Equal(t, posRows, namedRows)
}

// S4 / invariant 1: version pinning survives concurrent object replacement.
func TestInvariant_VersionPinning(t *testing.T) {
	var bucket = newFakeVersionedBucket(buildFixtureDB(t, seedTwoRows))
	var session = openFixtureSession(t, bucket)

	var first, err1 = session.Query("SELECT a, b FROM t ORDER BY a")
	require.NoError(t, err1)
	var _, firstRows = collect(t, first)
	first.Close()

	bucket.rotate(buildFixtureDB(t, `
CREATE TABLE t (a INTEGER, b TEXT);
INSERT INTO t (a, b) VALUES (3, 'z');
`))

	var second, err2 = session.Query("SELECT a, b FROM t ORDER BY a")
	require.NoError(t, err2)
	var _, secondRows = collect(t, second)
	second.Close()

	assert.Equal(t, firstRows, secondRows)
}

// S5: multi-statement script, one ResultStream per statement in order.
func TestQueryScript_S5_MultiStatement(t *testing.T) {
	var bucket = newFakeVersionedBucket(buildFixtureDB(t, seedTwoRows))
	var session = openFixtureSession(t, bucket)

	var script, err = session.QueryScript("SELECT 1; SELECT 2;")
	require.NoError(t, err)
	defer script.Close()

	var stream1, ok1, err1 = script.Next()
	require.NoError(t, err1)
	require.True(t, ok1)
	var cols1, rows1 = collect(t, stream1)
	assert.Equal(t, []string{"1"}, cols1)
	assert.Equal(t, [][]s3sqlite.Value{{int64(1)}}, rows1)

	var stream2, ok2, err2 = script.Next()
	require.NoError(t, err2)
	require.True(t, ok2)
	var cols2, rows2 = collect(t, stream2)
	assert.Equal(t, []string{"2"}, cols2)
	assert.Equal(t, [][]s3sqlite.Value{{int64(2)}}, rows2)

	var _, ok3, err3 = script.Next()
	require.NoError(t, err3)
	assert.False(t, ok3)
}

// S6 / invariant 3: unversioned bucket rejection before any query runs.
func TestOpen_S6_UnversionedBucketFails(t *testing.T) {
	var bucket = newFakeVersionedBucket(buildFixtureDB(t, seedTwoRows))
	bucket.unversioned = true

	var server = httptest.NewServer(bucket)
	defer server.Close()

	var session, err = s3sqlite.Open("http://"+server.Listener.Addr().String()+"/fixture.sqlite", s3sqlite.Options{
		Credentials: fixedCredentials,
	})
	require.Error(t, err)
	assert.Nil(t, session)

	var versioningErr *s3sqlite.ErrVersioningNotEnabled
	assert.ErrorAs(t, err, &versioningErr)
}

// a stream abandoned mid-iteration, with its statement never explicitly
// finalized, must not make the owning session's Close fail or hang:
// Close defensively finalizes it before closing the database.
func TestSession_Close_FinalizesAbandonedStatement(t *testing.T) {
	var bucket = newFakeVersionedBucket(buildFixtureDB(t, seedTwoRows))
	var session = openFixtureSession(t, bucket)

	var stream, err = session.Query("SELECT a, b FROM t ORDER BY a")
	require.NoError(t, err)
	require.True(t, stream.Next())
	// stream is deliberately never closed here.

	require.NoError(t, session.Close())
}

// invariant 7: reading rows after the stream closes fails with
// *ErrContextClosed.
func TestInvariant_ScopeSafety(t *testing.T) {
	var bucket = newFakeVersionedBucket(buildFixtureDB(t, seedTwoRows))
	var session = openFixtureSession(t, bucket)

	var stream, err = session.Query("SELECT a, b FROM t ORDER BY a")
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	assert.False(t, stream.Next())
	var closedErr *s3sqlite.ErrContextClosed
	assert.ErrorAs(t, stream.Err(), &closedErr)
}
