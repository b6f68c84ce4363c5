// Package buildinfo carries version metadata stamped in at link time via
// -ldflags, so the CLI can report what it's running without a separate
// version file to keep in sync.
package buildinfo

// Version and BuildDate are overridden at link time, e.g.:
//
//	go build -ldflags "-X github.com/michalc/sqlite-s3-query/internal/buildinfo.Version=$(git describe)"
var (
	Version   = "development"
	BuildDate = "unknown"
)
