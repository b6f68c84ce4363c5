package s3object

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
)

// BindingConfig carries the query-parameter arguments of an "s3://" object
// URL, decoded by running the parsed query through a gorilla/schema
// Decoder into a struct. This lets a caller target S3-compatible stores
// (MinIO, Ceph RGW, ...) with the same URL shape used for AWS itself.
type BindingConfig struct {
	// Region overrides the region used for SigV4 signing. Optional for
	// "s3://" URLs: when empty, the global "bucket.s3.amazonaws.com" host is
	// used and the region comes from the credentials provider. Ignored for
	// "http(s)://" URLs, where the host is taken as given and region must
	// come from the credentials provider instead.
	Region string `schema:"region"`
	// Endpoint overrides the S3 service endpoint (host[:port]) used to
	// reach a non-AWS, S3-compatible store. When empty, the canonical AWS
	// virtual-hosted endpoint for the bucket and region is used.
	Endpoint string `schema:"endpoint"`
	// PathStyle selects "endpoint/bucket/key" addressing instead of the
	// default "bucket.endpoint/key" virtual-hosted addressing. It only
	// takes effect together with Endpoint; without one it is ignored. Path
	// style is required by most S3-compatible stores reached through an
	// Endpoint override.
	PathStyle bool `schema:"path-style"`
}

var schemaDecoder = func() *schema.Decoder {
	var d = schema.NewDecoder()
	d.IgnoreUnknownKeys(false)
	return d
}()

// resolveURL normalizes a caller-supplied object URL to the (scheme, host,
// path) triple that HEAD and GET requests are issued against, plus a region
// override when the URL carried one. "s3://bucket/key?region=..." URLs are
// rewritten to their AWS (or endpoint-overridden) HTTPS equivalent; for
// any other URL ("https://host/path", "http://host/path") the scheme, host
// and path are used as given, with no bucket/key decomposition, and its
// query string is dropped.
func resolveURL(raw string) (scheme, host, path, region string, err error) {
	var ep *url.URL
	if ep, err = url.Parse(raw); err != nil {
		return "", "", "", "", fmt.Errorf("parsing object URL: %w", err)
	}

	if ep.Scheme != "s3" {
		return ep.Scheme, ep.Host, ep.Path, "", nil
	}

	var cfg BindingConfig
	if q, qerr := url.ParseQuery(ep.RawQuery); qerr != nil {
		return "", "", "", "", fmt.Errorf("parsing s3:// URL query: %w", qerr)
	} else if err = schemaDecoder.Decode(&cfg, q); err != nil {
		return "", "", "", "", fmt.Errorf("parsing s3:// URL arguments: %w", err)
	}

	var bucket = ep.Host
	var key = strings.TrimPrefix(ep.Path, "/")

	switch {
	case cfg.Endpoint != "" && cfg.PathStyle:
		return "https", cfg.Endpoint, "/" + bucket + "/" + key, cfg.Region, nil
	case cfg.Endpoint != "":
		return "https", bucket + "." + cfg.Endpoint, "/" + key, cfg.Region, nil
	case cfg.Region != "":
		return "https", fmt.Sprintf("%s.s3.%s.amazonaws.com", bucket, cfg.Region), "/" + key, cfg.Region, nil
	default:
		return "https", bucket + ".s3.amazonaws.com", "/" + key, cfg.Region, nil
	}
}
