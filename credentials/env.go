// Package credentials provides concrete CredentialsProvider implementations
// callers may opt into. sigv4 and s3object depend only on the provider
// function type and never import this package; the top-level package uses
// Env as its default provider.
package credentials

import (
	"fmt"
	"os"
	"time"

	"github.com/michalc/sqlite-s3-query/s3object"
	"github.com/michalc/sqlite-s3-query/sigv4"
)

// Env resolves credentials from AWS_REGION, AWS_ACCESS_KEY_ID,
// AWS_SECRET_ACCESS_KEY, and (optionally) AWS_SESSION_TOKEN.
func Env(_ time.Time) (s3object.Credentials, error) {
	var region, hasRegion = os.LookupEnv("AWS_REGION")
	var accessKeyID, hasAccessKeyID = os.LookupEnv("AWS_ACCESS_KEY_ID")
	var secretAccessKey, hasSecretAccessKey = os.LookupEnv("AWS_SECRET_ACCESS_KEY")
	if !hasRegion || !hasAccessKeyID || !hasSecretAccessKey {
		return s3object.Credentials{}, fmt.Errorf("credentials: AWS_REGION, AWS_ACCESS_KEY_ID, and AWS_SECRET_ACCESS_KEY must all be set")
	}

	return s3object.Credentials{
		Region: region,
		Credentials: sigv4.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		},
	}, nil
}
