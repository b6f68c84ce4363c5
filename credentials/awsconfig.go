package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/michalc/sqlite-s3-query/s3object"
	"github.com/michalc/sqlite-s3-query/sigv4"
)

// AWSConfigChain borrows aws-sdk-go-v2's default credential resolution
// (environment, shared config/credentials files, SSO, EC2 instance role,
// ECS/EKS task role) without adopting the SDK's own request signer — only
// the resolved key material is used; signing is still done by sigv4.
type AWSConfigChain struct {
	region string
	creds  aws.CredentialsProvider
}

// NewAWSConfigChain loads the default AWS config chain once at
// construction. The underlying aws.CredentialsProvider retains whatever
// caching/refresh behavior the SDK gives it (e.g. STS-assumed-role
// expiry), so Provide re-retrieves on every call without re-loading the
// whole chain.
func NewAWSConfigChain(ctx context.Context, optFns ...func(*config.LoadOptions) error) (*AWSConfigChain, error) {
	var cfg, err = config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config chain: %w", err)
	}
	return &AWSConfigChain{region: cfg.Region, creds: cfg.Credentials}, nil
}

// Provide satisfies s3object.CredentialsProvider.
func (p *AWSConfigChain) Provide(now time.Time) (s3object.Credentials, error) {
	var creds, err = p.creds.Retrieve(context.Background())
	if err != nil {
		return s3object.Credentials{}, fmt.Errorf("retrieving AWS credentials: %w", err)
	}

	return s3object.Credentials{
		Region: p.region,
		Credentials: sigv4.Credentials{
			AccessKeyID:     creds.AccessKeyID,
			SecretAccessKey: creds.SecretAccessKey,
			SessionToken:    creds.SessionToken,
		},
	}, nil
}
