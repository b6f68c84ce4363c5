package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/michalc/sqlite-s3-query/s3object"
	"github.com/michalc/sqlite-s3-query/sigv4"
)

// secretsManagerClient is the subset of secretsmanager.Client this
// provider calls, narrowed so tests can substitute a fake without
// standing up a real AWS Secrets Manager.
type secretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// secretDocument is the JSON shape expected in the Secrets Manager secret
// string: the region and key material needed to sign requests against the
// bound object's bucket.
type secretDocument struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token,omitempty"`
}

// SecretsManager resolves credentials stored as a JSON document in a
// single AWS Secrets Manager secret, grounded on the sibling pack
// member's secrets.AWSSecretsProvider, which fetches one named secret
// per Get call the same way.
type SecretsManager struct {
	client   secretsManagerClient
	secretID string
}

// NewSecretsManager builds the AWS config from the default chain, scoped
// to region, and resolves the secret named secretID on every Provide
// call.
func NewSecretsManager(ctx context.Context, region, secretID string) (*SecretsManager, error) {
	var cfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for secrets manager: %w", err)
	}
	return &SecretsManager{
		client:   secretsmanager.NewFromConfig(cfg),
		secretID: secretID,
	}, nil
}

// Provide satisfies s3object.CredentialsProvider.
func (p *SecretsManager) Provide(_ time.Time) (s3object.Credentials, error) {
	var out, err = p.client.GetSecretValue(context.Background(), &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretID),
	})
	if err != nil {
		return s3object.Credentials{}, fmt.Errorf("reading secret %q: %w", p.secretID, err)
	}
	if out.SecretString == nil {
		return s3object.Credentials{}, fmt.Errorf("secret %q has no string value", p.secretID)
	}

	var doc secretDocument
	if jsonErr := json.Unmarshal([]byte(*out.SecretString), &doc); jsonErr != nil {
		return s3object.Credentials{}, fmt.Errorf("parsing secret %q: %w", p.secretID, jsonErr)
	}

	return s3object.Credentials{
		Region: doc.Region,
		Credentials: sigv4.Credentials{
			AccessKeyID:     doc.AccessKeyID,
			SecretAccessKey: doc.SecretAccessKey,
			SessionToken:    doc.SessionToken,
		},
	}, nil
}
