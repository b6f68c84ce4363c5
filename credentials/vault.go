package credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/michalc/sqlite-s3-query/s3object"
	"github.com/michalc/sqlite-s3-query/sigv4"
)

// Vault resolves credentials from a HashiCorp Vault KV secret, grounded on
// the sibling pack member's secrets.HashiVaultProvider. The secret at path
// must carry "region", "access_key_id", and "secret_access_key" string
// fields, and may carry "session_token".
type Vault struct {
	client *api.Client
	path   string
}

// NewVault creates a Vault provider against the Vault server at addr,
// authenticated with token, reading the secret at path.
func NewVault(addr, path, token string) (*Vault, error) {
	var cfg = &api.Config{Address: addr}
	var client, err = api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating vault client: %w", err)
	}
	client.SetToken(token)
	return &Vault{client: client, path: path}, nil
}

// Provide satisfies s3object.CredentialsProvider. Vault secrets are
// re-read on every call since Vault itself is the rotation authority for
// dynamic credentials.
func (v *Vault) Provide(_ time.Time) (s3object.Credentials, error) {
	var secret, err = v.client.Logical().Read(v.path)
	if err != nil {
		return s3object.Credentials{}, fmt.Errorf("reading vault secret at %q: %w", v.path, err)
	}
	if secret == nil || secret.Data == nil {
		return s3object.Credentials{}, errors.New("vault: secret not found")
	}

	var data, ok = secret.Data["data"].(map[string]any)
	if !ok {
		data = secret.Data
	}

	var field = func(key string) (string, error) {
		var raw, present = data[key]
		if !present {
			return "", fmt.Errorf("vault secret at %q missing field %q", v.path, key)
		}
		var s, isString = raw.(string)
		if !isString {
			return "", fmt.Errorf("vault secret at %q field %q is not a string", v.path, key)
		}
		return s, nil
	}

	var region, regionErr = field("region")
	if regionErr != nil {
		return s3object.Credentials{}, regionErr
	}
	var accessKeyID, accessErr = field("access_key_id")
	if accessErr != nil {
		return s3object.Credentials{}, accessErr
	}
	var secretAccessKey, secretErr = field("secret_access_key")
	if secretErr != nil {
		return s3object.Credentials{}, secretErr
	}
	var sessionToken, _ = field("session_token")

	return s3object.Credentials{
		Region: region,
		Credentials: sigv4.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			SessionToken:    sessionToken,
		},
	}, nil
}
