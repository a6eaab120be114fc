package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"

	vaultapi "github.com/hashicorp/vault/api"
	"github.com/killfeed/deploy-tools/internal/ordered"
)

var (
	// ErrVaultConfig is returned when Vault can't be reached or logged in to
	// with the environment's settings.
	ErrVaultConfig = errors.New("vault configuration")

	// ErrSecretNotFound is returned when there is no secret at the path.
	ErrSecretNotFound = errors.New("secret not found")
)

// VaultSource reads the secrets of an environment from a KV v2 secret at
// <Mount>/data/<PathPrefix>/<environment>. Every field of the secret becomes
// one entry, in key order.
type VaultSource struct {
	Client     *vaultapi.Client
	Mount      string
	PathPrefix string
}

// SecretPath returns the API path read for environment.
func (s *VaultSource) SecretPath(environment string) string {
	mount := s.Mount
	if mount == "" {
		mount = "secret"
	}
	return path.Join(mount, "data", s.PathPrefix, environment)
}

func (s *VaultSource) Fetch(ctx context.Context, environment string) (*Set, error) {
	p := s.SecretPath(environment)

	secret, err := s.Client.Logical().ReadWithContext(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("reading %s from vault: %w", p, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%s: %w", p, ErrSecretNotFound)
	}

	// KV v2 nests the fields under "data", next to "metadata".
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no data (is %s a KV v2 mount?)", ErrSecretShape, p, s.Mount)
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	set := ordered.NewMap[string, string](len(keys))
	for _, k := range keys {
		v, ok := data[k].(string)
		if !ok {
			return nil, fmt.Errorf("%w: value of %q at %s is not a string", ErrSecretShape, k, p)
		}
		set.Set(k, v)
	}
	return set, nil
}

// NewVaultClient creates a Vault client from the environment:
//
//   - VAULT_ADDR: server address (required)
//   - VAULT_NAMESPACE: namespace (optional)
//   - VAULT_TOKEN: token to use, or else
//   - VAULT_ROLE_ID and VAULT_SECRET_ID: AppRole credentials to log in with
func NewVaultClient(ctx context.Context) (*vaultapi.Client, error) {
	config := vaultapi.DefaultConfig()
	if config.Error != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultConfig, config.Error)
	}

	// DefaultConfig falls back to a local address, which is never what a
	// CI job wants.
	addr := os.Getenv("VAULT_ADDR")
	if addr == "" {
		return nil, fmt.Errorf("%w: VAULT_ADDR environment variable is required", ErrVaultConfig)
	}
	config.Address = addr

	client, err := vaultapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("%w: creating client: %w", ErrVaultConfig, err)
	}

	if namespace := os.Getenv("VAULT_NAMESPACE"); namespace != "" {
		client.SetNamespace(namespace)
	}

	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		client.SetToken(token)
		return client, nil
	}

	roleID := os.Getenv("VAULT_ROLE_ID")
	secretID := os.Getenv("VAULT_SECRET_ID")
	if roleID == "" || secretID == "" {
		return nil, fmt.Errorf("%w: set VAULT_TOKEN or VAULT_ROLE_ID and VAULT_SECRET_ID", ErrVaultConfig)
	}

	resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]any{
		"role_id":   roleID,
		"secret_id": secretID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: AppRole login: %w", ErrVaultConfig, err)
	}
	if resp == nil || resp.Auth == nil {
		return nil, fmt.Errorf("%w: AppRole login returned no auth info", ErrVaultConfig)
	}

	client.SetToken(resp.Auth.ClientToken)
	return client, nil
}
