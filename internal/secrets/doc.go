// Package secrets fetches the secrets for a deployment environment.
//
// A Source returns an ordered set of key/value pairs:
//
//	src := &secrets.InfisicalSource{Shell: sh}
//	set, err := src.Fetch(ctx, "staging")
//
// InfisicalSource shells out to the infisical CLI and VaultSource reads a
// HashiCorp Vault KV v2 secret. Both produce string values only.
package secrets
