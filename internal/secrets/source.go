package secrets

import (
	"context"
	"fmt"
	"strings"
)

// Source fetches the secrets of one environment.
type Source interface {
	Fetch(ctx context.Context, environment string) (*Set, error)
}

const (
	SourceInfisical = "infisical"
	SourceVault     = "vault"
)

// SourceNames lists the accepted values of the --source flag.
var SourceNames = []string{SourceInfisical, SourceVault}

// ParseSourceName normalises a --source value and checks it is known.
func ParseSourceName(name string) (string, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", SourceInfisical:
		return SourceInfisical, nil
	case SourceVault:
		return SourceVault, nil
	default:
		return "", fmt.Errorf("unknown secret source %q (valid: %s)", name, strings.Join(SourceNames, ", "))
	}
}
