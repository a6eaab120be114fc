package secrets

import (
	"context"
	"fmt"

	"github.com/killfeed/deploy-tools/internal/shell"
	"github.com/killfeed/deploy-tools/logger"
)

// InfisicalSource runs `infisical secrets --env <environment> --output json`
// and parses what it prints.
type InfisicalSource struct {
	Shell  *shell.Shell
	Logger logger.Logger

	// Binary is the infisical executable. Defaults to "infisical" on PATH.
	Binary string

	// Path and ProjectID are passed as --path and --projectId when set.
	Path      string
	ProjectID string
}

func (s *InfisicalSource) Fetch(ctx context.Context, environment string) (*Set, error) {
	bin := s.Binary
	if bin == "" {
		bin = "infisical"
	}

	args := []string{"secrets", "--env", environment, "--output", "json"}
	if s.Path != "" {
		args = append(args, "--path", s.Path)
	}
	if s.ProjectID != "" {
		args = append(args, "--projectId", s.ProjectID)
	}

	l := s.Logger
	if l == nil {
		l = logger.Discard
	}
	l.WithFields(logger.StringField("environment", environment)).Debug("Running %s", shell.FormatCommand(bin, args))

	out, err := s.Shell.Command(bin, args...).Sensitive().RunAndCaptureStdout(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching secrets from infisical: %w", err)
	}

	set, err := ParseJSON([]byte(out))
	if err != nil {
		return nil, fmt.Errorf("parsing infisical output: %w", err)
	}
	return set, nil
}
