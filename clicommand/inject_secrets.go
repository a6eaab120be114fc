package clicommand

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/killfeed/deploy-tools/cliconfig"
	"github.com/killfeed/deploy-tools/internal/helmvalues"
	"github.com/killfeed/deploy-tools/internal/secrets"
	"github.com/killfeed/deploy-tools/logger"
	"github.com/urfave/cli"
)

const injectSecretsHelpDescription = `Usage:

   inject-secrets [options...] <environment>

Description:
   Fetches the secrets of an environment from the secrets manager and merges
   them into the secrets.app.data block of the base Helm values file. The
   result is written next to the base file as values.<environment>.yaml.

   Existing keys under secrets.app.data are kept unless a fetched secret
   replaces them. Multi-line values are written as literal blocks.

Example:

   $ inject-secrets production
   Fetching secrets for environment: production
   ✓ Retrieved 12 secrets
   Loading base values from helm/values.yaml
   Updating secrets.app.data
   ✓ Created helm/values.production.yaml (2.1 kB)
   ✓ Complete!`

type InjectSecretsConfig struct {
	GlobalConfig

	Environment string `cli:"arg:0" label:"environment" validate:"required"`

	Root       string `cli:"root" normalize:"filepath"`
	HelmDir    string `cli:"helm-dir" validate:"required"`
	BaseValues string `cli:"base-values" validate:"required"`
	Output     string `cli:"output"`
	Source     string `cli:"source"`

	InfisicalBinary    string `cli:"infisical-binary"`
	InfisicalPath      string `cli:"infisical-path"`
	InfisicalProjectID string `cli:"infisical-project-id"`

	VaultMount      string `cli:"vault-mount"`
	VaultPathPrefix string `cli:"vault-path-prefix"`
}

var InjectSecretsCommand = cli.Command{
	Name:        "inject-secrets",
	Usage:       "Writes an environment's secrets into its Helm values file",
	Description: injectSecretsHelpDescription,
	Flags: slices.Concat(globalFlags(), []cli.Flag{
		cli.StringFlag{
			Name:   "root",
			Usage:  "The repository root. Defaults to the directory above the executable when it has a helm directory, otherwise the working directory",
			EnvVar: cliconfig.EnvVar("root"),
		},
		cli.StringFlag{
			Name:   "helm-dir",
			Value:  "helm",
			Usage:  "Directory holding the values files, relative to the root",
			EnvVar: cliconfig.EnvVar("helm-dir"),
		},
		cli.StringFlag{
			Name:   "base-values",
			Value:  "values.yaml",
			Usage:  "The base values file, relative to the helm directory",
			EnvVar: cliconfig.EnvVar("base-values"),
		},
		cli.StringFlag{
			Name:   "output",
			Usage:  "The file to write, relative to the helm directory. Defaults to values.<environment>.yaml",
			EnvVar: cliconfig.EnvVar("output"),
		},
		cli.StringFlag{
			Name:   "source",
			Value:  secrets.SourceInfisical,
			Usage:  "Where to fetch secrets from, either infisical or vault",
			EnvVar: cliconfig.EnvVar("source"),
		},
		cli.StringFlag{
			Name:   "infisical-binary",
			Value:  "infisical",
			Usage:  "The infisical CLI to run",
			EnvVar: cliconfig.EnvVar("infisical-binary"),
		},
		cli.StringFlag{
			Name:   "infisical-path",
			Usage:  "Folder path of the secrets in the infisical project",
			EnvVar: cliconfig.EnvVar("infisical-path"),
		},
		cli.StringFlag{
			Name:   "infisical-project-id",
			Usage:  "The infisical project to read from, when not linked by .infisical.json",
			EnvVar: cliconfig.EnvVar("infisical-project-id"),
		},
		cli.StringFlag{
			Name:   "vault-mount",
			Value:  "secret",
			Usage:  "Mount of the Vault KV v2 secrets engine",
			EnvVar: cliconfig.EnvVar("vault-mount"),
		},
		cli.StringFlag{
			Name:   "vault-path-prefix",
			Usage:  "Path under the mount holding one secret per environment",
			EnvVar: cliconfig.EnvVar("vault-path-prefix"),
		},
	}),
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return usageError(c, "[options...] <environment>")
		}

		ctx := context.Background()
		ctx, cfg, l, done, err := setupLoggerAndConfig[InjectSecretsConfig](ctx, c)
		if err != nil {
			return err
		}
		defer done()

		return commandError(ctx, injectSecrets(ctx, c, cfg, l))
	},
}

func injectSecrets(ctx context.Context, c *cli.Context, cfg *InjectSecretsConfig, l logger.Logger) error {
	root, err := ResolveRoot(cfg.Root, cfg.HelmDir)
	if err != nil {
		return err
	}
	l.Debug("Using root %s", root)

	source, err := newSecretSource(ctx, c, cfg, root, l)
	if err != nil {
		return err
	}

	out := c.App.Writer
	printf := func(format string, v ...any) {
		fmt.Fprintf(out, format+"\n", v...) //nolint:errcheck // progress output
	}

	printf("Fetching secrets for environment: %s", cfg.Environment)
	set, err := source.Fetch(ctx, cfg.Environment)
	if err != nil {
		return err
	}
	printf("✓ Retrieved %d secrets", set.Len())

	baseDisplay := filepath.Join(cfg.HelmDir, cfg.BaseValues)
	printf("Loading base values from %s", baseDisplay)
	values, err := helmvalues.Load(resolvePath(root, baseDisplay))
	if err != nil {
		return err
	}

	printf("Updating secrets.app.data")
	if err := helmvalues.MergeSecrets(values, set); err != nil {
		return err
	}

	output := cfg.Output
	if output == "" {
		output = fmt.Sprintf("values.%s.yaml", cfg.Environment)
	}
	outputDisplay := filepath.Join(cfg.HelmDir, output)
	n, err := helmvalues.Save(values, resolvePath(root, outputDisplay))
	if err != nil {
		return err
	}
	printf("✓ Created %s (%s)", outputDisplay, humanize.Bytes(uint64(n)))

	printf("✓ Complete!")
	return nil
}

func newSecretSource(ctx context.Context, c *cli.Context, cfg *InjectSecretsConfig, root string, l logger.Logger) (secrets.Source, error) {
	name, err := secrets.ParseSourceName(cfg.Source)
	if err != nil {
		return nil, err
	}

	switch name {
	case secrets.SourceVault:
		client, err := secrets.NewVaultClient(ctx)
		if err != nil {
			return nil, err
		}
		return &secrets.VaultSource{
			Client:     client,
			Mount:      cfg.VaultMount,
			PathPrefix: cfg.VaultPathPrefix,
		}, nil

	default:
		sh, err := newShell(c, cfg, root)
		if err != nil {
			return nil, err
		}
		return &secrets.InfisicalSource{
			Shell:     sh,
			Logger:    l,
			Binary:    cfg.InfisicalBinary,
			Path:      cfg.InfisicalPath,
			ProjectID: cfg.InfisicalProjectID,
		}, nil
	}
}
