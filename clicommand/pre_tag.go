package clicommand

import (
	"context"
	"os"
	"slices"

	"github.com/killfeed/deploy-tools/cliconfig"
	"github.com/killfeed/deploy-tools/internal/release"
	"github.com/killfeed/deploy-tools/internal/shell"
	"github.com/killfeed/deploy-tools/logger"
	"github.com/urfave/cli"
)

const preTagHelpDescription = `Usage:

   pre-tag [options...]

Description:
   Bumps the release candidate version. The latest git tag is read with
   ′git describe′. A vX.Y.Z-rc.N tag becomes vX.Y.Z-rc.N+1; for any other
   tag the next base version is asked for (or taken from --next-version) and
   the counter starts at 0.

   The manifest's version line is then updated, the build check is run, the
   change is committed with "[skip ci]" and the new tag is created. A failed
   step stops the run without undoing the steps before it.

Example:

   $ pre-tag --dry-run
   [DRY RUN] No changes will be made

   Latest tag: v2.0.0-rc.1
   Current RC version: 2.0.0-rc.1
   New version: 2.0.0-rc.2
   New tag: v2.0.0-rc.2
   ...`

type PreTagConfig struct {
	GlobalConfig

	DryRun            bool   `cli:"dry-run"`
	Root              string `cli:"root" normalize:"filepath"`
	Manifest          string `cli:"manifest" validate:"required"`
	BuildCheckCommand string `cli:"build-check-command" validate:"required"`
	NextVersion       string `cli:"next-version"`
}

var PreTagCommand = cli.Command{
	Name:        "pre-tag",
	Usage:       "Bumps the release candidate version, commits and tags it",
	Description: preTagHelpDescription,
	Flags: slices.Concat(globalFlags(), []cli.Flag{
		cli.BoolFlag{
			Name:   "dry-run",
			Usage:  "Print what would change without modifying files or the repository",
			EnvVar: cliconfig.EnvVar("dry-run"),
		},
		cli.StringFlag{
			Name:   "root",
			Usage:  "The repository root. Defaults to the directory above the executable when it has the manifest, otherwise the working directory",
			EnvVar: cliconfig.EnvVar("root"),
		},
		cli.StringFlag{
			Name:   "manifest",
			Value:  "Cargo.toml",
			Usage:  "The manifest holding the version line, relative to the root",
			EnvVar: cliconfig.EnvVar("manifest"),
		},
		cli.StringFlag{
			Name:   "build-check-command",
			Value:  "cargo check",
			Usage:  "The command run after updating the manifest and before committing",
			EnvVar: cliconfig.EnvVar("build-check-command"),
		},
		cli.StringFlag{
			Name:   "next-version",
			Usage:  "The next base version (vX.Y.Z), used instead of asking when the latest tag isn't a release candidate",
			EnvVar: cliconfig.EnvVar("next-version"),
		},
	}),
	Action: func(c *cli.Context) error {
		if c.NArg() != 0 {
			return usageError(c, "[options...]")
		}

		ctx := context.Background()
		ctx, cfg, l, done, err := setupLoggerAndConfig[PreTagConfig](ctx, c)
		if err != nil {
			return err
		}
		defer done()

		return commandError(ctx, preTag(ctx, c, cfg, l))
	},
}

func preTag(ctx context.Context, c *cli.Context, cfg *PreTagConfig, l logger.Logger) error {
	root, err := ResolveRoot(cfg.Root, cfg.Manifest)
	if err != nil {
		return err
	}
	l.Debug("Using root %s", root)

	buildCheck, err := shell.SplitCommand(cfg.BuildCheckCommand)
	if err != nil {
		return err
	}

	sh, err := newShell(c, cfg, root)
	if err != nil {
		return err
	}

	tagger := &release.Tagger{
		Shell:        sh,
		Out:          c.App.Writer,
		Logger:       l,
		Prompter:     release.NewPrompter(os.Stdin, c.App.Writer),
		ManifestPath: resolvePath(root, cfg.Manifest),
		BuildCheck:   buildCheck,
		NextVersion:  cfg.NextVersion,
		DryRun:       cfg.DryRun,
	}
	return tagger.Run(ctx)
}
