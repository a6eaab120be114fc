package release

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/killfeed/deploy-tools/internal/git"
	"github.com/killfeed/deploy-tools/internal/shell"
	"github.com/killfeed/deploy-tools/logger"
)

// DefaultBuildCheck is run between updating the manifest and committing.
var DefaultBuildCheck = []string{"cargo", "check"}

// Tagger bumps the release candidate version: it updates the manifest, runs
// the build check, commits and tags. Steps already completed are not undone
// when a later one fails.
type Tagger struct {
	// Runs git and the build check.
	Shell git.Runner

	// Progress lines are written here.
	Out io.Writer

	Logger logger.Logger

	// Asked for a base version when the latest tag isn't a release candidate
	// and NextVersion is empty.
	Prompter *Prompter

	// Path to the manifest holding the version line.
	ManifestPath string

	// Command and arguments of the build check. Defaults to DefaultBuildCheck.
	BuildCheck []string

	// Base version (vX.Y.Z) to use instead of prompting.
	NextVersion string

	DryRun bool
}

// CommitMessage is the message of the version bump commit.
func CommitMessage(version string) string {
	return fmt.Sprintf("chore: bumping version to %s [skip ci]", version)
}

// Run computes the next release candidate and applies it, or only describes
// what it would do when DryRun is set.
func (t *Tagger) Run(ctx context.Context) error {
	if t.Logger == nil {
		t.Logger = logger.Discard
	}
	buildCheck := t.BuildCheck
	if len(buildCheck) == 0 {
		buildCheck = DefaultBuildCheck
	}
	buildCheckName := shell.FormatCommand(buildCheck[0], buildCheck[1:])

	if t.DryRun {
		t.printf("[DRY RUN] No changes will be made")
		t.printf("")
	}

	latest, err := git.LatestTag(ctx, t.Shell)
	if err != nil {
		return err
	}
	t.printf("Latest tag: %s", latest)

	next, err := t.next(ctx, latest)
	if err != nil {
		return err
	}

	version, tag := next.Version(), next.Tag()
	t.printf("New version: %s", version)
	t.printf("New tag: %s", tag)

	if !git.CheckRefFormat(tag) {
		return fmt.Errorf("%q %w", tag, git.ErrInvalidRef)
	}

	message := CommitMessage(version)

	if t.DryRun {
		t.printf("[DRY RUN] Would update %s with version: %s", t.ManifestPath, version)
		t.printf("[DRY RUN] Would run: %s", buildCheckName)
		t.printf("[DRY RUN] Would commit: git commit -am '%s'", message)
		t.printf("[DRY RUN] Would create tag: git tag %s", tag)
		return nil
	}

	if err := UpdateManifestVersion(t.ManifestPath, version); err != nil {
		return err
	}
	t.printf("Updated %s", t.ManifestPath)

	t.printf("Running %s...", buildCheckName)
	if err := t.Shell.Run(ctx, buildCheck[0], buildCheck[1:]...); err != nil {
		return fmt.Errorf("running %s: %w", buildCheckName, err)
	}
	t.printf("%s completed", buildCheckName)

	t.printf("Committing: %s", message)
	if err := git.CommitAll(ctx, t.Shell, message); err != nil {
		return err
	}
	t.printf("Commit created")

	t.printf("Creating git tag: %s", tag)
	if err := git.Tag(ctx, t.Shell, tag); err != nil {
		return err
	}
	t.printf("Tag %s created successfully", tag)

	return nil
}

func (t *Tagger) next(ctx context.Context, latest string) (RCVersion, error) {
	if current, ok := ParseRCVersion(latest); ok {
		t.printf("Current RC version: %s", current.Version())
		return current.Next()
	}

	t.printf("Tag %s is not in RC format (vX.X.X-rc.N).", latest)

	base, err := t.nextBase(ctx)
	if err != nil {
		return RCVersion{}, err
	}
	if !IsNewer(base, latest) {
		t.Logger.Warn("Next version v%s is not newer than the latest tag %s", base, latest)
	}

	next := FirstRC(base)
	t.printf("Creating first RC: %s", next.Tag())
	return next, nil
}

func (t *Tagger) nextBase(ctx context.Context) (string, error) {
	if t.NextVersion != "" {
		return ParseBase(t.NextVersion)
	}
	if t.Prompter == nil {
		return "", errors.New("no next version given and no prompt available")
	}
	return t.Prompter.NextBase(ctx)
}

func (t *Tagger) printf(format string, v ...any) {
	fmt.Fprintf(t.Out, format+"\n", v...) //nolint:errcheck // progress output
}
