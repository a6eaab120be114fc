package release

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/killfeed/deploy-tools/internal/git"
	"github.com/killfeed/deploy-tools/logger"
)

// fakeShell records commands. Stdout and errors are scripted per command
// line.
type fakeShell struct {
	got    [][]string
	stdout map[string]string
	errs   map[string]error
}

func (f *fakeShell) record(cmd string, args []string) string {
	f.got = append(f.got, append([]string{cmd}, args...))
	return strings.Join(append([]string{cmd}, args...), " ")
}

func (f *fakeShell) Run(_ context.Context, cmd string, args ...string) error {
	return f.errs[f.record(cmd, args)]
}

func (f *fakeShell) RunAndCaptureStdout(_ context.Context, cmd string, args ...string) (string, error) {
	line := f.record(cmd, args)
	if err := f.errs[line]; err != nil {
		return "", err
	}
	return f.stdout[line], nil
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Cargo.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("os.WriteFile(%q) error = %v", path, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile(%q) error = %v", path, err)
	}
	return string(b)
}

const describe = "git describe --tags --abbrev=0"

func TestTaggerDryRunBumpsRC(t *testing.T) {
	t.Parallel()

	const manifest = "[package]\nversion = \"2.0.0-rc.1\"\n"
	path := writeManifest(t, manifest)

	sh := &fakeShell{stdout: map[string]string{describe: "v2.0.0-rc.1"}}
	var out bytes.Buffer
	tagger := &Tagger{
		Shell:        sh,
		Out:          &out,
		ManifestPath: path,
		DryRun:       true,
	}

	if err := tagger.Run(context.Background()); err != nil {
		t.Fatalf("tagger.Run(ctx) error = %v", err)
	}

	want := strings.Join([]string{
		"[DRY RUN] No changes will be made",
		"",
		"Latest tag: v2.0.0-rc.1",
		"Current RC version: 2.0.0-rc.1",
		"New version: 2.0.0-rc.2",
		"New tag: v2.0.0-rc.2",
		"[DRY RUN] Would update " + path + " with version: 2.0.0-rc.2",
		"[DRY RUN] Would run: cargo check",
		"[DRY RUN] Would commit: git commit -am 'chore: bumping version to 2.0.0-rc.2 [skip ci]'",
		"[DRY RUN] Would create tag: git tag v2.0.0-rc.2",
	}, "\n") + "\n"
	if diff := cmp.Diff(out.String(), want); diff != "" {
		t.Errorf("output diff (-got +want):\n%s", diff)
	}

	if diff := cmp.Diff(sh.got, [][]string{{"git", "describe", "--tags", "--abbrev=0"}}); diff != "" {
		t.Errorf("executed commands diff (-got +want):\n%s", diff)
	}
	if got := readFile(t, path); got != manifest {
		t.Errorf("manifest = %q, want it untouched", got)
	}
}

func TestTaggerFirstRCFromPrompt(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "[package]\nname = \"killfeed\"\nversion = \"3.0.0\"\n")

	sh := &fakeShell{stdout: map[string]string{describe: "v3.0.0"}}
	var out bytes.Buffer
	tagger := &Tagger{
		Shell:        sh,
		Out:          &out,
		Prompter:     NewPrompter(strings.NewReader("v3.1.0\n"), &out),
		ManifestPath: path,
	}

	if err := tagger.Run(context.Background()); err != nil {
		t.Fatalf("tagger.Run(ctx) error = %v", err)
	}

	want := strings.Join([]string{
		"Latest tag: v3.0.0",
		"Tag v3.0.0 is not in RC format (vX.X.X-rc.N).",
		"Enter the next version (format: vX.X.X): Creating first RC: v3.1.0-rc.0",
		"New version: 3.1.0-rc.0",
		"New tag: v3.1.0-rc.0",
		"Updated " + path,
		"Running cargo check...",
		"cargo check completed",
		"Committing: chore: bumping version to 3.1.0-rc.0 [skip ci]",
		"Commit created",
		"Creating git tag: v3.1.0-rc.0",
		"Tag v3.1.0-rc.0 created successfully",
	}, "\n") + "\n"
	if diff := cmp.Diff(out.String(), want); diff != "" {
		t.Errorf("output diff (-got +want):\n%s", diff)
	}

	wantCommands := [][]string{
		{"git", "describe", "--tags", "--abbrev=0"},
		{"cargo", "check"},
		{"git", "commit", "-am", "chore: bumping version to 3.1.0-rc.0 [skip ci]"},
		{"git", "tag", "v3.1.0-rc.0"},
	}
	if diff := cmp.Diff(sh.got, wantCommands); diff != "" {
		t.Errorf("executed commands diff (-got +want):\n%s", diff)
	}

	if diff := cmp.Diff(readFile(t, path), "[package]\nname = \"killfeed\"\nversion = \"3.1.0-rc.0\"\n"); diff != "" {
		t.Errorf("manifest diff (-got +want):\n%s", diff)
	}
}

func TestTaggerNextVersionFlag(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "version = \"3.0.0\"\n")
	sh := &fakeShell{stdout: map[string]string{describe: "v3.0.0"}}
	log := logger.NewBuffer()
	var out bytes.Buffer
	tagger := &Tagger{
		Shell:        sh,
		Out:          &out,
		Logger:       log,
		ManifestPath: path,
		BuildCheck:   []string{"make", "check", "--quiet"},
		NextVersion:  "v2.9.0",
		DryRun:       true,
	}

	if err := tagger.Run(context.Background()); err != nil {
		t.Fatalf("tagger.Run(ctx) error = %v", err)
	}

	for _, line := range []string{
		"Creating first RC: v2.9.0-rc.0\n",
		"[DRY RUN] Would run: make check --quiet\n",
	} {
		if !strings.Contains(out.String(), line) {
			t.Errorf("output = %q, want it to contain %q", out.String(), line)
		}
	}

	wantLog := []string{"[warn] Next version v2.9.0 is not newer than the latest tag v3.0.0"}
	if diff := cmp.Diff(log.Messages, wantLog); diff != "" {
		t.Errorf("log messages diff (-got +want):\n%s", diff)
	}
}

func TestTaggerInvalidNextVersion(t *testing.T) {
	t.Parallel()

	sh := &fakeShell{stdout: map[string]string{describe: "v3.0.0"}}
	tagger := &Tagger{
		Shell:        sh,
		Out:          &bytes.Buffer{},
		ManifestPath: writeManifest(t, "version = \"3.0.0\"\n"),
		NextVersion:  "3.1",
	}

	if err := tagger.Run(context.Background()); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("tagger.Run(ctx) error = %v, want %v", err, ErrInvalidVersion)
	}
	if len(sh.got) != 1 {
		t.Errorf("executed commands = %v, want only git describe", sh.got)
	}
}

func TestTaggerNoVersionLineStopsBeforeCommands(t *testing.T) {
	t.Parallel()

	const manifest = "[package]\nname = \"killfeed\"\n"
	path := writeManifest(t, manifest)
	sh := &fakeShell{stdout: map[string]string{describe: "v1.0.0-rc.3"}}
	tagger := &Tagger{Shell: sh, Out: &bytes.Buffer{}, ManifestPath: path}

	if err := tagger.Run(context.Background()); !errors.Is(err, ErrNoVersionLine) {
		t.Errorf("tagger.Run(ctx) error = %v, want %v", err, ErrNoVersionLine)
	}
	if len(sh.got) != 1 {
		t.Errorf("executed commands = %v, want only git describe", sh.got)
	}
	if got := readFile(t, path); got != manifest {
		t.Errorf("manifest = %q, want it untouched", got)
	}
}

func TestTaggerRCCounterOverflow(t *testing.T) {
	t.Parallel()

	const manifest = "[package]\nversion = \"1.2.3-rc.0\"\n"
	path := writeManifest(t, manifest)
	sh := &fakeShell{stdout: map[string]string{describe: "v1.2.3-rc.9223372036854775807"}}
	tagger := &Tagger{Shell: sh, Out: &bytes.Buffer{}, ManifestPath: path}

	if err := tagger.Run(context.Background()); !errors.Is(err, ErrRCOverflow) {
		t.Errorf("tagger.Run(ctx) error = %v, want %v", err, ErrRCOverflow)
	}
	if len(sh.got) != 1 {
		t.Errorf("executed commands = %v, want only git describe", sh.got)
	}
	if got := readFile(t, path); got != manifest {
		t.Errorf("manifest = %q, want it untouched", got)
	}
}

func TestTaggerTagFailureKeepsCommit(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "version = \"1.0.0-rc.3\"\n")
	tagErr := errors.New("tag 'v1.0.0-rc.4' already exists")
	sh := &fakeShell{
		stdout: map[string]string{describe: "v1.0.0-rc.3"},
		errs:   map[string]error{"git tag v1.0.0-rc.4": tagErr},
	}
	var out bytes.Buffer
	tagger := &Tagger{Shell: sh, Out: &out, ManifestPath: path}

	err := tagger.Run(context.Background())
	if !errors.Is(err, tagErr) {
		t.Fatalf("tagger.Run(ctx) error = %v, want %v", err, tagErr)
	}
	gitErr := new(git.Error)
	if !errors.As(err, &gitErr) || gitErr.Type != git.ErrorTag {
		t.Errorf("tagger.Run(ctx) error = %#v, want *git.Error with Type ErrorTag", err)
	}

	if !strings.Contains(out.String(), "Commit created\n") {
		t.Errorf("output = %q, want the commit to have been created", out.String())
	}
	if strings.Contains(out.String(), "created successfully") {
		t.Errorf("output = %q, want no tag success line", out.String())
	}
	if got, want := readFile(t, path), "version = \"1.0.0-rc.4\"\n"; got != want {
		t.Errorf("manifest = %q, want %q", got, want)
	}
}

func TestTaggerBuildCheckFailure(t *testing.T) {
	t.Parallel()

	checkErr := errors.New(`"cargo check" exited with status 101`)
	sh := &fakeShell{
		stdout: map[string]string{describe: "v1.0.0-rc.3"},
		errs:   map[string]error{"cargo check": checkErr},
	}
	tagger := &Tagger{Shell: sh, Out: &bytes.Buffer{}, ManifestPath: writeManifest(t, "version = \"1.0.0-rc.3\"\n")}

	if err := tagger.Run(context.Background()); !errors.Is(err, checkErr) {
		t.Errorf("tagger.Run(ctx) error = %v, want %v", err, checkErr)
	}

	want := [][]string{
		{"git", "describe", "--tags", "--abbrev=0"},
		{"cargo", "check"},
	}
	if diff := cmp.Diff(sh.got, want); diff != "" {
		t.Errorf("executed commands diff (-got +want):\n%s", diff)
	}
}

func TestTaggerPromptEOF(t *testing.T) {
	t.Parallel()

	sh := &fakeShell{stdout: map[string]string{describe: "v3.0.0"}}
	tagger := &Tagger{
		Shell:        sh,
		Out:          &bytes.Buffer{},
		Prompter:     NewPrompter(strings.NewReader(""), &bytes.Buffer{}),
		ManifestPath: writeManifest(t, "version = \"3.0.0\"\n"),
	}

	if err := tagger.Run(context.Background()); !errors.Is(err, ErrNoInput) {
		t.Errorf("tagger.Run(ctx) error = %v, want %v", err, ErrNoInput)
	}
}
