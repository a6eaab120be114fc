package clicommand_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/buildkite/bintest/v3"
	"github.com/dustin/go-humanize"
	"github.com/killfeed/deploy-tools/clicommand"
	"github.com/urfave/cli"
)

// runCommand runs cmd inside a throwaway app and returns what it wrote.
func runCommand(t *testing.T, cmd cli.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	app := clicommand.NewApp("test")
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Commands = []cli.Command{cmd}

	err = app.Run(append([]string{"deploy-tools", cmd.Name}, args...))
	return out.String(), errOut.String(), err
}

// mockOnPath creates a mock binary and puts it first on PATH for the rest of
// the test.
func mockOnPath(t *testing.T, name string) *bintest.Mock {
	t.Helper()

	mock, err := bintest.NewMock(name)
	if err != nil {
		t.Fatalf("bintest.NewMock(%q) error = %v", name, err)
	}
	t.Setenv("PATH", fmt.Sprintf("%s%c%s", filepath.Dir(mock.Path), os.PathListSeparator, os.Getenv("PATH")))
	return mock
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("os.MkdirAll(%q) error = %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("os.WriteFile(%q) error = %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile(%q) error = %v", path, err)
	}
	return string(b)
}

func humanSize(n int) string {
	return humanize.Bytes(uint64(n))
}
