package shell

import (
	"io"
	"os"
	"testing"
)

// NewTestShell creates a shell with suitable defaults for tests. It still
// really executes commands. Output is thrown away unless DEBUG_SHELL=1 or
// WithStdout is passed.
func NewTestShell(t *testing.T, opts ...NewShellOpt) *Shell {
	t.Helper()

	l := Logger(DiscardLogger)
	stdout := io.Discard
	if os.Getenv("DEBUG_SHELL") == "1" {
		l = TestingLogger{T: t}
		stdout = os.Stdout
	}

	opts = append([]NewShellOpt{
		WithLogger(l),
		WithStdout(stdout),
		WithWD(t.TempDir()),
	}, opts...)

	sh, err := New(opts...)
	if err != nil {
		t.Fatalf("shell.New(opts...) error = %v", err)
	}
	return sh
}

// TestingLogger sends shell output to t.Logf.
type TestingLogger struct {
	*testing.T
}

func (tl TestingLogger) Write(b []byte) (int, error) {
	tl.Logf("%s", b)
	return len(b), nil
}

func (tl TestingLogger) Printf(format string, v ...any) {
	tl.Logf(format, v...)
}

func (tl TestingLogger) Commentf(format string, v ...any) {
	tl.Logf("# "+format, v...)
}

func (tl TestingLogger) Promptf(format string, v ...any) {
	tl.Logf("$ "+format, v...)
}
