// Package shell runs the external programs the deploy tools depend on (git,
// the secrets CLI, build checks), echoing each command the way a shell would.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/buildkite/shellwords"
)

// Shell runs commands in a fixed working directory, logging a prompt line for
// each one.
type Shell struct {
	Logger

	// Where the stdout and stderr of Run commands are written.
	// Defaults to [os.Stdout].
	Writer io.Writer

	// Whether to echo captured commands and tee their output to the logger.
	debug bool

	// Current working directory that commands get executed in.
	wd string
}

type NewShellOpt = func(*Shell)

func WithDebug(d bool) NewShellOpt       { return func(s *Shell) { s.debug = d } }
func WithLogger(l Logger) NewShellOpt    { return func(s *Shell) { s.Logger = l } }
func WithStdout(w io.Writer) NewShellOpt { return func(s *Shell) { s.Writer = w } }
func WithWD(wd string) NewShellOpt       { return func(s *Shell) { s.wd = wd } }

// New returns a new Shell. The default stdout is [os.Stdout], the default
// logger writes to [os.Stderr] and the working directory defaults to
// [os.Getwd].
func New(opts ...NewShellOpt) (*Shell, error) {
	shell := &Shell{}
	for _, opt := range opts {
		opt(shell)
	}

	if shell.Logger == nil {
		shell.Logger = StderrLogger
	}
	if shell.Writer == nil {
		shell.Writer = os.Stdout
	}
	if shell.wd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to find current working directory: %w", err)
		}
		shell.wd = wd
	}

	return shell, nil
}

// Getwd returns the working directory commands run in.
func (s *Shell) Getwd() string {
	return s.wd
}

// Command returns a command that can be run later.
func (s *Shell) Command(name string, arg ...string) Command {
	return Command{shell: s, name: name, args: arg}
}

// Run runs the named command and streams its output. It is shorthand for
// s.Command(name, arg...).Run(ctx).
func (s *Shell) Run(ctx context.Context, name string, arg ...string) error {
	return s.Command(name, arg...).Run(ctx)
}

// RunAndCaptureStdout is shorthand for
// s.Command(name, arg...).RunAndCaptureStdout(ctx).
func (s *Shell) RunAndCaptureStdout(ctx context.Context, name string, arg ...string) (string, error) {
	return s.Command(name, arg...).RunAndCaptureStdout(ctx)
}

// Command is a program and its arguments, bound to a Shell.
type Command struct {
	shell *Shell
	name  string
	args  []string

	// Stdout holds secrets and is never copied to the logger.
	sensitive bool
}

// Sensitive returns a copy of the command whose stdout is kept out of debug
// logging.
func (c Command) Sensitive() Command {
	c.sensitive = true
	return c
}

// String formats the command for humans, quoting arguments where needed.
func (c Command) String() string {
	return FormatCommand(c.name, c.args)
}

// Run runs the command, writing a prompt to the logger and the command's
// stdout and stderr to the shell's Writer. Stderr is also kept for the error
// when the command fails.
func (c Command) Run(ctx context.Context) error {
	c.shell.Promptf("%s", c)
	w := c.shell.Writer
	var stderr bytes.Buffer
	if err := c.shell.execute(ctx, c, w, io.MultiWriter(w, &stderr)); err != nil {
		return withStderr(err, stderr.String())
	}
	return nil
}

// RunAndCaptureStdout runs the command and returns its stdout with surrounding
// whitespace trimmed. Stderr is kept for the error when the command fails.
// In debug mode the command is echoed and both streams are teed to the logger.
func (c Command) RunAndCaptureStdout(ctx context.Context) (string, error) {
	if c.shell.debug {
		c.shell.Promptf("%s", c)
	}

	var stdout, stderr bytes.Buffer
	if err := c.shell.execute(ctx, c, &stdout, &stderr); err != nil {
		return "", withStderr(err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

func withStderr(err error, stderr string) error {
	if msg := strings.TrimSpace(stderr); msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}

func (s *Shell) execute(ctx context.Context, c Command, stdout, stderr io.Writer) error {
	if s.debug {
		t := time.Now()
		defer func() {
			s.Commentf("↳ Command completed in %v", round(time.Since(t)))
		}()

		if c.sensitive {
			counter := &byteCounter{}
			defer func() {
				s.Commentf("↳ %d bytes of output hidden", counter.n)
			}()
			stdout = io.MultiWriter(stdout, counter)
		} else {
			stdoutStreamer := NewLoggerStreamer(s.Logger)
			defer stdoutStreamer.Close()
			stdout = io.MultiWriter(stdout, stdoutStreamer)
		}

		stderrStreamer := NewLoggerStreamer(s.Logger)
		defer stderrStreamer.Close()
		stderr = io.MultiWriter(stderr, stderrStreamer)
	}

	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Dir = s.wd
	cmd.Env = append(os.Environ(), "PWD="+s.wd)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if exitErr := new(exec.ExitError); errors.As(err, &exitErr) {
			return &ExitError{
				Code: exitErr.ExitCode(),
				Err:  fmt.Errorf("%q exited with status %d", c.String(), exitErr.ExitCode()),
			}
		}
		return fmt.Errorf("error running %q: %w", c.String(), err)
	}
	return nil
}

// FormatCommand joins a command and its arguments, quoting any that a POSIX
// shell would split or expand.
func FormatCommand(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellwords.QuotePosix(name))
	for _, a := range args {
		parts = append(parts, shellwords.QuotePosix(a))
	}
	return strings.Join(parts, " ")
}

// SplitCommand splits a command line into words, honouring quotes.
func SplitCommand(line string) ([]string, error) {
	words, err := shellwords.SplitPosix(line)
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", line, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("parsing command %q: %w", line, ErrEmptyCommand)
	}
	return words, nil
}

// ErrEmptyCommand is returned by SplitCommand for a blank command line.
var ErrEmptyCommand = errors.New("empty command")

// ExitCode extracts an exit code from an error, returning 0 for no error and
// 1 for an error that didn't come from a process exit.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if cause := new(ExitError); errors.As(err, &cause) {
		return cause.Code
	}

	if cause := new(exec.ExitError); errors.As(err, &cause) {
		return cause.ExitCode()
	}
	return 1
}

// IsExitError reports whether err is an [ExitError] or [exec.ExitError].
func IsExitError(err error) bool {
	if cause := new(ExitError); errors.As(err, &cause) {
		return true
	}
	if cause := new(exec.ExitError); errors.As(err, &cause) {
		return true
	}
	return false
}

// ExitError is an error that carries a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (ee *ExitError) Error() string { return ee.Err.Error() }

func (ee *ExitError) Unwrap() error { return ee.Err }

type byteCounter struct{ n int }

func (c *byteCounter) Write(p []byte) (int, error) {
	c.n += len(p)
	return len(p), nil
}

func round(d time.Duration) time.Duration {
	// Show roughly 5 significant digits.
	switch {
	case d < 100*time.Microsecond:
		return d
	case d < time.Millisecond:
		return d.Round(10 * time.Nanosecond)
	case d < 10*time.Millisecond:
		return d.Round(100 * time.Nanosecond)
	case d < 100*time.Millisecond:
		return d.Round(time.Microsecond)
	case d < time.Second:
		return d.Round(10 * time.Microsecond)
	case d < 10*time.Second:
		return d.Round(100 * time.Microsecond)
	case d < time.Minute:
		return d.Round(time.Millisecond)
	default:
		return d.Round(10 * time.Millisecond)
	}
}
