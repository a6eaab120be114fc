package clicommand

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError is used to signal that the command should exit with the exit code
// in `code`. It also wraps an error, which can be used to provide more context.
type ExitError struct {
	code  int
	inner error
}

// NewExitError returns ExitError with the given code and wrapped error.
func NewExitError(code int, err error) *ExitError {
	return &ExitError{code: code, inner: err}
}

// Code returns the exit code.
func (e *ExitError) Code() int {
	return e.code
}

// Error prints the message of the wrapped error. It ignores the exit code.
func (e *ExitError) Error() string {
	return e.inner.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.inner
}

// Is will return true if the target is an ExitError with the same code.
func (e *ExitError) Is(target error) bool {
	terr, ok := target.(*ExitError)
	return ok && e.code == terr.code
}

// SilentExitError instructs PrintMessageAndReturnExitCode to not print
// anything and just exit with status `code`.
type SilentExitError struct {
	code int
}

// NewSilentExitError returns SilentExitError with the given code.
func NewSilentExitError(code int) *SilentExitError {
	return &SilentExitError{code: code}
}

func (e *SilentExitError) Error() string {
	return fmt.Sprintf("silently exited status %d", e.code)
}

// Code returns the exit code.
func (e *SilentExitError) Code() int {
	return e.code
}

// exitInterrupted is the status of a command stopped by SIGINT or SIGTERM.
const exitInterrupted = 130

// commandError turns the error from a command's work into its exit status.
// Once ctx is cancelled by a signal the failure is only the echo of that
// signal, so nothing more is printed.
func commandError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return NewSilentExitError(exitInterrupted)
	}
	return NewExitError(1, err)
}

// PrintMessageAndReturnExitCode prints the error message to stderr, preceded
// by "<app>: fatal: ", and returns the exit code for the given error: the code
// carried by an ExitError or SilentExitError, 0 for nil and 1 otherwise.
// Nothing is printed for a SilentExitError.
func PrintMessageAndReturnExitCode(app string, err error) int {
	return printMessageAndReturnExitCode(os.Stderr, app, err)
}

func printMessageAndReturnExitCode(w io.Writer, app string, err error) int {
	if err == nil {
		return 0
	}

	if serr := new(SilentExitError); errors.As(err, &serr) {
		return serr.Code()
	}

	fmt.Fprintf(w, "%s: fatal: %s\n", app, err) //nolint:errcheck // nowhere left to report it

	if eerr := new(ExitError); errors.As(err, &eerr) {
		return eerr.Code()
	}

	return 1
}
