// Package git wraps the handful of git commands the release tagger needs.
package git

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	ErrorDescribe = iota
	ErrorCommit
	ErrorTag
)

var (
	// ErrNoTags is returned by LatestTag when the repository has no tags to
	// describe.
	ErrNoTags = errors.New("no tags found")

	// ErrInvalidRef is returned when a tag name would not be accepted by git.
	ErrInvalidRef = errors.New("is not a valid git ref format")
)

// Error is a failed git command, tagged with the operation that failed.
type Error struct {
	error
	Type int
}

func (e *Error) Unwrap() error {
	return e.error
}

// Runner runs external commands. *shell.Shell satisfies it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	RunAndCaptureStdout(ctx context.Context, name string, args ...string) (string, error)
}

// LatestTag returns the most recent tag reachable from HEAD.
func LatestTag(ctx context.Context, sh Runner) (string, error) {
	tag, err := sh.RunAndCaptureStdout(ctx, "git", "describe", "--tags", "--abbrev=0")
	if err != nil {
		if strings.Contains(err.Error(), "No names found") || strings.Contains(err.Error(), "No tags can describe") {
			err = fmt.Errorf("%w: %w", ErrNoTags, err)
		}
		return "", &Error{error: fmt.Errorf("getting latest tag: %w", err), Type: ErrorDescribe}
	}
	if tag == "" {
		return "", &Error{error: fmt.Errorf("getting latest tag: %w", ErrNoTags), Type: ErrorDescribe}
	}
	return tag, nil
}

// CommitAll commits every modified tracked file with message.
func CommitAll(ctx context.Context, sh Runner, message string) error {
	if err := sh.Run(ctx, "git", "commit", "-am", message); err != nil {
		return &Error{error: fmt.Errorf("committing: %w", err), Type: ErrorCommit}
	}
	return nil
}

// Tag creates a lightweight tag at HEAD.
func Tag(ctx context.Context, sh Runner, tag string) error {
	if !CheckRefFormat(tag) {
		return fmt.Errorf("%q %w", tag, ErrInvalidRef)
	}
	if err := sh.Run(ctx, "git", "tag", tag); err != nil {
		return &Error{error: fmt.Errorf("creating tag %s: %w", tag, err), Type: ErrorTag}
	}
	return nil
}

// CheckRefFormat reports whether ref is a name git would accept, following
// the rules of git check-ref-format. Single-level names are allowed.
func CheckRefFormat(ref string) bool {
	return ref != "" && !checkRefFormatDenyRegexp.MatchString(ref) && !strings.HasSuffix(ref, ".lock")
}

// https://git-scm.com/docs/git-check-ref-format
var checkRefFormatDenyRegexp = regexp.MustCompile(strings.Join([]string{
	`\.\.`,        // cannot have two consecutive dots .. anywhere
	`[[:cntrl:]]`, // cannot have ASCII control characters
	`[ ~^:?*\[]`,  // cannot have space, tilde, caret, colon, or glob characters
	`\.$`,         // cannot end with a dot .
	`^@$`,         // cannot be the single character @
	`@\{`,         // cannot contain a sequence @{
	`\\`,          // cannot contain a \
	`^-`,          // cannot begin with a dash
	`(^|/)\.`,     // no slash-separated component can begin with a dot
	`//|^/|/$`,    // no empty components
}, "|"))
