package release

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoInput is returned when input ends before a valid version was entered.
var ErrNoInput = errors.New("no version entered")

// Prompter asks the operator for the next base version.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompter reads answers from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// NextBase prompts until a vX.Y.Z version is entered and returns it without
// the v.
func (p *Prompter) NextBase(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		fmt.Fprint(p.out, "Enter the next version (format: vX.X.X): ") //nolint:errcheck // prompt output

		if !p.scanner.Scan() {
			fmt.Fprintln(p.out) //nolint:errcheck // prompt output
			if err := p.scanner.Err(); err != nil {
				return "", fmt.Errorf("reading next version: %w", err)
			}
			return "", ErrNoInput
		}

		base, err := ParseBase(strings.TrimSpace(p.scanner.Text()))
		if err == nil {
			return base, nil
		}
		fmt.Fprintln(p.out, "Invalid format. Please use vX.X.X (e.g., v2.0.0)") //nolint:errcheck // prompt output
	}
}
