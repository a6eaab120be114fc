package release

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/killfeed/deploy-tools/internal/atomicfile"
)

// ErrNoVersionLine is returned when a manifest has no version = "..." line.
var ErrNoVersionLine = errors.New("could not find version line")

var versionLinePrefix = []byte(`version = "`)

// ReplaceVersionLine replaces the version on the first line that starts with
// version = "<something>". Everything else, including the rest of that line
// and the line endings, is kept byte for byte.
func ReplaceVersionLine(content []byte, version string) ([]byte, error) {
	for start := 0; start < len(content); {
		end := bytes.IndexByte(content[start:], '\n')
		if end < 0 {
			end = len(content)
		} else {
			end += start
		}
		line := content[start:end]

		if rest, ok := bytes.CutPrefix(line, versionLinePrefix); ok {
			// The old version must be non-empty and closed on this line.
			if closing := bytes.IndexByte(rest, '"'); closing > 0 {
				out := make([]byte, 0, len(content)+len(version))
				out = append(out, content[:start]...)
				out = append(out, versionLinePrefix...)
				out = append(out, version...)
				out = append(out, rest[closing:]...)
				out = append(out, content[end:]...)
				return out, nil
			}
		}

		start = end + 1
	}
	return nil, ErrNoVersionLine
}

// UpdateManifestVersion rewrites the version line of the manifest at path.
// The file is left untouched if it has no version line.
func UpdateManifestVersion(path, version string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}

	updated, err := ReplaceVersionLine(content, version)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := atomicfile.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
