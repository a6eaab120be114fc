// Package helmvalues reads and writes Helm values files, and merges secrets
// into the secrets.app.data block the chart mounts into the bot's pod.
package helmvalues

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/killfeed/deploy-tools/internal/atomicfile"
	"github.com/killfeed/deploy-tools/internal/ordered"
	"github.com/killfeed/deploy-tools/internal/secrets"
	"gopkg.in/yaml.v3"
)

// ErrBaseValuesNotFound is returned by Load when the file doesn't exist.
var ErrBaseValuesNotFound = errors.New("base values file not found")

// SecretsPath is where MergeSecrets puts secrets.
var SecretsPath = []string{"secrets", "app", "data"}

// Values is a decoded values document. Keys keep their file order.
type Values = ordered.MapSA

// Load reads and decodes the YAML document at path. A document whose top
// level isn't a mapping (empty, a list, a scalar) loads as an empty map.
func Load(path string) (*Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBaseValuesNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a values document from data, like Load.
func Parse(data []byte) (*Values, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	v, err := ordered.DecodeYAML(&doc)
	if err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}

	values, ok := v.(*Values)
	if !ok {
		return ordered.NewMap[string, any](0), nil
	}
	return values, nil
}

// MergeSecrets sets every secret under secrets.app.data, creating the path if
// it is missing or null. Keys already there keep their position; new keys
// are appended in the secrets' order. It fails without changing anything
// below the offending segment if part of the path holds a non-mapping value.
func MergeSecrets(values *Values, set *secrets.Set) error {
	data, err := ordered.EnsureMap(values, SecretsPath...)
	if err != nil {
		return fmt.Errorf("merging secrets: %w", err)
	}
	return set.Range(func(k, v string) error {
		data.Set(k, v)
		return nil
	})
}

// Marshal encodes values as YAML with 2-space indentation. Strings spanning
// several lines are written as literal blocks.
func Marshal(values *Values) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(values); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes values to path, replacing any existing file. It returns the
// number of bytes written.
func Save(values *Values, path string) (int, error) {
	data, err := Marshal(values)
	if err != nil {
		return 0, err
	}
	if err := atomicfile.WriteFile(path, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return len(data), nil
}
