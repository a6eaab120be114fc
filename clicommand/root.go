package clicommand

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveRoot returns the repository root the tools work in. An explicit root
// wins. Otherwise the tools expect to be installed one directory below the
// root (as in <root>/script/pre-tag), so the executable's grandparent is used
// when it holds marker. Failing that, the working directory is the root.
func ResolveRoot(root, marker string) (string, error) {
	if root != "" {
		return root, nil
	}

	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		candidate := filepath.Dir(filepath.Dir(exe))
		if _, err := os.Stat(filepath.Join(candidate, marker)); err == nil {
			return candidate, nil
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("finding current working directory: %w", err)
	}
	return wd, nil
}

// resolvePath joins p onto root unless it is already absolute.
func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
