package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// File is a dotenv-style config file. Keys are written like the flags'
// environment variables, with or without the prefix, and map onto flag
// names:
//
//	DEPLOY_TOOLS_HELM_DIR=deploy/helm
//	build_check_command="cargo check --locked"
type File struct {
	// The path to the file
	Path string

	// A map of key/values that was loaded from the file
	Config map[string]string
}

func (f *File) Load() error {
	absolutePath, err := f.AbsolutePath()
	if err != nil {
		return fmt.Errorf("getting absolute path for %s: %w", f.Path, err)
	}

	config, err := godotenv.Read(absolutePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.Path, err)
	}

	f.Config = make(map[string]string, len(config))
	for k, v := range config {
		f.Config[FlagName(k)] = v
	}
	return nil
}

// EnvPrefix starts the environment variable of every flag.
const EnvPrefix = "DEPLOY_TOOLS_"

// FlagName turns a config file key such as DEPLOY_TOOLS_HELM_DIR into the
// flag name helm-dir.
func FlagName(key string) string {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}

// EnvVar returns the environment variable bound to a flag, such as
// DEPLOY_TOOLS_HELM_DIR for helm-dir.
func EnvVar(flagName string) string {
	return EnvPrefix + strings.ReplaceAll(strings.ToUpper(flagName), "-", "_")
}

func (f File) AbsolutePath() (string, error) {
	return NormalizeFilePath(f.Path)
}

func (f File) Exists() bool {
	absolutePath, err := f.AbsolutePath()
	if err != nil {
		return false
	}
	info, err := os.Stat(absolutePath)
	return err == nil && !info.IsDir()
}

// NormalizeFilePath expands a leading ~ and makes path absolute. An empty
// path stays empty.
func NormalizeFilePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %q: %w", path, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	return filepath.Abs(path)
}
