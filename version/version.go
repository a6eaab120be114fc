// Package version provides the deploy tools version strings.
package version

import (
	_ "embed"
	"runtime"
	"strings"
)

// buildVersion can be set at compile time:
//
//	go build -ldflags "-X github.com/killfeed/deploy-tools/version.buildVersion=abc" ./cmd/pre-tag
//
// CI builds always set it.

//go:embed VERSION
var baseVersion string
var buildVersion string

func Version() string {
	return strings.TrimSpace(baseVersion)
}

func BuildVersion() string {
	if buildVersion == "" {
		return "x"
	}
	return buildVersion
}

// FullVersion is the version shown by --version.
func FullVersion() string {
	return Version() + "+" + BuildVersion() + " (" + runtime.GOOS + "; " + runtime.GOARCH + ")"
}
