// pre-tag bumps the release candidate version of the repository, commits it
// and creates the tag.
//
//	pre-tag [--dry-run]
package main

import (
	"os"

	"github.com/killfeed/deploy-tools/clicommand"
	"github.com/killfeed/deploy-tools/version"
)

func main() {
	app := clicommand.NewStandaloneApp(clicommand.PreTagCommand, version.FullVersion())
	os.Exit(clicommand.PrintMessageAndReturnExitCode(app.Name, clicommand.RunStandalone(app, os.Args)))
}
