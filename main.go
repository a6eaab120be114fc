// deploy-tools carries the release and deployment helpers of the killfeed
// bot as subcommands:
//
//	deploy-tools inject-secrets <environment>
//	deploy-tools pre-tag [--dry-run]
package main

import (
	"os"

	"github.com/killfeed/deploy-tools/clicommand"
	"github.com/killfeed/deploy-tools/version"
)

func main() {
	app := clicommand.NewApp(version.FullVersion())
	os.Exit(clicommand.PrintMessageAndReturnExitCode(app.Name, app.Run(os.Args)))
}
