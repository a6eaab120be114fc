// inject-secrets writes an environment's secrets into its Helm values file.
//
//	inject-secrets [options...] <environment>
package main

import (
	"os"

	"github.com/killfeed/deploy-tools/clicommand"
	"github.com/killfeed/deploy-tools/version"
)

func main() {
	app := clicommand.NewStandaloneApp(clicommand.InjectSecretsCommand, version.FullVersion())
	os.Exit(clicommand.PrintMessageAndReturnExitCode(app.Name, clicommand.RunStandalone(app, os.Args)))
}
