package clicommand

import (
	"os"

	"github.com/urfave/cli"
)

// DeployToolsCommands are the subcommands of the combined binary.
var DeployToolsCommands = []cli.Command{
	InjectSecretsCommand,
	PreTagCommand,
}

// NewApp returns the app of the combined deploy-tools binary.
func NewApp(version string) *cli.App {
	app := cli.NewApp()
	app.Name = "deploy-tools"
	app.Usage = "Release and deployment helpers for the killfeed bot"
	app.Version = version
	app.Commands = DeployToolsCommands
	app.ErrWriter = os.Stderr
	return app
}

// NewStandaloneApp returns an app for a single-command binary such as
// inject-secrets. Run it with RunStandalone.
func NewStandaloneApp(cmd cli.Command, version string) *cli.App {
	app := cli.NewApp()
	app.Name = cmd.Name
	app.Usage = cmd.Usage
	app.Version = version
	app.HideHelp = true
	app.Commands = []cli.Command{cmd}
	app.ErrWriter = os.Stderr
	return app
}

// RunStandalone runs the only command of app with the process arguments, so
// `inject-secrets production` behaves like `deploy-tools inject-secrets
// production`.
func RunStandalone(app *cli.App, args []string) error {
	if len(args) == 0 {
		args = []string{app.Name}
	}
	rest := args[1:]

	// Keep --version working at the top level.
	if len(rest) == 1 && (rest[0] == "--version" || rest[0] == "-v") {
		cli.ShowVersion(cli.NewContext(app, nil, nil))
		return nil
	}

	return app.Run(append([]string{args[0], app.Commands[0].Name}, rest...))
}
