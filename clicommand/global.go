package clicommand

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/killfeed/deploy-tools/cliconfig"
	"github.com/killfeed/deploy-tools/internal/shell"
	"github.com/killfeed/deploy-tools/logger"
	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

// DefaultConfigFilePaths are checked, in order, when --config isn't given.
func DefaultConfigFilePaths() []string {
	return []string{".deploy-tools.env"}
}

type GlobalConfig struct {
	Config    string `cli:"config"`
	Debug     bool   `cli:"debug"`
	LogLevel  string `cli:"log-level"`
	LogFormat string `cli:"log-format"`
	NoColor   bool   `cli:"no-color"`
}

var ConfigFlag = cli.StringFlag{
	Name:   "config",
	Usage:  "Path to a config file of KEY=value lines, one per flag",
	EnvVar: cliconfig.EnvVar("config"),
}

var DebugFlag = cli.BoolFlag{
	Name:   "debug",
	Usage:  "Enable debug mode. Also echoes captured commands and their output",
	EnvVar: cliconfig.EnvVar("debug"),
}

var LogLevelFlag = cli.StringFlag{
	Name:   "log-level",
	Value:  "notice",
	Usage:  "Set the log level, one of: debug, notice, info, warn, error, fatal",
	EnvVar: cliconfig.EnvVar("log-level"),
}

var LogFormatFlag = cli.StringFlag{
	Name:   "log-format",
	Value:  "text",
	Usage:  "The format to use for log output, either text or json",
	EnvVar: cliconfig.EnvVar("log-format"),
}

var NoColorFlag = cli.BoolFlag{
	Name:   "no-color",
	Usage:  "Don't show colors in logging",
	EnvVar: cliconfig.EnvVar("no-color") + ",NO_COLOR",
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		DebugFlag,
		LogLevelFlag,
		LogFormatFlag,
		NoColorFlag,
	}
}

// CreateLogger builds the logger described by the global options of cfg,
// writing to w.
func CreateLogger(cfg any, w io.Writer) (logger.Logger, error) {
	var printer logger.Printer

	format, _ := reflections.GetField(cfg, "LogFormat")
	switch format {
	case "", "text":
		tp := logger.NewTextPrinter(w)
		if noColor, err := reflections.GetField(cfg, "NoColor"); err == nil && noColor == true {
			tp.Colors = false
		}
		printer = tp

	case "json":
		printer = logger.NewJSONPrinter(w)

	default:
		return nil, fmt.Errorf("invalid log format %q, must be text or json", format)
	}

	l := logger.NewConsoleLogger(printer, os.Exit)

	if level, err := reflections.GetField(cfg, "LogLevel"); err == nil && level != "" {
		parsed, err := logger.LevelFromString(fmt.Sprint(level))
		if err != nil {
			return nil, err
		}
		l.SetLevel(parsed)
	}

	if debug, err := reflections.GetField(cfg, "Debug"); err == nil && debug == true {
		l.SetLevel(logger.DEBUG)
	}

	return l, nil
}

// setupLoggerAndConfig loads the config of a command and creates its logger.
// Config file warnings are logged. The returned context is cancelled on
// interrupt once done is called.
func setupLoggerAndConfig[T any](ctx context.Context, c *cli.Context) (context.Context, *T, logger.Logger, func(), error) {
	cfg := new(T)
	noop := func() {}

	loader := cliconfig.Loader{
		CLI:                    c,
		Config:                 cfg,
		DefaultConfigFilePaths: DefaultConfigFilePaths(),
	}
	warnings, err := loader.Load()
	if err != nil {
		return ctx, nil, nil, noop, NewExitError(1, err)
	}

	l, err := CreateLogger(cfg, errWriter(c))
	if err != nil {
		return ctx, nil, nil, noop, NewExitError(1, err)
	}

	// Now that we have a logger, log out the warnings that loading config
	// generated.
	for _, warning := range warnings {
		l.Warn("%s", warning)
	}
	if loader.File != nil {
		l.Debug("Loaded config file %s", loader.File.Path)
	}

	ctx, done := signalContext(ctx)
	return ctx, cfg, l, done, nil
}

// newShell returns a shell that runs commands in wd, printing their output to
// the app's writer and the command prompts to its error writer.
func newShell(c *cli.Context, cfg any, wd string) (*shell.Shell, error) {
	noColor, _ := reflections.GetField(cfg, "NoColor")
	debug, _ := reflections.GetField(cfg, "Debug")

	ew := errWriter(c)
	return shell.New(
		shell.WithWD(wd),
		shell.WithStdout(c.App.Writer),
		shell.WithLogger(shell.NewWriterLogger(ew, noColor != true && logger.ColorsSupported(ew))),
		shell.WithDebug(debug == true),
	)
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// usageError is returned when a command gets the wrong positional arguments.
func usageError(c *cli.Context, usage string) error {
	name := c.App.Name
	if c.Command.Name != "" && c.Command.Name != name {
		name += " " + c.Command.Name
	}
	return NewExitError(1, fmt.Errorf("usage: %s %s", name, strings.TrimSpace(usage)))
}
