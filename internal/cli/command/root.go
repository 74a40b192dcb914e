package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/cryptogen-go/internal/cli/output"
	"github.com/yndnr/cryptogen-go/internal/config"
	"github.com/yndnr/cryptogen-go/internal/infra/buildinfo"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
)

// Metadata keys shared between commands.
const (
	metaConfig = "config"
	metaLogger = "logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "cryptogen",
		Usage:   "Generate cryptographically secure tokens without blocking the caller",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			BenchCommand(),
			RunCommand(),
			PoolCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			if _, err := output.ParseFormat(c.String("output")); err != nil {
				return err
			}
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			EnvVars: []string{"CRYPTOGEN_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Address of a running \"cryptogen run\" to use instead of a local session",
			EnvVars: []string{"CRYPTOGEN_SERVER"},
		},
		&cli.StringFlag{
			Name:    "tls-ca",
			Usage:   "PEM file of CAs trusted for an https --server",
			EnvVars: []string{"CRYPTOGEN_TLS_CA"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error (overrides log.level)",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text (overrides log.format)",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config    string
	Output    output.Format
	Wide      bool
	Server    string
	TLSCA     string
	LogLevel  string
	LogFormat string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		format = output.FormatTable
	}
	return &GlobalFlags{
		Config:    c.String("config"),
		Output:    format,
		Wide:      c.Bool("wide"),
		Server:    c.String("server"),
		TLSCA:     c.String("tls-ca"),
		LogLevel:  c.String("log-level"),
		LogFormat: c.String("log-format"),
	}
}

// overrides returns the configuration keys set by global flags.
func (f *GlobalFlags) overrides() map[string]any {
	m := map[string]any{}
	if f.LogLevel != "" {
		m["log.level"] = f.LogLevel
	}
	if f.LogFormat != "" {
		m["log.format"] = f.LogFormat
	}
	return m
}

// loadConfig builds the effective configuration once per invocation.
// extra holds command-specific overrides keyed by "section.key".
func loadConfig(c *cli.Context, extra map[string]any) (*config.Config, error) {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok && len(extra) == 0 {
		return cfg, nil
	}

	flags := ParseGlobalFlags(c)
	overrides := flags.overrides()
	for k, v := range extra {
		overrides[k] = v
	}

	cfg, err := config.Load(flags.Config, overrides)
	if err != nil {
		return nil, err
	}
	c.App.Metadata[metaConfig] = cfg
	return cfg, nil
}

// setupLogger builds the process logger from cfg. Logs go to the app's
// error writer so that command output stays machine-readable.
func setupLogger(c *cli.Context, cfg *config.Config) (logger.Logger, error) {
	if l, ok := c.App.Metadata[metaLogger].(logger.Logger); ok {
		return l, nil
	}

	var w io.Writer = c.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	l, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: w,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(l)
	c.App.Metadata[metaLogger] = l
	return l, nil
}

// printResult formats data to the app's writer using the --output format.
func printResult(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	return output.NewFormatter(flags.Output, flags.Wide).Format(c.App.Writer, data)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
