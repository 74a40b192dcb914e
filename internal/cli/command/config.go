package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/cryptogen-go/internal/cli/output"
	"github.com/yndnr/cryptogen-go/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration (defaults < file < env < flags)",
				Action: configShow,
			},
			{
				Name:      "validate",
				Usage:     "Validate a configuration file",
				ArgsUsage: "[FILE]",
				Action:    configValidate,
			},
			{
				Name:   "default",
				Usage:  "Print the default configuration as YAML",
				Action: configDefault,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, err := loadConfig(c, nil)
	if err != nil {
		return err
	}
	return printConfig(c, cfg, ParseGlobalFlags(c).Output)
}

func configValidate(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = c.String("config")
	}
	if path == "" {
		return fmt.Errorf("no configuration file given (pass FILE or --config)")
	}

	if _, err := config.Load(path, nil); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(c.App.Writer, "%s: configuration is valid\n", path)
	return nil
}

func configDefault(c *cli.Context) error {
	return printConfig(c, config.Default(), output.FormatYAML)
}

// printConfig renders cfg. Structured formats spell durations the way
// the loader parses them ("5s"), not as nanoseconds.
func printConfig(c *cli.Context, cfg *config.Config, format output.Format) error {
	if format == output.FormatTable {
		return output.NewFormatter(format, true).Format(c.App.Writer, cfg)
	}
	return output.Print(c.App.Writer, format, configView(cfg))
}

func configView(cfg *config.Config) map[string]any {
	return map[string]any{
		"pool": cfg.Pool,
		"session": map[string]any{
			"id_start":      cfg.Session.IDStart,
			"max_in_flight": cfg.Session.MaxInFlight,
			"rate_limit":    cfg.Session.RateLimit,
			"burst":         cfg.Session.Burst,
			"init_timeout":  cfg.Session.InitTimeout.String(),
		},
		"log": cfg.Log,
		"server": map[string]any{
			"addr":               cfg.Server.Addr,
			"shutdown_timeout":   cfg.Server.ShutdownTimeout.String(),
			"tls_cert_file":      cfg.Server.TLSCertFile,
			"tls_key_file":       cfg.Server.TLSKeyFile,
			"tls_client_ca_file": cfg.Server.TLSClientCAFile,
		},
		"metrics": cfg.Metrics,
	}
}
