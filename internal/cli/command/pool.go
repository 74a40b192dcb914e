package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/cryptogen-go/internal/cli/connection"
	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/internal/server/httpserver/handler"
)

// PoolCommand returns the pool subcommand group. It always talks to a
// server: a local pool does not outlive the command.
func PoolCommand() *cli.Command {
	return &cli.Command{
		Name:  "pool",
		Usage: "Inspect or change the pool of a running server (requires --server)",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the pool settings",
				Action: poolShow,
			},
			{
				Name:  "set",
				Usage: "Change the pool settings",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-size",
						Usage: "Refill ceiling (0 disables pooling)",
					},
					&cli.IntFlag{
						Name:  "token-byte-length",
						Usage: "Token length in bytes",
					},
				},
				Action: poolSet,
			},
		},
	}
}

// poolView is the printed form of the pool settings.
type poolView struct {
	Server          string `json:"server" yaml:"server"`
	MaxSize         int    `json:"max_size" yaml:"max_size"`
	TokenByteLength int    `json:"token_byte_length" yaml:"token_byte_length"`
}

func poolShow(c *cli.Context) error {
	client, err := requireClient(c)
	if err != nil {
		return err
	}
	settings, err := client.Pool(c.Context)
	if err != nil {
		return err
	}
	return printResult(c, poolView{
		Server:          client.BaseURL(),
		MaxSize:         settings.MaxSize,
		TokenByteLength: settings.TokenByteLength,
	})
}

func poolSet(c *cli.Context) error {
	var req handler.ConfigurePoolRequest
	if c.IsSet("max-size") {
		n := c.Int("max-size")
		req.MaxSize = &n
	}
	if c.IsSet("token-byte-length") {
		n := c.Int("token-byte-length")
		req.TokenByteLength = &n
	}
	if req.MaxSize == nil && req.TokenByteLength == nil {
		return domain.InvalidArgument("nothing to change: pass --max-size or --token-byte-length")
	}

	client, err := requireClient(c)
	if err != nil {
		return err
	}
	settings, err := client.ConfigurePool(c.Context, req)
	if err != nil {
		return err
	}
	return printResult(c, poolView{
		Server:          client.BaseURL(),
		MaxSize:         settings.MaxSize,
		TokenByteLength: settings.TokenByteLength,
	})
}

func requireClient(c *cli.Context) (*connection.Client, error) {
	client, err := newClient(c)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.InvalidArgument("--server is required")
	}
	return client, nil
}
