package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/cryptogen-go/internal/cli/connection"
	"github.com/yndnr/cryptogen-go/internal/cli/output"
	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/internal/infra/tokenfmt"
	"github.com/yndnr/cryptogen-go/pkg/token"
)

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Aliases:   []string{"gen"},
		Usage:     "Generate tokens",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of tokens to generate",
				Value:   1,
			},
			&cli.IntFlag{
				Name:    "length",
				Aliases: []string{"l"},
				Usage:   "Token length in bytes (overrides pool.token_byte_length)",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Fill source: system, chacha20 (overrides pool.source)",
			},
			&cli.StringFlag{
				Name:    "encoding",
				Aliases: []string{"e"},
				Usage:   "Token text encoding: hex, base64, base64url, base32",
				Value:   string(tokenfmt.Default),
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print one encoded token per line, ignoring --output",
			},
		},
		Action: getTokens,
	}
}

// tokenRow is one generated token in table output.
type tokenRow struct {
	Index       int    `json:"index" yaml:"index"`
	Token       string `json:"token" yaml:"token"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint" table:"wide"`
}

// getResult is the json/yaml shape of the get command.
type getResult struct {
	Tokens     []string `json:"tokens" yaml:"tokens"`
	Encoding   string   `json:"encoding" yaml:"encoding"`
	DurationMS float64  `json:"duration_ms" yaml:"duration_ms"`
}

func getTokens(c *cli.Context) error {
	count := c.Int("count")
	enc, err := tokenfmt.Parse(c.String("encoding"))
	if err != nil {
		return err
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}
	if client != nil {
		return getRemoteTokens(c, client, count, enc)
	}

	extra := map[string]any{}
	if c.IsSet("length") {
		extra["pool.token_byte_length"] = c.Int("length")
	}
	if c.IsSet("source") {
		extra["pool.source"] = c.String("source")
	}
	cfg, err := loadConfig(c, extra)
	if err != nil {
		return err
	}
	log, err := setupLogger(c, cfg)
	if err != nil {
		return err
	}

	sess, err := newSession(c.Context, cfg, log, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	tokens, took, err := sess.Get(c.Context, count)
	if err != nil {
		return err
	}
	log.Debug("tokens generated", "count", len(tokens), "took", took)

	fingerprints := make([]string, len(tokens))
	for i, t := range tokens {
		fingerprints[i] = token.Fingerprint(t)
	}
	return printTokens(c, enc, enc.EncodeAll(tokens), fingerprints, float64(took.Microseconds())/1000)
}

// getRemoteTokens draws tokens from a running server. Pool settings
// belong to the server there, so --length and --source are rejected.
func getRemoteTokens(c *cli.Context, client *connection.Client, count int, enc tokenfmt.Encoding) error {
	if c.IsSet("length") || c.IsSet("source") {
		return domain.InvalidArgument("--length and --source cannot be used with --server")
	}

	wide := ParseGlobalFlags(c).Wide
	resp, err := client.Tokens(c.Context, count, string(enc), wide)
	if err != nil {
		return err
	}
	return printTokens(c, enc, resp.Tokens, resp.Fingerprints, resp.DurationMS)
}

// printTokens writes encoded tokens in the selected output format.
func printTokens(c *cli.Context, enc tokenfmt.Encoding, encoded, fingerprints []string, durationMS float64) error {
	if c.Bool("raw") {
		for _, s := range encoded {
			fmt.Fprintln(c.App.Writer, s)
		}
		return nil
	}

	if ParseGlobalFlags(c).Output == output.FormatTable {
		rows := make([]tokenRow, len(encoded))
		for i, s := range encoded {
			rows[i] = tokenRow{Index: i, Token: s}
			if i < len(fingerprints) {
				rows[i].Fingerprint = fingerprints[i]
			}
		}
		return printResult(c, rows)
	}
	return printResult(c, getResult{
		Tokens:     encoded,
		Encoding:   string(enc),
		DurationMS: durationMS,
	})
}
