package command

import (
	"crypto/tls"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/cryptogen-go/internal/cli/connection"
	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/internal/infra/tlsroots"
)

// newClient returns an API client for --server, or nil when no server
// is given.
func newClient(c *cli.Context) (*connection.Client, error) {
	flags := ParseGlobalFlags(c)
	if flags.Server == "" {
		if flags.TLSCA != "" {
			return nil, domain.InvalidArgument("--tls-ca requires --server")
		}
		return nil, nil
	}

	var opts []connection.Option
	if flags.TLSCA != "" {
		roots, err := tlsroots.LoadPool(flags.TLSCA)
		if err != nil {
			return nil, err
		}
		opts = append(opts, connection.WithTLSConfig(&tls.Config{
			RootCAs:    roots.CertPool(),
			MinVersion: tls.VersionTLS12,
		}))
	}
	return connection.NewClient(flags.Server, opts...), nil
}
