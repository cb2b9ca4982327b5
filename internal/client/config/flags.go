package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/credgate/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Only -e and -T are kept from args (see flagx.FilterArgs), so the server
// flags credctl also accepts do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-e", "-T"})

	fs := flag.NewFlagSet("credctl", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "e", cfg.ServerEndpointAddr, "address and port of the gRPC endpoint")
	timeout := fs.Int("T", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "T" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
