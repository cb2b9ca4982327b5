package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/credgate/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC bind address (e.g. ":50051")
//	-D string   database driver: pgx or sqlite
//	-d string   database DSN
//	-s string   JWT HMAC secret key
//	-t int      session lifetime, minutes
//	-m int      max identifier/secret length, bytes
//	-i          case-insensitive identifiers (use -i=false to disable)
//	-r string   Redis address for shared rate limiting
//	-L int      login attempts per window and client address
//	-l string   log level
//
// Only these flags are kept from args (see flagx.FilterArgs) so flags owned
// by other loaders, such as -c, do not cause a parse error.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-D", "-d", "-s", "-t", "-m", "-i", "-r", "-L", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDriver, "D", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "session lifetime (in minutes)")

	fs.IntVar(&config.MaxCredentialLength, "m", config.MaxCredentialLength, "max credential length (bytes)")
	fs.BoolVar(&config.CaseInsensitiveIdentifiers, "i", config.CaseInsensitiveIdentifiers, "case-insensitive identifiers")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "Redis address for rate limiting")
	fs.IntVar(&config.LoginRateLimit, "L", config.LoginRateLimit, "login attempts per window")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// only an explicit -t overrides, so sub-minute values from JSON or env survive
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*sessionMinutes) * time.Minute
		}
	})
	return nil
}
