package config

import (
	"flag"
	"fmt"

	"github.com/dmitrijs2005/peoplebook/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-d string     PostgreSQL DSN
//	-s string     token signing key
//	-t duration   token validity (e.g. "168h")
//	-k int        bcrypt cost
//	-o string     CORS allowed origin
//	-b list       comma-separated auth bypass paths
//	-l string     log level
//
// Only these flags are considered, so -c/-config and flags owned by other
// packages do not make parsing fail.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-k", "-o", "-b", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.TokenValidityDuration, "t", config.TokenValidityDuration, "token validity duration")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.AllowedOrigin, "o", config.AllowedOrigin, "CORS allowed origin")

	bypass := flagx.StringList(config.BypassPaths)
	fs.Var(&bypass, "b", "comma-separated paths served without authentication")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	config.BypassPaths = bypass
	return nil
}
