package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/gallery/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-b", "-w", "-rt", "-st", "-profile", "-l"}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g., ":8080")
//	-d string          PostgreSQL DSN, or "memory"
//	-s string          token HMAC secret key
//	-t duration        token validity (e.g., "24h")
//	-b int             bcrypt cost
//	-w int             concurrent password hashes
//	-rt duration       request timeout
//	-st duration       shutdown timeout
//	-profile string    development | production
//	-l string          log level
//
// os.Args is filtered with flagx.FilterArgs first so flags owned by other
// components (-c / -config) do not cause parse errors.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.TokenValidityDuration, "t", config.TokenValidityDuration, "token validity duration")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.HashConcurrency, "w", config.HashConcurrency, "concurrent password hashes")
	fs.DurationVar(&config.RequestTimeout, "rt", config.RequestTimeout, "request timeout")
	fs.DurationVar(&config.ShutdownTimeout, "st", config.ShutdownTimeout, "shutdown timeout")
	fs.StringVar(&config.Profile, "profile", config.Profile, "development or production")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
