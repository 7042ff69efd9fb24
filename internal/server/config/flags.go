package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/marketauth/internal/flagx"
)

var knownFlags = []string{"-http", "-grpc", "-d", "-s", "-alg", "-t", "-r", "-cost", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-http string     HTTP bind address (e.g. ":8080"); empty disables HTTP
//	-grpc string     gRPC bind address (e.g. ":50051"); empty disables gRPC
//	-d string        PostgreSQL DSN
//	-s string        token signing secret
//	-alg string      signing algorithm (HS256, HS384, HS512)
//	-t duration      access token lifetime (e.g. 30m)
//	-r duration      refresh token lifetime (e.g. 72h)
//	-cost int        bcrypt cost
//	-l string        log level
//
// Arguments are first filtered with flagx.FilterArgs so -c/-env and flags
// meant for other components do not trip the parser.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "http", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "grpc", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.Algorithm, "alg", config.Algorithm, "token signing algorithm")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token lifetime")
	fs.DurationVar(&config.RefreshTokenValidityDuration, "r", config.RefreshTokenValidityDuration, "refresh token lifetime")
	fs.IntVar(&config.BcryptCost, "cost", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
