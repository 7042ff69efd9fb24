package config

import (
	"errors"
	"io/fs"

	"github.com/dmitrijs2005/marketauth/internal/flagx"
	"github.com/dmitrijs2005/marketauth/internal/timex"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name, e.g. MARKETAUTH_SECRET_KEY.
// The unprefixed name (SECRET_KEY) is consulted when the prefixed one is unset.
const EnvPrefix = "MARKETAUTH"

const defaultEnvFile = ".env"

// envLifetimes carries the token lifetimes, which accept a bare integer in
// the environment: minutes for the access token, days for the refresh token.
type envLifetimes struct {
	Access  timex.Minutes `envconfig:"ACCESS_TOKEN_LIFETIME"`
	Refresh timex.Days    `envconfig:"REFRESH_TOKEN_LIFETIME"`
}

// parseEnv loads an optional dotenv file (-env, falling back to ./.env) into
// the process environment without overriding variables that are already set,
// then overlays every variable that is present onto config.
func parseEnv(config *Config, args []string) {
	envFile := flagx.EnvFileFlag(args)
	explicit := envFile != ""
	if !explicit {
		envFile = defaultEnvFile
	}

	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}

	lt := envLifetimes{
		Access:  timex.Minutes{Duration: config.AccessTokenValidityDuration},
		Refresh: timex.Days{Duration: config.RefreshTokenValidityDuration},
	}
	if err := envconfig.Process(EnvPrefix, &lt); err != nil {
		panic(err)
	}
	config.AccessTokenValidityDuration = lt.Access.Duration
	config.RefreshTokenValidityDuration = lt.Refresh.Duration
}
