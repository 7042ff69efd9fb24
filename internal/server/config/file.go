package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/marketauth/internal/flagx"
	"github.com/dmitrijs2005/marketauth/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Lifetimes use
// timex.Duration so both "30m" and integer nanoseconds are accepted.
type FileConfig struct {
	HTTPAddr                     string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr                     string         `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN                  string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    string         `json:"secret_key" yaml:"secret_key"`
	Algorithm                    string         `json:"algorithm" yaml:"algorithm"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_lifetime" yaml:"access_token_lifetime"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_lifetime" yaml:"refresh_token_lifetime"`
	BcryptCost                   int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	LogLevel                     string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays values from the file named by -c/-config. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON. Only fields
// present (non-zero) in the file are applied.
func parseFile(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Algorithm, c.Algorithm)
	setString(&config.LogLevel, c.LogLevel)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
